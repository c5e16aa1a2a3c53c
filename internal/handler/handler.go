// Package handler exposes the document-to-exam pipeline over HTTP.
// The transport is deliberately thin: it decodes requests, runs the
// pipeline, and maps classified errors to statuses.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lecturelab/examgen/internal/extract"
	"github.com/lecturelab/examgen/internal/grade"
	"github.com/lecturelab/examgen/internal/i18n"
	"github.com/lecturelab/examgen/internal/mathsolve"
	"github.com/lecturelab/examgen/internal/model"
	"github.com/lecturelab/examgen/internal/store"
)

// maxUploadBytes bounds the accepted document size.
const maxUploadBytes = 32 << 20

// Generator produces a validated exam set from extracted lecture text.
type Generator interface {
	GenerateExam(ctx context.Context, documentID, text string) (model.ExamSet, error)
}

// Converter normalizes a legacy slide deck into the modern format.
type Converter interface {
	Convert(ctx context.Context, data []byte) ([]byte, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	exams     store.ExamStore
	answers   store.AnswerStore
	generator Generator
	converter Converter
}

// New creates a new Handler.
func New(exams store.ExamStore, answers store.AnswerStore, g Generator, c Converter) *Handler {
	return &Handler{exams: exams, answers: answers, generator: g, converter: c}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.handleWelcome)
	r.Post("/upload", h.handleUpload)
	r.Post("/submit-answers", h.handleSubmitAnswers)
	r.Get("/results/{filename}", h.handleResults)
	r.Post("/solve-expression", h.handleSolveExpression)
}

func (h *Handler) handleWelcome(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"message": i18n.T(r.Context(), "Welcome"),
	})
}

type uploadResponse struct {
	Filename  string           `json:"filename"`
	Questions []model.Question `json:"questions"`
	Message   string           `json:"message"`
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, model.E(model.KindInvalidSubmission, "request must carry a 'file' form field", err))
		return
	}
	defer file.Close()

	filename := header.Filename
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	format, ok := model.ParseFormat(ext)
	if !ok {
		respondError(w, model.Errf(model.KindExtraction,
			"unsupported file type %q: supported extensions are pdf, ppt, pptx, docx", ext))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, model.E(model.KindInvalidSubmission, "read upload", err))
		return
	}

	if format == model.FormatLegacySlide {
		converted, err := h.converter.Convert(r.Context(), data)
		if err != nil {
			respondError(w, err)
			return
		}
		data = converted
		format = model.FormatModernSlide
	}

	text, err := extract.Extract(data, format)
	if err != nil {
		respondError(w, err)
		return
	}

	set, err := h.generator.GenerateExam(r.Context(), filename, text)
	if err != nil {
		respondError(w, err)
		return
	}

	h.exams.PutExam(filename, set)
	slog.Info("exam generated", "document", filename, "questions", len(set.Questions))

	respondJSON(w, http.StatusOK, uploadResponse{
		Filename:  filename,
		Questions: set.Questions,
		Message:   i18n.T(r.Context(), "FileProcessed"),
	})
}

type submitRequest struct {
	Filename string                 `json:"filename"`
	Answers  model.AnswerSubmission `json:"answers"`
}

func (h *Handler) handleSubmitAnswers(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, model.E(model.KindInvalidSubmission, "invalid answer format, use JSON", err))
		return
	}
	if req.Filename == "" {
		respondError(w, model.Errf(model.KindInvalidSubmission, "filename is required"))
		return
	}
	if req.Answers == nil {
		req.Answers = model.AnswerSubmission{}
	}

	h.answers.PutAnswers(req.Filename, req.Answers)
	slog.Info("answers submitted", "document", req.Filename, "count", len(req.Answers))

	respondJSON(w, http.StatusOK, map[string]string{
		"message": i18n.T(r.Context(), "AnswersSubmitted"),
	})
}

// handleResults grades on demand. Missing exams or answers degrade to an
// empty report instead of erroring.
func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	set, _ := h.exams.GetExam(filename)
	sub, _ := h.answers.GetAnswers(filename)

	result := grade.Grade(set, sub)
	result.Suggestions = []string{}
	if result.Total > 0 {
		result.Suggestions = grade.Suggest(r.Context(), result.Score)
	}

	respondJSON(w, http.StatusOK, result)
}

type solveRequest struct {
	Expression string `json:"expression"`
}

func (h *Handler) handleSolveExpression(w http.ResponseWriter, r *http.Request) {
	var req solveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, model.E(model.KindInvalidSubmission, "invalid request format, use JSON", err))
		return
	}

	sol, err := mathsolve.Solve(req.Expression)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sol)
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// respondError maps a classified error to its HTTP status; unclassified
// errors become plain 500s. Nothing is swallowed: every failure is
// logged and surfaced with its detail.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	kindName := "internal"
	var appErr *model.Error
	if errors.As(err, &appErr) {
		status = appErr.Kind.HTTPStatus()
		kindName = appErr.Kind.String()
	}
	slog.Error("request failed", "kind", kindName, "status", status, "error", err)
	respondJSON(w, status, errorResponse{Error: kindName, Detail: err.Error()})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
