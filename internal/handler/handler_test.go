package handler

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/lecturelab/examgen/internal/i18n"
	"github.com/lecturelab/examgen/internal/llm"
	"github.com/lecturelab/examgen/internal/model"
	"github.com/lecturelab/examgen/internal/store"
)

// stubGenerator feeds a canned raw reply through the real response
// validator, so end-to-end tests exercise the same validation path as
// production.
type stubGenerator struct {
	raw string
	err error
}

func (g *stubGenerator) GenerateExam(_ context.Context, documentID, _ string) (model.ExamSet, error) {
	if g.err != nil {
		return model.ExamSet{}, g.err
	}
	return llm.ValidateReply(documentID, []byte(g.raw))
}

type stubConverter struct{}

func (stubConverter) Convert(_ context.Context, data []byte) ([]byte, error) {
	return data, nil
}

func newTestRouter(t *testing.T, gen Generator) http.Handler {
	t.Helper()
	if err := i18n.Init("en"); err != nil {
		t.Fatalf("i18n.Init: %v", err)
	}

	st := store.NewMemoryStore()
	h := New(st, st, gen, stubConverter{})

	r := chi.NewRouter()
	r.Use(i18n.Middleware("en"))
	h.Routes(r)
	return r
}

// buildDocx produces a minimal OOXML word document with the given text.
func buildDocx(t *testing.T, text string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	doc := `<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:body><w:p><w:r><w:t>` + text + `</w:t></w:r></w:p></w:body></w:document>`
	if _, err := w.Write([]byte(doc)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

const goodReply = `{
	"multiple_choice": [
		{"id": 1, "question": "2+2?", "options": ["3", "4", "5", "6"], "answer": "4"}
	],
	"fill_in": [],
	"short_answer": []
}`

func TestUploadSubmitResults(t *testing.T) {
	router := newTestRouter(t, &stubGenerator{raw: goodReply})

	// Upload a document; generation is injected.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "lecture.docx", buildDocx(t, "The sum of two and two is four.")))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body: %s", rec.Code, rec.Body.String())
	}

	var up uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &up); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if up.Filename != "lecture.docx" || len(up.Questions) != 1 {
		t.Fatalf("unexpected upload response: %+v", up)
	}

	// Submit answers keyed by prompt text.
	rec = doJSON(t, router, http.MethodPost, "/submit-answers",
		`{"filename": "lecture.docx", "answers": {"2+2?": "4"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit status = %d, body: %s", rec.Code, rec.Body.String())
	}

	// Fetch the graded report.
	rec = doJSON(t, router, http.MethodGet, "/results/lecture.docx", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("results status = %d, body: %s", rec.Code, rec.Body.String())
	}

	var result model.GradingResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode results: %v", err)
	}
	if result.Score != 100.0 || result.Correct != 1 || result.Total != 1 {
		t.Errorf("result = score=%v correct=%d total=%d, want 100.0/1/1", result.Score, result.Correct, result.Total)
	}
	if len(result.Feedback) != 0 {
		t.Errorf("perfect score should have no mismatches, got %d", len(result.Feedback))
	}
	if len(result.Suggestions) != 3 {
		t.Errorf("expected 3 suggestions, got %d", len(result.Suggestions))
	}
}

func TestResubmissionReplaces(t *testing.T) {
	router := newTestRouter(t, &stubGenerator{raw: goodReply})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "lecture.docx", buildDocx(t, "Arithmetic basics.")))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d", rec.Code)
	}

	doJSON(t, router, http.MethodPost, "/submit-answers",
		`{"filename": "lecture.docx", "answers": {"2+2?": "5"}}`)
	doJSON(t, router, http.MethodPost, "/submit-answers",
		`{"filename": "lecture.docx", "answers": {"2+2?": "4"}}`)

	rec = doJSON(t, router, http.MethodGet, "/results/lecture.docx", "")
	var result model.GradingResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode results: %v", err)
	}
	if result.Score != 100.0 {
		t.Errorf("resubmission should replace prior answers: score=%v, want 100.0", result.Score)
	}
}

func TestResultsUnknownDocument(t *testing.T) {
	router := newTestRouter(t, &stubGenerator{raw: goodReply})

	rec := doJSON(t, router, http.MethodGet, "/results/never-uploaded.pdf", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("results status = %d, want 200", rec.Code)
	}

	var result model.GradingResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode results: %v", err)
	}
	if result.Total != 0 || result.Score != 0 || result.Correct != 0 {
		t.Errorf("unknown document should degrade to empty report: %+v", result)
	}
	if len(result.Feedback) != 0 || len(result.Suggestions) != 0 {
		t.Errorf("unknown document should have empty feedback lists: %+v", result)
	}
}

func TestSubmitAnswersRejectsNonJSON(t *testing.T) {
	router := newTestRouter(t, &stubGenerator{raw: goodReply})

	rec := doJSON(t, router, http.MethodPost, "/submit-answers", "filename=lecture.docx&answers=oops")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("non-JSON submission status = %d, want 400", rec.Code)
	}
}

func TestUploadUnsupportedExtension(t *testing.T) {
	router := newTestRouter(t, &stubGenerator{raw: goodReply})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "notes.txt", []byte("plain text")))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unsupported extension status = %d, want 400", rec.Code)
	}
}

func TestUploadMissingCredential(t *testing.T) {
	gen := &stubGenerator{err: model.Errf(model.KindAuthentication, "no API key configured for the language model service")}
	router := newTestRouter(t, gen)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "lecture.docx", buildDocx(t, "Some lecture text.")))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing credential status = %d, want 401", rec.Code)
	}
}

func TestUploadMalformedGeneration(t *testing.T) {
	// Three options instead of four: validation rejects the whole batch.
	raw := `{
		"multiple_choice": [{"question": "2+2?", "options": ["3", "4", "5"], "answer": "4"}],
		"fill_in": [], "short_answer": []
	}`
	router := newTestRouter(t, &stubGenerator{raw: raw})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "lecture.docx", buildDocx(t, "Some lecture text.")))
	if rec.Code != http.StatusBadGateway {
		t.Errorf("malformed generation status = %d, want 502", rec.Code)
	}

	// Nothing usable was stored: results degrade to the empty report.
	rec = doJSON(t, router, http.MethodGet, "/results/lecture.docx", "")
	var result model.GradingResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode results: %v", err)
	}
	if result.Total != 0 {
		t.Errorf("failed generation must store zero questions, got total=%d", result.Total)
	}
}

func TestSolveExpression(t *testing.T) {
	router := newTestRouter(t, &stubGenerator{raw: goodReply})

	rec := doJSON(t, router, http.MethodPost, "/solve-expression", `{"expression": "2^3+1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("solve status = %d, body: %s", rec.Code, rec.Body.String())
	}

	var sol struct {
		Problem  string  `json:"problem"`
		Solution float64 `json:"solution"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &sol); err != nil {
		t.Fatalf("decode solution: %v", err)
	}
	if sol.Solution != 9 {
		t.Errorf("solution = %v, want 9", sol.Solution)
	}

	rec = doJSON(t, router, http.MethodPost, "/solve-expression", `{"expression": "(("}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unsolvable expression status = %d, want 400", rec.Code)
	}
}
