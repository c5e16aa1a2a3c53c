package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lecturelab/examgen/internal/extract"
	"github.com/lecturelab/examgen/internal/handler"
	appI18n "github.com/lecturelab/examgen/internal/i18n"
	"github.com/lecturelab/examgen/internal/llm"
	"github.com/lecturelab/examgen/internal/model"
	"github.com/lecturelab/examgen/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "examgen",
		Short: "Turn lecture documents into exams with an LLM",
	}

	serve := serveCmd()
	root.AddCommand(serve)

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `examgen --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP exam generation server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("llm-url", "", "OpenAI-compatible API base URL (empty = api.openai.com)")
	f.String("llm-key", "", "API key for LLM (or set OPENAI_API_KEY)")
	f.String("llm-model", "gpt-3.5-turbo", "LLM model name")
	f.Duration("llm-timeout", 2*time.Minute, "Timeout for a single generation request")
	f.Int("mc-questions", 30, "Multiple-choice questions per exam")
	f.Int("fill-in-questions", 15, "Fill-in-the-blank questions per exam")
	f.Int("short-answer-questions", 5, "Short-answer questions per exam")
	f.Int("max-source-chars", 3000, "Document text cap sent to the LLM (0 = no cap)")
	f.String("convert-cmd", "soffice", "Office suite binary used to convert legacy slide decks")
	f.Duration("convert-timeout", time.Minute, "Timeout for a single document conversion")
	f.StringP("lang", "l", "en", "Response language (en, ru)")
	f.StringSlice("cors-origins", []string{"*"}, "Allowed CORS origins")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("EXAMGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("examgen")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/examgen")
	v.AddConfigPath("/etc/examgen")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	quota := model.Quota{
		MultipleChoice: v.GetInt("mc-questions"),
		FillInBlank:    v.GetInt("fill-in-questions"),
		ShortAnswer:    v.GetInt("short-answer-questions"),
	}
	if quota.Total() <= 0 {
		return fmt.Errorf("question counts add up to zero: nothing to generate")
	}

	apiKey := v.GetString("llm-key")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	llmClient := llm.New(llm.Config{
		BaseURL:        v.GetString("llm-url"),
		APIKey:         apiKey,
		Model:          v.GetString("llm-model"),
		Quota:          quota,
		MaxSourceChars: v.GetInt("max-source-chars"),
		Timeout:        v.GetDuration("llm-timeout"),
	})

	converter := extract.NewConverter(v.GetString("convert-cmd"), v.GetDuration("convert-timeout"))
	st := store.NewMemoryStore()
	h := handler.New(st, st, llmClient, converter)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   v.GetStringSlice("cors-origins"),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"model", v.GetString("llm-model"),
		"llm_url", v.GetString("llm-url"),
		"lang", lang,
		"mc_questions", quota.MultipleChoice,
		"fill_in_questions", quota.FillInBlank,
		"short_answer_questions", quota.ShortAnswer,
		"max_source_chars", v.GetInt("max-source-chars"),
	)
	return http.ListenAndServe(addr, r)
}
