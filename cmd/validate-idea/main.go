package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joelkehle/idea-validation/internal/config"
	"github.com/joelkehle/idea-validation/internal/store"
	"github.com/joelkehle/idea-validation/internal/validation"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "Optional YAML config file")
	idea := flag.String("idea", "", "Business idea text (reads stdin when empty)")
	audience := flag.String("audience", "", "Optional target audience context")
	format := flag.String("format", "markdown", "Output format: markdown or json")
	outputPath := flag.String("output", "", "Path to write the report (defaults to stdout)")
	save := flag.Bool("save", false, "Persist the report to the configured SQLite database")
	publish := flag.Bool("publish", false, "Mark the saved report as published to the library")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatal(err)
	}
	// stdout carries only the report.
	logger := config.NewLogger(cfg.Logging)
	logger.SetOutput(os.Stderr)

	text := *idea
	if strings.TrimSpace(text) == "" {
		blob, err := io.ReadAll(os.Stdin)
		if err != nil {
			logger.WithError(err).Fatal("read stdin")
		}
		text = string(blob)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	engine, err := validation.NewEngineFromCredentials(cfg.Credentials, validation.Options{
		LLMProvider: cfg.LLM.Provider,
		LLMModel:    cfg.LLM.Model,
		LLMAttempts: cfg.LLM.Attempts,
		HTTPClient:  &http.Client{Timeout: 20 * time.Second},
		Logger:      logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("engine setup failed")
	}

	req := validation.Request{BusinessIdea: text}
	if a := strings.TrimSpace(*audience); a != "" {
		req.Context = map[string]string{validation.ContextAudience: a}
	}
	report, err := engine.Validate(ctx, req)
	if err != nil {
		logger.WithError(err).Fatal("validation failed")
	}

	if *save {
		report.Published = *publish
		st, err := store.NewSQLiteStore(cfg.Database.Path)
		if err != nil {
			logger.WithError(err).Fatal("open store")
		}
		defer st.Close()
		if err := st.Save(ctx, report); err != nil {
			logger.WithError(err).Fatal("save report")
		}
		logger.WithFields(logrus.Fields{"report_id": report.ID, "db": cfg.Database.Path}).Info("report saved")
	}

	out, err := formatReport(report, *format)
	if err != nil {
		logger.WithError(err).Fatal("format report")
	}
	if err := writeOutput(*outputPath, out); err != nil {
		logger.WithError(err).Fatal("write output")
	}
}

func formatReport(r *validation.Report, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", "md", "markdown":
		return []byte(validation.BuildMarkdown(r)), nil
	case "json":
		b, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

func writeOutput(path string, b []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(b)
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
