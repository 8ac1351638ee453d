package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joelkehle/idea-validation/internal/render"
	"github.com/joelkehle/idea-validation/internal/store"
	"github.com/joelkehle/idea-validation/internal/validation"
)

func main() {
	dbPath := flag.String("db", os.Getenv("DATABASE_PATH"), "Path to the SQLite database holding reports")
	id := flag.String("id", "", "Validation report ID to load from -db")
	inputPath := flag.String("input", "", "Path to a saved report JSON (alternative to -id)")
	format := flag.String("format", "pdf", "Output format: pdf, html or md")
	outputPath := flag.String("output", "", "Path to write the rendered report")
	chromePath := flag.String("chrome", os.Getenv("CHROME_PATH"), "Chrome/Chromium binary for PDF output")
	flag.Parse()

	if *outputPath == "" {
		log.Fatal("missing required -output")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	report, err := loadReport(ctx, *dbPath, *id, *inputPath)
	if err != nil {
		log.Fatalf("load report: %v", err)
	}

	out, err := renderReport(ctx, report, *format, *chromePath)
	if err != nil {
		log.Fatalf("render %s: %v", *format, err)
	}
	if err := os.WriteFile(*outputPath, out, 0o644); err != nil {
		log.Fatalf("write output: %v", err)
	}
	log.Printf("wrote %s report %s to %s", *format, report.ID, *outputPath)
}

func loadReport(ctx context.Context, dbPath, id, inputPath string) (*validation.Report, error) {
	if inputPath != "" {
		in, err := os.ReadFile(inputPath)
		if err != nil {
			return nil, err
		}
		var r validation.Report
		if err := json.Unmarshal(in, &r); err != nil {
			return nil, fmt.Errorf("decode report JSON: %w", err)
		}
		return &r, nil
	}
	if id == "" || dbPath == "" {
		return nil, errors.New("provide -input, or -db with -id")
	}
	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.Get(ctx, id)
}

func renderReport(ctx context.Context, r *validation.Report, format, chromePath string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "pdf":
		return render.NewPDFRenderer(chromePath).Render(ctx, r)
	case "html":
		page, err := render.HTML(r)
		return []byte(page), err
	case "md", "markdown":
		return []byte(validation.BuildMarkdown(r)), nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}
