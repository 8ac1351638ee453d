package render

import (
	_ "embed"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/joelkehle/idea-validation/internal/validation"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed style.css
var styleCSS string

var (
	markdown      = goldmark.New(goldmark.WithExtensions(extension.GFM))
	reRecommendH2 = regexp.MustCompile(`(?i)<h2([^>]*)>\s*Recommendations\s*</h2>`)
	reTable       = regexp.MustCompile(`(?i)<table>`)
)

// HTML renders a complete standalone document for a report.
func HTML(r *validation.Report) (string, error) {
	var content strings.Builder
	if err := markdown.Convert([]byte(validation.BuildMarkdown(r)), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	return "<!doctype html><html><head><meta charset='utf-8'>" +
		"<meta name='viewport' content='width=device-width, initial-scale=1'>" +
		"<title>Idea Validation Report</title>" +
		"<style>" + styleCSS + "</style></head><body>" +
		"<div class='report-wrap'><section class='report-viewer'><div class='report-header'>" +
		"<div class='report-meta'>" + metaHTML(r) + "</div>" +
		"<div class='report-badges'>" + badgeHTML(r) + "</div>" +
		"</div><div class='report-html'>" + applyPrintLayoutHooks(content.String()) + "</div></section></div>" +
		"</body></html>", nil
}

func applyPrintLayoutHooks(contentHTML string) string {
	out := reRecommendH2.ReplaceAllString(contentHTML, `<h2$1 data-page-break-before="true">Recommendations</h2>`)
	return reTable.ReplaceAllString(out, `<table class="report-table">`)
}

func metaHTML(r *validation.Report) string {
	var out strings.Builder
	out.WriteString("<div><strong>Idea:</strong> " + html.EscapeString(summarize(r.BusinessIdea, 120)) + "</div>")
	if !r.ValidatedAt.IsZero() {
		out.WriteString("<div><strong>Date:</strong> " + html.EscapeString(r.ValidatedAt.In(time.Local).Format("January 2, 2006 at 3:04 PM MST")) + "</div>")
	}
	if r.ID != "" {
		out.WriteString("<div><strong>Reference:</strong> " + html.EscapeString(r.ID) + "</div>")
	}
	return out.String()
}

func badgeHTML(r *validation.Report) string {
	class := "report-badge"
	switch {
	case r.ValidationScore < 50:
		class += " score-low"
	case r.ValidationScore < 70:
		class += " score-mid"
	}
	var out strings.Builder
	out.WriteString(fmt.Sprintf("<span class='%s'>Score %d/100</span>", class, r.ValidationScore))
	out.WriteString("<span class='report-badge'>" + html.EscapeString(string(r.ConfidenceLevel)) + " confidence</span>")
	if r.Published {
		out.WriteString("<span class='report-badge'>Published</span>")
	}
	return out.String()
}

func summarize(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
