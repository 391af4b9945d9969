// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/pdiddy/desk-researcher/pkg/types"
)

var reportEmailTmpl = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Arial, sans-serif;">
<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); padding: 40px 20px; border-radius: 10px; text-align: center;">
    <h1 style="color: white; margin: 0; font-size: 28px;">Research Report</h1>
    <p style="color: rgba(255,255,255,0.9); margin: 10px 0 0 0; font-size: 14px;">Most Recent Academic Papers</p>
  </div>
  <div style="margin: 30px 0; padding: 20px; background: #f5f7fa; border-radius: 8px;">
    <h2 style="color: #333; margin: 0 0 10px 0; font-size: 18px;">Research Question</h2>
    <p style="color: #555; margin: 0; font-size: 16px; line-height: 1.6;">{{.Query}}</p>
  </div>
  <div style="margin: 30px 0;">
    <h2 style="color: #333; margin: 0 0 15px 0; font-size: 20px;">Executive Summary</h2>
    <div style="background: white; padding: 25px; border: 1px solid #e0e0e0; border-radius: 8px; line-height: 1.8; color: #444;">
{{- range .Paragraphs}}
      <p>{{.}}</p>
{{- end}}
    </div>
  </div>
  <div style="margin: 30px 0;">
    <h2 style="color: #333; margin: 0 0 15px 0; font-size: 20px;">Recent Sources</h2>
{{- range .Sources}}
    <div style="margin-bottom: 15px; padding: 12px; background: #f9f9f9; border-left: 3px solid #667eea; border-radius: 4px;">
      <strong style="color: #667eea;">[{{.Index}}]</strong>
      <a href="{{.URL}}" style="color: #333; text-decoration: none; font-weight: 600;">{{.Title}}</a>
      <div style="font-size: 12px; color: #999; margin-top: 5px;">Published: {{.PublishedDate}} | Relevance: {{printf "%.3f" .Score}}</div>
    </div>
{{- end}}
  </div>
  <div style="margin-top: 40px; padding-top: 20px; border-top: 2px solid #e0e0e0; text-align: center;">
    <p style="color: #999; font-size: 12px; margin: 0;">This report was generated automatically using AI and semantic search with Qdrant</p>
  </div>
</div>
</body>
</html>
`))

type emailData struct {
	Query      string
	Paragraphs []string
	Sources    []types.Source
}

// RenderHTML renders the report email body. At most maxSources sources are listed.
func RenderHTML(report *types.Report, maxSources int) (string, error) {
	sources := report.Sources
	if maxSources > 0 && len(sources) > maxSources {
		sources = sources[:maxSources]
	}
	data := emailData{Query: report.Query, Paragraphs: paragraphs(report.Text), Sources: sources}

	var buf bytes.Buffer
	if err := reportEmailTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering email: %w", err)
	}
	return buf.String(), nil
}

// paragraphs splits text on line breaks, dropping blank lines.
func paragraphs(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// Subject builds the email subject line from the query.
func Subject(query string) string {
	runes := []rune(strings.TrimSpace(query))
	if len(runes) > subjectQueryLimit {
		runes = runes[:subjectQueryLimit]
	}
	return "Research Report: " + string(runes) + "..."
}
