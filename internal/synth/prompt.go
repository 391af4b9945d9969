// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"bytes"
	"text/template"

	"github.com/pdiddy/desk-researcher/pkg/types"
)

// reportPromptTmpl asks the model for a short cited report built only from the
// numbered papers.
var reportPromptTmpl = template.Must(template.New("report").Parse(`You are an expert academic research assistant.

RESEARCH QUESTION:
{{.Question}}

ACADEMIC PAPERS FOUND:
{{range .Papers}}[{{.Index}}] {{.Title}}
{{.Text}}
Source: {{.URL}}

{{end}}INSTRUCTIONS:
1. Generate a professional executive report of maximum {{.MaxWords}} words
2. Summarize the most important findings
3. Identify key trends and patterns
4. Use references [1], [2], [3], etc. to cite sources
5. Write in clear and professional English
6. DO NOT invent information not present in the sources

REPORT:`))

// promptPaper is one numbered entry in the prompt context.
type promptPaper struct {
	Index int
	Title string
	Text  string
	URL   string
}

type promptData struct {
	Question string
	Papers   []promptPaper
	MaxWords int
}

// renderPrompt fills the report template with the question and sources. texts
// holds the passage text for each source, aligned by position.
func renderPrompt(question string, sources []types.Source, texts []string, maxWords int) (string, error) {
	data := promptData{Question: question, MaxWords: maxWords}
	for i, s := range sources {
		data.Papers = append(data.Papers, promptPaper{Index: s.Index, Title: s.Title, Text: texts[i], URL: s.URL})
	}
	var buf bytes.Buffer
	if err := reportPromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
