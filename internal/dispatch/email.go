package dispatch

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"DailyBriefing/internal/domain"
)

const emailTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{ .Subject }}</title>
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; margin: 0; padding: 20px; color: #333; }
.container { max-width: 800px; margin: 0 auto; }
h1 { color: #2C3E50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
h2 { color: #3498DB; margin-top: 30px; }
.item { margin-bottom: 20px; }
.item h3 { margin-bottom: 5px; }
.item p { margin-top: 5px; }
.item a { color: #2980B9; text-decoration: none; }
.meta { color: #7F8C8D; font-size: 0.9em; }
.notice { background: #FDF2E9; padding: 10px; }
.section { margin-bottom: 40px; }
</style>
</head>
<body>
<div class="container">
<h1>Your Daily Briefing for {{ .Date }}</h1>
{{- if .Notice }}
<p class="notice">{{ .Notice }}</p>
{{- end }}
{{- range .Sections }}
<div class="section" id="{{ .Name }}">
<h2>{{ .Title }}</h2>
{{- if .Items }}
{{- range .Items }}
<div class="item">
<h3><a href="{{ .URL }}">{{ .Title }}</a></h3>
{{- if .Meta }}
<div class="meta">{{ .Meta }}{{ if .DiscussionURL }} | <a href="{{ .DiscussionURL }}">Comments</a>{{ end }}</div>
{{- else if .DiscussionURL }}
<div class="meta"><a href="{{ .DiscussionURL }}">Comments</a></div>
{{- end }}
{{- if .Text }}
<p>{{ .Text }}</p>
{{- end }}
</div>
{{- end }}
{{- else }}
<p>{{ .Empty }}</p>
{{- end }}
</div>
{{- end }}
<p style="font-size: 0.8em; color: #95A5A6; text-align: center; margin-top: 50px;">
This briefing was automatically generated by your Daily Briefing agent.
</p>
</div>
</body>
</html>
`

type emailItem struct {
	Title         string
	URL           string
	Meta          string
	DiscussionURL string
	Text          string
}

type emailSection struct {
	Name  string
	Title string
	Empty string
	Items []emailItem
}

type emailView struct {
	Subject  string
	Date     string
	Notice   string
	Sections []emailSection
}

// EmailRenderer renders a document as one HTML page with a block per
// section.
type EmailRenderer struct {
	labels Labels
	tmpl   *template.Template
}

// NewEmailRenderer parses the page template.
func NewEmailRenderer(labels Labels) *EmailRenderer {
	return &EmailRenderer{
		labels: labels,
		tmpl:   template.Must(template.New("email").Parse(emailTemplate)),
	}
}

// Subject is the mail subject line for doc.
func (r *EmailRenderer) Subject(doc domain.BriefingDocument) string {
	return "Your Daily Briefing for " + LongDate(doc.DateKey)
}

// Render executes the template for doc.
func (r *EmailRenderer) Render(doc domain.BriefingDocument) (string, error) {
	view := emailView{Subject: r.Subject(doc), Date: LongDate(doc.DateKey), Notice: doc.Notice}
	for _, section := range doc.Sections {
		label := r.labels.For(section.Name)
		es := emailSection{Name: section.Name, Title: label.Title, Empty: label.Empty}
		for _, item := range section.Items {
			es.Items = append(es.Items, emailItem{
				Title:         item.Title,
				URL:           item.URL,
				Meta:          itemMeta(item),
				DiscussionURL: item.DiscussionURL,
				Text:          item.Text,
			})
		}
		view.Sections = append(view.Sections, es)
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render email: %w", err)
	}
	return buf.String(), nil
}

func itemMeta(item domain.Summary) string {
	var parts []string
	if len(item.Authors) > 0 {
		parts = append(parts, "Authors: "+strings.Join(item.Authors, ", "))
	}
	if item.Score != nil {
		parts = append(parts, fmt.Sprintf("Score: %.0f", *item.Score))
	}
	if item.FeedName != "" {
		parts = append(parts, "Source: "+item.FeedName)
	}
	return strings.Join(parts, " | ")
}
