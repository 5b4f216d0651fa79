// Package dispatch renders briefing documents for consumer channels: an
// HTML email, spoken text for a voice assistant, and the voice request
// router that serves it.
package dispatch

import (
	"strings"
	"time"

	"DailyBriefing/internal/config"
	"DailyBriefing/internal/domain"
)

// Label is how one section is presented to readers and listeners.
type Label struct {
	Title  string
	Spoken string
	Empty  string
}

var knownLabels = map[string]Label{
	"research": {
		Title:  "AI/ML Research Papers",
		Spoken: "From AI and Machine Learning research:",
		Empty:  "No new research papers today.",
	},
	"tech-news": {
		Title:  "Top Tech Stories",
		Spoken: "Top technology stories today:",
		Empty:  "No tech stories available today.",
	},
	"personal-development": {
		Title:  "Articles & Insights",
		Spoken: "Articles and insights:",
		Empty:  "No articles available today.",
	},
}

// Labels maps section names to presentation strings.
type Labels map[string]Label

// LabelsFromConfig uses configured titles and falls back to built-in wording.
func LabelsFromConfig(sections []config.SectionConfig) Labels {
	out := make(Labels, len(sections))
	for _, s := range sections {
		l := labelFor(s.Name, nil)
		if s.Title != "" {
			l.Title = s.Title
		}
		out[s.Name] = l
	}
	return out
}

// For returns the label for a section name.
func (ls Labels) For(name string) Label {
	return labelFor(name, ls)
}

func labelFor(name string, ls Labels) Label {
	if l, ok := ls[name]; ok {
		return l
	}
	if l, ok := knownLabels[name]; ok {
		return l
	}
	title := humanize(name)
	return Label{
		Title:  title,
		Spoken: title + ":",
		Empty:  "Nothing new in " + strings.ToLower(title) + " today.",
	}
}

func humanize(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// LongDate formats a date key as "Saturday, November 08, 2025". Unparseable
// keys are returned as-is.
func LongDate(dateKey string) string {
	day, err := domain.ParseDateKey(dateKey, time.UTC)
	if err != nil {
		return dateKey
	}
	return day.Format("Monday, January 02, 2006")
}
