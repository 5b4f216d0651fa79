package dispatch

import (
	"fmt"
	"strings"

	"DailyBriefing/internal/domain"
)

const (
	// Reprompt is offered after the briefing is read.
	Reprompt = "Would you like to hear it again?"

	voiceItemsPerSection = 3
	voiceClosing         = "That concludes your daily briefing."
)

// Speech is the voice rendering of a document.
type Speech struct {
	Text     string `json:"speech"`
	Reprompt string `json:"reprompt"`
}

// VoiceRenderer turns a document into spoken text.
type VoiceRenderer struct {
	labels Labels
}

// NewVoiceRenderer wires section labels.
func NewVoiceRenderer(labels Labels) *VoiceRenderer {
	return &VoiceRenderer{labels: labels}
}

// Render reads at most three items per section, in document order.
func (r *VoiceRenderer) Render(doc domain.BriefingDocument) Speech {
	var b strings.Builder
	fmt.Fprintf(&b, "Here's your daily briefing for %s.\n\n", LongDate(doc.DateKey))
	if doc.Notice != "" {
		fmt.Fprintf(&b, "%s\n\n", doc.Notice)
	}

	for _, section := range doc.Sections {
		label := r.labels.For(section.Name)
		b.WriteString(label.Spoken)
		b.WriteString("\n")
		if len(section.Items) == 0 {
			b.WriteString(label.Empty)
			b.WriteString("\n\n")
			continue
		}
		for i, item := range section.Items {
			if i == voiceItemsPerSection {
				break
			}
			fmt.Fprintf(&b, "%d. %s\n", i+1, spokenItem(item))
		}
		b.WriteString("\n")
	}

	b.WriteString(voiceClosing)
	return Speech{Text: b.String(), Reprompt: Reprompt}
}

func spokenItem(item domain.Summary) string {
	title := strings.TrimRight(strings.TrimSpace(item.Title), ".")
	switch {
	case item.FeedName != "":
		return fmt.Sprintf("From %s: %s.", item.FeedName, title)
	case len(item.Authors) > 0:
		if s := firstSentence(item.Text); s != "" {
			return fmt.Sprintf("%s. %s", title, s)
		}
		return title + "."
	default:
		return title + "."
	}
}

func firstSentence(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if i := strings.Index(text, "."); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text) + "."
}
