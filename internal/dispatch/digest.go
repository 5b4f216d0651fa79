package dispatch

import (
	"fmt"
	"strings"

	"DailyBriefing/internal/domain"
)

// Digest renders doc as plain text for chat delivery: every item with its
// link, grouped by section.
func Digest(doc domain.BriefingDocument, labels Labels) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Daily Briefing for %s\n", LongDate(doc.DateKey))
	if doc.Notice != "" {
		fmt.Fprintf(&b, "\n%s\n", doc.Notice)
	}
	for _, section := range doc.Sections {
		label := labels.For(section.Name)
		fmt.Fprintf(&b, "\n%s\n", label.Title)
		if len(section.Items) == 0 {
			fmt.Fprintf(&b, "%s\n", label.Empty)
			continue
		}
		for i, item := range section.Items {
			fmt.Fprintf(&b, "%d. %s\n   %s\n", i+1, item.Title, item.URL)
		}
	}
	if len(doc.MissingSources) > 0 {
		fmt.Fprintf(&b, "\nUnavailable today: %s\n", strings.Join(doc.MissingSources, ", "))
	}
	return b.String()
}
