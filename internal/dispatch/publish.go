package dispatch

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// VoicePublication is the file a voice skill reads when it cannot reach
// the retrieval endpoint.
type VoicePublication struct {
	Date         string `json:"date"`
	BriefingText string `json:"briefing_text"`
	LastUpdated  string `json:"last_updated"`
}

// WriteVoicePublication writes the publication as indented JSON.
func WriteVoicePublication(path, dateKey, text string, now time.Time) error {
	data, err := json.MarshalIndent(VoicePublication{
		Date:         dateKey,
		BriefingText: text,
		LastUpdated:  now.Format(time.RFC3339),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode voice publication: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write voice publication: %w", err)
	}
	return nil
}
