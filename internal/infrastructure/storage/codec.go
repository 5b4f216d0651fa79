package storage

import (
	"encoding/json"
	"fmt"

	"DailyBriefing/internal/domain"
)

func encodeDocument(backend string, doc domain.BriefingDocument) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, &domain.StorageError{Kind: domain.StorageWrite, Backend: backend, Cause: fmt.Errorf("encode: %w", err)}
	}
	return data, nil
}

func parseDocument(backend string, data []byte) (domain.BriefingDocument, error) {
	var doc domain.BriefingDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.BriefingDocument{}, &domain.StorageError{Kind: domain.StorageCorrupt, Backend: backend, Cause: err}
	}
	return doc, nil
}

// decodeDocument rejects payloads that are not a document for dateKey.
func decodeDocument(backend, dateKey string, data []byte) (domain.BriefingDocument, error) {
	doc, err := parseDocument(backend, data)
	if err != nil {
		return domain.BriefingDocument{}, err
	}
	if doc.DateKey != dateKey {
		return domain.BriefingDocument{}, &domain.StorageError{
			Kind:    domain.StorageCorrupt,
			Backend: backend,
			Cause:   fmt.Errorf("stored date_key %q does not match %q", doc.DateKey, dateKey),
		}
	}
	return doc, nil
}

func unsupported(backend, op string) error {
	return &domain.StorageError{Kind: domain.StorageUnsupported, Backend: backend, Cause: fmt.Errorf("%s is not supported", op)}
}
