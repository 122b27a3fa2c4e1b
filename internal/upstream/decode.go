package upstream

import (
	"bytes"
	"encoding/json"
	"fmt"

	"seta-admin-backend/internal/listing"
)

// envelopeKeys are the wrapper fields the API has used around record lists,
// in the order they are tried.
var envelopeKeys = []string{"data", "items", "results", "records"}

// DecodeRecords extracts the record list from an upstream response body. The
// body may be a bare array or an object wrapping it (possibly twice, as in
// {"data": {"items": [...]}}). Numbers are kept as json.Number.
func DecodeRecords(body []byte) ([]listing.Record, error) {
	raw, err := decodeAny(body)
	if err != nil {
		return nil, err
	}
	records, ok := findRecords(raw, 2)
	if !ok {
		return nil, fmt.Errorf("response does not contain a record list")
	}
	return records, nil
}

func decodeRecord(body []byte) (listing.Record, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	raw, err := decodeAny(body)
	if err != nil {
		return nil, err
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, nil
	}
	if inner, ok := obj["data"].(map[string]any); ok {
		return listing.Record(inner), nil
	}
	return listing.Record(obj), nil
}

func decodeAny(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal api response: %w", err)
	}
	return raw, nil
}

func findRecords(raw any, depth int) ([]listing.Record, bool) {
	switch v := raw.(type) {
	case []any:
		records := make([]listing.Record, 0, len(v))
		for _, item := range v {
			if obj, ok := item.(map[string]any); ok {
				records = append(records, listing.Record(obj))
			}
		}
		return records, true
	case map[string]any:
		if depth == 0 {
			return nil, false
		}
		for _, key := range envelopeKeys {
			if inner, ok := v[key]; ok {
				if records, ok := findRecords(inner, depth-1); ok {
					return records, true
				}
			}
		}
	}
	return nil, false
}
