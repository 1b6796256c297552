package vectorstore

import "encoding/json"

// Payload is the fixed-shape record stored with every point. Optional
// fields are omitted when empty rather than written as placeholders.
type Payload struct {
	Source     string   `json:"source"`
	Text       string   `json:"text"`
	GuideID    int      `json:"guide_id,omitempty"`
	Images     []string `json:"images,omitempty"`
	GuideTitle string   `json:"guide_title,omitempty"`
	GuideURL   string   `json:"guide_url,omitempty"`
}

// ScoredPoint is one similarity-search hit.
type ScoredPoint struct {
	ID      string
	Score   float64
	Payload Payload
}

// Point is one stored record as returned by a scroll.
type Point struct {
	ID      string
	Payload Payload
}

// decodePayload unmarshals a raw payload leniently, field by field:
// a malformed field degrades to its zero value instead of failing the
// read path or discarding the fields around it.
func decodePayload(raw json.RawMessage) Payload {
	var p Payload
	if len(raw) == 0 {
		return p
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return p
	}

	decodeString(fields["source"], &p.Source)
	decodeString(fields["text"], &p.Text)
	decodeString(fields["guide_title"], &p.GuideTitle)
	decodeString(fields["guide_url"], &p.GuideURL)
	if f, ok := fields["guide_id"]; ok {
		_ = json.Unmarshal(f, &p.GuideID)
	}
	if f, ok := fields["images"]; ok {
		var items []any
		if json.Unmarshal(f, &items) == nil {
			for _, item := range items {
				if s, ok := item.(string); ok && s != "" {
					p.Images = append(p.Images, s)
				}
			}
		}
	}
	return p
}

func decodeString(raw json.RawMessage, dst *string) {
	if len(raw) == 0 {
		return
	}
	_ = json.Unmarshal(raw, dst)
}
