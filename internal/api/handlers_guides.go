package api

import (
	"encoding/json"
	"net/http"
	"sort"
)

// guideEntry is one distinct ingested guide.
type guideEntry struct {
	GuideID int    `json:"guide_id"`
	Source  string `json:"source,omitempty"`
	Title   string `json:"title,omitempty"`
	URL     string `json:"url,omitempty"`
}

// handleListGuides scrolls the whole collection and reports each
// distinct guide id with the first payload metadata seen for it.
func (s *Server) handleListGuides(w http.ResponseWriter, r *http.Request) {
	guides := make(map[int]guideEntry)
	var offset json.RawMessage

	for {
		points, next, err := s.index.Scroll(r.Context(), offset, 256)
		if err != nil {
			s.log.Error("guide listing scroll failed", "error", err)
			jsonError(w, "failed to list guides", http.StatusBadGateway)
			return
		}
		for _, point := range points {
			gid := point.Payload.GuideID
			if gid == 0 {
				continue
			}
			if _, ok := guides[gid]; !ok {
				guides[gid] = guideEntry{
					GuideID: gid,
					Source:  point.Payload.Source,
					Title:   point.Payload.GuideTitle,
					URL:     point.Payload.GuideURL,
				}
			}
		}
		if next == nil {
			break
		}
		offset = next
	}

	list := make([]guideEntry, 0, len(guides))
	for _, entry := range guides {
		list = append(list, entry)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].GuideID < list[j].GuideID })

	jsonResponse(w, http.StatusOK, map[string]any{"guides": list})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	count, err := s.index.Count(r.Context())
	if err != nil {
		s.log.Error("point count failed", "error", err)
		jsonError(w, "failed to read index stats", http.StatusBadGateway)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]int{"points": count})
}
