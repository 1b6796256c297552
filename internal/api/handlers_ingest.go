package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"guiderag/internal/ingest"
)

type ingestGuideRequest struct {
	GuideID  int    `json:"guide_id"`
	Token    string `json:"token"`
	SourceID string `json:"source_id"`
}

// handleIngestGuide ingests one guide synchronously. This direct path
// is throttled to protect the embedding provider; catalog runs go
// through the saga instead.
func (s *Server) handleIngestGuide(w http.ResponseWriter, r *http.Request) {
	var req ingestGuideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.GuideID <= 0 {
		jsonError(w, "guide_id is required", http.StatusBadRequest)
		return
	}
	if req.Token == "" {
		jsonError(w, "token is required", http.StatusBadRequest)
		return
	}
	if req.SourceID == "" {
		req.SourceID = fmt.Sprintf("guide_%d", req.GuideID)
	}

	if err := s.throttle.Allow(req.SourceID); err != nil {
		jsonError(w, err.Error(), http.StatusTooManyRequests)
		return
	}

	count, err := s.ingester.IngestGuide(r.Context(), req.GuideID, req.Token, req.SourceID)
	if err != nil {
		s.log.Error("guide ingestion failed", "guide_id", req.GuideID, "error", err)
		jsonError(w, fmt.Sprintf("failed to ingest guide %d", req.GuideID), http.StatusBadGateway)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"ingested":  count,
		"source_id": req.SourceID,
	})
}

type ingestSiteRequest struct {
	Token        string `json:"token"`
	SiteID       string `json:"site_id"`
	ResumeOffset int    `json:"resume_offset"`
}

func (s *Server) handleIngestSite(w http.ResponseWriter, r *http.Request) {
	var req ingestSiteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Token == "" {
		jsonError(w, "token is required", http.StatusBadRequest)
		return
	}
	if req.SiteID == "" {
		req.SiteID = s.cfg.SiteID
	}
	if req.ResumeOffset < 0 {
		jsonError(w, "resume_offset must not be negative", http.StatusBadRequest)
		return
	}

	err := s.manager.Start(r.Context(), ingest.Request{
		SiteID:       req.SiteID,
		Token:        req.Token,
		ResumeOffset: req.ResumeOffset,
	})
	if errors.Is(err, ingest.ErrRunInProgress) {
		jsonError(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		s.log.Error("failed to start site ingestion", "site_id", req.SiteID, "error", err)
		jsonError(w, "failed to start ingestion", http.StatusInternalServerError)
		return
	}

	jsonResponse(w, http.StatusAccepted, map[string]any{
		"status":        "started",
		"site_id":       req.SiteID,
		"resume_offset": req.ResumeOffset,
	})
}

type pauseSiteRequest struct {
	SiteID string `json:"site_id"`
}

func (s *Server) handlePauseSite(w http.ResponseWriter, r *http.Request) {
	var req pauseSiteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.SiteID == "" {
		req.SiteID = s.cfg.SiteID
	}

	s.manager.Pause(req.SiteID)
	jsonResponse(w, http.StatusAccepted, map[string]string{
		"status":  "pause_requested",
		"site_id": req.SiteID,
	})
}

func (s *Server) handleSiteStatus(w http.ResponseWriter, r *http.Request) {
	siteID := r.URL.Query().Get("site_id")
	if siteID == "" {
		siteID = s.cfg.SiteID
	}

	event, ok := s.manager.Status(siteID)
	if !ok {
		jsonError(w, "no ingestion run recorded for site", http.StatusNotFound)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{
		"running":  s.manager.Running(siteID),
		"progress": event,
	})
}
