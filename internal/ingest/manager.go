package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrRunInProgress rejects overlapping saga runs for one catalog.
var ErrRunInProgress = fmt.Errorf("an ingestion run for this site is already in progress")

// Manager hosts saga runs: one run per site id at a time, pause
// signalling, and retention of the latest progress event per site.
type Manager struct {
	saga *Saga
	log  *slog.Logger
	ttl  time.Duration

	mu       sync.Mutex
	running  map[string]bool
	cancels  map[string]context.CancelFunc
	pause    map[string]chan struct{}
	progress map[string]progressEntry
	wg       sync.WaitGroup
}

type progressEntry struct {
	event     ProgressEvent
	updatedAt time.Time
}

// NewManager builds the host and the saga it runs; the manager itself
// serves as the saga's progress emitter and pause signal.
func NewManager(source GuideSource, ingester GuideIngester, log *slog.Logger, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	m := &Manager{
		log:      log,
		ttl:      ttl,
		running:  make(map[string]bool),
		cancels:  make(map[string]context.CancelFunc),
		pause:    make(map[string]chan struct{}),
		progress: make(map[string]progressEntry),
	}
	m.saga = NewSaga(source, ingester, m, m, log)
	return m
}

// Start launches a saga run for the site in the background. The run
// detaches from the caller's context so it outlives the request that
// triggered it; Stop cancels outstanding runs. Overlapping runs against
// the same site are rejected with ErrRunInProgress.
func (m *Manager) Start(ctx context.Context, req Request) error {
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	m.mu.Lock()
	if m.running[req.SiteID] {
		m.mu.Unlock()
		cancel()
		return ErrRunInProgress
	}
	m.running[req.SiteID] = true
	m.cancels[req.SiteID] = cancel
	if m.pause[req.SiteID] == nil {
		m.pause[req.SiteID] = make(chan struct{}, 1)
	}
	// A pause requested between runs must not carry over into this one.
	select {
	case <-m.pause[req.SiteID]:
	default:
	}
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer func() {
			cancel()
			m.mu.Lock()
			delete(m.running, req.SiteID)
			delete(m.cancels, req.SiteID)
			m.mu.Unlock()
		}()
		summary, err := m.saga.Run(runCtx, req)
		if err != nil {
			m.log.Error("saga run ended with error", "site_id", req.SiteID, "error", err)
			return
		}
		m.log.Info("saga run finished",
			"site_id", req.SiteID,
			"status", summary.Status,
			"processed", summary.ProcessedGuides,
			"failed", summary.FailedGuides)
	}()
	return nil
}

// Stop cancels all active runs and waits for them to wind down.
func (m *Manager) Stop() {
	m.mu.Lock()
	for _, cancel := range m.cancels {
		cancel()
	}
	m.mu.Unlock()
	m.wg.Wait()
}

// Running reports whether a run is active for the site.
func (m *Manager) Running(siteID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running[siteID]
}

// Pause records a pause request for the site. The signal is consumed by
// the running saga at its next poll; a request with no active run is
// simply never observed.
func (m *Manager) Pause(siteID string) {
	m.mu.Lock()
	ch := m.pause[siteID]
	if ch == nil {
		ch = make(chan struct{}, 1)
		m.pause[siteID] = ch
	}
	m.mu.Unlock()

	select {
	case ch <- struct{}{}:
	default:
	}
}

// Wait implements PauseSignal: it blocks up to timeout for a pending
// pause request on the site.
func (m *Manager) Wait(ctx context.Context, siteID string, timeout time.Duration) bool {
	m.mu.Lock()
	ch := m.pause[siteID]
	m.mu.Unlock()
	if ch == nil {
		return false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}

// Emit implements Emitter: the latest event per site is retained for
// the status endpoint.
func (m *Manager) Emit(ctx context.Context, event ProgressEvent) {
	m.mu.Lock()
	m.progress[event.SiteID] = progressEntry{event: event, updatedAt: time.Now()}
	m.mu.Unlock()

	m.log.Info("ingestion progress",
		"site_id", event.SiteID,
		"status", event.Status,
		"processed", event.ProcessedGuides,
		"failed", event.FailedGuides,
		"total", event.TotalGuides)
}

// Status returns the latest progress event for the site.
func (m *Manager) Status(siteID string) (ProgressEvent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.progress[siteID]
	return entry.event, ok
}

// Cleanup drops progress entries older than the retention TTL for
// sites with no active run.
func (m *Manager) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for siteID, entry := range m.progress {
		if !m.running[siteID] && now.Sub(entry.updatedAt) > m.ttl {
			delete(m.progress, siteID)
			delete(m.pause, siteID)
		}
	}
}

// StartCleanup runs Cleanup periodically until ctx is cancelled.
func (m *Manager) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Cleanup()
			}
		}
	}()
}
