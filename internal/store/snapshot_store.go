package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"PulseFeed/internal/domain/models"
	"PulseFeed/internal/domain/repository"
	applogger "PulseFeed/pkg/logger"
	"PulseFeed/pkg/util"
)

// SchemaVersion is checked verbatim on load; a mismatch is treated as an
// absent file, not an error.
const SchemaVersion = "1"

// Config holds snapshot store settings.
type Config struct {
	Path      string
	Retention time.Duration
}

// Health reports the persistence state of the store.
type Health struct {
	LastPersist int64  `json:"last_persist_ms,omitempty"`
	LastError   string `json:"last_error,omitempty"`
	LastErrorAt int64  `json:"last_error_at_ms,omitempty"`
}

// SufficiencyReport states whether an asset's history meets minimum
// observation requirements.
type SufficiencyReport struct {
	Asset       string  `json:"asset"`
	Count       int     `json:"count"`
	OldestHours float64 `json:"oldest_hours"`
	MinCount    int     `json:"min_count"`
	MinHours    float64 `json:"min_hours"`
	OK          bool    `json:"ok"`
}

// Store is an append-only, retention-bounded sequence of forecast snapshots
// per asset. Every mutation schedules a durable persist; writes go through a
// temp file plus atomic rename so a crash mid-write never corrupts the
// existing file. The store is the single writer of its file.
type Store struct {
	mu        sync.Mutex
	path      string
	retention time.Duration
	snapshots map[string][]models.Snapshot

	log     *applogger.Logger
	metrics repository.Metrics
	archive repository.SnapshotArchive
	now     func() time.Time

	persistCh chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	healthMu    sync.Mutex
	lastPersist time.Time
	lastErr     error
	lastErrAt   time.Time
}

// Option configures Store.
type Option func(*Store)

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m repository.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// WithArchive forwards every accepted snapshot to a long-term archive.
func WithArchive(a repository.SnapshotArchive) Option {
	return func(s *Store) {
		s.archive = a
	}
}

// New creates a snapshot store and starts its persistence worker.
func New(cfg Config, log *applogger.Logger, opts ...Option) *Store {
	s := &Store{
		path:      cfg.Path,
		retention: cfg.Retention,
		snapshots: make(map[string][]models.Snapshot),
		log:       log,
		metrics:   repository.NopMetrics{},
		now:       time.Now,
		persistCh: make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.wg.Add(1)
	go s.persistLoop()
	return s
}

// Load reads the durable file once at startup. A missing, unparsable or
// version-mismatched file leaves the store empty; startup never fails on it.
func (s *Store) Load() {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("snapshot file unreadable, starting empty",
				applogger.String("path", s.path),
				applogger.Error(err),
			)
		}
		return
	}

	var doc models.StoreDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		s.log.Warn("snapshot file corrupt, starting empty",
			applogger.String("path", s.path),
			applogger.Error(err),
		)
		return
	}
	if doc.Version != SchemaVersion {
		s.log.Warn("snapshot file version mismatch, starting empty",
			applogger.String("path", s.path),
			applogger.String("got", doc.Version),
			applogger.String("want", SchemaVersion),
		)
		return
	}

	s.mu.Lock()
	if doc.Snapshots != nil {
		s.snapshots = doc.Snapshots
	}
	s.pruneLocked()
	total := 0
	for _, seq := range s.snapshots {
		total += len(seq)
	}
	s.mu.Unlock()

	s.log.Info("snapshot store loaded",
		applogger.String("path", s.path),
		applogger.Int("snapshots", total),
	)
}

// Append records a snapshot of the given bounds taken now, prunes the
// retention window and schedules a durable persist. It returns once memory
// is updated; persistence and archiving happen in the background.
func (s *Store) Append(asset string, bounds models.ProbabilityBounds) models.Snapshot {
	snap := models.Snapshot{Timestamp: s.now().UnixMilli(), Bounds: bounds}

	s.mu.Lock()
	s.snapshots[asset] = append(s.snapshots[asset], snap)
	s.pruneLocked()
	s.metrics.SetSnapshotCount(asset, len(s.snapshots[asset]))
	s.mu.Unlock()

	s.schedulePersist()

	if s.archive != nil {
		go s.archiveSnapshot(asset, snap)
	}
	return snap
}

// Query returns the subset of an asset's sequence whose timestamps satisfy
// the predicate, in stored order.
func (s *Store) Query(asset string, pred func(timestamp int64) bool) []models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Snapshot
	for _, snap := range s.snapshots[asset] {
		if pred(snap.Timestamp) {
			out = append(out, snap)
		}
	}
	return out
}

// Nearest returns the snapshot whose timestamp is closest to target. Exact
// distance ties go to the earlier entry in stored order.
func (s *Store) Nearest(asset string, target int64) (models.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.snapshots[asset]
	if len(seq) == 0 {
		return models.Snapshot{}, false
	}

	best := seq[0]
	bestDist := absInt64(seq[0].Timestamp - target)
	for _, snap := range seq[1:] {
		if d := absInt64(snap.Timestamp - target); d < bestDist {
			best = snap
			bestDist = d
		}
	}
	return best, true
}

// Sufficiency reports whether the asset has at least minCount snapshots and
// an observation span of at least minHours.
func (s *Store) Sufficiency(asset string, minCount int, minHours float64) SufficiencyReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.snapshots[asset]
	report := SufficiencyReport{
		Asset:    asset,
		Count:    len(seq),
		MinCount: minCount,
		MinHours: minHours,
	}
	if len(seq) > 0 {
		oldest := seq[0].Timestamp
		for _, snap := range seq[1:] {
			if snap.Timestamp < oldest {
				oldest = snap.Timestamp
			}
		}
		report.OldestHours = util.HoursBetween(oldest, s.now().UnixMilli())
	}
	report.OK = report.Count >= minCount && report.OldestHours >= minHours
	return report
}

// Snapshots returns a copy of an asset's sequence in stored order.
func (s *Store) Snapshots(asset string) []models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Snapshot(nil), s.snapshots[asset]...)
}

// Assets returns the tracked assets, sorted.
func (s *Store) Assets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.snapshots))
	for asset := range s.snapshots {
		out = append(out, asset)
	}
	sort.Strings(out)
	return out
}

// Prune drops entries older than the retention window for every asset.
func (s *Store) Prune() {
	s.mu.Lock()
	s.pruneLocked()
	s.mu.Unlock()
}

// Flush persists the store synchronously.
func (s *Store) Flush() error {
	return s.persistNow()
}

// Health reports the last persistence outcome.
func (s *Store) Health() Health {
	s.healthMu.Lock()
	defer s.healthMu.Unlock()

	h := Health{}
	if !s.lastPersist.IsZero() {
		h.LastPersist = s.lastPersist.UnixMilli()
	}
	if s.lastErr != nil {
		h.LastError = s.lastErr.Error()
		h.LastErrorAt = s.lastErrAt.UnixMilli()
	}
	return h
}

// Close stops the persistence worker and runs a final synchronous persist.
// Safe to call more than once.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
	return s.Flush()
}

func (s *Store) pruneLocked() {
	cutoff := s.now().Add(-s.retention).UnixMilli()
	for asset, seq := range s.snapshots {
		kept := seq[:0]
		for _, snap := range seq {
			if snap.Timestamp >= cutoff {
				kept = append(kept, snap)
			}
		}
		if len(kept) == 0 {
			delete(s.snapshots, asset)
			continue
		}
		s.snapshots[asset] = kept
	}
}

func (s *Store) schedulePersist() {
	select {
	case s.persistCh <- struct{}{}:
	default:
		// a persist is already pending; it will pick up this state
	}
}

func (s *Store) persistLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case <-s.persistCh:
			if err := s.persistNow(); err != nil {
				s.log.Error("snapshot persist failed", applogger.Error(err))
			}
		}
	}
}

// persistNow writes the whole store to a temp file in the target directory
// and atomically renames it over the durable file.
func (s *Store) persistNow() error {
	s.mu.Lock()
	doc := models.StoreDocument{
		Version:   SchemaVersion,
		Snapshots: make(map[string][]models.Snapshot, len(s.snapshots)),
	}
	for asset, seq := range s.snapshots {
		doc.Snapshots[asset] = append([]models.Snapshot(nil), seq...)
	}
	s.mu.Unlock()

	err := s.writeAtomic(doc)
	s.healthMu.Lock()
	if err != nil {
		s.lastErr = err
		s.lastErrAt = s.now()
	} else {
		s.lastPersist = s.now()
		s.lastErr = nil
	}
	s.healthMu.Unlock()

	if err != nil {
		s.metrics.RecordPersistFailure()
	}
	return err
}

func (s *Store) writeAtomic(doc models.StoreDocument) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	b, err := json.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write temp: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func (s *Store) archiveSnapshot(asset string, snap models.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.archive.Archive(ctx, asset, snap); err != nil {
		s.metrics.RecordArchiveError(s.archive.Name())
		s.log.Warn("snapshot archive failed",
			applogger.String("backend", s.archive.Name()),
			applogger.String("asset", asset),
			applogger.Error(err),
		)
	}
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
