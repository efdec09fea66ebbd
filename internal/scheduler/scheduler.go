package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/tanq16/segdl/internal/config"
	segdlhttp "github.com/tanq16/segdl/internal/downloaders/http"
	"github.com/tanq16/segdl/internal/transfer"
	"github.com/tanq16/segdl/internal/utils"
)

var (
	ErrManagerClosed   = errors.New("download manager is shut down")
	ErrUnknownDownload = errors.New("unknown download id")
)

// Manager owns the worker pool, the scheme registry and every submitted download.
type Manager struct {
	cfg     config.Config
	engine  *transfer.Engine
	queue   *jobQueue
	workers sync.WaitGroup
	log     zerolog.Logger

	mu        sync.RWMutex
	providers map[string]utils.SchemeProvider
	records   map[int]*utils.Record
	nextID    int
	stopOnce  sync.Once
}

// NewManager validates cfg and starts cfg.Threads workers.
func NewManager(cfg config.Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	strategy, err := transfer.ParseStrategy(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	m := &Manager{
		cfg:     cfg,
		engine:  transfer.New(strategy, cfg.BufferSize),
		queue:   newJobQueue(),
		log:     utils.GetLogger("scheduler"),
		records: make(map[int]*utils.Record),
		providers: map[string]utils.SchemeProvider{
			"http": segdlhttp.New(segdlhttp.Options{
				ConnectTimeout: cfg.ConnectTimeout,
				SocketBuffer:   cfg.SocketBuffer,
			}),
		},
	}
	for i := range cfg.Threads {
		m.workers.Add(1)
		go m.processJobs(i + 1)
	}
	m.log.Debug().Int("threads", cfg.Threads).Int64("segmentSize", cfg.SegmentSize).Str("strategy", string(m.engine.Strategy())).Msg("Worker pool started")
	return m, nil
}

// Register adds or replaces the provider for a scheme tag.
func (m *Manager) Register(scheme string, provider utils.SchemeProvider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[strings.ToLower(scheme)] = provider
}

func (m *Manager) provider(scheme string) (utils.SchemeProvider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	provider, ok := m.providers[strings.ToLower(scheme)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", utils.ErrUnsupportedScheme, scheme)
	}
	return provider, nil
}

// SubmitURL parses raw and submits it.
func (m *Manager) SubmitURL(ctx context.Context, raw, path string) (int, error) {
	loc, err := utils.ParseLocation(raw)
	if err != nil {
		return 0, err
	}
	return m.Submit(ctx, loc, path)
}

// Submit probes loc, creates path at the probed size and queues one job per
// segment. Nothing is written to disk when the scheme or the probe fails.
func (m *Manager) Submit(ctx context.Context, loc utils.Location, path string) (int, error) {
	if m.queue.Closed() {
		return 0, ErrManagerClosed
	}
	log := m.log.With().Str("url", loc.String()).Str("path", path).Logger()
	provider, err := m.provider(loc.Scheme)
	if err != nil {
		return 0, err
	}
	size, err := provider.ProbeSize(ctx, loc)
	if err != nil {
		log.Debug().Err(err).Msg("Probe failed")
		if errors.Is(err, utils.ErrProbeFailed) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %w", utils.ErrProbeFailed, err)
	}
	if err := createSized(path, size); err != nil {
		return 0, err
	}

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	rec := utils.NewRecord(id, utils.Header{Location: loc, Path: path, Size: size}, m.cfg.SegmentSize)
	m.records[id] = rec
	m.mu.Unlock()

	jobs := make([]Job, len(rec.Segments))
	for i := range rec.Segments {
		jobs[i] = Job{Record: rec, Index: i}
	}
	if !m.queue.Push(jobs...) {
		m.mu.Lock()
		delete(m.records, id)
		m.mu.Unlock()
		if err := os.Remove(path); err != nil {
			log.Warn().Err(err).Msg("Failed to remove file of rejected download")
		}
		return 0, ErrManagerClosed
	}
	log.Info().Int("id", id).Int64("size", size).Int("segments", len(jobs)).Msg("Download queued")
	return id, nil
}

func createSized(path string, size int64) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: %v", utils.ErrFileCreate, err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", utils.ErrFileCreate, err)
	}
	defer file.Close()
	if err := file.Truncate(size); err != nil {
		return fmt.Errorf("%w: sizing %s: %v", utils.ErrFileCreate, path, err)
	}
	return nil
}

// Snapshot returns the live record for id. Its counters keep moving while
// workers run.
func (m *Manager) Snapshot(id int) (*utils.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDownload, id)
	}
	return rec, nil
}

// Records returns every submitted download in submission order.
func (m *Manager) Records() []*utils.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	records := make([]*utils.Record, 0, len(m.records))
	for _, rec := range m.records {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	})
	return records
}

// Enqueued is the number of jobs queued since the manager started.
func (m *Manager) Enqueued() int {
	return m.queue.Enqueued()
}

// Shutdown stops accepting downloads, lets the workers drain the queue and
// waits for all of them to exit. In-flight transfers are not interrupted.
func (m *Manager) Shutdown() {
	m.stopOnce.Do(func() {
		m.log.Debug().Int("pending", m.queue.Len()).Msg("Closing job queue")
		m.queue.Close()
	})
	m.workers.Wait()
}
