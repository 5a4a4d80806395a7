// Package session holds the process-wide context one or more report runs
// share: logger, job store, tuning knobs and the cache of broadcast
// dimension indexes. A Session is created explicitly before the first run and
// released with Close after the last one.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-revenue-report/internal/config"
	"go-revenue-report/internal/relation"
	"go-revenue-report/internal/store"
)

// Options tune the execution of every run in the session. A job may override
// the filters and concurrency settings for itself.
type Options struct {
	Partitions      int
	Workers         int
	EmployeeType    string
	TransactionType string
	JobTimeout      time.Duration
	OutputDir       string // base directory of per-job export files
}

// OptionsFromConfig maps the report and output settings of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Partitions:      cfg.Report.Partitions,
		Workers:         cfg.Report.Workers,
		EmployeeType:    cfg.Report.EmployeeType,
		TransactionType: cfg.Report.TransactionType,
		JobTimeout:      cfg.Report.JobTimeout,
		OutputDir:       cfg.App.OutputDir,
	}
}

// Session is safe for concurrent use by several runs.
type Session struct {
	ID      string
	Logger  *zap.Logger
	Store   *store.Store // nil when job tracking is disabled
	Options Options

	mu        sync.Mutex
	closed    bool
	broadcast map[broadcastKey]*relation.Index
}

type broadcastKey struct {
	rel *relation.Relation
	key string
}

// New creates a session. logger may be nil; st may be nil.
func New(logger *zap.Logger, st *store.Store, opts Options) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Partitions < 1 {
		opts.Partitions = relation.DefaultPartitions
	}
	id := uuid.New().String()
	return &Session{
		ID:        id,
		Logger:    logger.With(zap.String("session", id)),
		Store:     st,
		Options:   opts,
		broadcast: make(map[broadcastKey]*relation.Index),
	}
}

// ErrClosed is returned by operations on a closed session.
var ErrClosed = errors.New("session closed")

// Broadcast returns the unique-key index of rel on key, building it on first
// use. The dimension relation is immutable, so one index serves every
// partition until Release drops it.
func (s *Session) Broadcast(rel *relation.Relation, key string) (*relation.Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	k := broadcastKey{rel: rel, key: key}
	if idx, ok := s.broadcast[k]; ok {
		return idx, nil
	}
	idx, err := rel.UniqueIndex(key)
	if err != nil {
		return nil, err
	}
	s.broadcast[k] = idx
	s.Logger.Debug("broadcast index built",
		zap.String("relation", rel.Name()),
		zap.String("key", key),
		zap.Int("rows", rel.Len()),
	)
	return idx, nil
}

// Release drops the cached index of rel, if any.
func (s *Session) Release(rel *relation.Relation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.broadcast {
		if k.rel == rel {
			delete(s.broadcast, k)
		}
	}
}

// Cached returns the number of broadcast indexes currently held.
func (s *Session) Cached() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.broadcast)
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close drops cached indexes, closes the store and flushes the logger. It is
// safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.broadcast = nil
	s.mu.Unlock()

	var err error
	if s.Store != nil {
		err = s.Store.Close()
	}
	_ = s.Logger.Sync()
	return err
}
