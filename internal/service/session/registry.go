package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/infra/logger"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/service/orchestrator"
)

// Factory builds the orchestrator for a new session id.
type Factory func(id string) *orchestrator.Orchestrator

// Cleaner drops whatever was persisted for a session.
type Cleaner interface {
	DeleteSession(ctx context.Context, sessionID string) error
}

type entry struct {
	orch        *orchestrator.Orchestrator
	lastTouched time.Time
}

// Registry keeps the live carousel sessions in memory. Idle sessions are
// dropped after ttl by a background loop; sessions with a run in progress
// are never dropped. Call Close to stop the loop.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry
	ttl      time.Duration
	factory  Factory
	cleaner  Cleaner
	logger   *logger.Logger
	now      func() time.Time

	startOnce sync.Once
	started   bool
	stopCh    chan struct{}
	doneCh    chan struct{}
}

func New(factory Factory, cleaner Cleaner, ttl time.Duration, log *logger.Logger) *Registry {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Registry{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		factory:  factory,
		cleaner:  cleaner,
		logger:   log,
		now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the cleanup loop every interval.
func (r *Registry) Start(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	r.startOnce.Do(func() {
		r.mu.Lock()
		r.started = true
		r.mu.Unlock()
		go r.cleanupLoop(interval)
	})
}

func (r *Registry) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer close(r.doneCh)

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.Sweep(context.Background())
		}
	}
}

// Close stops the cleanup loop started by Start.
func (r *Registry) Close() {
	r.mu.Lock()
	started := r.started
	r.started = false
	r.mu.Unlock()
	if !started {
		return
	}
	close(r.stopCh)
	select {
	case <-r.doneCh:
	case <-time.After(5 * time.Second):
	}
}

func (r *Registry) Create() *orchestrator.Orchestrator {
	id := uuid.New().String()
	orch := r.factory(id)

	r.mu.Lock()
	r.sessions[id] = &entry{orch: orch, lastTouched: r.now()}
	r.mu.Unlock()

	r.logger.Info("session created", "session_id", id)
	return orch
}

// Get returns the session and marks it as used.
func (r *Registry) Get(id string) (*orchestrator.Orchestrator, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastTouched = r.now()
	return e.orch, true
}

func (r *Registry) Delete(ctx context.Context, id string) bool {
	r.mu.Lock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		r.clean(ctx, id)
	}
	return ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than ttl and returns how many went.
func (r *Registry) Sweep(ctx context.Context) int {
	now := r.now()

	var expired []string
	r.mu.Lock()
	for id, e := range r.sessions {
		if now.Sub(e.lastTouched) <= r.ttl {
			continue
		}
		if e.orch.Snapshot().Phase.Active() {
			continue
		}
		delete(r.sessions, id)
		expired = append(expired, id)
	}
	r.mu.Unlock()

	for _, id := range expired {
		r.clean(ctx, id)
	}
	if len(expired) > 0 {
		r.logger.Info("expired sessions removed", "count", len(expired))
	}
	return len(expired)
}

func (r *Registry) clean(ctx context.Context, id string) {
	if r.cleaner == nil {
		return
	}
	if err := r.cleaner.DeleteSession(ctx, id); err != nil {
		r.logger.Warn("failed to clean session storage", "session_id", id, "error", err)
	}
}
