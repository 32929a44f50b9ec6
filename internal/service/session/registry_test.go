package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/infra/limiter"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/infra/logger"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/service/orchestrator"
)

type recordingCleaner struct {
	mu      sync.Mutex
	deleted []string
}

func (c *recordingCleaner) DeleteSession(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, id)
	return nil
}

func newRegistry(t *testing.T, cleaner Cleaner) *Registry {
	t.Helper()
	lim := limiter.New(1, 0)
	factory := func(id string) *orchestrator.Orchestrator {
		return orchestrator.New(id, nil, nil, nil, nil, lim, logger.NewNop())
	}
	return New(factory, cleaner, time.Hour, logger.NewNop())
}

func TestCreateGetDelete(t *testing.T) {
	cleaner := &recordingCleaner{}
	r := newRegistry(t, cleaner)

	orch := r.Create()
	_, err := uuid.Parse(orch.SessionID())
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())

	got, ok := r.Get(orch.SessionID())
	require.True(t, ok)
	assert.Same(t, orch, got)

	_, ok = r.Get("missing")
	assert.False(t, ok)

	assert.True(t, r.Delete(context.Background(), orch.SessionID()))
	assert.False(t, r.Delete(context.Background(), orch.SessionID()))
	assert.Equal(t, []string{orch.SessionID()}, cleaner.deleted)
	assert.Zero(t, r.Len())
}

func TestSweepDropsIdleSessions(t *testing.T) {
	cleaner := &recordingCleaner{}
	r := newRegistry(t, cleaner)

	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	old := r.Create()
	now = now.Add(50 * time.Minute)
	fresh := r.Create()

	now = now.Add(20 * time.Minute)
	assert.Equal(t, 1, r.Sweep(context.Background()))

	_, ok := r.Get(old.SessionID())
	assert.False(t, ok)
	_, ok = r.Get(fresh.SessionID())
	assert.True(t, ok)
	assert.Equal(t, []string{old.SessionID()}, cleaner.deleted)
}

func TestGetKeepsSessionAlive(t *testing.T) {
	r := newRegistry(t, nil)

	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	s := r.Create()
	now = now.Add(50 * time.Minute)
	_, ok := r.Get(s.SessionID())
	require.True(t, ok)

	now = now.Add(50 * time.Minute)
	assert.Zero(t, r.Sweep(context.Background()))
	assert.Equal(t, 1, r.Len())
}

func TestStartAndClose(t *testing.T) {
	r := newRegistry(t, nil)
	r.Start(10 * time.Millisecond)
	r.Create()
	time.Sleep(30 * time.Millisecond)
	r.Close()
	assert.Equal(t, 1, r.Len())
}

func TestCloseWithoutStart(t *testing.T) {
	r := newRegistry(t, nil)
	done := make(chan struct{})
	go func() {
		r.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close blocked without Start")
	}
}
