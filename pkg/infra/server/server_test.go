package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpopts "github.com/kart-io/unirag/pkg/options/server/http"
)

type fakeRunnable struct {
	name     string
	startErr error
	started  bool
	stopped  bool
}

func (f *fakeRunnable) Name() string { return f.name }

func (f *fakeRunnable) Start(context.Context) error {
	f.started = f.startErr == nil
	return f.startErr
}

func (f *fakeRunnable) Stop(context.Context) error {
	f.stopped = true
	return nil
}

func newTestManager() *Manager {
	o := httpopts.NewOptions()
	o.Addr = "127.0.0.1:0"
	o.Mode = gin.TestMode
	return NewManager(WithHTTPOptions(o), WithShutdownTimeout(time.Second))
}

func TestManagerStartStop(t *testing.T) {
	m := newTestManager()
	watcher := &fakeRunnable{name: "watcher"}
	m.AddServer(watcher)

	require.NoError(t, m.Start(context.Background()))
	assert.True(t, watcher.started)
	assert.Error(t, m.Start(context.Background()), "double start")

	require.NoError(t, m.Stop(context.Background()))
	assert.True(t, watcher.stopped)
	assert.NoError(t, m.Stop(context.Background()), "stop is idempotent")
}

func TestManagerRollsBackOnFailure(t *testing.T) {
	m := newTestManager()
	first := &fakeRunnable{name: "first"}
	m.AddServer(first)
	m.AddServer(&fakeRunnable{name: "broken", startErr: errors.New("boom")})

	err := m.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.True(t, first.stopped)
}

func TestManagerRunStopsOnCancel(t *testing.T) {
	m := newTestManager()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
