package monolith

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SimpleFi-finance/defi-analytics/internal/config"
	"github.com/SimpleFi-finance/defi-analytics/internal/di"
	"github.com/SimpleFi-finance/defi-analytics/internal/logger"
)

type recordingModule struct {
	name     string
	events   *[]string
	startErr error
}

func (m *recordingModule) RegisterServices(c di.Container) error {
	*m.events = append(*m.events, "register "+m.name)
	c.Register(m.name, m.name)
	return nil
}

func (m *recordingModule) Startup(_ context.Context, mono Monolith) error {
	*m.events = append(*m.events, "start "+m.name)
	if m.startErr != nil {
		return m.startErr
	}
	// every module sees services registered by every other
	for _, other := range []string{"pricing", "position"} {
		if mono.Services().Get(other) != other {
			return errors.New("missing " + other)
		}
	}
	return nil
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := &config.Config{Subgraph: config.SubgraphConfig{
		PoolURL: "http://127.0.0.1:0/pools",
		FarmURL: "http://127.0.0.1:0/farms",
	}}
	a, err := New(cfg, logger.New(&bytes.Buffer{}, logger.LevelError, "test", nil))
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestStart_RegistersAllBeforeStarting(t *testing.T) {
	a := newTestApp(t)

	var events []string
	err := a.Start(context.Background(),
		&recordingModule{name: "pricing", events: &events},
		&recordingModule{name: "position", events: &events},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"register pricing", "register position",
		"start pricing", "start position",
	}, events)

	assert.Nil(t, a.EthClient())
	assert.Equal(t, "pool-subgraph", a.PoolSubgraph().Name())
	assert.Equal(t, "farm-subgraph", a.FarmSubgraph().Name())
	assert.Same(t, a.Config(), a.Services().Get(ServiceConfig))
}

func TestStart_StopsOnStartupError(t *testing.T) {
	a := newTestApp(t)

	var events []string
	boom := errors.New("boom")
	err := a.Start(context.Background(),
		&recordingModule{name: "pricing", events: &events, startErr: boom},
		&recordingModule{name: "position", events: &events},
	)
	assert.ErrorIs(t, err, boom)
	assert.NotContains(t, events, "start position")
}

func TestNew_RequiresSubgraphURLs(t *testing.T) {
	_, err := New(&config.Config{}, logger.New(&bytes.Buffer{}, logger.LevelError, "test", nil))
	assert.Error(t, err)
}
