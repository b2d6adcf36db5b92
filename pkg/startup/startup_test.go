package startup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestStartup_StartsDependenciesFirstAndStopsInReverse(t *testing.T) {
	var events []string
	record := func(event string) func(context.Context) error {
		return func(context.Context) error {
			events = append(events, event)
			return nil
		}
	}

	s := NewStartup(testLogger(), 1)
	s.AddDependency(&Dependency{Name: "http", Requires: []string{"postgres", "redis"}, StartFunc: record("start http"), StopFunc: record("stop http")})
	s.AddDependency(&Dependency{Name: "postgres", StartFunc: record("start postgres"), StopFunc: record("stop postgres")})
	s.AddDependency(&Dependency{Name: "redis", StartFunc: record("start redis"), StopFunc: record("stop redis")})

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop(context.Background()))

	assert.Equal(t, []string{
		"start postgres", "start redis", "start http",
		"stop http", "stop redis", "stop postgres",
	}, events)
	assert.Equal(t, StartupStatusStopped, s.Status("http"))
}

func TestStartup_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	s := NewStartup(testLogger(), 3).WithBackoffUnit(time.Millisecond)
	s.AddDependency(&Dependency{Name: "postgres", StartFunc: func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, 3, calls)
}

func TestStartup_GivesUp(t *testing.T) {
	s := NewStartup(testLogger(), 2).WithBackoffUnit(time.Millisecond)
	s.AddDependency(&Dependency{Name: "postgres", StartFunc: func(context.Context) error {
		return errors.New("connection refused")
	}})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "startup failed after 2 attempts")
	assert.Equal(t, StartupStatusFailed, s.Status("postgres"))
}

func TestStartup_UnknownDependency(t *testing.T) {
	s := NewStartup(testLogger(), 1)
	s.AddDependency(&Dependency{Name: "http", Requires: []string{"kafka"}})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown startup dependency 'kafka'")
}
