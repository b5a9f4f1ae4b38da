package injector

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zeusync/suika/internal/config"
	"github.com/zeusync/suika/internal/core/systems/physics"
)

func TestInitializeApp(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "error"
	cfg.Seed = "wire"

	app, err := InitializeApp(cfg)
	require.NoError(t, err)
	require.NotNil(t, app.Loop)
	require.NotNil(t, app.Server)
	require.NotNil(t, app.World)
	require.Equal(t, 11, app.Loop.Session().Table().Len())
	require.NoError(t, app.Server.Close())
}

func TestInitializeApp_EventMetrics(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "error"

	app, err := InitializeApp(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Server.Close() })
	session := app.Loop.Session()

	_, err = session.Tap(physics.V(100, 100))
	require.NoError(t, err)
	snap := session.Snapshot()
	require.Equal(t, uint64(1), snap.Events.Published)
	require.Equal(t, uint64(1), snap.Events.DeliveredHandlers)

	// a failing stderr sync is not interesting here
	_ = app.Close()
	_, err = session.Tap(physics.V(200, 100))
	require.NoError(t, err)
	require.Equal(t, uint64(1), session.Snapshot().Events.Published)
}

func TestInitializeApp_InvalidCatalog(t *testing.T) {
	cfg := config.Default()
	cfg.ExcludeLargest = 99
	_, err := InitializeApp(cfg)
	require.Error(t, err)
}
