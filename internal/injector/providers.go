package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/suika/internal/config"
	"github.com/zeusync/suika/internal/core/events/bus"
	"github.com/zeusync/suika/internal/core/game"
	"github.com/zeusync/suika/internal/core/kinds"
	"github.com/zeusync/suika/internal/core/observability/log"
	"github.com/zeusync/suika/internal/core/spawn"
	"github.com/zeusync/suika/internal/core/systems/physics/resolvspace"
	"github.com/zeusync/suika/internal/server"
)

// App is everything cmd/server runs.
type App struct {
	Config   config.Config
	Logger   *log.Logger
	Events   bus.EventBus
	Observer *bus.LogObserver
	World    *resolvspace.World
	Loop     *game.Loop
	Server   *server.Server
}

func NewApp(cfg config.Config, logger *log.Logger, events bus.EventBus, obs *bus.LogObserver, world *resolvspace.World, loop *game.Loop, srv *server.Server) *App {
	return &App{Config: cfg, Logger: logger, Events: events, Observer: obs, World: world, Loop: loop, Server: srv}
}

// Close detaches the bus observer and flushes the logger. The server and loop
// are stopped by their own lifecycles.
func (a *App) Close() error {
	a.Events.RemoveObserver(a.Observer)
	return a.Logger.Sync()
}

var ProviderSet = wire.NewSet(
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	ProvideTable,
	ProvidePalette,
	ProvidePolicy,
	ProvideObserver,
	ProvideBus,
	ProvideWorld,
	ProvideSession,
	ProvideLoop,
	ProvideServer,
	NewApp,
)

func ProvideLogger(cfg config.Config) *log.Logger {
	return log.New(cfg.Level())
}

func ProvideTable(cfg config.Config) (*kinds.Table, error) {
	return cfg.Table()
}

func ProvidePalette(cfg config.Config) (*kinds.Palette, error) {
	return cfg.Palette()
}

// ProvidePolicy seeds the spawn policy from cfg.Seed, or randomly when unset.
func ProvidePolicy(cfg config.Config, table *kinds.Table) *spawn.Policy {
	if cfg.Seed == "" {
		return spawn.NewPolicy(table, nil)
	}
	return spawn.NewSeededPolicy(table, cfg.Seed)
}

func ProvideObserver(logger log.Log) *bus.LogObserver {
	return bus.NewLogObserver(logger, bus.DefaultSlowDelivery)
}

// ProvideBus builds the session bus with the observer attached, which also
// enables the event metrics shown in snapshots.
func ProvideBus(obs *bus.LogObserver) bus.EventBus {
	events := bus.New()
	events.AddObserver(obs)
	return events
}

func ProvideWorld(cfg config.Config, logger log.Log) (*resolvspace.World, error) {
	return resolvspace.New(resolvspace.Options{
		Width:    cfg.Arena.Width,
		Height:   cfg.Arena.Height,
		CellSize: cfg.Arena.Cell,
		Logger:   logger,
	})
}

func ProvideSession(cfg config.Config, table *kinds.Table, world *resolvspace.World, policy *spawn.Policy, events bus.EventBus, logger log.Log) (*game.Session, error) {
	return game.NewSession(game.Options{
		Table:        table,
		Engine:       world,
		Policy:       policy,
		Bus:          events,
		Logger:       logger,
		Placement:    cfg.PlacementMode(),
		GravityScale: cfg.GravityScale,
		Arena: game.Arena{
			Width:  cfg.Arena.Width,
			Height: cfg.Arena.Height,
			Margin: cfg.Arena.Margin,
		},
	})
}

func ProvideLoop(cfg config.Config, session *game.Session, world *resolvspace.World, logger log.Log) *game.Loop {
	return game.NewLoop(session, game.LoopOptions{
		Stepper:        world,
		StepInterval:   cfg.StepInterval.Std(),
		LaunchInterval: cfg.LauncherInterval.Std(),
		Verify:         cfg.Verify,
		Logger:         logger,
	})
}

func ProvideServer(cfg config.Config, loop *game.Loop, palette *kinds.Palette, logger log.Log) (*server.Server, error) {
	sc := server.DefaultServerConfig()
	sc.ListenAddr = cfg.Addr
	sc.Token = cfg.Token
	sc.MaxClients = cfg.MaxClients
	return server.NewServer(sc, loop, palette, logger)
}
