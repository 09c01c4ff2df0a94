package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dorfsim/server/internal/config"
	"github.com/dorfsim/server/internal/core/event"
	coresys "github.com/dorfsim/server/internal/core/system"
	"github.com/dorfsim/server/internal/data"
	"github.com/dorfsim/server/internal/geom"
	"github.com/dorfsim/server/internal/handler"
	gonet "github.com/dorfsim/server/internal/net"
	"github.com/dorfsim/server/internal/net/packet"
	"github.com/dorfsim/server/internal/occupancy"
	"github.com/dorfsim/server/internal/pathing"
	"github.com/dorfsim/server/internal/persist"
	"github.com/dorfsim/server/internal/scripting"
	"github.com/dorfsim/server/internal/system"
	"github.com/dorfsim/server/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

var printer = message.NewPrinter(language.English)

func printBanner(serverName string, serverID int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m             dorfsim  v0.1.0               \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      grid pathfinding simulation          \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mServer:\033[0m %s \033[90m(id: %d)\033[0m\n\n", serverName, serverID)
}

func printSection(title string) {
	lineLen := max(46-len(title)-1, 3)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := printer.Sprintf("%d", count)
	dotsLen := max(42-len(label)-len(numStr), 3)
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("DORFSIM_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.ID)

	// 3. Load the map and build the occupancy cache
	printSection("World")

	bounds := geom.RectFromOriginSize(
		geom.IV(cfg.Sim.OriginX, cfg.Sim.OriginY),
		geom.IV(cfg.Sim.Width, cfg.Sim.Height),
	)
	var layout *data.Layout
	if cfg.Sim.Layout != "" {
		layout, err = data.LoadLayout(cfg.Sim.Layout)
		if err != nil {
			return fmt.Errorf("load layout: %w", err)
		}
		bounds = layout.Rect()
	}
	cache := occupancy.New(bounds.Min, bounds.Size())
	worldState := world.NewState()
	printStat("Map tiles", bounds.Area())

	if layout != nil {
		obstacles, movers := layout.Populate(worldState)
		printStat("Obstacles", obstacles)
		printStat("Movers", movers)
	}

	seed := cfg.Sim.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	bus := event.NewBus()
	system.SubscribeEventLog(bus, log)

	// 4. Lua goal policy
	luaEngine, err := scripting.NewEngine(cfg.Scripting.Dir, seed, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()
	luaEngine.SetBlockedFunc(func(x, y int32) bool {
		hit, err := cache.Collides(geom.IV(x, y))
		return err != nil || hit
	})
	if luaEngine.HasGoalPolicy() {
		printOK("Lua goal policy loaded")
	} else {
		printOK("No goal policy script, using random goals")
	}
	fmt.Println()

	// 5. Create systems and register with runner
	runner := coresys.NewRunner()
	runner.Register(system.NewEventDispatchSystem(bus))

	if cfg.Scripting.HotReload {
		watcher, err := scripting.NewWatcher(cfg.Scripting.Dir)
		if err != nil {
			return fmt.Errorf("script watcher: %w", err)
		}
		defer watcher.Close()
		runner.Register(system.NewScriptReloadSystem(luaEngine, watcher, log))
	}

	occSys := system.NewOccupancySystem(worldState, cache, bus, cfg.Sim.OverlapPolicy, cfg.Sim.DumpCache, log)
	runner.Register(occSys)
	runner.Register(system.NewPathingSystem(
		worldState, cache,
		system.NewGoalPicker(luaEngine, bounds, seed),
		bus,
		pathing.Options{MaxExpansions: cfg.Sim.MaxExpansions},
		cfg.Sim.MaxPathAttempts,
		log,
	))
	runner.Register(system.NewMovementSystem(worldState, cache, bus))
	if cfg.Spawner.Enabled {
		runner.Register(system.NewSpawnerSystem(worldState, cache, bus, cfg.Spawner, log))
	}
	runner.Register(system.NewCleanupSystem(worldState, cache, bus))

	// 6. Connect to PostgreSQL and run migrations
	var (
		persistSys *system.PersistenceSystem
		runRepo    *persist.RunRepo
		runID      int64
	)
	if cfg.Database.Enabled {
		printSection("Database")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("Migrations applied")

		runRepo = persist.NewRunRepo(db)
		runID, err = runRepo.Start(ctx, persist.RunRow{
			Name:    cfg.Server.Name,
			Seed:    seed,
			OriginX: bounds.Min.X,
			OriginY: bounds.Min.Y,
			Width:   bounds.Width(),
			Height:  bounds.Height(),
		})
		if err != nil {
			return fmt.Errorf("start run: %w", err)
		}
		printStat("Run", int(runID))
		fmt.Println()

		persistSys = system.NewPersistenceSystem(
			worldState, bus,
			persist.NewSnapshotRepo(db),
			persist.NewEventRepo(db),
			runID,
			cfg.Database.FlushInterval,
			cfg.Database.SnapshotInterval,
			log,
		)
		runner.Register(persistSys)
	}

	// 7. Observer network
	var netServer *gonet.Server
	if cfg.Network.Enabled {
		pktReg := packet.NewRegistry(log)
		deps := &handler.Deps{
			Log:          log,
			World:        worldState,
			Cache:        cache,
			Bus:          bus,
			PasswordHash: []byte(cfg.Network.ControlPasswordHash),
		}
		handler.RegisterAll(pktReg, deps)

		netServer, err = gonet.NewServer(
			cfg.Network.BindAddress,
			cfg.Network.InQueueSize,
			cfg.Network.OutQueueSize,
			cfg.Network.PacketsPerSecond,
			cfg.Network.WriteTimeout,
			cfg.Network.ReadTimeout,
			log,
		)
		if err != nil {
			return fmt.Errorf("net server: %w", err)
		}
		go netServer.AcceptLoop()

		store := gonet.NewSessionStore()
		runner.Register(system.NewInputSystem(netServer, pktReg, store, deps, cfg.Network.MaxPacketsPerTick, log))
		runner.Register(system.NewOutputSystem(worldState, store, cfg.Network.SnapshotEvery, log))
	}

	// 8. Start game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Sim.TickRate)
	defer ticker.Stop()

	printSection("Ready")
	if netServer != nil {
		printReady(fmt.Sprintf("Listening on %s", netServer.Addr().String()))
	}
	printReady(fmt.Sprintf("Game loop started (tick: %s, systems: %d)", cfg.Sim.TickRate, runner.Len()))
	fmt.Println()

	shutdown := func() {
		if persistSys != nil {
			persistSys.Flush()
		}
		if runRepo != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := runRepo.Finish(ctx, runID, worldState.Tick); err != nil {
				log.Error("finish run failed", zap.Error(err))
			}
			cancel()
		}
		if netServer != nil {
			netServer.Shutdown()
		}
	}

	for {
		select {
		case <-ticker.C:
			worldState.Tick++
			runner.Tick(cfg.Sim.TickRate)
			if err := occSys.Err(); err != nil {
				log.Error("simulation halted",
					zap.Uint64("tick", worldState.Tick),
					zap.Duration("uptime", time.Since(time.Unix(cfg.Server.StartTime, 0)).Round(time.Second)),
					zap.Error(err),
				)
				shutdown()
				return err
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			shutdown()
			log.Info("server stopped",
				zap.Uint64("ticks", worldState.Tick),
				zap.Duration("uptime", time.Since(time.Unix(cfg.Server.StartTime, 0)).Round(time.Second)),
				zap.Int("movers", worldState.Count(world.KindMover)),
			)
			return nil
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
