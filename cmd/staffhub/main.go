// GCA Staff Hub - staff experience accrual service.
//
// Wires the accrual engine to its durable store, the event bus, the
// background scheduler, and the optional Redis/PostgreSQL read models, then
// runs until interrupted.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gca-hub/gca-staff-hub/config"
	"github.com/gca-hub/gca-staff-hub/internal/domain/shared"
	"github.com/gca-hub/gca-staff-hub/internal/domain/staff"
	"github.com/gca-hub/gca-staff-hub/internal/infrastructure/messaging"
	"github.com/gca-hub/gca-staff-hub/internal/infrastructure/persistence/jsonfile"
	"github.com/gca-hub/gca-staff-hub/internal/infrastructure/persistence/postgres"
	redisinfra "github.com/gca-hub/gca-staff-hub/internal/infrastructure/persistence/redis"
	"github.com/gca-hub/gca-staff-hub/internal/infrastructure/scheduler"
	"github.com/gca-hub/gca-staff-hub/internal/infrastructure/scheduler/jobs"
	"github.com/gca-hub/gca-staff-hub/internal/xp"
	"github.com/gca-hub/gca-staff-hub/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		AddCaller: cfg.App.Debug,
	})
	log.Info("starting",
		logger.String("app", cfg.App.Name),
		logger.String("version", cfg.App.Version),
		logger.String("environment", string(cfg.App.Environment)),
	)

	// Infrastructure packages log through slog.
	slogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slogLevel(cfg.Observability.LogLevel),
	}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Event bus.
	bus := messaging.NewInMemoryEventBus(slogger)
	defer bus.Close()

	// Durable store and the engine.
	store := jsonfile.New(cfg.Store.Path, log)
	roster := staff.NewRoster(toUserIDs(cfg.Roster.StaffIDs))
	engine := xp.New(store, roster, nil, bus, log, xp.Config{
		Awards: buildAwards(cfg.XP),
		Rooms:  buildRooms(cfg.Rooms),
	})
	log.Info("engine ready", logger.Int("roster_size", roster.Len()))

	// Optional Redis leaderboard mirror.
	var mirror *redisinfra.LeaderboardMirror
	if !cfg.Redis.Disabled {
		client, err := redisinfra.NewClient(redisinfra.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close()

		mirror = redisinfra.NewLeaderboardMirror(client)
		handler := redisinfra.NewMirrorEventHandler(mirror, engine, slogger)
		for _, et := range []shared.EventType{
			shared.EventXPGranted,
			shared.EventRecordReset,
			shared.EventRecordsReset,
		} {
			if err := bus.Subscribe(et, handler); err != nil {
				return fmt.Errorf("subscribe mirror handler: %w", err)
			}
		}
		log.Info("leaderboard mirror enabled", logger.String("redis", cfg.Redis.Host))
	}

	// Optional PostgreSQL snapshot archive.
	var snapshots *postgres.SnapshotRepository
	if cfg.Database.URL != "" {
		pgCfg := postgres.DefaultConfig()
		pgCfg.URL = cfg.Database.URL
		pgCfg.MaxConns = int32(cfg.Database.MaxOpenConns)
		pgCfg.MinConns = int32(cfg.Database.MaxIdleConns)
		pgCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime

		db, err := postgres.Connect(ctx, pgCfg)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer db.Close()

		snapshots = postgres.NewSnapshotRepository(db)
		log.Info("snapshot archive enabled")
	}

	// Scheduler and jobs.
	if cfg.Scheduler.Enabled {
		sched := scheduler.New(slogger, cfg.Scheduler.JobTimeout)

		if err := sched.Register(jobs.NewVoiceAccrualJob(engine), scheduler.Every(cfg.XP.VoiceTickInterval)); err != nil {
			return fmt.Errorf("register voice accrual: %w", err)
		}
		if err := sched.Register(jobs.NewFlushRecordsJob(engine), scheduler.Every(cfg.Store.FlushInterval)); err != nil {
			return fmt.Errorf("register flush: %w", err)
		}
		if mirror != nil {
			if err := sched.Register(jobs.NewMirrorLeaderboardJob(engine, mirror), scheduler.Every(cfg.Scheduler.MirrorLeaderboardInterval)); err != nil {
				return fmt.Errorf("register mirror: %w", err)
			}
		}
		if snapshots != nil {
			if err := sched.Register(jobs.NewArchiveSnapshotJob(engine, snapshots, cfg.Database.SnapshotRetention), scheduler.Every(cfg.Scheduler.ArchiveSnapshotInterval)); err != nil {
				return fmt.Errorf("register archive: %w", err)
			}
		}

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer sched.Stop()
	}

	log.Info("service running")
	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := engine.Close(shutdownCtx); err != nil {
		log.Error("final flush failed", logger.Err(err))
		return err
	}

	log.Info("shutdown complete")
	return nil
}

// buildAwards maps the env config onto the domain award table.
func buildAwards(c config.XPConfig) staff.Awards {
	return staff.Awards{
		MessageXP:        c.MessageXP,
		VoiceXPPerMinute: c.VoiceXPPerMinute,
		TicketCloseXP:    c.TicketCloseXP,
		StoryReviewXP:    c.StoryReviewXP,
		CallResponseXP:   c.CallResponseXP,
		MessageBonus: map[staff.RoomGroup]float64{
			staff.GroupInterview: c.InterviewMessageBonus,
			staff.GroupSupport:   c.SupportMessageBonus,
		},
		VoiceHourlyBonus: map[staff.RoomGroup]float64{
			staff.GroupInterview:   c.InterviewVoiceBonus,
			staff.GroupSupport:     c.SupportVoiceBonus,
			staff.GroupActiveStaff: c.ActiveStaffVoiceBonus,
		},
		MessageCooldown:   c.MessageCooldown,
		VoiceTickInterval: c.VoiceTickInterval,
	}
}

// buildRooms maps configured room IDs onto the classification map.
func buildRooms(c config.RoomsConfig) *staff.RoomMap {
	rooms := staff.NewRoomMap(staff.RoomID(c.AFK))
	rooms.Assign(staff.GroupInterview, toRoomIDs(c.Interview)...)
	rooms.Assign(staff.GroupSupport, toRoomIDs(c.Support)...)
	rooms.Assign(staff.GroupActiveStaff, toRoomIDs(c.ActiveStaff)...)
	return rooms
}

func toUserIDs(ids []string) []staff.UserID {
	out := make([]staff.UserID, 0, len(ids))
	for _, id := range ids {
		out = append(out, staff.UserID(id))
	}
	return out
}

func toRoomIDs(ids []string) []staff.RoomID {
	out := make([]staff.RoomID, 0, len(ids))
	for _, id := range ids {
		out = append(out, staff.RoomID(id))
	}
	return out
}

func slogLevel(level string) slog.Level {
	switch logger.ParseLevel(level) {
	case logger.LevelDebug:
		return slog.LevelDebug
	case logger.LevelWarn:
		return slog.LevelWarn
	case logger.LevelError, logger.LevelFatal:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
