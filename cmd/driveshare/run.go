package main

import (
	"context"
	"fmt"
	"time"

	_ "github.com/nerrad567/driveshare-core/migrations"

	"github.com/nerrad567/driveshare-core/internal/api"
	"github.com/nerrad567/driveshare-core/internal/audit"
	"github.com/nerrad567/driveshare-core/internal/dataserv"
	"github.com/nerrad567/driveshare-core/internal/drive"
	"github.com/nerrad567/driveshare-core/internal/infrastructure/config"
	"github.com/nerrad567/driveshare-core/internal/infrastructure/database"
	"github.com/nerrad567/driveshare-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/driveshare-core/internal/infrastructure/logging"
	"github.com/nerrad567/driveshare-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/driveshare-core/internal/ipc"
	"github.com/nerrad567/driveshare-core/internal/process"
	"github.com/nerrad567/driveshare-core/internal/shutdown"
)

// drainTimeout bounds how long shutdown waits for output relays after the
// children have been signalled.
const drainTimeout = 15 * time.Second

// run is the actual application logic, separated from main for testability.
// It returns nil on a clean shutdown after ctx is cancelled.
func run(ctx context.Context, configPath string) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting driveshare-core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)
	shutdown.Default.SetLogger(log.Component("shutdown"))

	// Open database
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	drives := drive.NewSQLiteRepository(db.DB)
	history := drive.NewHistoryRepository(db.DB)
	history.SetLogger(log.Component("history"))
	auditLog := audit.NewSQLiteRepository(db.DB)

	// Runs left open by a previous crash can never be closed by a relay.
	interrupted, err := history.MarkInterrupted(ctx)
	if err != nil {
		return fmt.Errorf("closing interrupted runs: %w", err)
	}
	if interrupted > 0 {
		log.Warn("marked runs from previous instance as interrupted", "runs", interrupted)
	}

	health := map[string]api.HealthChecker{"database": db}

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		mqttClient.SetLogger(log.Component("mqtt"))
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		health["mqtt"] = mqttClient
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		health["influxdb"] = influxClient
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	bus := ipc.NewBus(ipc.DefaultReplay)
	defer bus.Close()

	sup := newSupervisor(cfg, bus, mqttClient, history, influxClient)
	sup.SetLogger(log.Component("dataserv"))

	if cfg.Dataserv.ValidateOnStart {
		if v, vErr := sup.ValidateClient(ctx, ""); vErr != nil {
			log.Error("dataserv-client validation failed", "binary", sup.Binary(), "error", vErr)
		} else {
			log.Info("dataserv-client validated", "binary", sup.Binary(), "version", v)
		}
	}

	apiServer, err := api.New(api.Deps{
		Config:     cfg.API,
		WS:         cfg.WebSocket,
		Security:   cfg.Security,
		Logger:     log,
		Supervisor: sup,
		Drives:     drives,
		History:    history,
		Audit:      auditLog,
		Bus:        bus,
		Health:     health,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		sup.Close()
		return fmt.Errorf("starting API server: %w", err)
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	if closeErr := apiServer.Close(); closeErr != nil {
		log.Error("error closing API server", "error", closeErr)
	}

	// Terminates every supervised client via the host-exit hook.
	shutdown.Default.Run()

	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if drainErr := sup.Drain(drainCtx); drainErr != nil {
		log.Warn("output relays still running at shutdown", "error", drainErr)
	}
	sup.Close()

	// Deferred Close() calls will run in reverse order:
	// 1. IPC bus
	// 2. InfluxDB (if enabled)
	// 3. MQTT (if enabled)
	// 4. Database

	log.Info("driveshare-core stopped")
	return nil
}

// newSupervisor wires the dataserv supervisor to its notification channel
// and observers. Optional infrastructure is nil when disabled.
func newSupervisor(cfg *config.Config, bus *ipc.Bus, mqttClient *mqtt.Client, history *drive.HistoryRepository, influxClient *influxdb.Client) *dataserv.Supervisor {
	var channel ipc.Channel = bus
	if mqttClient != nil {
		channel = ipc.Fanout(bus, ipc.NewMQTTChannel(mqttClient, mqtt.Topics{}.IPC))
	}

	observers := []dataserv.Observer{history}
	if influxClient != nil {
		observers = append(observers, influxClient.ProcessRecorder())
	}

	limit := cfg.Dataserv.OutputLimit
	return dataserv.New(dataserv.Config{
		DataDir: cfg.DataDir,
		Binary:  cfg.Dataserv.Binary,
		Channel: channel,
		Spawner: process.ExecSpawner{KillTimeout: cfg.GetKillTimeout()},
		Runner:  process.ExecRunner{Timeout: cfg.GetRunTimeout()},
		NewStreamLogger: func(_, _ string) dataserv.StreamLogger {
			return dataserv.NewMemoryLogger(limit)
		},
		Observer: dataserv.Observers(observers...),
		Shutdown: shutdown.Default,
	})
}
