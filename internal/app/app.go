// -----------------------------------------------------------------------
// Last Modified: Tuesday, 25th August 2026 3:22:07 pm
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	arbormodels "github.com/ternarybob/arbor/models"
	"github.com/ternarybob/vendo/internal/common"
	"github.com/ternarybob/vendo/internal/handlers"
	"github.com/ternarybob/vendo/internal/interfaces"
	"github.com/ternarybob/vendo/internal/models"
	"github.com/ternarybob/vendo/internal/services/auth"
	"github.com/ternarybob/vendo/internal/services/events"
	"github.com/ternarybob/vendo/internal/services/export"
	"github.com/ternarybob/vendo/internal/services/extractor"
	"github.com/ternarybob/vendo/internal/services/mailer"
	"github.com/ternarybob/vendo/internal/services/scheduler"
	"github.com/ternarybob/vendo/internal/services/snapshots"
	"github.com/ternarybob/vendo/internal/services/spapi"
	"github.com/ternarybob/vendo/internal/services/status"
	storage "github.com/ternarybob/vendo/internal/storage/badger"
	"github.com/timshannon/badgerhold/v4"
)

// badgerGCInterval is how often the value log garbage collector runs
const badgerGCInterval = 5 * time.Minute

// App holds all application components and dependencies
type App struct {
	Config    *common.Config
	Logger    arbor.ILogger
	ctx       context.Context
	cancelCtx context.CancelFunc

	StorageManager interfaces.StorageManager

	// Event-driven services
	EventService     interfaces.EventService
	StatusService    *status.Service
	SchedulerService interfaces.SchedulerService

	// Domain services
	PartnerClient     interfaces.PartnerClient
	AuthService       interfaces.AuthService
	SnapshotService   interfaces.SnapshotService
	ExtractionService interfaces.ExtractionService
	ExportService     interfaces.ExportService
	MailerService     *mailer.Service

	// HTTP handlers
	APIHandler         *handlers.APIHandler
	WSHandler          *handlers.WebSocketHandler
	CredentialsHandler *handlers.CredentialsHandler
	EndpointsHandler   *handlers.EndpointsHandler
	ExtractionHandler  *handlers.ExtractionHandler
	ResponsesHandler   *handlers.ResponsesHandler
	SnapshotsHandler   *handlers.SnapshotsHandler
	StatsHandler       *handlers.StatsHandler
	ExportHandler      *handlers.ExportHandler
	SchedulerHandler   *handlers.SchedulerHandler
	StatusHandler      *handlers.StatusHandler

	wsWriter *handlers.WebSocketWriter
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}
	app.ctx, app.cancelCtx = context.WithCancel(context.Background())

	// Initialize database
	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Event service first: the WebSocket handler, status service and mailer
	// all subscribe to it during their construction.
	app.EventService = events.NewService(app.Logger)
	app.WSHandler = handlers.NewWebSocketHandler(app.EventService, app.Logger, &app.Config.WebSocket)

	// Bridge arbor onto the socket: the logger streams batches into the
	// writer's channel, the writer filters and broadcasts them.
	wsWriter, err := handlers.NewWebSocketWriter(app.WSHandler, arbormodels.WriterConfiguration{
		TimeFormat: "15:04:05",
	}, &app.Config.WebSocket)
	if err != nil {
		return nil, fmt.Errorf("failed to create WebSocket log writer: %w", err)
	}
	app.wsWriter = wsWriter
	app.Logger.SetChannel("websocket", wsWriter.GetChannel())
	wsWriter.Start()

	// Initialize services
	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// Initialize handlers
	if err := app.initHandlers(); err != nil {
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	// A store that already holds credentials starts a session immediately
	app.recordStartupLogin()

	// Start scheduled extraction after everything it depends on exists
	if err := app.startScheduler(); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	app.startBadgerGC()

	logger.Info().
		Int("endpoints", len(models.EndpointCatalog())).
		Bool("scheduler_enabled", cfg.Scheduler.Enabled).
		Bool("mail_enabled", app.MailerService.IsConfigured()).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	storageManager, err := storage.NewManager(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	return nil
}

// initServices initializes all business services in dependency order
func (a *App) initServices() error {
	client, err := spapi.NewSimulatedClient(a.Config.Simulator, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize partner client: %w", err)
	}
	a.PartnerClient = client

	a.AuthService = auth.NewService(
		a.StorageManager.CredentialStorage(),
		a.StorageManager.MetaStorage(),
		a.PartnerClient,
		a.EventService,
		a.Config.Simulator,
		a.Logger,
	)

	a.SnapshotService = snapshots.NewService(
		a.StorageManager.ResponseStorage(),
		a.StorageManager.SnapshotStorage(),
		a.EventService,
		a.Config.Snapshots,
		a.Logger,
	)

	a.ExtractionService = extractor.NewService(
		a.AuthService,
		a.PartnerClient,
		a.StorageManager.ResponseStorage(),
		a.SnapshotService,
		a.EventService,
		a.Logger,
	)

	a.ExportService = export.NewService(a.StorageManager, a.Config.Export, a.Logger)

	a.StatusService = status.NewService(a.EventService, a.Logger)
	a.StatusService.SubscribeToExtractionEvents()

	a.MailerService = mailer.NewService(a.Config.SMTP, a.Logger)
	if a.MailerService.IsConfigured() {
		a.MailerService.SubscribeToExtractionEvents(a.EventService)
		a.Logger.Info().Msg("Extraction mail notifications enabled")
	} else {
		a.Logger.Debug().Msg("SMTP not configured - extraction mail disabled")
	}

	a.SchedulerService = scheduler.NewService(a.Logger)

	return nil
}

// initHandlers initializes all HTTP handlers
func (a *App) initHandlers() error {
	a.APIHandler = handlers.NewAPIHandler(a.Logger)
	a.CredentialsHandler = handlers.NewCredentialsHandler(a.AuthService, a.SnapshotService, a.Logger)
	a.EndpointsHandler = handlers.NewEndpointsHandler(a.Logger)
	a.ExtractionHandler = handlers.NewExtractionHandler(a.ExtractionService, a.Logger)
	a.ResponsesHandler = handlers.NewResponsesHandler(a.StorageManager.ResponseStorage(), a.Logger)
	a.SnapshotsHandler = handlers.NewSnapshotsHandler(a.SnapshotService, a.Logger)
	a.StatsHandler = handlers.NewStatsHandler(a.StorageManager, a.Logger)
	a.ExportHandler = handlers.NewExportHandler(a.ExportService, a.Logger)
	a.SchedulerHandler = handlers.NewSchedulerHandler(a.SchedulerService, a.Logger)
	a.StatusHandler = handlers.NewStatusHandler(a.StatusService, a.Logger)

	a.Logger.Debug().Msg("HTTP handlers initialized")
	return nil
}

// recordStartupLogin stamps the login marker when stored credentials exist,
// so the dashboard shows a session without waiting for a credentials POST.
func (a *App) recordStartupLogin() {
	if !a.AuthService.HasCredentials() {
		return
	}

	loginAt, err := a.AuthService.RecordLogin(a.ctx)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to record startup login")
		return
	}
	a.Logger.Info().
		Str("login_at", time.UnixMilli(loginAt).Format(time.RFC3339)).
		Msg("Session started with stored credentials")

	// A failed snapshot never blocks startup
	if _, err := a.SnapshotService.CaptureIfEnabled(a.ctx, models.SnapshotTriggerLogin); err != nil {
		a.Logger.Warn().Err(err).Msg("Startup login snapshot failed")
	}
}

// startScheduler registers the auto-extraction job and starts the cron loop
// when scheduling is enabled in config.
func (a *App) startScheduler() error {
	if !a.Config.Scheduler.Enabled {
		a.Logger.Debug().Msg("Scheduler disabled in config")
		return nil
	}

	err := a.SchedulerService.RegisterJob("extract-all", a.Config.Scheduler.Schedule, func() error {
		_, err := a.ExtractionService.FetchAll(context.Background())
		if errors.Is(err, interfaces.ErrExtractionRunning) {
			// A manual run is in flight; the next cycle picks it up
			return nil
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to register extraction job: %w", err)
	}

	if err := a.SchedulerService.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler service: %w", err)
	}

	a.Logger.Info().
		Str("schedule", a.Config.Scheduler.Schedule).
		Msg("Scheduled auto-extraction enabled")
	return nil
}

// startBadgerGC runs the Badger value log garbage collector on a fixed
// interval until shutdown. ErrNoRewrite just means there was nothing to
// collect.
func (a *App) startBadgerGC() {
	store, ok := a.StorageManager.DB().(*badgerhold.Store)
	if !ok {
		a.Logger.Warn().Msg("Storage backend does not expose a badger store - GC disabled")
		return
	}

	common.SafeGoWithContext(a.ctx, a.Logger, "badger-value-log-gc", func() {
		ticker := time.NewTicker(badgerGCInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := store.Badger().RunValueLogGC(0.5); err != nil && !errors.Is(err, badgerdb.ErrNoRewrite) {
					a.Logger.Warn().Err(err).Msg("Badger value log GC failed")
				}
			case <-a.ctx.Done():
				return
			}
		}
	})
	a.Logger.Debug().Dur("interval", badgerGCInterval).Msg("Badger value log GC started")
}

// Close closes all application resources
func (a *App) Close() error {
	// Cancel background goroutines
	if a.cancelCtx != nil {
		a.Logger.Info().Msg("Cancelling background goroutines")
		a.cancelCtx()
		// Allow goroutines to finish gracefully
		time.Sleep(100 * time.Millisecond)
	}

	// Stop scheduler service
	if a.SchedulerService != nil && a.SchedulerService.IsRunning() {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	// Stop the WebSocket log writer before the event service goes away
	if a.wsWriter != nil {
		if err := a.wsWriter.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close WebSocket log writer")
		}
	}

	// Close event service
	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	// Close storage
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
