package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/rxpad/rxpad/internal/config"
	"github.com/rxpad/rxpad/internal/domain/draft"
	"github.com/rxpad/rxpad/internal/domain/form"
	"github.com/rxpad/rxpad/internal/domain/patient"
	"github.com/rxpad/rxpad/internal/domain/prescription"
	"github.com/rxpad/rxpad/internal/domain/preview"
	"github.com/rxpad/rxpad/internal/platform/db"
	"github.com/rxpad/rxpad/internal/platform/middleware"
	"github.com/rxpad/rxpad/internal/platform/session"
	"github.com/rxpad/rxpad/internal/platform/storage"
	"github.com/rxpad/rxpad/internal/platform/validation"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rxpad-server",
		Short: "Clinic prescription authoring API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(slotsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the prescription API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// slotsCmd inspects the local data slots without starting the server.
func slotsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "slots",
		Short: "Show which local data slots are present",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := zerolog.Nop()
			store, err := storage.New(afero.NewOsFs(), cfg.DataDir, logger)
			if err != nil {
				return err
			}
			slots := []string{
				storage.SlotPatients,
				storage.SlotPrescriptions,
				storage.SlotDraft,
				storage.SlotDoctorInfo,
			}
			for _, slot := range slots {
				state := "absent"
				if store.Exists(slot) {
					state = "present"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-15s %s\n", slot, state)
			}
			return nil
		},
	}
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Local slot store. The draft and doctor-info slots live here under
	// every storage driver.
	store, err := storage.New(afero.NewOsFs(), cfg.DataDir, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open data directory")
	}

	// Repositories
	ctx := context.Background()
	var (
		patientRepo      patient.Repository
		prescriptionRepo prescription.Repository
		healthHandler    echo.HandlerFunc
	)
	switch cfg.StorageDriver {
	case "postgres":
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		logger.Info().Msg("connected to database")
		patientRepo = patient.NewPGRepo(pool)
		prescriptionRepo = prescription.NewPGRepo(pool)
		healthHandler = db.HealthHandler(pool)
	default:
		patientRepo, err = patient.NewFileRepo(store)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to load patient slot")
		}
		prescriptionRepo, err = prescription.NewFileRepo(store)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to load prescription slot")
		}
		healthHandler = func(c echo.Context) error {
			return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
		}
	}

	// Services
	prescriptionSvc := prescription.NewService(prescriptionRepo, logger)
	patientSvc := patient.NewService(patientRepo, prescriptionRepo, logger)

	// Draft autosave
	draftMgr := draft.NewManager(store)
	autosaver := draft.NewAutosaver(draftMgr, cfg.DraftDebounce(), logger)

	// Session and doctor-info cache
	sess := session.FromConfig(cfg)
	doctorCache := preview.NewDoctorInfoCache(store)

	// Form controller
	formCtrl := form.NewController(patientSvc, prescriptionSvc, draftMgr, autosaver, doctorCache, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Content-Type", "X-Request-ID"},
	}))

	// API routes
	apiV1 := e.Group("/api/v1")
	patient.NewHandler(patientSvc).RegisterRoutes(apiV1)
	prescription.NewHandler(prescriptionSvc).RegisterRoutes(apiV1)
	preview.NewHandler(prescriptionSvc, doctorCache, sess).RegisterRoutes(apiV1)
	form.NewHandler(formCtrl).RegisterRoutes(apiV1)

	e.GET("/health", healthHandler)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	autosaver.Flush()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
