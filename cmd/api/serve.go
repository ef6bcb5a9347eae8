package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zatekoja/streamlinecare/internal/adapters/notify"
	"github.com/zatekoja/streamlinecare/internal/api/handlers"
	"github.com/zatekoja/streamlinecare/internal/api/loaders"
	"github.com/zatekoja/streamlinecare/internal/api/middleware"
	"github.com/zatekoja/streamlinecare/internal/api/routes"
	"github.com/zatekoja/streamlinecare/internal/application/services"
	"github.com/zatekoja/streamlinecare/internal/domain/entities"
	"github.com/zatekoja/streamlinecare/internal/domain/providers"
	"github.com/zatekoja/streamlinecare/internal/infrastructure/observability"
	"github.com/zatekoja/streamlinecare/pkg/config"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), c.cfg)
		},
	}
}

// notifiers builds a sender for every configured channel
func notifiers(cfg *config.Config) []providers.Notifier {
	var out []providers.Notifier

	if cfg.Arkesel.SMSEnabled() {
		sms, err := notify.NewArkeselSender(cfg.Arkesel)
		if err != nil {
			log.Warn().Err(err).Msg("SMS confirmations disabled")
		} else {
			out = append(out, sms)
		}
	} else {
		log.Info().Msg("ARKESEL_API_KEY is not set; SMS confirmations disabled")
	}

	if cfg.SMTP.EmailEnabled() {
		mail, err := notify.NewSMTPSender(cfg.SMTP)
		if err != nil {
			log.Warn().Err(err).Msg("email confirmations disabled")
		} else {
			out = append(out, mail)
		}
	}

	return out
}

func serve(parent context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, observability.TelemetryConfig{
		ServiceName:    cfg.OTEL.ServiceName,
		ServiceVersion: cfg.OTEL.ServiceVersion,
		Endpoint:       cfg.OTEL.Endpoint,
		TracingEnabled: cfg.OTEL.Enabled,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			log.Warn().Err(err).Msg("error shutting down OpenTelemetry")
		}
	}()

	metrics, err := observability.InitMetrics()
	if err != nil {
		return err
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	format, err := entities.ParseDisplayFormat(cfg.Booking.SlotDisplayFormat)
	if err != nil {
		return err
	}

	bookingService := services.NewBookingService(
		st.hospitals,
		st.doctors,
		st.appointments,
		services.WithEventBus(st.bus),
		services.WithLocation(cfg.Booking.Location()),
		services.WithLogger(log.With().Str("component", "booking").Logger()),
	)
	catalogService := services.NewCatalogService(st.hospitals, st.doctors)
	notificationService := services.NewNotificationService(
		st.hospitals,
		st.doctors,
		format,
		log.With().Str("component", "notifications").Logger(),
		notifiers(cfg)...,
	)

	clientIPs, err := middleware.NewClientIPResolver(cfg.Server.TrustedProxies)
	if err != nil {
		return fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}

	opts := []routes.Option{
		routes.WithClientIPResolver(clientIPs),
		routes.WithLoaders(loaders.Middleware(st.hospitals, st.doctors)),
		routes.WithRateLimiter(middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, metrics)),
		routes.WithMetrics(metrics, promhttp.Handler()),
		routes.WithAllowedOrigins(cfg.Server.AllowedOrigins),
	}
	if st.cache != nil {
		opts = append(opts, routes.WithCache(middleware.NewCacheMiddleware(st.cache, metrics)))
	}
	router := routes.NewRouter(
		handlers.NewCatalogHandler(catalogService, format),
		handlers.NewBookingHandler(bookingService, format),
		opts...,
	)

	server := &http.Server{
		Addr:         cfg.Server.ServerAddr(),
		Handler:      router.SetupRoutes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := notificationService.Run(gctx, st.bus); err != nil {
			log.Error().Err(err).Msg("notification worker stopped")
		}
		return nil
	})

	g.Go(func() error {
		log.Info().
			Str("addr", server.Addr).
			Str("storage", cfg.Storage.Driver).
			Str("timezone", cfg.Booking.Timezone).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("server shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}
