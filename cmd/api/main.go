package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/lodgeline/booking-engine/internal/booking"
	"github.com/lodgeline/booking-engine/internal/catalog"
	"github.com/lodgeline/booking-engine/internal/http/handlers"
	"github.com/lodgeline/booking-engine/internal/platform/mailer"
	"github.com/lodgeline/booking-engine/internal/platform/pms"
	"github.com/lodgeline/booking-engine/internal/quote"
	"github.com/lodgeline/booking-engine/pkg/config"
	"github.com/lodgeline/booking-engine/pkg/events"
	"github.com/lodgeline/booking-engine/pkg/logger"
	mw "github.com/lodgeline/booking-engine/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	// Event bus is optional; the engine runs without a broker.
	var bus events.Publisher = events.NoopBus{}
	if cfg.NATS.URL != "" {
		natsBus, err := events.NewNATSEventBus(cfg.NATS.URL)
		if err != nil {
			logger.Warn("NATS unavailable, events disabled", "error", err)
		} else {
			bus = natsBus
			defer natsBus.Close()
		}
	}

	var mail mailer.Service = mailer.NewDevMailer()
	if !cfg.Email.DevMode && cfg.Email.MailerSendKey != "" {
		mail = mailer.NewMailer(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.FromEmail)
	}

	client := pms.NewClient(cfg.PMS.BaseURL, cfg.PMS.APIKey, cfg.PMS.RequestTimeout)
	aggregator := catalog.NewAggregator(client, cfg.PMS.PageSize, cfg.PMS.CacheTTL, bus)
	resolver := quote.NewResolver(client, quote.DefaultRates(), cfg.Currency.Target, cfg.Booking.AllowEstimates)
	validator := booking.NewValidator(cfg.Booking.MaxGuestsPerRoom)
	pipeline := booking.NewPipeline(client, bus, mail, cfg.Booking.DefaultSalesChannelID, cfg.Booking.IdempotencyTTL)

	// Dependent form fields follow the selected property via the hub.
	hub := catalog.NewHub()
	unitTypeField := catalog.NewDependentField()
	salesChannelField := catalog.NewDependentField()
	unitTypeField.Bind(hub)
	salesChannelField.Bind(hub)

	// Warm the options cache and populate the dependent field option lists.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		cat := aggregator.LoadOptions(ctx, false)
		for propertyID, unitTypes := range cat.UnitTypesByProperty {
			ids := make([]int64, 0, len(unitTypes))
			for _, ut := range unitTypes {
				ids = append(ids, ut.ID)
			}
			unitTypeField.SetOptions(propertyID, ids)
		}
		for propertyID, channels := range cat.SalesChannelsByProperty {
			ids := make([]int64, 0, len(channels))
			for _, ch := range channels {
				ids = append(ids, ch.ID)
			}
			salesChannelField.SetOptions(propertyID, ids)
		}
		logger.Info("options cache warmed", "properties", len(cat.PropertyOptions))
	}()

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("booking-engine"))
	r.Use(mw.Logging)
	r.Use(mw.Recover)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Idempotency-Key"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(mw.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Mount("/options", handlers.NewOptionsHandler(aggregator).Routes())
		r.Mount("/selection", handlers.NewSelectionHandler(hub, aggregator, unitTypeField, salesChannelField).Routes())
		r.Mount("/quote", handlers.NewQuoteHandler(resolver, validator, client).Routes())
		r.Mount("/reservations", handlers.NewReservationHandler(pipeline).Routes())
		r.Mount("/pms", handlers.NewProxyHandler(client).Routes())
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down booking engine...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Shutdown error", "error", err)
		}
	}()

	logger.Info("Booking engine listening", "port", cfg.Server.Port, "pms", cfg.PMS.BaseURL)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
