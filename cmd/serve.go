package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/zlog"

	"tryst/cmd/buildCFG"
	"tryst/internal/api/api"
	"tryst/internal/catalog"
	rabbitReader "tryst/internal/consumerWorker"
	"tryst/internal/mailer"
	"tryst/internal/rabbit"
	"tryst/internal/repo"
	"tryst/internal/service"
	"tryst/internal/session"
)

func serve(parent context.Context, configPath, envFile string) error {
	log := zlog.Logger

	cfg, err := buildCFG.Load(configPath, envFile, &log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repository, err := repo.New(ctx, repo.Options{
		Driver:         cfg.Store.Driver,
		URI:            cfg.Store.URI,
		Database:       cfg.Store.Database,
		ConnectTimeout: cfg.Store.ConnectTimeout,
	}, &log)
	if err != nil {
		return fmt.Errorf("failed to initialize repository: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := repository.Close(closeCtx); err != nil {
			log.Error().Err(err).Msg("failed to close record store")
		}
	}()

	events, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}

	transport := buildTransport(cfg.Mail, &log)
	sender := transport

	var (
		rmq    rabbit.Rabbiter
		reader *rabbitReader.Reader
	)
	if cfg.Mail.Relay.Enabled {
		rmq, err = rabbit.NewRabbit(cfg.Mail.Relay.URL, cfg.Mail.Relay.Exchange, cfg.Mail.Relay.Queue)
		if err != nil {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		defer rmq.Close()

		sender = mailer.NewQueueSender(rmq, cfg.Mail.From, &log)
		reader = rabbitReader.NewReader(rmq, transport, &log)
		reader.Start(ctx)
	}

	notifier, err := mailer.NewNotifier(sender, mailer.Branding{
		Festival:     cfg.Mail.Festival,
		SupportEmail: cfg.Mail.SupportEmail,
		SiteURL:      cfg.Mail.SiteURL,
	}, events.Title, &log)
	if err != nil {
		return err
	}

	guard, err := session.NewGuard(session.Options{
		AdminEmail:        cfg.Admin.Email,
		AdminPassword:     cfg.Admin.Password,
		AdminPasswordHash: cfg.Admin.PasswordHash,
		HashKey:           []byte(cfg.Admin.SessionSecret),
		Secure:            !cfg.Development(),
	}, &log)
	if err != nil {
		return err
	}

	serviceInstance := service.NewService(repository, notifier, guard, events, &log)
	app := api.NewRouters(&api.Routers{
		Service:      serviceInstance,
		Mode:         cfg.Server.Mode,
		AllowOrigins: cfg.Server.AllowOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info().Msgf("Starting server on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("failed to start server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("Received shutdown signal")
	case runErr = <-serverErrChan:
		log.Error().Err(runErr).Msg("Server error")
	}

	if reader != nil {
		reader.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error shutting down server")
	}

	log.Info().Msg("Shutdown complete")
	return runErr
}

func buildTransport(cfg buildCFG.MailConfig, log *zerolog.Logger) mailer.Sender {
	switch cfg.Transport {
	case buildCFG.TransportSMTP:
		return mailer.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.User, cfg.Password, cfg.From, log)
	case buildCFG.TransportResend:
		return mailer.NewResendSender(cfg.ResendAPIKey, cfg.From, log)
	default:
		return mailer.NewNoopSender(log)
	}
}
