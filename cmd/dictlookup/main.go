package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/lehmann314159/dictlookup/internal/api"
	"github.com/lehmann314159/dictlookup/internal/config"
	"github.com/lehmann314159/dictlookup/internal/logger"
	"github.com/lehmann314159/dictlookup/internal/repository"
	"github.com/lehmann314159/dictlookup/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logging is not configured yet
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: "dictlookup",
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("dictlookup stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	client := services.NewDictionaryClientWithClient(
		&http.Client{Timeout: cfg.Dictionary.Timeout},
		cfg.Dictionary.BaseURL,
		cfg.Dictionary.APIKey,
		log,
	)

	session, err := services.Open(ctx, client, repository.NewSQLiteRepository(db), log, services.SessionOptions{
		UILanguage:   cfg.Dictionary.UILanguage,
		Debounce:     cfg.Lookup.Debounce,
		LanguagesTTL: cfg.Lookup.LanguagesTTL,
		Defaults:     cfg.Lookup.Defaults(),
	})
	if err != nil {
		return err
	}

	handler := api.NewHandler(session, log)
	session.LoadLanguages()

	router := api.NewRouter(handler, api.RouterOptions{
		APIToken:    cfg.Server.APIToken,
		CORSOrigins: cfg.CORS.Origins(),
		CORSMaxAge:  cfg.CORS.MaxAge,
		Log:         log,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			session.Close(context.Background())
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	shutdownErr := srv.Shutdown(shutdownCtx)
	if err := session.Close(shutdownCtx); err != nil {
		return err
	}
	return shutdownErr
}
