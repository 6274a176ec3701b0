package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nwehrle/memoloom/internal/config"
	"github.com/nwehrle/memoloom/internal/gateway/slackapi"
	"github.com/nwehrle/memoloom/internal/handler"
	"github.com/nwehrle/memoloom/internal/service/composer"
	"github.com/nwehrle/memoloom/internal/service/draft"
	"github.com/nwehrle/memoloom/internal/service/ingest"
	"github.com/nwehrle/memoloom/internal/service/orchestrator"
	"github.com/nwehrle/memoloom/internal/service/planner"
	"github.com/nwehrle/memoloom/internal/service/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// The draft generator degrades to fallback memos when the LLM is not
	// configured, so the bot stays usable for smoke testing.
	var generator draft.Generator
	if cfg.AI.Enabled() {
		chatModel, err := cfg.AI.NewChatModel(ctx)
		if err != nil {
			log.Printf("warning: failed to initialize chat model: %v", err)
			log.Println("continuing with drafting disabled - check the Ark environment variables")
			generator = draft.Disabled()
		} else {
			generator = draft.NewArkGenerator(chatModel, time.Duration(cfg.AI.TimeoutSeconds)*time.Second)
			log.Println("draft generator initialized successfully")
		}
	} else {
		log.Println("Ark credentials not configured, drafting disabled; fallback memos will be used")
		generator = draft.Disabled()
	}

	gw := slackapi.NewClient(cfg.Slack.BotToken)
	store := session.NewStore()

	orch := orchestrator.New(
		store,
		gw,
		ingest.NewService(gw),
		planner.NewService(generator),
		composer.NewService(generator),
	)

	if cfg.Slack.SocketMode() {
		socketClient := slackapi.NewSocketClient(cfg.Slack.AppToken, orch)
		go func() {
			if err := socketClient.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("socket mode terminated: %v", err)
				stop()
			}
		}()
		log.Println("socket mode transport enabled")
	}

	router := handler.NewRouter(orch, cfg.Slack.SigningSecret)
	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("memoloom listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
