package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"ai-relay-bot/internal/bootstrap"
	"ai-relay-bot/internal/config"
	"ai-relay-bot/internal/discord"
	"ai-relay-bot/internal/server"
	"ai-relay-bot/internal/tracer"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Connect to Discord and start the HTTP ops surface",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	// 1. Load Configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}
	printBanner(cfg)

	// 2. Tracing
	shutdownTracer := tracer.InitTracer(cfg.App.OtelEnabled)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(shutdownCtx)
	}()

	// 3. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(cfg)
	if err != nil {
		return err
	}
	defer container.Close()

	errCh := make(chan error, 2)

	// 4. Discord gateway
	if cfg.Discord.Enabled {
		bot, err := discord.NewBot(cfg.Discord.Token, container.RelayService, container.Logger)
		if err != nil {
			return err
		}
		if err := bot.Open(); err != nil {
			return err
		}
		defer bot.Close()
	}

	// 5. HTTP server
	var srv *server.Server
	if cfg.App.HTTPEnabled {
		srv = server.New(cfg, container)
		go func() {
			if err := srv.Run(); err != nil {
				errCh <- fmt.Errorf("http server: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		log.Println("Shutting down...")
	case err := <-errCh:
		return err
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP shutdown: %v", err)
		}
	}
	return nil
}

func printBanner(cfg *config.Config) {
	title := color.New(color.FgCyan, color.Bold)
	title.Println("🤖 relaybot")

	on := color.GreenString("on")
	off := color.YellowString("off")
	state := func(b bool) string {
		if b {
			return on
		}
		return off
	}

	fmt.Printf("  llm      %s (%s)\n", cfg.LLM.Provider, cfg.LLM.Model)
	fmt.Printf("  images   %s via %s, %d workers\n", cfg.Image.Model, cfg.Image.BaseURL, cfg.Image.Workers)
	fmt.Printf("  discord  %s\n", state(cfg.Discord.Enabled))
	fmt.Printf("  http     %s (port %s)\n", state(cfg.App.HTTPEnabled), cfg.App.Port)
	fmt.Printf("  nats     %s\n", state(cfg.App.NatsURL != ""))
	fmt.Printf("  tracing  %s\n", state(cfg.App.OtelEnabled))
}
