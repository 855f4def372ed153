package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wazecore/wazecore/botkernel"
	"github.com/wazecore/wazecore/botmanager"
	"github.com/wazecore/wazecore/config"
	"github.com/wazecore/wazecore/gateway"
	"github.com/wazecore/wazecore/llm"
	"github.com/wazecore/wazecore/media"
	"github.com/wazecore/wazecore/processor"
	"github.com/wazecore/wazecore/scheduler"
	"github.com/wazecore/wazecore/store"
	"github.com/wazecore/wazecore/ui/rest"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the processor, scheduler, and REST server",
	Run: func(cmd *cobra.Command, args []string) {
		runServe(loadConfig())
	},
}

// shutdownDrain bounds how long the REST server gets to finish in-flight
// requests once a shutdown signal arrives. The chat pollers are bounded
// separately by the Processor's own shutdown timeout.
const shutdownDrain = 30 * time.Second

// runServe implements the startup sequence, each step gating the next:
// open+migrate the store, reconcile interrupted work, register bot types
// and validate existing instances, start the Processor, start the
// Scheduler, start the REST server. Shutdown runs the reverse order on
// SIGINT/SIGTERM.
func runServe(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Open(cfg.Database.URL)
	if err != nil {
		logrus.WithError(err).Fatal("open store")
	}
	if err := st.Migrate(ctx); err != nil {
		logrus.WithError(err).Fatal("migrate store")
	}

	reconciled, err := st.ReconcileInterrupted(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("reconcile interrupted processed messages")
	}
	if reconciled > 0 {
		logrus.Warnf("reconciled %d interrupted processed-message rows", reconciled)
	}

	registry := botkernel.NewRegistry()
	registry.Register(botkernel.TranslationBot{})
	registry.Register(botkernel.JokeBot{})
	disableInvalidBotInstances(ctx, st, registry)

	gw := gateway.New(gateway.Config{
		BaseURL:  cfg.Gateway.BaseURL,
		Token:    cfg.Gateway.APIToken,
		User:     cfg.Gateway.User,
		Password: cfg.Gateway.Password,
	})

	provider, err := newLLMProvider(ctx, cfg.LLM)
	if err != nil {
		logrus.WithError(err).Fatal("configure llm provider")
	}

	mediaPipeline := media.NewPipeline(cfg.Media.MaxConcurrentJobs, cfg.Media.FFmpegPath)

	proc := processor.New(gw, st, registry, provider, mediaPipeline, processor.Config{
		PollInterval:        cfg.Processor.PollInterval(),
		MessageLimitPerPoll: cfg.Processor.MessageLimitPerPoll,
	})
	if err := proc.Start(ctx); err != nil {
		logrus.WithError(err).Fatal("start processor")
	}

	sched := scheduler.New(st, gw)
	go sched.Run(ctx)

	mgr := botmanager.New(st, registry, proc)

	app := rest.NewApp(rest.Deps{
		Store:     st,
		Registry:  registry,
		Manager:   mgr,
		Gateway:   gw,
		Scheduler: sched,
		JWTSecret: []byte(cfg.Security.JWTSecret),
		TokenTTL:  time.Duration(cfg.Security.AccessTokenExpireDays) * 24 * time.Hour,
		Debug:     cfg.App.LogLevel == "DEBUG",
	})

	listenErr := make(chan error, 1)
	go func() { listenErr <- app.Listen(":" + cfg.App.Port) }()
	logrus.Infof("wazecore listening on :%s", cfg.App.Port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-listenErr:
		if err != nil {
			logrus.WithError(err).Error("rest server stopped unexpectedly")
		}
	case <-sigCh:
		logrus.Info("shutdown signal received, draining")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownDrain)
	defer shutdownCancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("rest server shutdown")
	}

	sched.Stop()
	proc.Stop()
	mediaPipeline.Shutdown()
	cancel()

	if err := st.Close(); err != nil {
		logrus.WithError(err).Warn("close store")
	}
}

// disableInvalidBotInstances runs once at startup: any enabled BotInstance
// whose type was removed, or whose stored config no longer validates
// against its type's current schema, is disabled rather than left to fail
// on its first dispatch.
func disableInvalidBotInstances(ctx context.Context, st *store.Store, registry *botkernel.Registry) {
	instances, err := st.ListBotInstances(ctx)
	if err != nil {
		logrus.WithError(err).Error("list bot instances")
		return
	}
	for _, inst := range instances {
		if !inst.Enabled {
			continue
		}
		botType, err := registry.Get(inst.TypeKey)
		if err != nil {
			logrus.Warnf("bot instance %s: unknown type %q, disabling", inst.ID, inst.TypeKey)
			_ = st.UpdateBotInstance(ctx, inst.ID, inst.Name, inst.Description, inst.Config(), false)
			continue
		}
		if _, err := botType.Info().ConfigSchema.Validate(inst.Config()); err != nil {
			logrus.Warnf("bot instance %s: invalid config (%v), disabling", inst.ID, err)
			_ = st.UpdateBotInstance(ctx, inst.ID, inst.Name, inst.Description, inst.Config(), false)
		}
	}
}

func newLLMProvider(ctx context.Context, cfg config.LLMConfig) (llm.Provider, error) {
	if cfg.Provider == "gemini" {
		return llm.NewGemini(ctx, cfg)
	}
	return llm.New(cfg), nil
}
