// Command scribe runs the voice-message transcription bot: it consumes
// chat platform events, dispatches eligible voice attachments to the
// transcriber worker queue, and edits the results back into the
// conversation.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/scribe/celery"
	"github.com/kbukum/scribe/config"
	"github.com/kbukum/scribe/discord"
	"github.com/kbukum/scribe/health"
	"github.com/kbukum/scribe/logger"
	"github.com/kbukum/scribe/redis"
	"github.com/kbukum/scribe/transcribe"
)

const serviceName = "scribe"

func main() {
	var (
		configFile       = flag.String("config", "", "path to config.yml (searched for when empty)")
		registerCommands = flag.Bool("register-commands", false, "register application commands and exit")
	)
	flag.Parse()

	var opts []config.LoaderOption
	if *configFile != "" {
		opts = append(opts, config.WithConfigFile(*configFile))
	}
	cfg, err := config.Load(serviceName, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scribe: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(&cfg.Logging, serviceName)
	rest := discord.NewRestClient(cfg.Discord.APIBase, cfg.Discord.Token, log)

	if *registerCommands {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := discord.RegisterCommands(ctx, rest, cfg.Discord.ApplicationID); err != nil {
			log.Fatal("command registration failed", logger.ErrorFields("register", err))
		}
		log.Info("application commands registered")
		return
	}

	if err := run(cfg, rest, log); err != nil {
		log.Fatal("scribe exited", logger.ErrorFields("run", err))
	}
}

func run(cfg *config.Config, rest *discord.RestClient, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := redis.New(cfg.Redis, log)
	if err != nil {
		return err
	}
	defer rdb.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = rdb.Ping(pingCtx)
	cancel()
	if err != nil {
		return err
	}

	pollInterval, _ := time.ParseDuration(cfg.Queue.PollInterval)
	queue := celery.New(rdb, log,
		celery.WithQueue(cfg.Queue.Broker),
		celery.WithPollInterval(pollInterval),
	)

	surface := discord.NewSurface(rest, cfg.Discord.ApplicationID)
	orch := transcribe.New(transcribe.Deps{
		Store:        transcribe.NewStore(rdb, cfg.Transcribe.RecordTTLDuration()),
		Settings:     transcribe.NewSettings(rdb),
		Surface:      surface,
		Interactions: surface,
		Dispatcher:   transcribe.NewQueueDispatcher(queue, cfg.Queue.Task),
		Presenter:    transcribe.NewPresenter(cfg.Transcribe.InlineLimit),
		Log:          log,
	})

	gateway := discord.NewGateway(cfg.Discord.GatewayURL, cfg.Discord.Token, discord.EventHandler{
		OnReady: func(user discord.User, app discord.Application) {
			log.Info("logged in", logger.Fields("user", user.Username))
			if app.ID != "" {
				surface.SetApplicationID(app.ID)
			}
		},
		OnMessageCreate: func(msg discord.Message) {
			orch.HandleMessageAsync(ctx, discord.ToMessage(msg))
		},
		OnInteractionCreate: func(i discord.Interaction) {
			orch.HandleInteractionAsync(ctx, discord.ToInteraction(i))
		},
	}, log)

	errCh := make(chan error, 2)

	if cfg.Health.Enabled {
		probe := health.New(fmt.Sprintf("%s:%d", cfg.Health.Host, cfg.Health.Port), log)
		probe.AddCheck("redis", rdb.Ping)
		probe.AddCheck("gateway", func(context.Context) error {
			if !gateway.Ready() {
				return fmt.Errorf("gateway not ready")
			}
			return nil
		})
		go func() { errCh <- probe.Run(ctx) }()
	}

	go func() { errCh <- gateway.Run(ctx) }()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && ctx.Err() == nil {
			return err
		}
	}

	stop()
	log.Info("shutting down, waiting for in-flight jobs")
	orch.Wait()
	return nil
}
