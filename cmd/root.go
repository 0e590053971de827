package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/eraiza0816/assistant-discord/config"
	"github.com/eraiza0816/assistant-discord/logging"
	"github.com/spf13/cobra"
)

var (
	envFile  string
	logLevel string

	cfg      *config.Config
	logger   *slog.Logger
	levelVar = new(slog.LevelVar)
)

var rootCmd = &cobra.Command{
	Use:          "assistant-discord [command]",
	Short:        "Discord bot that relays channel messages to an OpenAI assistant",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return setup(cmd)
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runBot(cmd.Context())
	},
}

// setup loads the configuration and installs the process-wide loggers.
func setup(cmd *cobra.Command) error {
	c, err := config.LoadConfig(envFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		c.LogLevel = logLevel
	}

	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	levelVar.Set(level)

	handler := logging.NewHandler(cmd.ErrOrStderr(), levelVar)
	logger = slog.New(handler)
	slog.SetDefault(logger)
	discordgo.Logger = logging.DiscordgoLoggerFunc(cmd.Context(), handler)

	cfg = c
	return nil
}

func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan os.Signal, 1)
	signal.Notify(
		signals,
		os.Interrupt,
		syscall.SIGHUP,
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer func() {
		signal.Stop(signals)
		cancel()
	}()
	go func() {
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits
func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (DEBUG, INFO, WARN, ERROR), overrides LOG_LEVEL")
}
