package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/habiliai/oursgpt"
	"github.com/habiliai/oursgpt/config"
	"github.com/habiliai/oursgpt/credential"
	"github.com/habiliai/oursgpt/internal/mylog"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configFile string
	logLevel   string
	logHandler string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:           "oursgpt",
		Short:         "OursGPT, a chat and image studio on your terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "Config file (default ~/.oursgpt/config.yaml)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&flags.logHandler, "log-handler", "", "Log handler: default or json")

	cmd.AddCommand(
		newChatCmd(flags),
		newAskCmd(flags),
		newImageCmd(flags),
		newThreadsCmd(flags),
		newThemeCmd(flags),
		newClearHistoryCmd(flags),
		newServeCmd(flags),
	)

	return cmd
}

func loadConfig(flags *rootFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configFile)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Log.LogLevel = flags.logLevel
	}
	if flags.logHandler != "" {
		cfg.Log.LogHandler = flags.logHandler
	}
	return cfg, nil
}

// newApp builds the app for a command. Interactive commands ask for a key on
// the terminal when the backend rejects the current one.
func newApp(ctx context.Context, flags *rootFlags, interactive bool) (*oursgpt.App, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}

	var creds credential.Provider
	if cfg.Model.GeminiAPIKey != "" {
		creds = credential.NewStaticProvider(cfg.Model.GeminiAPIKey)
	} else {
		creds = credential.NewEnvProvider()
	}
	if interactive {
		creds = credential.NewPromptProvider(creds, nil)
	}

	return oursgpt.NewApp(ctx,
		oursgpt.WithConfig(cfg),
		oursgpt.WithLogger(mylog.NewLogger(cfg.Log.LogLevel, cfg.Log.LogHandler)),
		oursgpt.WithCredentialProvider(creds),
	)
}

func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
