package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Ntuthuko-dev/Web-Solution/config"
	"github.com/Ntuthuko-dev/Web-Solution/internal/bootstrap"
	"github.com/Ntuthuko-dev/Web-Solution/internal/logging"
)

var (
	verbose bool
	logger  = zap.NewNop()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Manage the Web Solution project portfolio",
	Long: `portfolio reads and edits the project collection shown in the public gallery.
It talks to the same store the server uses: the remote document when one is
configured, the local cache otherwise.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "warn"
		if verbose {
			level = "debug"
		}

		l, err := logging.New(level, "development")
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// openApp wires the application and loads the current collection.
func openApp(ctx context.Context) (*bootstrap.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	app, err := bootstrap.NewApp(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := app.Projects.Load(ctx); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}
