package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ifuryst/murmur/internal/cli"
)

var (
	configPath string
	version    = "0.1.0"
	gitCommit  = "unknown"
	buildTime  = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "murmur",
	Short: "Murmur - Social post assistant",
	Long: `Murmur turns web articles into platform-specific social posts, keeps them in a
content library and publishes them at scheduled times.`,
	SilenceUsage: true,
	RunE:         runMenu,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Murmur %s\n", version)
		fmt.Printf("Git commit: %s\n", gitCommit)
		fmt.Printf("Build time: %s\n", buildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/murmur.yaml", "config file path")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd, processCmd, feedCmd, scheduleCmd, listCmd, totpSecretCmd)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// runMenu opens the interactive menu with the publish loop running behind it.
func runMenu(*cobra.Command, []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	a.logger.Info("Starting Murmur", zap.String("version", version))

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer a.scheduler.Stop()

	menu := cli.NewMenu(a.assistant, a.cfg.Generator.DefaultLanguage, os.Stdin, os.Stdout, a.logger)
	return menu.Run(ctx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
