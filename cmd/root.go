package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mhartwig22/campuskg/internal/config"
	"github.com/mhartwig22/campuskg/internal/observability"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "campuskg",
	Short:   "campuskg builds a university knowledge graph from crawled pages.",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initializeConfig(); err != nil {
			return fmt.Errorf("failed to initialize configuration: %w", err)
		}
		if err := config.Load(viper.GetViper()); err != nil {
			observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "campuskg"})
			return err
		}

		cfg := config.Get()
		observability.InitializeLogger(cfg.Logger)
		observability.GetLogger().Info("starting campuskg", zap.String("version", Version))
		return nil
	},
}

// Execute runs the root command with the context passed from main for
// graceful shutdown.
func Execute(ctx context.Context) error {
	defer observability.Sync()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Cancellation during shutdown is expected, not a failure.
		if ctx.Err() == nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(persistCmd)
	rootCmd.AddCommand(versionCmd)
}

// initializeConfig reads the config file and environment variables.
func initializeConfig() error {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("CAMPUSKG")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// The database URL is the one secret-bearing value, bound explicitly.
	_ = viper.BindEnv("postgres.url", "CAMPUSKG_POSTGRES_URL")

	if err := viper.ReadInConfig(); err != nil {
		// Running without a config file is fine; only report parse errors.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}
