// File: cmd/root.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/boxflow/internal/config"
	"github.com/xkilldash9x/boxflow/internal/observability"
)

// configKeyType is unexported to avoid collisions with other context values.
type configKeyType struct{}

var configKey = configKeyType{}

// flagBindings maps persistent flags onto configuration keys. A flag only
// overrides the config file and environment when it is set explicitly.
var flagBindings = map[string]string{
	"log-level": "logger.level",
	"width":     "layout.viewport_width",
	"height":    "layout.viewport_height",
	"scale":     "layout.scale",
	"debug":     "layout.debug",
	"policy":    "layout.policy",
	"format":    "output.format",
	"output":    "output.path",
	"pixels":    "output.pixels",
	"hidden":    "output.hidden",
}

// NewRootCommand builds a fresh command tree. Each call returns independent
// flag state, so tests can execute commands side by side.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "boxflow",
		Short: "boxflow lays out flexbox view trees and reports their geometry.",
		Long: `boxflow loads view documents written in markup or XML, resolves their
class/state style sheets and runs a flexbox layout pass over them. The
resulting geometry is printed as a table or exported as JSON.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			config.SetDefaults(v)

			if err := initializeConfig(cmd, v, cfgFile); err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "boxflow"})
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "boxflow"})
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			observability.InitializeLogger(cfg.Logger())
			observability.GetLogger().Debug("Starting boxflow", zap.String("version", Version), zap.String("command", cmd.Name()))

			// Subcommands read the validated config from the context.
			cmd.SetContext(context.WithValue(cmd.Context(), configKey, config.Interface(cfg)))
			return nil
		},
	}
	rootCmd.SetVersionTemplate(`{{printf "%s version %s\n" .Name .Version}}`)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "config file (default is ./boxflow.yaml)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.Float64("width", 800, "viewport width in layout units")
	pf.Float64("height", 600, "viewport height in layout units")
	pf.Float64("scale", 1, "layout unit to pixel scale factor")
	pf.Bool("debug", false, "log every unresolvable constraint")
	pf.String("policy", "boundary", "dirty propagation policy (boundary or root)")
	pf.StringP("format", "f", "text", "output format (text or json)")
	pf.StringP("output", "o", "", "output file (default is stdout)")
	pf.Bool("pixels", false, "report geometry in pixels")
	pf.Bool("hidden", false, "include hidden nodes in the report")

	rootCmd.AddCommand(newLayoutCmd())
	rootCmd.AddCommand(newQueryCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the command tree with the given (signal aware) context.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			observability.GetLogger().Info("Command cancelled")
		} else {
			observability.GetLogger().Error("Command execution failed", zap.Error(err))
		}
		observability.Sync()
		return err
	}
	observability.Sync()
	return nil
}

// initializeConfig reads the config file, the environment and the flags
// into v, in increasing order of precedence.
func initializeConfig(cmd *cobra.Command, v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		path, err := homedir.Expand(cfgFile)
		if err != nil {
			return fmt.Errorf("invalid config path %s: %w", cfgFile, err)
		}
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("config file %s: %w", path, err)
		}
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("boxflow")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("BOXFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// No config file; defaults and env vars apply.
	}

	for name, key := range flagBindings {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("failed to bind flag --%s: %w", name, err)
			}
		}
	}
	return nil
}

// getConfigFromContext retrieves the configuration stored by PersistentPreRunE.
func getConfigFromContext(ctx context.Context) (config.Interface, error) {
	cfg, ok := ctx.Value(configKey).(config.Interface)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not found in context")
	}
	return cfg, nil
}
