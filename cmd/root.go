package cmd

import (
	"bytes"
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cmmoran/aboutgen/internal/logger"
)

var (
	configFiles []string
	level       string
	logJSON     bool

	log     = zap.NewNop()
	initErr error
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "aboutgen",
	Short: "Generate C++ reflection headers for the about runtime",
	Long: `aboutgen reads C++ headers, or a declaration model, and writes
headers specializing the about reflection templates: member access,
metadata and enumeration stream formatters.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(*cobra.Command, []string) error {
		return initErr
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVarP(&level, "level", "l", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "write logs as JSON")
	rootCmd.PersistentFlags().StringSliceVar(&configFiles, "config", []string{}, "config file(s) - multiple config files are merged with last specified file having highest priority")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetEnvPrefix("ABOUTGEN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if len(configFiles) > 0 {
		viper.SetConfigFile(configFiles[0])
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	readErr := viper.ReadInConfig()
	var merged []string
	if len(configFiles) > 1 {
		for _, file := range configFiles[1:] {
			configBytes, err := os.ReadFile(file)
			if err != nil {
				initErr = errors.Wrapf(err, "read config %q", file)
				return
			}
			if err := viper.MergeConfig(bytes.NewReader(configBytes)); err != nil {
				initErr = errors.Wrapf(err, "merge config %q", file)
				return
			}
			merged = append(merged, file)
		}
	}

	if !rootCmd.PersistentFlags().Changed("level") && viper.IsSet("log.level") {
		level = viper.GetString("log.level")
	}
	if !rootCmd.PersistentFlags().Changed("log-json") && viper.IsSet("log.json") {
		logJSON = viper.GetBool("log.json")
	}
	l, err := logger.New(level, logJSON)
	if err != nil {
		initErr = errors.WithHint(err, "use one of trace, debug, info, warn, error")
		return
	}
	log = l

	switch {
	case readErr == nil:
		log.Debug("using config file", zap.String(logger.FieldFile, viper.ConfigFileUsed()), zap.Strings("merged", merged))
	case len(configFiles) > 0:
		// an explicitly named config must load
		initErr = errors.Wrapf(readErr, "read config %q", configFiles[0])
	default:
		log.Debug("no config file", zap.Error(readErr))
	}
}

func printError(err error) {
	pterm.Error.WithWriter(os.Stderr).Println(err.Error())
	if hints := errors.FlattenHints(err); hints != "" {
		pterm.Info.WithWriter(os.Stderr).Println(hints)
	}
	if details := errors.FlattenDetails(err); details != "" {
		pterm.Fprintln(os.Stderr, details)
	}
}
