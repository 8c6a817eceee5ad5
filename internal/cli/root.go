// Package cli implements the predictform command tree.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/goliatone/go-predictform/internal/config"
	"github.com/goliatone/go-predictform/internal/logging"
)

// Version is injected at build time.
var Version = "dev"

var (
	cfgFile    string
	configUsed string
	configErr  error
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "predictform",
	Short: "Diabetes prediction form backed by a remote classifier",
	Long: `predictform collects eight health measurements, posts them to a
prediction service and shows whether the result is diabetic or safe.

It serves the form as a web page and JSON API, runs it as an interactive
terminal session, or prints the form model.

This is only an experimental project with 76% accuracy.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "predictform %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.predictform/config.yaml)")
	flags.String("api", "", "prediction service base URL (env PREDICT_API)")
	flags.String("log-level", "", "log level: error, warn, info, debug")
	flags.Bool("strict", false, "validate payloads against the contract before sending")

	_ = viper.BindPFlag("predict.base_url", flags.Lookup("api"))
	_ = viper.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("predict.strict", flags.Lookup("strict"))

	rootCmd.AddCommand(versionCmd)
}

// applyFlag copies a command flag onto key when the user set it. Flags shared
// by several commands go through here since viper binds one flag per key.
func applyFlag(cmd *cobra.Command, name, key string) {
	if flag := cmd.Flags().Lookup(name); flag != nil && flag.Changed {
		viper.Set(key, flag.Value.String())
	}
}

// initConfig reads in config file and ENV variables
func initConfig() {
	v := viper.GetViper()
	config.SetDefaults(v)
	if err := config.BindEnv(v); err != nil {
		configErr = err
		return
	}
	configUsed, configErr = config.ReadFile(v, cfgFile)
}

// loadConfig returns the effective configuration.
func loadConfig(stderr io.Writer) (config.Config, error) {
	if configErr != nil {
		return config.Config{}, configErr
	}
	cfg, err := config.Decode(viper.GetViper())
	if err != nil {
		return config.Config{}, err
	}
	if configUsed != "" && stderr != nil && cfg.Log.Level == logging.LevelDebug.String() {
		fmt.Fprintf(stderr, "Using config file: %s\n", configUsed)
	}
	return cfg, nil
}

func stderrOf(cmd *cobra.Command) io.Writer {
	if cmd == nil {
		return os.Stderr
	}
	return cmd.ErrOrStderr()
}
