package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jsayram/life-wrapped-sub005/internal/config"
)

var (
	cfgFile string
	cfg     config.Config
	logger  *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "transcriber",
	Short: "Transcribe finite audio segments into ordered utterances",
	Long: "transcriber drives a streaming speech-recognition engine and reconciles\n" +
		"its partial/final event stream into a clean ordered list of utterances.",
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default none; env overrides always apply)")
	rootCmd.AddCommand(transcribeCmd)
	rootCmd.AddCommand(localesCmd)
}

// initConfig loads .env, the optional config file, and builds the logger.
func initConfig() {
	_ = godotenv.Load()

	loaded, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg = loaded
	logger = newLogger(cfg.LogLevel)
}

// newLogger builds the process logger at the configured level.
func newLogger(level string) *log.Logger {
	l := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	if lvl, err := log.ParseLevel(level); err == nil {
		l.SetLevel(lvl)
	}
	return l
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
