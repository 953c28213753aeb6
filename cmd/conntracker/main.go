package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/spf13/cobra"

	"github.com/srimandarbha/conntracker/internal/config"
	"github.com/srimandarbha/conntracker/internal/logging"
	"github.com/srimandarbha/conntracker/internal/tracker"
)

var (
	version = "0.1.0"
	cfgFile string

	flagPorts     string
	flagOutput    string
	flagBroker    string
	flagTopic     string
	flagInterval  int
	flagHost      string
	flagLogLevel  string
	flagLogFormat string
)

var rootCmd = &cobra.Command{
	Use:   "conntracker",
	Short: "Connection tracking agent",
	Long:  `conntracker - reports the distinct remote peers of established TCP connections on watched local ports`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the capture loop",
	Run: func(cmd *cobra.Command, args []string) {
		runTracker()
	},
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single capture cycle and print the snapshot",
	Run: func(cmd *cobra.Command, args []string) {
		runOnce()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("conntracker v%s\n", version)
		if info, err := host.Info(); err == nil {
			fmt.Printf("Host: %s (%s %s)\n", info.Hostname, info.Platform, info.PlatformVersion)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/conntracker/conntracker.yaml)")

	for _, cmd := range []*cobra.Command{runCmd, onceCmd} {
		cmd.Flags().StringVarP(&flagPorts, "ports", "p", "", "comma-separated local ports to watch (e.g. 4317,4318)")
		cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "snapshot JSON file path")
		cmd.Flags().StringVar(&flagBroker, "broker", "", "message bus broker address")
		cmd.Flags().StringVar(&flagTopic, "topic", "", "message bus topic")
		cmd.Flags().IntVar(&flagInterval, "interval", 0, "seconds between capture cycles")
		cmd.Flags().StringVar(&flagHost, "host", "", "host identifier override")
		cmd.Flags().StringVar(&flagLogLevel, "log-level", "", "log level (debug, info, warn, error)")
		cmd.Flags().StringVar(&flagLogFormat, "log-format", "", "log format (text, json)")
	}

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(onceCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig merges the config file (or defaults) with any flags set.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	if flagPorts != "" {
		cfg.Ports = flagPorts
	}
	if flagOutput != "" {
		cfg.OutputPath = flagOutput
	}
	if flagBroker != "" {
		cfg.Broker = flagBroker
	}
	if flagTopic != "" {
		cfg.Topic = flagTopic
	}
	if flagInterval > 0 {
		cfg.IntervalSeconds = flagInterval
	}
	if flagHost != "" {
		cfg.Host = flagHost
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if flagLogFormat != "" {
		cfg.LogFormat = flagLogFormat
	}

	return cfg, nil
}

func runTracker() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		}
		fmt.Fprintln(os.Stderr, "Usage: provide --ports plus --output and/or --broker with --topic.")
		os.Exit(1)
	}

	logging.Init(cfg.LogFormat, cfg.LogLevel, nil)

	t, err := tracker.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start tracker: %v\n", err)
		os.Exit(1)
	}

	go t.Start()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	fmt.Println("\nShutting down conntracker...")
	t.Stop()
}

func runOnce() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logging.Init(cfg.LogFormat, cfg.LogLevel, os.Stderr)

	t, err := tracker.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build tracker: %v\n", err)
		os.Exit(1)
	}
	defer t.Stop()

	snap := t.RunOnce()

	out, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode snapshot: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))

	for _, check := range t.Health() {
		if check.Status != "healthy" {
			fmt.Fprintf(os.Stderr, "%s: %s (%s)\n", check.Name, check.Status, check.Message)
		}
	}
}
