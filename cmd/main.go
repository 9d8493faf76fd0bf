package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"tidbyt.dev/schedule"
	"tidbyt.dev/schedule/config"
)

var rootCmd = &cobra.Command{
	Use:          "schedule",
	Short:        "Schedule lookup tool",
	Long:         "Looks up upcoming departures in the configured schedule backend",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log.SetOutput(os.Stderr)
		log.SetFlags(log.LstdFlags | log.Lmicroseconds)
		if metricsAddr != "" {
			go serveMetrics(metricsAddr)
		}
		return nil
	},
}

var (
	configPath  string
	envFile     string
	noCache     bool
	metricsAddr string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVarP(&envFile, "env-file", "", ".env", "Environment file (ignored if missing)")
	rootCmd.PersistentFlags().BoolVarP(&noCache, "no-cache", "", false, "Bypass the departure cache")
	rootCmd.PersistentFlags().StringVarP(&metricsAddr, "metrics-addr", "", "", "Serve Prometheus metrics on this address")
	rootCmd.AddCommand(departuresCmd)
	rootCmd.AddCommand(statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("metrics server: %v", err)
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return config.Config{}, err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	return cfg, nil
}

func openSchedule() (*schedule.Schedule, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return schedule.Open(cfg)
}
