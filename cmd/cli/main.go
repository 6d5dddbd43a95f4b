package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ovik/wagerd/internal/infrastructure/config"
	"github.com/ovik/wagerd/internal/infrastructure/logger"
	"github.com/ovik/wagerd/internal/infrastructure/postgres"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "wagerd-cli",
		Short: "wagerd CLI tool",
		Long:  `A command line interface for operating a wagerd instance.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the wagerd API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	// Admin commands
	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Operational commands",
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one sweep over expired and unsettled wagers",
		Run: func(cmd *cobra.Command, args []string) {
			runSweep()
		},
	}

	consistencyCmd := &cobra.Command{
		Use:   "consistency",
		Short: "Check balances against the transaction log",
		Run: func(cmd *cobra.Command, args []string) {
			checkConsistency()
		},
	}

	adminCmd.AddCommand(sweepCmd, consistencyCmd)
	rootCmd.AddCommand(adminCmd)

	// Wager lifecycle commands
	wagerCmd := &cobra.Command{
		Use:   "wager",
		Short: "Wager lifecycle operations",
	}

	resolveCmd := &cobra.Command{
		Use:   "resolve <wager-id> <side>",
		Short: "Declare the winning side of a wager",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			resolveWager(args[0], args[1])
		},
	}

	settleCmd := &cobra.Command{
		Use:   "settle <wager-id>",
		Short: "Distribute the pool of a resolved wager",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			transitionWager(args[0], "settle")
		},
	}

	refundCmd := &cobra.Command{
		Use:   "refund <wager-id>",
		Short: "Refund all stakes of a wager",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			transitionWager(args[0], "refund")
		},
	}

	wagerCmd.AddCommand(resolveCmd, settleCmd, refundCmd)
	rootCmd.AddCommand(wagerCmd)

	// Migration commands
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}

	migrateUpCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Run: func(cmd *cobra.Command, args []string) {
			runMigrations(false)
		},
	}

	migrateDownCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		Run: func(cmd *cobra.Command, args []string) {
			runMigrations(true)
		},
	}

	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runSweep() {
	body := postJSON("/api/v1/admin/sweep", nil)

	var report map[string]any
	if err := json.Unmarshal(body, &report); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Sweep completed\n")
	for _, key := range []string{"examined", "resolved", "settled", "refunded", "left_manual", "errors"} {
		if v, ok := report[key].(float64); ok {
			fmt.Printf("%s: %d\n", key, int(v))
		}
	}
}

func checkConsistency() {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + "/api/v1/admin/consistency")
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Consistency check FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	if consistent, ok := result["consistent"].(bool); ok && consistent {
		fmt.Printf("Consistency check PASSED\n")
		return
	}
	fmt.Printf("Consistency check FAILED\n")
	if mismatched, ok := result["mismatched_users"].(float64); ok {
		fmt.Printf("Mismatched users: %d\n", int(mismatched))
	}
	os.Exit(1)
}

func resolveWager(wagerID, side string) {
	payload, _ := json.Marshal(map[string]string{"winning_side": side})
	postJSON("/api/v1/wagers/"+wagerID+"/resolve", payload)
	fmt.Printf("Wager %s resolved with winning side %q\n", wagerID, side)
}

func transitionWager(wagerID, action string) {
	postJSON("/api/v1/wagers/"+wagerID+"/"+action, nil)
	fmt.Printf("Wager %s %sd\n", wagerID, action)
}

func postJSON(path string, payload []byte) []byte {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(baseURL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		fmt.Printf("Request failed (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	return body
}

func runMigrations(down bool) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	migLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: "console"})

	if down {
		err = postgres.RunMigrationsDown(cfg.DatabaseURL, cfg.MigrationsPath, migLogger)
	} else {
		err = postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, migLogger)
	}
	if err != nil {
		fmt.Printf("Migration failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Migrations applied")
}
