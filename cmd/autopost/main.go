package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rladydgns3001-ui/autopost/internal/config"
	"github.com/rladydgns3001-ui/autopost/internal/cursor"
	"github.com/rladydgns3001-ui/autopost/internal/database"
	"github.com/rladydgns3001-ui/autopost/internal/pipeline"
	"github.com/rladydgns3001-ui/autopost/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
	secrets    config.Secrets
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "autopost",
	Short:   "Keyword-driven blog publishing",
	Long:    "autopost researches the next keyword in the queue, drafts an SEO article and publishes it to WordPress.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		secrets = cfg.Secrets()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(keywordsCmd)
	rootCmd.AddCommand(homepageCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("autopost", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/autopost/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Set SERP_API_KEY, CLAUDE_API_KEY, OPENAI_API_KEY, WP_URL, WP_USER and WP_APP_PASSWORD (or a .env file).")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show keyword queue and run history",
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := cursor.Load(cfg.Cursor.Path)
		if err != nil {
			return err
		}

		fmt.Println("Keywords:")
		fmt.Printf("  Position: %d/%d\n", state.CurrentIndex, len(state.Keywords))
		fmt.Printf("  Remaining: %d\n", state.Remaining())
		if next, ok := state.Current(); ok {
			fmt.Printf("  Next: %s\n", next)
		} else {
			fmt.Println("  Next: (all keywords processed)")
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Println("\nRuns:")
		fmt.Printf("  Total: %d\n", stats.TotalRuns)
		fmt.Printf("  Published: %d\n", stats.Published)
		fmt.Printf("  Failed: %d\n", stats.Failed)
		fmt.Printf("  Dry runs: %d\n", stats.DryRuns)
		if stats.LastPublished != nil {
			fmt.Printf("  Last published: %s\n", *stats.LastPublished)
		}
		if stats.Published > 0 {
			fmt.Printf("  Average length: %.0f characters\n", stats.AvgTextLength)
		}
		return nil
	},
}

// --- run command ---

var dryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Publish the keyword at the cursor: search -> sample -> analyze -> image -> generate -> publish",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		result, err := pipeline.RunOnce(ctx, cfg, secrets, db, dryRun)
		if result != nil {
			printResult(result)
		}
		if err != nil {
			return err
		}

		if result.Exhausted {
			fmt.Println("\nAll keywords processed. Add more with 'autopost keywords add'.")
			return nil
		}
		if dryRun && result.Analysis != nil {
			fmt.Println()
			fmt.Println(result.Analysis.Markdown())
			return nil
		}
		fmt.Printf("\nPublished %s\n", result.PostURL)
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Search and analyze without generating, publishing or advancing")
}

func printResult(r *pipeline.Result) {
	if r.Keyword != "" {
		fmt.Printf("Keyword %d/%d: %s\n", r.Index+1, r.Total, r.Keyword)
	}
	for i, step := range r.Steps {
		fmt.Printf("\nStep %d/%d: %s\n", i+1, len(r.Steps), step.Name)
		if step.Err != nil {
			fmt.Printf("  Error: %v\n", step.Err)
		} else {
			fmt.Printf("  %s\n", step.Summary)
		}
	}
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local run history viewer",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if !cmd.Flags().Changed("port") && cfg.Server.Port != 0 {
			port = cfg.Server.Port
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "autopost.db")
	return database.Open(dbPath)
}
