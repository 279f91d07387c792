package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/rladydgns3001-ui/autopost/internal/wordpress"
)

var homepageCmd = &cobra.Command{
	Use:   "homepage",
	Short: "Manage the WordPress front page",
}

var homepageTitle string

var homepageSetupCmd = &cobra.Command{
	Use:   "setup [html-file]",
	Short: "Create a page from an HTML file and make it the static front page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		wp, err := wordpressClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		page, err := wp.CreatePage(ctx, homepageTitle, string(content), "publish")
		if err != nil {
			return fmt.Errorf("creating page: %w", err)
		}
		fmt.Printf("Created page %d: %s\n", page.ID, page.Link)

		if err := wp.SetFrontPage(ctx, page.ID); err != nil {
			return fmt.Errorf("setting front page: %w", err)
		}
		fmt.Println("Set as static front page")
		return nil
	},
}

var homepageUpdateCmd = &cobra.Command{
	Use:   "update [page-id] [html-file]",
	Short: "Replace the body of an existing page",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid page ID: %s", args[0])
		}
		content, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[1], err)
		}
		wp, err := wordpressClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		page, err := wp.UpdatePage(ctx, id, string(content))
		if err != nil {
			return fmt.Errorf("updating page: %w", err)
		}
		fmt.Printf("Updated page %d: %s\n", page.ID, page.Link)
		return nil
	},
}

func init() {
	homepageSetupCmd.Flags().StringVar(&homepageTitle, "title", "홈", "Page title")

	homepageCmd.AddCommand(homepageSetupCmd)
	homepageCmd.AddCommand(homepageUpdateCmd)
}

func wordpressClient() (*wordpress.Client, error) {
	wp := wordpress.NewClient(secrets.WordPressURL, secrets.WordPressUser, secrets.WordPressPassword)
	if !wp.IsConfigured() {
		return nil, fmt.Errorf("wordpress not configured (set %s, %s and %s)",
			cfg.Publish.WordPress.URLEnv, cfg.Publish.WordPress.UserEnv, cfg.Publish.WordPress.PasswordEnv)
	}
	return wp, nil
}
