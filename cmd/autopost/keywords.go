package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rladydgns3001-ui/autopost/internal/collect"
	"github.com/rladydgns3001-ui/autopost/internal/cursor"
)

var keywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "Manage the keyword queue",
}

var keywordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List queued keywords",
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := cursor.Load(cfg.Cursor.Path)
		if err != nil {
			return err
		}
		if len(state.Keywords) == 0 {
			fmt.Println("No keywords. Add some with: autopost keywords add")
			return nil
		}

		for i, kw := range state.Keywords {
			marker := " "
			switch {
			case i < state.CurrentIndex:
				marker = "x"
			case i == state.CurrentIndex:
				marker = ">"
			}
			fmt.Printf("  [%s] %3d %s\n", marker, i, kw)
		}
		fmt.Printf("\n%d of %d remaining\n", state.Remaining(), len(state.Keywords))
		return nil
	},
}

var keywordsAddCmd = &cobra.Command{
	Use:   "add [keyword...]",
	Short: "Append keywords to the queue",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return appendKeywords(args)
	},
}

var resetIndex int

var keywordsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Move the cursor back to the start or to --index",
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := cursor.Load(cfg.Cursor.Path)
		if err != nil {
			return err
		}
		state, err = state.Reset(resetIndex)
		if err != nil {
			return err
		}
		if err := cursor.Save(cfg.Cursor.Path, state); err != nil {
			return err
		}
		fmt.Printf("Cursor set to %d/%d\n", state.CurrentIndex, len(state.Keywords))
		return nil
	},
}

var (
	feedLimit    int
	feedDaysBack int
)

var keywordsImportFeedCmd = &cobra.Command{
	Use:   "import-feed [url]",
	Short: "Append item titles from an RSS or Atom feed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		importer := collect.NewFeedImporter(cfg.Sampling.UserAgent, feedDaysBack)
		titles, err := importer.Import(ctx, args[0], feedLimit)
		if err != nil {
			return err
		}
		fmt.Printf("Found %d titles in feed\n", len(titles))
		return appendKeywords(titles)
	},
}

func init() {
	keywordsResetCmd.Flags().IntVar(&resetIndex, "index", 0, "Cursor position to reset to")
	keywordsImportFeedCmd.Flags().IntVar(&feedLimit, "limit", 20, "Maximum titles to import")
	keywordsImportFeedCmd.Flags().IntVar(&feedDaysBack, "days-back", 0, "Only import items from the last N days (0 = all)")

	keywordsCmd.AddCommand(keywordsListCmd)
	keywordsCmd.AddCommand(keywordsAddCmd)
	keywordsCmd.AddCommand(keywordsResetCmd)
	keywordsCmd.AddCommand(keywordsImportFeedCmd)
}

// appendKeywords adds keywords to the cursor document, creating it when missing.
func appendKeywords(keywords []string) error {
	state, err := cursor.Load(cfg.Cursor.Path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		state = cursor.State{}
	}

	state, added := state.Append(keywords...)
	if err := cursor.Save(cfg.Cursor.Path, state); err != nil {
		return err
	}
	fmt.Printf("Added %d keyword(s), %d skipped (%d total)\n",
		added, len(keywords)-added, len(state.Keywords))

	warnPublished(state.Keywords[len(state.Keywords)-added:])
	return nil
}

// warnPublished lists keywords that already have a published run.
func warnPublished(keywords []string) {
	if len(keywords) == 0 {
		return
	}
	db, err := openDB()
	if err != nil {
		log.Printf("Skipping history check: %v", err)
		return
	}
	defer db.Close()

	for _, kw := range keywords {
		done, err := db.HasPublished(kw)
		if err != nil {
			log.Printf("Checking history for %q: %v", kw, err)
			return
		}
		if done {
			fmt.Printf("  note: %q was published before\n", kw)
		}
	}
}
