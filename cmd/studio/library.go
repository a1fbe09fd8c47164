package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/content-studio/internal/chat"
	"github.com/fpang/content-studio/internal/cli"
	"github.com/fpang/content-studio/internal/store"
)

// record adds a history item, logging rather than failing the command.
func record(ctx context.Context, item store.HistoryItem) {
	if _, err := studio(ctx).Library.AddHistory(ctx, item); err != nil {
		log.Warn().Err(err).Str("type", item.Type).Msg("Failed to record history")
	}
}

var (
	historyTypeFlag      string
	historyFavoritesFlag bool
	historyYesFlag       bool
	promptCategoryFlag   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past generations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		items := studio(cmd.Context()).Library.History(historyTypeFlag, historyFavoritesFlag)
		if jsonFlag {
			return cli.PrintJSON(os.Stdout, items)
		}
		if len(items) == 0 {
			fmt.Println("No history.")
			return nil
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTYPE\tWHEN\tFAV\tCONTENT")
		for _, it := range items {
			fav := ""
			if it.Favorite {
				fav = "*"
			}
			when := time.UnixMilli(it.Timestamp).Format("2006-01-02 15:04")
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", it.ID, it.Type, when, fav, cli.Truncate(it.Content, 60))
		}
		return tw.Flush()
	},
}

var historyFavoriteCmd = &cobra.Command{
	Use:   "favorite <id>",
	Short: "Toggle the favorite mark on a history item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fav, err := studio(cmd.Context()).Library.ToggleFavorite(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s favorite: %t\n", args[0], fav)
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a history item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return studio(cmd.Context()).Library.DeleteHistory(cmd.Context(), args[0])
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all history except favorites",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !historyYesFlag && !cli.Stdio().Confirm("Clear history (favorites are kept)?") {
			return nil
		}
		n, err := studio(cmd.Context()).Library.ClearHistory(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d items.\n", n)
		return nil
	},
}

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "List saved prompts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		prompts := studio(cmd.Context()).Library.Prompts(promptCategoryFlag)
		if jsonFlag {
			return cli.PrintJSON(os.Stdout, prompts)
		}
		if len(prompts) == 0 {
			fmt.Println("No saved prompts.")
			return nil
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCATEGORY\tTITLE")
		for _, p := range prompts {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Category, p.Title)
		}
		return tw.Flush()
	},
}

var promptsSaveCmd = &cobra.Command{
	Use:   "save <text>",
	Short: "Save a prompt for reuse",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category := promptCategoryFlag
		if category == "" {
			category = "text"
		}
		p, err := studio(cmd.Context()).Library.SavePrompt(cmd.Context(), strings.Join(args, " "), category)
		if err != nil {
			return err
		}
		fmt.Printf("Saved %s (%s)\n", p.ID, p.Title)
		return nil
	},
}

var promptsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved prompt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return studio(cmd.Context()).Library.DeletePrompt(cmd.Context(), args[0])
	},
}

var (
	setLanguageFlag   string
	setCreativityFlag float64
	setSafetyFlag     string
	setThemeFlag      string
	setTTSSpeedFlag   float64
	setAPIKeyFlag     string
	clearAPIKeyFlag   bool
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change settings",
	Long: `Without flags, settings prints the current settings. The stored API key
is never printed, only whether one is set.`,
	Args: cobra.NoArgs,
	RunE: runSettings,
}

func runSettings(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	lib := studio(ctx).Library
	s := lib.Settings()

	changed := false
	f := cmd.Flags()
	if f.Changed("language") {
		lang, err := chat.ParseLanguage(setLanguageFlag)
		if err != nil {
			return err
		}
		s.TargetLanguage, changed = lang, true
	}
	if f.Changed("creativity") {
		s.Creativity, changed = setCreativityFlag, true
	}
	if f.Changed("safety") {
		s.SafetyFilter, changed = setSafetyFlag, true
	}
	if f.Changed("theme") {
		s.Theme, changed = setThemeFlag, true
	}
	if f.Changed("tts-speed") {
		s.TTSSpeed, changed = setTTSSpeedFlag, true
	}
	if f.Changed("set-api-key") {
		s.APIKey, changed = strings.TrimSpace(setAPIKeyFlag), true
	}
	if clearAPIKeyFlag {
		s.APIKey, changed = "", true
	}
	if changed {
		if err := lib.UpdateSettings(ctx, s); err != nil {
			return err
		}
		log.Info().Msg("Settings saved")
	}

	hasKey := s.APIKey != ""
	s.APIKey = ""
	if jsonFlag {
		return cli.PrintJSON(os.Stdout, struct {
			store.UserSettings
			HasAPIKey bool `json:"hasApiKey"`
		}{s, hasKey})
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "language\t%s\n", s.TargetLanguage)
	fmt.Fprintf(tw, "creativity\t%.2f\n", s.Creativity)
	fmt.Fprintf(tw, "safety\t%s\n", s.SafetyFilter)
	fmt.Fprintf(tw, "theme\t%s\n", s.Theme)
	fmt.Fprintf(tw, "tts speed\t%.2f\n", s.TTSSpeed)
	fmt.Fprintf(tw, "api key\t%t\n", hasKey)
	return tw.Flush()
}

func init() {
	historyCmd.Flags().StringVar(&historyTypeFlag, "type", "", "Only items of this type (caption, image, video, tool, chat, audio)")
	historyCmd.Flags().BoolVar(&historyFavoritesFlag, "favorites", false, "Only favorites")
	historyCmd.Flags().BoolVar(&jsonFlag, "json", false, "Print as JSON")
	historyClearCmd.Flags().BoolVarP(&historyYesFlag, "yes", "y", false, "Do not ask for confirmation")
	historyCmd.AddCommand(historyFavoriteCmd, historyDeleteCmd, historyClearCmd)

	promptsCmd.PersistentFlags().StringVar(&promptCategoryFlag, "category", "", "Prompt category (image, text, video, audio)")
	promptsCmd.Flags().BoolVar(&jsonFlag, "json", false, "Print as JSON")
	promptsCmd.AddCommand(promptsSaveCmd, promptsDeleteCmd)

	f := settingsCmd.Flags()
	f.StringVar(&setLanguageFlag, "language", "", "Target language")
	f.Float64Var(&setCreativityFlag, "creativity", 1, "Default sampling temperature 0-2")
	f.StringVar(&setSafetyFlag, "safety", "", "Safety filter: block_none, block_few, block_some, block_most")
	f.StringVar(&setThemeFlag, "theme", "", "UI accent color")
	f.Float64Var(&setTTSSpeedFlag, "tts-speed", 1, "Speech playback speed 0.5-2")
	f.StringVar(&setAPIKeyFlag, "set-api-key", "", "Store a model API key in settings")
	f.BoolVar(&clearAPIKeyFlag, "clear-api-key", false, "Remove the stored API key")
	f.BoolVar(&jsonFlag, "json", false, "Print as JSON")

	rootCmd.AddCommand(historyCmd, promptsCmd, settingsCmd)
}
