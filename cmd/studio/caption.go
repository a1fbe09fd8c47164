package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fpang/content-studio/internal/chat"
	"github.com/fpang/content-studio/internal/cli"
	"github.com/fpang/content-studio/internal/media"
	"github.com/fpang/content-studio/internal/store"
)

var (
	toneFlag        string
	platformFlag    string
	lengthFlag      string
	emojiFlag       string
	ctaFlag         string
	languageFlag    string
	instructionFlag string
	extractTextFlag bool
	creativityFlag  float64
	refineFlag      bool
	jsonFlag        bool
)

var captionCmd = &cobra.Command{
	Use:   "caption [files...]",
	Short: "Write a two-language caption for photos, a video or audio",
	Long: `Caption sends the media to the model and prints a caption in the target
language, its English translation and hashtags. Videos are reduced to still
frames first.

With --refine, you are asked for feedback after each caption and the model
revises it until you enter nothing.`,
	RunE: runCaption,
}

func init() {
	def := chat.DefaultCaptionStyle()
	f := captionCmd.Flags()
	f.StringVar(&toneFlag, "tone", string(def.Tone), "Tone, e.g. funny, professional, poetic")
	f.StringVar(&platformFlag, "platform", string(def.Platform), "Target platform, e.g. instagram, twitter, linkedin")
	f.StringVar(&lengthFlag, "length", string(def.Length), "Length: short, medium, long, very long, thread")
	f.StringVar(&emojiFlag, "emoji", string(def.Emoji), "Emoji density: none, minimal, standard, high, overload")
	f.StringVar(&ctaFlag, "cta", string(def.CallToAction), "Call to action, e.g. none, follow, buy")
	f.StringVar(&languageFlag, "language", "", "Caption language (default: settings target language)")
	f.StringVar(&instructionFlag, "instruction", "", "Extra context, e.g. \"grand opening\"")
	f.BoolVar(&extractTextFlag, "extract-text", false, "Also transcribe text visible in the media")
	f.Float64Var(&creativityFlag, "creativity", -1, "Sampling temperature 0-2 (default: settings)")
	f.BoolVar(&refineFlag, "refine", false, "Interactively refine the caption")
	f.BoolVar(&jsonFlag, "json", false, "Print the caption as JSON")
	rootCmd.AddCommand(captionCmd)
}

func captionStyle(settings store.UserSettings) (chat.CaptionStyle, error) {
	style := chat.CaptionStyle{
		Instruction: instructionFlag,
		ExtractText: extractTextFlag,
		Creativity:  settings.Creativity,
		Language:    settings.TargetLanguage,
	}
	if creativityFlag >= 0 {
		style.Creativity = creativityFlag
	}
	var err error
	if style.Tone, err = chat.ParseTone(toneFlag); err != nil {
		return style, err
	}
	if style.Platform, err = chat.ParsePlatform(platformFlag); err != nil {
		return style, err
	}
	if style.Length, err = chat.ParseTextLength(lengthFlag); err != nil {
		return style, err
	}
	if style.Emoji, err = chat.ParseEmojiDensity(emojiFlag); err != nil {
		return style, err
	}
	if style.CallToAction, err = chat.ParseCallToAction(ctaFlag); err != nil {
		return style, err
	}
	if languageFlag != "" {
		if style.Language, err = chat.ParseLanguage(languageFlag); err != nil {
			return style, err
		}
	}
	return style, style.Validate()
}

func runCaption(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a := studio(ctx)

	style, err := captionStyle(a.Library.Settings())
	if err != nil {
		return err
	}
	paths, err := inputFiles(args, true)
	if err != nil {
		return err
	}
	assets, err := ingest(ctx, paths)
	if err != nil {
		return err
	}

	model := client(ctx)
	req := chat.CaptionRequest{Style: style}
	for _, asset := range assets {
		req.Fragments = append(req.Fragments, asset.Fragments...)
	}

	caption, err := model.Caption(ctx, req)
	if err != nil {
		return err
	}
	if err := printCaption(caption); err != nil {
		return err
	}

	if refineFlag {
		prompter := cli.Stdio()
		for {
			feedback := prompter.Line("Feedback (enter to accept)", "")
			if feedback == "" {
				break
			}
			revised, err := model.RefineCaption(ctx, req, caption, feedback)
			if err != nil {
				return err
			}
			caption = revised
			if err := printCaption(caption); err != nil {
				return err
			}
		}
	}

	record(ctx, store.HistoryItem{
		Type:      store.ItemCaption,
		Thumbnail: media.ThumbnailDataURL(req.Fragments),
		Content:   caption.Primary,
		Metadata:  map[string]any{"platform": style.Platform, "hashtags": caption.Hashtags},
	})
	return nil
}

func printCaption(c *chat.Caption) error {
	if jsonFlag {
		return cli.PrintJSON(os.Stdout, c)
	}
	fmt.Println()
	fmt.Println(c.Primary)
	fmt.Println()
	fmt.Println(c.Secondary)
	if len(c.Hashtags) > 0 {
		fmt.Println()
		fmt.Println(strings.Join(c.Hashtags, " "))
	}
	if c.ExtractedText != "" {
		fmt.Printf("\nText in media: %s\n", c.ExtractedText)
	}
	if c.Sentiment != "" || c.SuggestedMusic != "" {
		fmt.Printf("\nSentiment: %s | Music: %s\n", c.Sentiment, c.SuggestedMusic)
	}
	return nil
}
