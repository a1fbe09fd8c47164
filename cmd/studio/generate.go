package main

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fpang/content-studio/internal/chat"
	"github.com/fpang/content-studio/internal/cli"
	"github.com/fpang/content-studio/internal/media"
	"github.com/fpang/content-studio/internal/store"
)

var (
	imageStyleFlag    string
	imageNegativeFlag string
	imageAspectFlag   string
	imageSizeFlag     string
	enhanceFirstFlag  bool
	outputFlag        string
	seedImageFlag     string
	videoAspectFlag   string
	videoResFlag      string
	voiceFlag         string
	toolLanguageFlag  string
	personaFlag       string
	savePromptFlag    bool
)

// promptArg joins the arguments into a prompt, asking for one when there
// are none.
func promptArg(args []string, label string) string {
	if p := strings.TrimSpace(strings.Join(args, " ")); p != "" {
		return p
	}
	return cli.Stdio().Line(label, "")
}

// maybeEnhance rewrites the prompt when --enhance is set. A failed rewrite
// is an error rather than a silent fallback.
func maybeEnhance(ctx context.Context, model *chat.Client, prompt string) (string, error) {
	if !enhanceFirstFlag {
		return prompt, nil
	}
	enhanced, err := model.EnhancePrompt(ctx, prompt)
	if err != nil {
		return "", err
	}
	fmt.Printf("Enhanced prompt: %s\n", enhanced)
	return enhanced, nil
}

func maybeSavePrompt(ctx context.Context, text, category string) {
	if !savePromptFlag {
		return
	}
	if _, err := studio(ctx).Library.SavePrompt(ctx, text, category); err != nil {
		fmt.Printf("Prompt not saved: %v\n", err)
	}
}

var imageCmd = &cobra.Command{
	Use:   "image [prompt]",
	Short: "Generate an image from a prompt",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		req := chat.ImageRequest{
			Prompt:         promptArg(args, "Prompt"),
			NegativePrompt: imageNegativeFlag,
		}
		var err error
		if req.Style, err = chat.ParseImageStyle(imageStyleFlag); err != nil {
			return err
		}
		if req.AspectRatio, err = chat.ParseAspectRatio(imageAspectFlag); err != nil {
			return err
		}
		if req.Size, err = chat.ParseImageSize(imageSizeFlag); err != nil {
			return err
		}
		model := client(ctx)
		if req.Prompt, err = maybeEnhance(ctx, model, req.Prompt); err != nil {
			return err
		}

		start := time.Now()
		img, err := model.GenerateImage(ctx, req)
		if err != nil {
			return err
		}
		path, err := writeOutput(outputFlag, "image_"+start.Format("20060102_150405"), img.MIMEType, img.Data)
		if err != nil {
			return err
		}
		fmt.Printf("Image saved to %s (%s)\n", path, cli.FormatDurationShort(time.Since(start)))
		record(ctx, store.HistoryItem{
			Type:      store.ItemImage,
			Thumbnail: media.ThumbnailDataURL([]media.Fragment{img.Fragment()}),
			Content:   req.Prompt,
			Metadata:  map[string]any{"path": path, "style": req.Style, "aspectRatio": req.AspectRatio},
		})
		maybeSavePrompt(ctx, req.Prompt, "image")
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:   "edit [image] --prompt <instruction>",
	Short: "Edit an image with an instruction",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		asset, err := ingestOne(ctx, args, media.KindImage)
		if err != nil {
			return err
		}
		prompt, _ := cmd.Flags().GetString("prompt")
		if prompt == "" {
			prompt = cli.Stdio().Line("Edit instruction", "")
		}
		img, err := client(ctx).EditImage(ctx, asset.Fragments[0], prompt)
		if err != nil {
			return err
		}
		path, err := writeOutput(outputFlag, "edited_"+time.Now().Format("20060102_150405"), img.MIMEType, img.Data)
		if err != nil {
			return err
		}
		fmt.Printf("Edited image saved to %s\n", path)
		record(ctx, store.HistoryItem{
			Type:      store.ItemImage,
			Thumbnail: media.ThumbnailDataURL([]media.Fragment{img.Fragment()}),
			Content:   prompt,
			Metadata:  map[string]any{"path": path, "mode": "edit"},
		})
		return nil
	},
}

var videoCmd = &cobra.Command{
	Use:   "video [prompt]",
	Short: "Generate a short video, optionally animating a seed image",
	Long: `Video generates a clip with Veo. Generation takes minutes; progress is
logged while the operation runs. Pass --image to animate a still.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		req := chat.VideoRequest{
			Prompt:      strings.Join(args, " "),
			AspectRatio: videoAspectFlag,
			Resolution:  videoResFlag,
		}
		var thumbSource []media.Fragment
		if seedImageFlag != "" {
			asset, err := ingestOne(ctx, []string{seedImageFlag}, media.KindImage)
			if err != nil {
				return err
			}
			req.Seed = &chat.Image{Data: asset.Raw, MIMEType: asset.ContentType}
			thumbSource = asset.Fragments
		} else if req.Prompt == "" {
			req.Prompt = promptArg(nil, "Prompt")
		}

		model := client(ctx)
		if req.Prompt != "" {
			var err error
			if req.Prompt, err = maybeEnhance(ctx, model, req.Prompt); err != nil {
				return err
			}
		}
		start := time.Now()
		video, err := model.GenerateVideo(ctx, req)
		if err != nil {
			return err
		}
		path, err := writeOutput(outputFlag, "video_"+start.Format("20060102_150405"), video.MIMEType, video.Data)
		if err != nil {
			return err
		}
		fmt.Printf("Video saved to %s (%s)\n", path, cli.FormatDurationShort(time.Since(start)))
		record(ctx, store.HistoryItem{
			Type:      store.ItemVideo,
			Thumbnail: media.ThumbnailDataURL(thumbSource),
			Content:   req.Prompt,
			Metadata:  map[string]any{"path": path, "aspectRatio": req.AspectRatio},
		})
		maybeSavePrompt(ctx, req.Prompt, "video")
		return nil
	},
}

var speakCmd = &cobra.Command{
	Use:   "speak [text]",
	Short: "Read text aloud into a WAV file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if !slices.Contains(chat.Voices, voiceFlag) {
			return fmt.Errorf("unknown voice %q (choose from %s)", voiceFlag, strings.Join(chat.Voices, ", "))
		}
		text := promptArg(args, "Text")
		pcm, err := client(ctx).Synthesize(ctx, text, voiceFlag)
		if err != nil {
			return err
		}
		path, err := writeOutput(outputFlag, "speech_"+time.Now().Format("20060102_150405"), "audio/wav", chat.WAV(pcm))
		if err != nil {
			return err
		}
		fmt.Printf("Speech saved to %s\n", path)
		record(ctx, store.HistoryItem{
			Type:     store.ItemAudio,
			Content:  text,
			Metadata: map[string]any{"path": path, "voice": voiceFlag},
		})
		return nil
	},
}

var transcribeCmd = &cobra.Command{
	Use:   "transcribe [audio]",
	Short: "Transcribe an audio recording",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		asset, err := ingestOne(ctx, args, media.KindAudio)
		if err != nil {
			return err
		}
		text, err := client(ctx).Transcribe(ctx, asset.Fragments[0])
		if err != nil {
			return err
		}
		fmt.Println(text)
		record(ctx, store.HistoryItem{
			Type:     store.ItemAudio,
			Content:  text,
			Metadata: map[string]any{"mode": "transcribe", "name": asset.Name},
		})
		return nil
	},
}

var toolCmd = &cobra.Command{
	Use:   "tool <name> [input]",
	Short: "Run a writing tool: bio, email, hashtag, translate and more",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		tool, err := chat.ParseToolType(args[0])
		if err != nil {
			return err
		}
		lang := studio(ctx).Library.Settings().TargetLanguage
		if toolLanguageFlag != "" {
			if lang, err = chat.ParseLanguage(toolLanguageFlag); err != nil {
				return err
			}
		}
		input := promptArg(args[1:], "Input")
		text, err := client(ctx).RunTool(ctx, tool, input, lang)
		if err != nil {
			return err
		}
		fmt.Println(text)
		record(ctx, store.HistoryItem{
			Type:     store.ItemTool,
			Content:  text,
			Metadata: map[string]any{"tool": tool, "input": input},
		})
		return nil
	},
}

var enhanceCmd = &cobra.Command{
	Use:   "enhance [prompt]",
	Short: "Rewrite a prompt into a richer one",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		prompt := promptArg(args, "Prompt")
		enhanced, err := client(ctx).EnhancePrompt(ctx, prompt)
		if err != nil {
			return err
		}
		fmt.Println(enhanced)
		maybeSavePrompt(ctx, enhanced, "image")
		return nil
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat [attachments...]",
	Short: "Chat with a persona",
	Long: `Chat starts an interactive conversation. Attachments given as arguments
are sent with the first message. Enter an empty line to quit.`,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	settings := studio(ctx).Library.Settings()
	req := chat.ConversationRequest{
		Persona:    chat.PersonaAssistant,
		Language:   settings.TargetLanguage,
		Creativity: settings.Creativity,
	}
	var err error
	if personaFlag != "" {
		if req.Persona, err = chat.ParsePersona(personaFlag); err != nil {
			return err
		}
	}
	if len(args) > 0 || pickFlag {
		paths, err := inputFiles(args, true)
		if err != nil {
			return err
		}
		assets, err := ingest(ctx, paths)
		if err != nil {
			return err
		}
		for _, a := range assets {
			req.Attachments = append(req.Attachments, a.Fragments...)
		}
	}

	model := client(ctx)
	prompter := cli.Stdio()
	fmt.Printf("Chatting with %s. Empty line to quit.\n", req.Persona)
	for {
		msg := prompter.Line("you", "")
		if msg == "" {
			return nil
		}
		req.Message = msg
		reply, err := model.Converse(ctx, req)
		if err != nil {
			return err
		}
		fmt.Printf("\n%s\n\n", reply)

		now := time.Now()
		req.History = append(req.History,
			chat.Message{Role: "user", Text: msg, Timestamp: now},
			chat.Message{Role: "model", Text: reply, Timestamp: now},
		)
		req.Attachments = nil
		record(ctx, store.HistoryItem{
			Type:     store.ItemChat,
			Content:  reply,
			Metadata: map[string]any{"persona": req.Persona, "message": msg},
		})
	}
}

func init() {
	f := imageCmd.Flags()
	f.StringVar(&imageStyleFlag, "style", string(chat.StyleNone), "Visual style, e.g. cinematic, anime, watercolor")
	f.StringVar(&imageNegativeFlag, "negative", "", "Things to keep out of the image")
	f.StringVar(&imageAspectFlag, "aspect", string(chat.AspectSquare), "Aspect ratio: 1:1, 3:4, 4:3, 16:9, 9:16, 21:9, 3:2, 2:3")
	f.StringVar(&imageSizeFlag, "size", string(chat.Size1K), "Resolution: 1K, 2K, 4K")

	editCmd.Flags().String("prompt", "", "Edit instruction")

	videoCmd.Flags().StringVar(&seedImageFlag, "image", "", "Still image to animate")
	videoCmd.Flags().StringVar(&videoAspectFlag, "aspect", "16:9", "Aspect ratio: 16:9 or 9:16")
	videoCmd.Flags().StringVar(&videoResFlag, "resolution", "720p", "Resolution: 720p or 1080p")

	speakCmd.Flags().StringVar(&voiceFlag, "voice", chat.DefaultVoice, "Voice: "+strings.Join(chat.Voices, ", "))
	toolCmd.Flags().StringVar(&toolLanguageFlag, "language", "", "Output language (default: settings target language)")
	chatCmd.Flags().StringVar(&personaFlag, "persona", "", "Persona, e.g. coder, storyteller, \"film director\"")

	for _, c := range []*cobra.Command{imageCmd, editCmd, videoCmd, speakCmd} {
		c.Flags().StringVarP(&outputFlag, "output", "o", "", "Output file (default: a timestamped name)")
	}
	for _, c := range []*cobra.Command{imageCmd, videoCmd} {
		c.Flags().BoolVar(&enhanceFirstFlag, "enhance", false, "Enhance the prompt before generating")
	}
	for _, c := range []*cobra.Command{imageCmd, videoCmd, enhanceCmd} {
		c.Flags().BoolVar(&savePromptFlag, "save-prompt", false, "Save the prompt to the library")
	}

	rootCmd.AddCommand(imageCmd, editCmd, videoCmd, speakCmd, transcribeCmd, toolCmd, enhanceCmd, chatCmd)
}
