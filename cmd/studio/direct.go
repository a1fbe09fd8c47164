package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/content-studio/internal/chat"
	"github.com/fpang/content-studio/internal/cli"
	"github.com/fpang/content-studio/internal/director"
	"github.com/fpang/content-studio/internal/media"
	"github.com/fpang/content-studio/internal/store"
)

// maxParallelRenders bounds concurrent storyboard renders.
const maxParallelRenders = 3

var (
	goalFlag      string
	renderFlag    bool
	narrateFlag   bool
	thumbFlag     bool
	bundleFlag    string
	saveFlag      bool
	resumeFlag    bool
	directVoice   string
	directJSONOut bool
)

var directCmd = &cobra.Command{
	Use:   "direct [video]",
	Short: "Plan an edit of a video: cuts, storyboard, narration, thumbnail",
	Long: `Direct samples frames from the video and asks the director model for an
edit plan: a summary and virality score, timed cuts, a storyboard, a music
mood, a narration script and a thumbnail prompt.

--render draws every storyboard frame, --narrate voices the script and
--thumbnail renders the cover. --out writes a ZIP bundle with an EDL, the
script, the analysis and whatever was rendered.

--save keeps the project in the library; --resume continues the saved one
instead of reading a video.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDirect,
}

func runDirect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a := studio(ctx)
	p := a.NewPipeline(client(ctx))
	defer p.Close()

	if resumeFlag {
		project, ok, err := a.Library.LoadProject(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("no saved project to resume")
		}
		if err := p.Restore(project); err != nil {
			return err
		}
		log.Info().Int("frames", len(project.Frames)).Bool("analyzed", project.Analysis != nil).Msg("Project restored")
	} else {
		asset, err := ingestOne(ctx, args, media.KindVideo)
		if err != nil {
			return err
		}
		if err := p.LoadFrames(asset.Fragments); err != nil {
			return err
		}
	}

	if p.Analysis() == nil || cmd.Flags().Changed("goal") {
		start := time.Now()
		analysis, err := p.Analyze(ctx, goalFlag)
		if err != nil {
			return err
		}
		log.Info().Int("cuts", len(analysis.Cuts)).Int("storyboard", len(analysis.Storyboard)).
			Str("took", cli.FormatDurationShort(time.Since(start))).Msg("Analysis complete")
	}
	if directJSONOut {
		if err := cli.PrintJSON(os.Stdout, p.Analysis()); err != nil {
			return err
		}
	} else {
		printAnalysis(p.Analysis())
	}

	if renderFlag {
		renderStoryboard(ctx, p)
	}
	if narrateFlag {
		wav, err := p.Narrate(ctx, directVoice)
		if err != nil {
			return err
		}
		fmt.Printf("Narration: %s of audio\n", cli.FormatBytes(int64(len(wav))))
	}
	if thumbFlag {
		ref, err := p.RenderThumbnail(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Thumbnail: %s\n", cli.Truncate(ref, 80))
	}

	project := p.Snapshot()
	if bundleFlag != "" {
		if err := writeBundle(bundleFlag, project); err != nil {
			return err
		}
	}
	if saveFlag {
		if err := a.Library.SaveProject(ctx, project); err != nil {
			return err
		}
		log.Info().Msg("Project saved")
	}

	item := store.HistoryItem{
		Type:     store.ItemVideo,
		Content:  project.Analysis.Summary,
		Metadata: map[string]any{"mode": "director", "goal": project.Goal, "virality": project.Analysis.ViralityScore},
	}
	if base, ok := project.BaseFrame(); ok {
		item.Thumbnail = media.ThumbnailDataURL([]media.Fragment{base})
	}
	record(ctx, item)
	return nil
}

// renderStoryboard renders every frame that has no image yet. Failures are
// reported per frame and do not stop the others.
func renderStoryboard(ctx context.Context, p *director.Pipeline) {
	var pending []string
	for _, f := range p.Analysis().Storyboard {
		if f.ImageURL == "" {
			pending = append(pending, f.ID)
		}
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, maxParallelRenders)
	for _, id := range pending {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if _, err := p.RenderFrame(ctx, id); err != nil {
				log.Warn().Err(err).Str("frame", id).Msg("Storyboard render failed")
				return
			}
			log.Info().Str("frame", id).Msg("Storyboard frame rendered")
		}(id)
	}
	wg.Wait()
}

func writeBundle(path string, project director.Project) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := director.WriteBundle(f, project); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("Bundle written to %s\n", path)
	return nil
}

func printAnalysis(a *chat.VideoAnalysis) {
	fmt.Printf("\n%s\n\nVirality: %d/100   Music: %s\n", a.Summary, a.ViralityScore, a.MusicMood)
	if len(a.Cuts) > 0 {
		fmt.Println("\nCuts:")
		for _, c := range a.Cuts {
			fmt.Printf("  %s - %s  %s\n", c.Start, c.End, cli.Truncate(c.Reason, 70))
		}
	}
	if len(a.Storyboard) > 0 {
		fmt.Println("\nStoryboard:")
		for _, f := range a.Storyboard {
			fmt.Printf("  [%s] %s (%s)\n", f.ID, cli.Truncate(f.Description, 60), f.CameraAngle)
		}
	}
	if s := strings.TrimSpace(a.NarrationScript); s != "" {
		fmt.Printf("\nNarration:\n  %s\n", s)
	}
	if a.FFmpegCommand != "" {
		fmt.Printf("\nffmpeg:\n  %s\n", a.FFmpegCommand)
	}
}

func init() {
	f := directCmd.Flags()
	f.StringVar(&goalFlag, "goal", chat.DefaultDirectorGoal, "What the edit should achieve")
	f.BoolVar(&renderFlag, "render", false, "Render the storyboard frames")
	f.BoolVar(&narrateFlag, "narrate", false, "Voice the narration script")
	f.BoolVar(&thumbFlag, "thumbnail", false, "Render the thumbnail")
	f.StringVar(&directVoice, "voice", chat.DefaultVoice, "Narration voice")
	f.StringVar(&bundleFlag, "out", "", "Write a ZIP bundle to this path")
	f.BoolVar(&saveFlag, "save", false, "Save the project to the library")
	f.BoolVar(&resumeFlag, "resume", false, "Continue the saved project")
	f.BoolVar(&directJSONOut, "json", false, "Print the analysis as JSON")
	rootCmd.AddCommand(directCmd)
}
