package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/fpang/content-studio/internal/cli"
	"github.com/fpang/content-studio/internal/filter"
	"github.com/fpang/content-studio/internal/media"
)

var (
	framesOutFlag  string
	filterPreset   string
	filterConfig   string
	filterOutFlag  string
	paletteCount   int
	showInfoFlag   bool
	framesJSONFlag bool
)

var framesCmd = &cobra.Command{
	Use:   "frames [video]",
	Short: "Sample still frames from a video",
	Long: `Frames samples the video the same way captions and the director do and
prints each frame's position. With --out, the frames are written as JPEGs
into that directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFrames,
}

func runFrames(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	asset, err := ingestOne(ctx, args, media.KindVideo)
	if err != nil {
		return err
	}
	if framesJSONFlag {
		return cli.PrintJSON(os.Stdout, asset.Fragments)
	}

	fmt.Printf("%s: %d frames\n", asset.Name, len(asset.Fragments))
	for i, f := range asset.Fragments {
		line := fmt.Sprintf("  %2d  %s  %s", i+1, cli.FormatOffset(f.Offset), cli.FormatBytes(int64(len(f.Data))))
		if framesOutFlag != "" {
			path := filepath.Join(framesOutFlag, fmt.Sprintf("frame_%02d.jpg", i+1))
			if _, err := writeOutput(path, "", f.ContentType, f.Data); err != nil {
				return err
			}
			line += "  " + path
		}
		fmt.Println(line)
	}
	return nil
}

var filterCmd = &cobra.Command{
	Use:   "filter [image]",
	Short: "Apply a color filter and geometry to an image",
	Long: `Filter renders an image through the same chain the editor previews:
brightness, contrast, grayscale, sepia, blur, hue rotation and saturation,
then mirroring and rotation.

Start from a --preset and override fields with --config, a JSON object such
as '{"rotation":90,"scaleX":-1}'. The output format follows the -o
extension (png or jpg).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFilter,
}

func runFilter(cmd *cobra.Command, args []string) error {
	cfg, ok := filter.Presets[strings.ToLower(filterPreset)]
	if !ok {
		names := make([]string, 0, len(filter.Presets))
		for name := range filter.Presets {
			names = append(names, name)
		}
		slices.Sort(names)
		return fmt.Errorf("unknown preset %q (choose from %s)", filterPreset, strings.Join(names, ", "))
	}
	if filterConfig != "" {
		dec := json.NewDecoder(strings.NewReader(filterConfig))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return fmt.Errorf("invalid --config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	asset, err := ingestOne(cmd.Context(), args, media.KindImage)
	if err != nil {
		return err
	}
	format := filter.ParseFormat(filepath.Ext(filterOutFlag))
	out, err := filter.RenderBytes(asset.Raw, cfg, format)
	if err != nil {
		return err
	}
	stem := strings.TrimSuffix(asset.Name, filepath.Ext(asset.Name)) + "_" + filterPreset
	_, err = writeOutput(filterOutFlag, stem, format.ContentType(), out)
	return err
}

var paletteCmd = &cobra.Command{
	Use:   "palette [image]",
	Short: "Print the dominant colors of an image",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if paletteCount < 1 || paletteCount > 16 {
			return fmt.Errorf("--count must be between 1 and 16")
		}
		asset, err := ingestOne(cmd.Context(), args, media.KindImage)
		if err != nil {
			return err
		}
		img, err := imaging.Decode(bytes.NewReader(asset.Raw), imaging.AutoOrientation(true))
		if err != nil {
			return &filter.RenderError{Op: "decode", Err: err}
		}
		for _, c := range filter.Palette(img, paletteCount) {
			fmt.Println(c)
		}
		if showInfoFlag && asset.Image != nil {
			return cli.PrintJSON(os.Stdout, asset.Image)
		}
		return nil
	},
}

func init() {
	framesCmd.Flags().StringVarP(&framesOutFlag, "out", "o", "", "Directory to write the frames into")
	framesCmd.Flags().BoolVar(&framesJSONFlag, "json", false, "Print the frames as JSON, data included")

	filterCmd.Flags().StringVar(&filterPreset, "preset", "none", "Starting preset: none, noir, retro, vivid, cool, dream")
	filterCmd.Flags().StringVar(&filterConfig, "config", "", "JSON overrides for the preset")
	filterCmd.Flags().StringVarP(&filterOutFlag, "output", "o", "", "Output file (default: <name>_<preset>.png)")

	paletteCmd.Flags().IntVarP(&paletteCount, "count", "n", 5, "Number of colors")
	paletteCmd.Flags().BoolVar(&showInfoFlag, "info", false, "Also print dimensions and EXIF details")

	rootCmd.AddCommand(framesCmd, filterCmd, paletteCmd)
}
