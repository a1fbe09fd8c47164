package frames

import (
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// VideoInfo is what the sampler needs to know about a clip.
type VideoInfo struct {
	Duration  float64 // seconds
	Width     int     // display width, after rotation
	Height    int     // display height, after rotation
	FrameRate float64
	Codec     string
	Rotation  int
}

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

type ffprobeStream struct {
	CodecName    string            `json:"codec_name"`
	CodecType    string            `json:"codec_type"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	RFrameRate   string            `json:"r_frame_rate"`
	Duration     string            `json:"duration"`
	Tags         map[string]string `json:"tags"`
	SideDataList []ffprobeSideData `json:"side_data_list"`
}

type ffprobeSideData struct {
	Rotation *float64 `json:"rotation"`
}

// CheckAvailable reports whether both binaries can be found.
func CheckAvailable(ffmpegPath, ffprobePath string) error {
	for _, bin := range []string{ffmpegPath, ffprobePath} {
		path, err := exec.LookPath(bin)
		if err != nil {
			return fmt.Errorf("%s not found in PATH: video frame sampling is unavailable. Install FFmpeg with: brew install ffmpeg (macOS) or apt install ffmpeg (Linux)", bin)
		}
		log.Debug().Str("path", path).Msg("Found " + bin)
	}
	return nil
}

// parseProbe decodes `ffprobe -print_format json -show_format -show_streams`.
func parseProbe(output []byte) (*VideoInfo, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	var video *ffprobeStream
	for i := range probe.Streams {
		if probe.Streams[i].CodecType == "video" {
			video = &probe.Streams[i]
			break
		}
	}
	if video == nil {
		return nil, errors.New("no video stream found")
	}

	info := &VideoInfo{
		Width:     video.Width,
		Height:    video.Height,
		FrameRate: parseFrameRate(video.RFrameRate),
		Codec:     video.CodecName,
		Rotation:  streamRotation(video),
	}
	if info.Rotation == 90 || info.Rotation == 270 {
		info.Width, info.Height = info.Height, info.Width
	}

	info.Duration, _ = strconv.ParseFloat(probe.Format.Duration, 64)
	if info.Duration <= 0 {
		info.Duration, _ = strconv.ParseFloat(video.Duration, 64)
	}
	if info.Duration <= 0 {
		return nil, errors.New("video duration is unknown")
	}
	if info.Width <= 0 || info.Height <= 0 {
		return nil, fmt.Errorf("invalid video dimensions %dx%d", info.Width, info.Height)
	}
	return info, nil
}

// streamRotation normalises the display rotation to 0, 90, 180 or 270.
// Older muxers write a "rotate" tag; newer ffprobe reports a display matrix.
func streamRotation(s *ffprobeStream) int {
	deg := 0.0
	if v, ok := s.Tags["rotate"]; ok {
		deg, _ = strconv.ParseFloat(v, 64)
	}
	for _, sd := range s.SideDataList {
		if sd.Rotation != nil {
			deg = *sd.Rotation
			break
		}
	}
	r := int(deg) % 360
	if r < 0 {
		r += 360
	}
	return r
}

// parseFrameRate parses ffprobe's rational form ("30000/1001") or a plain number.
func parseFrameRate(value string) float64 {
	if num, den, ok := strings.Cut(value, "/"); ok {
		n, _ := strconv.ParseFloat(num, 64)
		d, _ := strconv.ParseFloat(den, 64)
		if d != 0 {
			return n / d
		}
		return 0
	}
	rate, _ := strconv.ParseFloat(value, 64)
	return rate
}
