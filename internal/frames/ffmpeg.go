package frames

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// FFmpegDecoder decodes frames by shelling out to ffprobe and ffmpeg.
type FFmpegDecoder struct {
	FFmpegPath  string
	FFprobePath string
}

// NewFFmpegDecoder returns a decoder using the given binaries, defaulting to
// "ffmpeg" and "ffprobe" on PATH.
func NewFFmpegDecoder(ffmpegPath, ffprobePath string) *FFmpegDecoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpegDecoder{FFmpegPath: ffmpegPath, FFprobePath: ffprobePath}
}

// Open spools the clip into a private temporary directory.
func (d *FFmpegDecoder) Open(ctx context.Context, video []byte) (Session, error) {
	if len(video) == 0 {
		return nil, errors.New("empty video")
	}
	dir, err := os.MkdirTemp("", "studio-frames-*")
	if err != nil {
		return nil, fmt.Errorf("create frame directory: %w", err)
	}
	path := filepath.Join(dir, "source")
	if err := os.WriteFile(path, video, 0o600); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("spool video: %w", err)
	}
	return &ffmpegSession{decoder: d, dir: dir, path: path}, nil
}

type ffmpegSession struct {
	decoder *FFmpegDecoder
	dir     string
	path    string

	once     sync.Once
	closeErr error
}

func (s *ffmpegSession) Probe(ctx context.Context) (*VideoInfo, error) {
	cmd := exec.CommandContext(ctx, s.decoder.FFprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		s.path,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}
	return parseProbe(output)
}

func (s *ffmpegSession) Frame(ctx context.Context, offset float64) (image.Image, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.decoder.FFmpegPath,
		"-hide_banner",
		"-loglevel", "error",
		"-ss", strconv.FormatFloat(offset, 'f', 3, 64),
		"-i", s.path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"pipe:1",
	)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("no frame decoded at %.3fs", offset)
	}
	img, err := png.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return img, nil
}

func (s *ffmpegSession) Close() error {
	s.once.Do(func() {
		s.closeErr = os.RemoveAll(s.dir)
		if s.closeErr != nil {
			log.Warn().Err(s.closeErr).Str("dir", s.dir).Msg("Failed to remove frame directory")
		}
	})
	return s.closeErr
}
