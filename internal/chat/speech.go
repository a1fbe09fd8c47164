package chat

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// DefaultVoice is the prebuilt TTS voice used when none is chosen.
const DefaultVoice = "Kore"

// SpeechSampleRate is the PCM rate produced by the TTS model: 16-bit
// little-endian mono.
const SpeechSampleRate = 24000

// Voices are the prebuilt voices offered to users.
var Voices = []string{"Kore", "Puck", "Charon", "Fenrir", "Zephyr", "Aoede"}

// Synthesize reads text aloud and returns raw PCM at SpeechSampleRate.
// Use WAV to make it playable.
func (c *Client) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalidRequest("nothing to speak")
	}
	if voice == "" {
		voice = DefaultVoice
	}

	log.Info().
		Int("text_length", len(text)).
		Str("voice", voice).
		Msg("Synthesizing speech")

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	}

	var pcm []byte
	err := c.generate(ctx, "synthesize", c.models.Speech, genai.Text(text), cfg, func(resp *genai.GenerateContentResponse) error {
		blob := firstInline(resp, "audio/")
		if blob == nil {
			return ErrEmptyResponse
		}
		if rate, ok := ParsePCMRate(blob.MIMEType); ok && rate != SpeechSampleRate {
			return fmt.Errorf("unexpected audio format %q", blob.MIMEType)
		}
		pcm = blob.Data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pcm, nil
}

// ParsePCMRate reads the rate parameter of an "audio/L16;codec=pcm;rate=N"
// MIME type.
func ParsePCMRate(mimeType string) (int, bool) {
	for _, param := range strings.Split(mimeType, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok || !strings.EqualFold(k, "rate") {
			continue
		}
		rate, err := strconv.Atoi(v)
		if err != nil || rate <= 0 {
			return 0, false
		}
		return rate, true
	}
	return 0, false
}

// WAV wraps 16-bit mono PCM at SpeechSampleRate in a RIFF/WAVE header.
func WAV(pcm []byte) []byte {
	return WAVWithRate(pcm, SpeechSampleRate)
}

// WAVWithRate wraps 16-bit mono PCM at rate in a RIFF/WAVE header.
func WAVWithRate(pcm []byte, rate int) []byte {
	const (
		channels      = 1
		bitsPerSample = 16
	)
	blockAlign := channels * bitsPerSample / 8

	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(rate))
	binary.Write(&buf, binary.LittleEndian, uint32(rate*blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}
