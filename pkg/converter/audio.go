package converter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Extensions the transcriber accepts without conversion, by MIME type.
var passthrough = map[string]string{
	"audio/mpeg":  ".mp3",
	"audio/mp3":   ".mp3",
	"audio/mp4":   ".m4a",
	"audio/m4a":   ".m4a",
	"audio/wav":   ".wav",
	"audio/x-wav": ".wav",
	"audio/webm":  ".webm",
	"audio/flac":  ".flac",
}

// AudioToMP3 prepares recorded audio for transcription. Telegram voice notes
// (Ogg/Opus) are converted with ffmpeg; other formats are passed through.
type AudioToMP3 struct {
	run func(ctx context.Context, inputPath, outputPath string) error
}

func NewAudioToMP3() *AudioToMP3 {
	return &AudioToMP3{run: runFFmpeg}
}

// Convert returns the audio to transcribe and a file name whose extension
// names its format. Temporary files never outlive the call.
func (a *AudioToMP3) Convert(ctx context.Context, audio []byte, mimeType string) ([]byte, string, error) {
	mimeType = strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))
	if ext, ok := passthrough[mimeType]; ok {
		return audio, "voice" + ext, nil
	}

	dir, err := os.MkdirTemp("", "voice-*")
	if err != nil {
		return nil, "", fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	inputPath := filepath.Join(dir, "voice.ogg")
	outputPath := inputPath + ".mp3"

	if err := os.WriteFile(inputPath, audio, 0o600); err != nil {
		return nil, "", fmt.Errorf("writing voice file: %w", err)
	}

	slog.DebugContext(ctx, "Converting voice message to mp3", "mimeType", mimeType, "bytes", len(audio))

	if err := a.run(ctx, inputPath, outputPath); err != nil {
		return nil, "", fmt.Errorf("converting file: %w", err)
	}

	converted, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, "", fmt.Errorf("reading converted file: %w", err)
	}
	return converted, "voice.mp3", nil
}

func runFFmpeg(ctx context.Context, inputPath, outputPath string) error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("looking for `ffmpeg`: %w", err)
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", "-y", "-i", inputPath, outputPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("running `ffmpeg`: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
