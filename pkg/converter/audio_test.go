package converter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConvertPassthrough(t *testing.T) {
	a := &AudioToMP3{run: func(context.Context, string, string) error {
		t.Fatal("ffmpeg must not run for supported formats")
		return nil
	}}

	out, name, err := a.Convert(context.Background(), []byte("ID3"), "audio/mpeg; codecs=mp3")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if string(out) != "ID3" || name != "voice.mp3" {
		t.Errorf("unexpected result %q %q", out, name)
	}
}

func TestConvertOgg(t *testing.T) {
	var dir string
	a := &AudioToMP3{run: func(_ context.Context, in, out string) error {
		dir = filepath.Dir(in)
		data, err := os.ReadFile(in)
		if err != nil {
			return err
		}
		return os.WriteFile(out, append([]byte("mp3:"), data...), 0o600)
	}}

	out, name, err := a.Convert(context.Background(), []byte("OggS"), "audio/ogg")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if string(out) != "mp3:OggS" || name != "voice.mp3" {
		t.Errorf("unexpected result %q %q", out, name)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("expected temp dir %s to be removed", dir)
	}
}

func TestConvertFailureCleansUp(t *testing.T) {
	var dir string
	a := &AudioToMP3{run: func(_ context.Context, in, _ string) error {
		dir = filepath.Dir(in)
		return errors.New("ffmpeg crashed")
	}}

	if _, _, err := a.Convert(context.Background(), []byte("OggS"), "audio/ogg"); err == nil {
		t.Fatal("expected an error")
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("expected temp dir %s to be removed after failure", dir)
	}
}
