package domain

import (
	"fmt"
	"slices"
	"strings"
)

const MaxUploadSizeBytes = 5 * 1024 * 1024

var AllowedDocumentMimeTypes = []string{"image/jpeg", "image/png", "image/webp"}

type UploadedFile struct {
	Name     string
	MimeType string
	Size     int
	Data     []byte
}

// ValidateMeta checks what is known before the file is downloaded.
func (f UploadedFile) ValidateMeta() error {
	if f.Size > MaxUploadSizeBytes {
		return fmt.Errorf("%w: %d bytes, max %d MB", ErrFileTooLarge, f.Size, MaxUploadSizeBytes/(1024*1024))
	}
	if !slices.Contains(AllowedDocumentMimeTypes, f.MimeType) {
		return fmt.Errorf("%w: %q, allowed JPG, PNG, WebP", ErrUnsupportedFileType, f.MimeType)
	}
	return nil
}

func (f UploadedFile) Validate() error {
	if err := f.ValidateMeta(); err != nil {
		return err
	}
	if len(f.Data) == 0 {
		return fmt.Errorf("%w: empty image data", ErrNoDocument)
	}
	return nil
}

type DocumentMessage struct {
	ChatMessage
	IsSummary bool
}

// Document is the uploaded image a chat is currently discussing.
type Document struct {
	ChatID   int64
	File     UploadedFile
	Summary  string
	Messages []DocumentMessage
}

func (d Document) History() []DocumentMessage {
	out := make([]DocumentMessage, 0, len(d.Messages))
	for _, m := range d.Messages {
		if isBlank(m.Text) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
