package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrBusy                = errors.New("request already in progress")
	ErrFileTooLarge        = errors.New("file is too large")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrEmptyTranscription  = errors.New("no text transcribed")
	ErrNoDocument          = errors.New("no document uploaded")
)
