package domain

import (
	"context"
	"time"
)

// Sender identifies who authored a transcript message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Message is a single immutable entry of the chat transcript.
type Message struct {
	ID     string
	Text   string
	Sender Sender
	// SourceFound is reported by the backend for answers; nil when unknown.
	SourceFound *bool
	CreatedAt   time.Time
}

// File is a handle to a local document selected for upload.
type File struct {
	Name string
	Path string
}

// UploadStatus is the lifecycle state of the upload controller.
type UploadStatus string

const (
	UploadIdle      UploadStatus = "idle"
	UploadUploading UploadStatus = "uploading"
	UploadSuccess   UploadStatus = "success"
	UploadError     UploadStatus = "error"
)

// UploadResult is the backend's confirmation for an indexed document.
type UploadResult struct {
	Filename string
	Message  string
}

// Answer is the backend's reply to a chat question.
type Answer struct {
	Text        string
	SourceFound *bool
}

// Backend is the remote indexing and chat service.
type Backend interface {
	Upload(ctx context.Context, file File) (UploadResult, error)
	Query(ctx context.Context, question string) (Answer, error)
}
