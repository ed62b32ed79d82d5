package service

import (
	"context"
	"sync"

	"ragchat/internal/domain"
)

// fakeBackend implements domain.Backend for testing.
type fakeBackend struct {
	mu        sync.Mutex
	questions []string
	uploads   []domain.File

	answer    domain.Answer
	queryErr  error
	upload    domain.UploadResult
	uploadErr error

	// when set, calls block until a value is received
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeBackend) Query(ctx context.Context, question string) (domain.Answer, error) {
	f.mu.Lock()
	f.questions = append(f.questions, question)
	f.mu.Unlock()
	f.wait()
	return f.answer, f.queryErr
}

func (f *fakeBackend) Upload(ctx context.Context, file domain.File) (domain.UploadResult, error) {
	f.mu.Lock()
	f.uploads = append(f.uploads, file)
	f.mu.Unlock()
	f.wait()
	return f.upload, f.uploadErr
}

func (f *fakeBackend) wait() {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
}

func (f *fakeBackend) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.questions)
}

func (f *fakeBackend) uploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

// blocking returns a backend whose calls park until release is called.
func blocking() (*fakeBackend, func()) {
	f := &fakeBackend{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	return f, func() { close(f.gate) }
}

type emptyError struct{}

func (emptyError) Error() string { return "" }
