package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"ragchat/internal/domain"
	"ragchat/internal/i18n"
	"ragchat/pkg/logger"
)

// UploadState is a snapshot of the upload controller.
type UploadState struct {
	SelectedFile  *domain.File
	Status        domain.UploadStatus
	StatusMessage string
}

// UploadController drives selection and submission of a single document.
// It is safe for concurrent use and allows one upload in flight at a time.
type UploadController struct {
	backend domain.Backend
	texts   i18n.Texts
	log     *logger.Logger

	mu       sync.Mutex
	selected *domain.File
	status   domain.UploadStatus
	message  string
	seq      uint64
	inflight uint64 // token of the transfer in flight, 0 when none
	sending  bool
}

// NewUploadController creates an idle controller with no file selected.
func NewUploadController(backend domain.Backend, texts i18n.Texts, log *logger.Logger) *UploadController {
	if log == nil {
		log = logger.NewNop()
	}
	return &UploadController{backend: backend, texts: texts, log: log.Named("upload"), status: domain.UploadIdle}
}

// State returns a snapshot of the controller.
func (u *UploadController) State() UploadState {
	u.mu.Lock()
	defer u.mu.Unlock()
	st := UploadState{Status: u.status, StatusMessage: u.message}
	if u.selected != nil {
		f := *u.selected
		st.SelectedFile = &f
	}
	return st
}

// SelectFile makes f the file to upload and resets the status to idle.
// The file is not validated. Selection is refused while an upload is in flight.
func (u *UploadController) SelectFile(f domain.File) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.status == domain.UploadUploading {
		return false
	}
	u.selected = &f
	u.status = domain.UploadIdle
	u.message = u.texts.FileSelectedMessage(f.Name)
	return true
}

// Upload sends the selected file and blocks until the outcome is recorded.
// It returns false when no request was issued.
func (u *UploadController) Upload(ctx context.Context) bool {
	t, ok := u.Begin()
	if !ok {
		return false
	}
	return t.Complete(ctx)
}

// Transfer is an upload handed out by Begin. Only the transfer currently in
// flight can be completed, and only once.
type Transfer struct {
	u     *UploadController
	token uint64
	file  domain.File
}

// File returns the document being uploaded.
func (t *Transfer) File() domain.File {
	return t.file
}

// Begin moves the controller to uploading and returns the transfer that
// finishes it. Without a selected file it only sets the select-a-file prompt.
func (u *UploadController) Begin() (*Transfer, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.selected == nil {
		u.message = u.texts.SelectFirst
		return nil, false
	}
	if u.status == domain.UploadUploading {
		return nil, false
	}
	u.status = domain.UploadUploading
	u.message = u.texts.Uploading
	u.seq++
	u.inflight = u.seq
	u.sending = false
	return &Transfer{u: u, token: u.seq, file: *u.selected}, true
}

// Complete uploads the file and records success or failure. It returns false
// without a network call unless t is the transfer in flight and has not been
// completed yet.
func (t *Transfer) Complete(ctx context.Context) bool {
	if t == nil || t.u == nil {
		return false
	}
	u := t.u
	u.mu.Lock()
	if t.token == 0 || t.token != u.inflight || u.sending || u.selected == nil || u.status != domain.UploadUploading {
		u.mu.Unlock()
		return false
	}
	u.sending = true
	u.mu.Unlock()

	f := t.file
	status, message := domain.UploadError, u.texts.UnknownError
	defer func() {
		u.mu.Lock()
		u.status = status
		u.message = message
		u.inflight = 0
		u.sending = false
		u.mu.Unlock()
	}()

	res, err := u.backend.Upload(ctx, f)
	if err != nil {
		u.log.Warn("upload failed", zap.String("file", f.Name), zap.Error(err))
		if msg := err.Error(); msg != "" {
			message = msg
		}
		return true
	}
	u.log.Info("upload succeeded", zap.String("file", f.Name), zap.String("filename", res.Filename))
	status, message = domain.UploadSuccess, res.Message
	return true
}
