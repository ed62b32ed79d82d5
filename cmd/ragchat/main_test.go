package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/backend"
	"ragchat/internal/domain"
	"ragchat/internal/i18n"
	"ragchat/internal/service"
)

func newCommandDeps(t *testing.T, handler http.HandlerFunc) (*service.ConversationController, *service.UploadController, *backend.Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := backend.NewClient(backend.Config{BaseURL: srv.URL})
	texts := i18n.Default()
	return service.NewConversationController(client, texts, nil, nil), service.NewUploadController(client, texts, nil), client
}

func TestRunCommand_Ask(t *testing.T) {
	chat, upload, client := newCommandDeps(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"answer":"Refunds are processed within 14 days.","source_found":true}`))
	})

	require.NoError(t, runCommand(context.Background(), []string{"ask", "What", "is", "the", "refund", "policy?"}, chat, upload, client))

	msgs := chat.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "What is the refund policy?", msgs[0].Text)
	assert.Equal(t, "Refunds are processed within 14 days.", msgs[1].Text)
}

func TestRunCommand_AskBackendFailure(t *testing.T) {
	chat, upload, client := newCommandDeps(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"index not ready"}`))
	})

	assert.Error(t, runCommand(context.Background(), []string{"ask", "anyone", "there?"}, chat, upload, client))

	msgs := chat.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, i18n.Default().AnswerFallback, msgs[1].Text)
}

func TestRunCommand_AskWithoutQuestion(t *testing.T) {
	chat, upload, client := newCommandDeps(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	assert.Error(t, runCommand(context.Background(), []string{"ask"}, chat, upload, client))
}

func TestRunCommand_Upload(t *testing.T) {
	chat, upload, client := newCommandDeps(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"filename":"manual.pdf","message":"Arquivo recebido"}`))
	})
	path := filepath.Join(t.TempDir(), "manual.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o644))

	require.NoError(t, runCommand(context.Background(), []string{"upload", path}, chat, upload, client))
	assert.Equal(t, domain.UploadSuccess, upload.State().Status)
	assert.Equal(t, "Arquivo recebido", upload.State().StatusMessage)
}

func TestRunCommand_UploadFailure(t *testing.T) {
	chat, upload, client := newCommandDeps(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"Only PDF files are accepted"}`))
	})
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hi"), 0o644))

	assert.Error(t, runCommand(context.Background(), []string{"upload", path}, chat, upload, client))
	assert.Equal(t, "Only PDF files are accepted", upload.State().StatusMessage)
}

func TestRunCommand_Health(t *testing.T) {
	chat, upload, client := newCommandDeps(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	assert.NoError(t, runCommand(context.Background(), []string{"health"}, chat, upload, client))
}

func TestRunCommand_Unknown(t *testing.T) {
	chat, upload, client := newCommandDeps(t, func(w http.ResponseWriter, r *http.Request) {})
	assert.Error(t, runCommand(context.Background(), []string{"frobnicate"}, chat, upload, client))
}
