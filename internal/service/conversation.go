package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ragchat/internal/domain"
	"ragchat/internal/i18n"
	"ragchat/internal/metrics"
	"ragchat/pkg/logger"
)

// ConversationController sequences question/answer exchanges one at a time
// and keeps the transcript. It is safe for concurrent use.
type ConversationController struct {
	backend domain.Backend
	texts   i18n.Texts
	log     *logger.Logger
	metrics *metrics.Metrics

	mu       sync.Mutex
	messages []domain.Message
	draft    string
	seq      uint64
	inflight uint64 // token of the exchange awaiting a reply, 0 when none
	querying bool
}

// NewConversationController creates an empty conversation. log and m may be nil.
func NewConversationController(backend domain.Backend, texts i18n.Texts, log *logger.Logger, m *metrics.Metrics) *ConversationController {
	if log == nil {
		log = logger.NewNop()
	}
	return &ConversationController{backend: backend, texts: texts, log: log.Named("conversation"), metrics: m}
}

// UpdateDraft replaces the pending input. Allowed while a reply is awaited.
func (c *ConversationController) UpdateDraft(text string) {
	c.mu.Lock()
	c.draft = text
	c.mu.Unlock()
}

// Draft returns the pending input.
func (c *ConversationController) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// AwaitingReply reports whether an exchange is in flight.
func (c *ConversationController) AwaitingReply() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight != 0
}

// Messages returns a copy of the transcript, oldest first.
func (c *ConversationController) Messages() []domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Outcome reports how a submission ended.
type Outcome int

const (
	// Ignored means nothing was sent: blank draft or an exchange in flight.
	Ignored Outcome = iota
	// Answered means the backend reply was appended.
	Answered
	// Fallback means the request failed and the fallback text was appended.
	Fallback
)

// Exchange is a question handed out by Begin. Only the exchange currently in
// flight can be completed, and only once.
type Exchange struct {
	c        *ConversationController
	token    uint64
	question string
}

// Question returns the trimmed text that was appended as the user message.
func (e *Exchange) Question() string {
	return e.question
}

// Submit runs a full exchange for the current draft and blocks until the
// reply or the fallback message is appended. It returns Ignored without any
// effect when the draft is blank or another exchange is in flight.
func (c *ConversationController) Submit(ctx context.Context) Outcome {
	ex, ok := c.Begin()
	if !ok {
		return Ignored
	}
	return ex.Complete(ctx)
}

// Begin appends the user message for the trimmed draft, clears the draft and
// marks the conversation as awaiting a reply. The returned exchange finishes
// the submission.
func (c *ConversationController) Begin() (*Exchange, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	question := strings.TrimSpace(c.draft)
	if question == "" || c.inflight != 0 {
		return nil, false
	}
	c.messages = append(c.messages, c.newMessage(question, domain.SenderUser, nil))
	c.draft = ""
	c.seq++
	c.inflight = c.seq
	c.querying = false
	return &Exchange{c: c, token: c.seq, question: question}, true
}

// Complete queries the backend and appends the answer, or the fallback text on
// any error. The awaiting flag is cleared on every path. A stale exchange, or
// one already being completed, returns Ignored without touching the backend.
func (e *Exchange) Complete(ctx context.Context) Outcome {
	if e == nil || e.c == nil {
		return Ignored
	}
	c := e.c
	c.mu.Lock()
	if e.token == 0 || e.token != c.inflight || c.querying {
		c.mu.Unlock()
		return Ignored
	}
	c.querying = true
	c.mu.Unlock()

	var reply *domain.Message
	defer func() {
		c.mu.Lock()
		if reply != nil {
			c.messages = append(c.messages, *reply)
		}
		c.inflight = 0
		c.querying = false
		c.mu.Unlock()
	}()

	start := time.Now()
	ans, err := c.backend.Query(ctx, e.question)
	if err != nil {
		c.log.Error("fetching answer failed", zap.String("question", e.question), zap.Error(err))
		c.metrics.ObserveExchange("fallback")
		m := c.newMessage(c.texts.AnswerFallback, domain.SenderAI, nil)
		reply = &m
		return Fallback
	}
	c.log.Info("answer received", zap.Duration("elapsed", time.Since(start)), zap.Int("answer_len", len(ans.Text)))
	c.metrics.ObserveExchange("answered")
	m := c.newMessage(ans.Text, domain.SenderAI, ans.SourceFound)
	reply = &m
	return Answered
}

func (c *ConversationController) newMessage(text string, sender domain.Sender, sourceFound *bool) domain.Message {
	return domain.Message{
		ID:          uuid.Must(uuid.NewV7()).String(),
		Text:        text,
		Sender:      sender,
		SourceFound: sourceFound,
		CreatedAt:   time.Now(),
	}
}
