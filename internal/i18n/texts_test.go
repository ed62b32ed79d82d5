package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFor(t *testing.T) {
	tests := []struct {
		name   string
		locale string
		want   string
	}{
		{name: "empty", locale: "", want: english.AnswerFallback},
		{name: "english", locale: "en", want: english.AnswerFallback},
		{name: "brazilian", locale: "pt-BR", want: portuguese.AnswerFallback},
		{name: "posix locale", locale: "pt_BR.UTF-8", want: portuguese.AnswerFallback},
		{name: "unsupported", locale: "ja", want: english.AnswerFallback},
		{name: "garbage", locale: "%%%", want: english.AnswerFallback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, For(tt.locale).AnswerFallback)
		})
	}
}

func TestFileSelectedMessage(t *testing.T) {
	assert.Equal(t, "File selected: manual.pdf", Default().FileSelectedMessage("manual.pdf"))
	assert.Equal(t, "Arquivo selecionado: manual.pdf", For("pt").FileSelectedMessage("manual.pdf"))
}
