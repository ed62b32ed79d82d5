// Package i18n holds the user-visible texts of the client per locale.
package i18n

import (
	"fmt"

	"golang.org/x/text/language"
)

// Texts is the catalog of strings shown by the controllers and the TUI.
type Texts struct {
	FileSelected   string // format, %s is the file name
	SelectFirst    string
	Uploading      string
	UnknownError   string
	AnswerFallback string

	Title           string
	SelectButton    string
	UploadButton    string
	UploadingButton string
	Typing          string
	Placeholder     string
	EmptyTranscript string
	BackendDown     string
	BackendUp       string
	NoSource        string
	Help            string
}

var english = Texts{
	FileSelected:   "File selected: %s",
	SelectFirst:    "Please select a file first.",
	Uploading:      "Uploading file...",
	UnknownError:   "An unknown error occurred.",
	AnswerFallback: "Sorry, an error occurred while fetching the answer.",

	Title:           "MyAgent",
	SelectButton:    "Select PDF file",
	UploadButton:    "Upload and index",
	UploadingButton: "Uploading...",
	Typing:          "Typing...",
	Placeholder:     "Type your question here...",
	EmptyTranscript: "No messages yet.",
	BackendDown:     "Backend unreachable",
	BackendUp:       "Backend online",
	NoSource:        "no source found in the documents",
	Help:            "ctrl+o select PDF • ctrl+u upload • enter send • ctrl+c quit",
}

var portuguese = Texts{
	FileSelected:   "Arquivo selecionado: %s",
	SelectFirst:    "Por favor, selecione um arquivo primeiro.",
	Uploading:      "Enviando arquivo...",
	UnknownError:   "Ocorreu um erro desconhecido.",
	AnswerFallback: "Desculpe, ocorreu um erro ao buscar a resposta.",

	Title:           "MyAgent",
	SelectButton:    "Selecionar Arquivo PDF",
	UploadButton:    "Fazer Upload e Indexar",
	UploadingButton: "Enviando...",
	Typing:          "Digitando...",
	Placeholder:     "Digite sua pergunta aqui...",
	EmptyTranscript: "Nenhuma mensagem ainda.",
	BackendDown:     "Backend indisponível",
	BackendUp:       "Backend disponível",
	NoSource:        "nenhuma fonte encontrada nos documentos",
	Help:            "ctrl+o selecionar PDF • ctrl+u enviar arquivo • enter enviar • ctrl+c sair",
}

var (
	supported = []language.Tag{language.English, language.Portuguese}
	catalogs  = []Texts{english, portuguese}
	matcher   = language.NewMatcher(supported)
)

// Default returns the English catalog.
func Default() Texts { return english }

// For returns the catalog best matching locale, such as "pt-BR" or "en_US.UTF-8".
// Unknown or empty locales get English.
func For(locale string) Texts {
	if locale == "" {
		return english
	}
	tag, err := language.Parse(normalize(locale))
	if err != nil {
		return english
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return english
	}
	return catalogs[idx]
}

// FileSelectedMessage renders the selection confirmation for name.
func (t Texts) FileSelectedMessage(name string) string {
	return fmt.Sprintf(t.FileSelected, name)
}

// normalize turns POSIX locale names (pt_BR.UTF-8) into BCP 47 (pt-BR).
func normalize(locale string) string {
	b := []byte(locale)
	for i, c := range b {
		switch c {
		case '.', '@':
			return string(b[:i])
		case '_':
			b[i] = '-'
		}
	}
	return string(b)
}
