package vota

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// DefaultLocale is used when no locale is configured or the configured one
// has no translations.
const DefaultLocale = "de"

const (
	msgUnknownError    = "unknown error during %s"
	msgUnexpectedError = "unexpected error during %s"
	msgSignInFailed    = "sign in failed"
)

var messageCatalog = newMessageCatalog()

func newMessageCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.German))

	set := func(tag language.Tag, key, msg string) {
		if err := b.SetString(tag, key, msg); err != nil {
			panic(err)
		}
	}

	set(language.German, msgUnknownError, "Unbekannter Fehler bei %s")
	set(language.German, msgUnexpectedError, "Unerwarteter Fehler bei %s")
	set(language.German, msgSignInFailed, "Anmeldung fehlgeschlagen. Bitte Benutzername und Passwort überprüfen.")

	set(language.English, msgUnknownError, "Unknown error during %s")
	set(language.English, msgUnexpectedError, "Unexpected error during %s")
	set(language.English, msgSignInFailed, "Sign in failed. Please check username and password.")

	return b
}

// Messages renders user facing texts in a single locale.
type Messages struct {
	tag     language.Tag
	printer *message.Printer
}

// NewMessages resolves locale against the available translations,
// falling back to German.
func NewMessages(locale string) *Messages {
	tag := language.German
	if parsed, err := language.Parse(locale); err == nil {
		supported := messageCatalog.Languages()
		_, index, confidence := language.NewMatcher(supported).Match(parsed)
		if confidence != language.No && index < len(supported) {
			tag = supported[index]
		}
	}

	return &Messages{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(messageCatalog)),
	}
}

// Locale returns the resolved language tag
func (m *Messages) Locale() language.Tag {
	return m.tag
}

// UnknownError is used when a failure response has no message
func (m *Messages) UnknownError(operation string) string {
	return m.printer.Sprintf(msgUnknownError, operation)
}

// UnexpectedError is used when a failure response cannot be parsed
func (m *Messages) UnexpectedError(operation string) string {
	return m.printer.Sprintf(msgUnexpectedError, operation)
}

func (m *Messages) SignInFailed() string {
	return m.printer.Sprintf(msgSignInFailed)
}

func normalizeMessages(m *Messages) *Messages {
	if m == nil {
		return NewMessages(DefaultLocale)
	}
	return m
}
