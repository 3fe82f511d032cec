package service

import (
	"fmt"

	"golang.org/x/text/language"
)

// requiredFieldsMessages is the rejection message per supported language.
// The first entry is the fallback when nothing matches.
var requiredFieldsMessages = []struct {
	tag     language.Tag
	message string
}{
	{language.English, "all fields are required"},
	{language.Russian, "Все поля должны быть заполнены"},
}

// Messages selects the rejection message for a submission.
//
// With negotiation disabled the message is fixed for the whole deployment.
// With negotiation enabled the client's Accept-Language header picks among
// the supported languages, falling back to the configured default.
type Messages struct {
	defaultIndex int
	negotiate    bool
	matcher      language.Matcher
}

// NewMessages builds a Messages for the configured default locale.
func NewMessages(locale string, negotiate bool) (*Messages, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
	}

	tags := make([]language.Tag, len(requiredFieldsMessages))
	for i, m := range requiredFieldsMessages {
		tags[i] = m.tag
	}

	matcher := language.NewMatcher(tags)

	_, index, confidence := matcher.Match(tag)
	if confidence == language.No {
		return nil, fmt.Errorf("unsupported locale %q", locale)
	}

	return &Messages{
		defaultIndex: index,
		negotiate:    negotiate,
		matcher:      matcher,
	}, nil
}

// RequiredFields returns the message shown when any field is blank.
//
// acceptLanguage is an Accept-Language header value; it is ignored unless
// negotiation is enabled.
func (m *Messages) RequiredFields(acceptLanguage string) string {
	return requiredFieldsMessages[m.index(acceptLanguage)].message
}

// Language returns the tag of the language RequiredFields answers in.
func (m *Messages) Language(acceptLanguage string) string {
	return requiredFieldsMessages[m.index(acceptLanguage)].tag.String()
}

func (m *Messages) index(acceptLanguage string) int {
	if !m.negotiate || acceptLanguage == "" {
		return m.defaultIndex
	}

	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return m.defaultIndex
	}

	_, index, confidence := m.matcher.Match(tags...)
	if confidence == language.No {
		return m.defaultIndex
	}

	return index
}
