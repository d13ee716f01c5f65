package mailer

import (
	"bytes"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

// Template renders the subject and both bodies of a message from one value.
// The HTML body is escaped by html/template.
type Template struct {
	name    string
	subject *texttemplate.Template
	html    *htmltemplate.Template
	text    *texttemplate.Template
}

func NewTemplate(name, subject, html, text string) (*Template, error) {
	s, err := texttemplate.New(name + "_subject").Parse(subject)
	if err != nil {
		return nil, err
	}
	h, err := htmltemplate.New(name + "_html").Parse(html)
	if err != nil {
		return nil, err
	}
	t, err := texttemplate.New(name + "_text").Parse(text)
	if err != nil {
		return nil, err
	}
	return &Template{name: name, subject: s, html: h, text: t}, nil
}

// MustTemplate is NewTemplate for package-level templates.
func MustTemplate(name, subject, html, text string) *Template {
	t, err := NewTemplate(name, subject, html, text)
	if err != nil {
		panic(err)
	}
	return t
}

// Render builds a message addressed to the given recipients.
func (t *Template) Render(data interface{}, to ...string) (*Message, error) {
	var subject, html, text bytes.Buffer
	if err := t.subject.Execute(&subject, data); err != nil {
		return nil, errRenderTemplate(t.name, err)
	}
	if err := t.html.Execute(&html, data); err != nil {
		return nil, errRenderTemplate(t.name, err)
	}
	if err := t.text.Execute(&text, data); err != nil {
		return nil, errRenderTemplate(t.name, err)
	}
	return &Message{
		To: to,
		// Header injection guard.
		Subject: strings.Join(strings.Fields(subject.String()), " "),
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}
