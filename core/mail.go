package core

import (
	"bytes"
	"fmt"
	"net/mail"
	"path/filepath"
	"sync"
	texttmpl "text/template"
)

var (
	templates *texttmpl.Template
	tmplInit  sync.Once
)

type (
	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
	}

	ContextData struct {
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

func loadTemplates() {
	tmplInit.Do(func() {
		pattern := filepath.Join(Getwd(), "assets", "templates", "*.txt")
		templates = texttmpl.Must(texttmpl.ParseGlob(pattern))
	})
}

func (m *EmailMessage) HasRecipients() bool {
	return len(m.To) > 0 || len(m.Cc) > 0 || len(m.Bcc) > 0
}

func (m *EmailMessage) HasContent() bool {
	return m.TextContent != ""
}

// Render resolves the message body: templated content wins over BodyStr.
func (m *EmailMessage) Render() error {
	if m.TemplateName == "" {
		m.TextContent = m.BodyStr
		return nil
	}
	loadTemplates()

	var buf bytes.Buffer
	data := ContextData{FrontendBaseURL: Conf.FrontendBaseURL, Data: m.TemplateData}
	if err := templates.ExecuteTemplate(&buf, m.TemplateName+".txt", data); err != nil {
		return fmt.Errorf("rendering template %q: %v", m.TemplateName, err)
	}
	m.TextContent = buf.String()
	return nil
}
