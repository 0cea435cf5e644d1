package notify

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"

	"go.uber.org/zap"

	"github.com/summitdesk/backend/config"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templateByKind = map[Kind]string{
	KindRegistrationReceived: "registration_received.html",
	KindAttendanceCode:       "attendance_code.html",
}

// Mailer delivers messages over SMTP using the embedded HTML templates.
type Mailer struct {
	cfg    config.EmailConfig
	tmpl   *template.Template
	logger *zap.Logger
}

// NewMailer parses the embedded templates and returns an SMTP notifier.
func NewMailer(cfg config.EmailConfig, logger *zap.Logger) (*Mailer, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailer{cfg: cfg, tmpl: tmpl, logger: logger}, nil
}

type templateData struct {
	FullName string
	LGA      string
	Code     string
	FromName string
}

// Send renders the template for the message kind and hands it to SMTP.
func (m *Mailer) Send(_ context.Context, msg Message) error {
	if m.cfg.SMTPHost == "" {
		return errors.New("smtp host not configured")
	}
	name, ok := templateByKind[msg.Kind]
	if !ok {
		return fmt.Errorf("unknown message kind: %s", msg.Kind)
	}

	var body bytes.Buffer
	data := templateData{
		FullName: msg.FullName,
		LGA:      msg.LGA,
		Code:     msg.Code,
		FromName: m.cfg.FromName,
	}
	if err := m.tmpl.ExecuteTemplate(&body, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}

	var raw bytes.Buffer
	fmt.Fprintf(&raw, "From: %s <%s>\r\n", m.cfg.FromName, m.cfg.FromAddress)
	fmt.Fprintf(&raw, "To: %s\r\n", msg.Recipient)
	fmt.Fprintf(&raw, "Subject: %s\r\n", SubjectFor(msg.Kind))
	raw.WriteString("MIME-Version: 1.0\r\n")
	raw.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	raw.WriteString("\r\n")
	raw.Write(body.Bytes())

	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)
	var auth smtp.Auth
	if m.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", m.cfg.SMTPUser, m.cfg.SMTPPass, m.cfg.SMTPHost)
	}
	if err := smtp.SendMail(addr, auth, m.cfg.FromAddress, []string{msg.Recipient}, raw.Bytes()); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	m.logger.Debug("email sent", zap.String("recipient", msg.Recipient), zap.String("kind", string(msg.Kind)))
	return nil
}
