package mailer

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"
	"sync"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// Message is a single transactional email.
type Message struct {
	To      mail.Address
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers transactional email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SendgridMailer delivers mail through the SendGrid v3 API.
type SendgridMailer struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
	host       string
}

// NewSendgridMailer builds a SendGrid backed mailer.
func NewSendgridMailer(apiKey, fromName, fromAddress string) *SendgridMailer {
	return &SendgridMailer{
		key:        apiKey,
		from:       sgmail.NewEmail(fromName, fromAddress),
		subjPrefix: "[" + fromName + "] ",
		host:       sendgridHost,
	}
}

// Send posts the message to SendGrid.
func (m *SendgridMailer) Send(_ context.Context, msg Message) error {
	if msg.To.Address == "" {
		return fmt.Errorf("recipient required")
	}
	req := sendgrid.GetRequest(m.key, sendgridEndpoint, m.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m.prepare(msg))

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sending email: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

func (m *SendgridMailer) prepare(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = m.subjPrefix + msg.Subject
	p.AddTos(sgmail.NewEmail(msg.To.Name, msg.To.Address))

	v3 := sgmail.NewV3Mail()
	v3.SetFrom(m.from)
	v3.AddPersonalizations(p)
	v3.AddContent(sgmail.NewContent("text/plain", msg.Text))
	if msg.HTML != "" {
		v3.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}
	return v3
}

// LogMailer writes messages to the logger instead of sending them.
// It keeps the sent messages so tests can inspect them.
type LogMailer struct {
	logger *zap.Logger

	mu   sync.Mutex
	sent []Message
}

// NewLogMailer builds a mailer that only logs.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

// Send records and logs the message.
func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	m.logger.Info("email queued",
		zap.String("to", msg.To.String()),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Text),
	)
	return nil
}

// Sent returns a copy of the recorded messages.
func (m *LogMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}
