// Package email implements the email_smtp connector. It is an outbound
// connector: requests reach it only after the approval-token gate and
// never during the planning phase.
package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"sentry-hq/conduit/pkg/comm"
	"sentry-hq/conduit/pkg/connectors"
	"sentry-hq/conduit/pkg/sanitize"
)

// OpSend is the only operation the connector supports.
const OpSend = "send"

// Config configures the SMTP connector.
type Config struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
}

// SendResult reports a delivered message.
type SendResult struct {
	To        []string `json:"to"`
	Subject   string   `json:"subject"`
	MessageID string   `json:"message_id"`
}

// sendFunc matches smtp.SendMail; tests substitute a recorder.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Connector is the email_smtp connector.
type Connector struct {
	connectors.Base
	cfg  Config
	send sendFunc
}

// New creates the SMTP connector.
func New(cfg Config) *Connector {
	return &Connector{
		Base: connectors.NewBase(comm.KindEmailSMTP, OpSend),
		cfg:  cfg,
		send: smtp.SendMail,
	}
}

// Execute implements connectors.Connector.
func (c *Connector) Execute(ctx context.Context, operation string, params map[string]any) (any, error) {
	if operation != OpSend {
		return nil, connectors.NewUnsupportedOperationError(c.Kind(), operation)
	}
	if missing := comm.RequireParams(params, "to", "subject", "body"); missing != "" {
		return nil, connectors.NewMissingParamError(c.Kind(), missing)
	}

	to, err := recipients(params["to"])
	if err != nil {
		return nil, connectors.NewExecutionError(c.Kind(), OpSend, err)
	}
	subject := comm.StringParam(params, "subject")
	body := comm.StringParam(params, "body")

	msg := buildMessage(c.cfg.From, to, subject, body)

	addr := fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port)
	var auth smtp.Auth
	if c.cfg.Username != "" {
		auth = smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, c.cfg.Host)
	}

	// smtp.SendMail blocks; honor cancellation around it.
	done := make(chan error, 1)
	go func() { done <- c.send(addr, auth, c.cfg.From, to, msg) }()
	select {
	case <-ctx.Done():
		return nil, connectors.NewExecutionError(c.Kind(), OpSend, ctx.Err())
	case err := <-done:
		if err != nil {
			return nil, connectors.NewExecutionError(c.Kind(), OpSend, err)
		}
	}

	return &SendResult{
		To:        to,
		Subject:   subject,
		MessageID: comm.NewRequestID(),
	}, nil
}

// recipients accepts a single address or a list, validating each one.
func recipients(v any) ([]string, error) {
	var raw []string
	switch t := v.(type) {
	case string:
		raw = strings.Split(t, ",")
	case []string:
		raw = t
	case []any:
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("recipient list contains a non-string entry")
			}
			raw = append(raw, s)
		}
	default:
		return nil, fmt.Errorf("recipients must be a string or list of strings")
	}

	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if !sanitize.ValidateEmail(r) {
			return nil, fmt.Errorf("invalid recipient address %q", r)
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no valid recipients")
	}
	return out, nil
}

// buildMessage assembles an RFC 5322 message. Header values are stripped
// of CR/LF so a crafted subject cannot inject additional headers.
func buildMessage(from string, to []string, subject, body string) []byte {
	clean := func(s string) string {
		s = strings.ReplaceAll(s, "\r", "")
		return strings.ReplaceAll(s, "\n", " ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", clean(from))
	fmt.Fprintf(&b, "To: %s\r\n", clean(strings.Join(to, ", ")))
	fmt.Fprintf(&b, "Subject: %s\r\n", clean(subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
