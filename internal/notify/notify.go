// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package notify delivers research reports by email.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"

	"github.com/pdiddy/desk-researcher/pkg/types"
)

const (
	DefaultFrom       = "Research Automator <no-reply@research-automator.com>"
	DefaultMaxSources = 6
	DefaultTimeout    = 10 * time.Second

	subjectQueryLimit = 60
)

// Message is one outgoing email.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
}

// Sender hands a message to an email provider and returns the provider's ID.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Delivery records an accepted email.
type Delivery struct {
	ID        string    `json:"id" yaml:"id"`
	Recipient string    `json:"recipient" yaml:"recipient"`
	Subject   string    `json:"subject" yaml:"subject"`
	SentAt    time.Time `json:"sent_at" yaml:"sent_at"`
}

// ValidateAddress reports whether addr is a single bare RFC 5322 address.
func ValidateAddress(addr string) error {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return fmt.Errorf("email address is empty")
	}
	parsed, err := mail.ParseAddress(addr)
	if err != nil {
		return fmt.Errorf("invalid email address %q: %w", addr, err)
	}
	if parsed.Address != addr {
		return fmt.Errorf("invalid email address %q: display names are not accepted", addr)
	}
	if domain := addr[strings.LastIndex(addr, "@")+1:]; !strings.Contains(domain, ".") {
		return fmt.Errorf("invalid email address %q: domain has no dot", addr)
	}
	return nil
}

// Notifier renders reports and sends them through a Sender.
type Notifier struct {
	Sender     Sender
	From       string
	MaxSources int
	Timeout    time.Duration
}

// New returns a Notifier configured from cfg.
func New(s Sender, cfg types.EmailConfig) *Notifier {
	return &Notifier{Sender: s, From: cfg.From, MaxSources: cfg.MaxSources, Timeout: cfg.Timeout}
}

// Notify emails report to recipient. There is no deduplication; calling it
// twice sends twice. Failures carry ErrDelivery.
func (n *Notifier) Notify(ctx context.Context, report *types.Report, recipient string) (Delivery, error) {
	if report == nil {
		return Delivery{}, fmt.Errorf("%w: no report to send", types.ErrDelivery)
	}
	recipient = strings.TrimSpace(recipient)
	if err := ValidateAddress(recipient); err != nil {
		return Delivery{}, fmt.Errorf("%w: %v", types.ErrDelivery, err)
	}

	maxSources := n.MaxSources
	if maxSources <= 0 {
		maxSources = DefaultMaxSources
	}
	body, err := RenderHTML(report, maxSources)
	if err != nil {
		return Delivery{}, fmt.Errorf("%w: %v", types.ErrDelivery, err)
	}

	from := n.From
	if from == "" {
		from = DefaultFrom
	}
	timeout := n.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	sendCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	msg := Message{From: from, To: []string{recipient}, Subject: Subject(report.Query), HTML: body}
	id, err := n.Sender.Send(sendCtx, msg)
	if err != nil {
		return Delivery{}, fmt.Errorf("%w: sending to %s: %v", types.ErrDelivery, recipient, err)
	}
	return Delivery{ID: id, Recipient: recipient, Subject: msg.Subject, SentAt: time.Now().UTC()}, nil
}

var _ Sender = (*ResendSender)(nil)

// ResendSender sends email through the Resend API.
type ResendSender struct {
	client *resend.Client
}

// NewResendSender builds a sender for apiKey. A non-empty baseURL replaces the
// public Resend endpoint.
func NewResendSender(apiKey, baseURL string, httpClient *http.Client) (*ResendSender, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend API key is not set")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	client := resend.NewCustomClient(httpClient, apiKey)
	if baseURL != "" {
		u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parsing resend base url: %w", err)
		}
		client.BaseURL = u
	}
	return &ResendSender{client: client}, nil
}

// Send posts msg to /emails and returns the Resend email ID.
func (s *ResendSender) Send(ctx context.Context, msg Message) (string, error) {
	resp, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return "", fmt.Errorf("resend: %w", err)
	}
	return resp.Id, nil
}
