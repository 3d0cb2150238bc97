package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/leonardo-io/leonardo/internal/email"
	"github.com/leonardo-io/leonardo/internal/models"
	"github.com/leonardo-io/leonardo/internal/util"
)

// ErrNoAddress is returned by a Sender that has nowhere to deliver for a target.
var ErrNoAddress = errors.New("no address for this sender")

type Sender interface {
	Name() string
	Send(ctx context.Context, target models.NotificationTarget, msg Message) error
}

// EmailSender delivers through SMTP.
type EmailSender struct {
	Server email.SmtpServer
	From   string
}

func (s *EmailSender) Name() string {
	return "email"
}

func (s *EmailSender) Send(_ context.Context, target models.NotificationTarget, msg Message) error {
	if target.Email == "" || !s.Server.Configured() {
		return ErrNoAddress
	}
	return email.Send(s.Server, email.Message{
		From:         s.From,
		To:           []string{target.Email},
		Subject:      msg.Subject,
		PlainMessage: msg.Body,
		Headers: map[string]string{
			"X-Leonardo-Device": msg.DeviceID,
			"X-Leonardo-Kind":   string(msg.Kind),
		},
	})
}

const DefaultLineNotifyURL = "https://notify-api.line.me/api/notify"

// LineSender delivers through LINE Notify using the owner's token.
type LineSender struct {
	URL    string
	Client *http.Client
}

func NewLineSender(notifyURL string) *LineSender {
	if notifyURL == "" {
		notifyURL = DefaultLineNotifyURL
	}
	return &LineSender{
		URL:    notifyURL,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *LineSender) Name() string {
	return "line"
}

func (s *LineSender) Send(ctx context.Context, target models.NotificationTarget, msg Message) error {
	if target.LineToken == "" {
		return ErrNoAddress
	}
	// LINE Notify caps messages at 1000 characters
	body := []rune(msg.Body)
	if len(body) > 1000 {
		body = body[:1000]
	}
	form := url.Values{"message": []string{string(body)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+target.LineToken)

	res, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer util.IgnoreError(res.Body.Close)
	if res.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("line notify returned %d: %s", res.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}
