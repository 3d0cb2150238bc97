package email

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"sort"
	"strings"
	"sync"
	"time"
)

// Message is a UTF-8 alert email. The plain text body is always sent, the
// HTML alternative only when set.
type Message struct {
	From         string
	To           []string
	Subject      string
	PlainMessage string
	HtmlMessage  string
	// Date defaults to the time of writing.
	Date time.Time
	// Headers are extra single valued headers such as X-Leonardo-Device.
	Headers map[string]string
	// Rand makes the multipart boundary deterministic in tests.
	Rand *rand.Rand
}

var (
	boundaryMu   sync.Mutex
	boundaryRand = rand.New(rand.NewSource(time.Now().UTC().UnixNano())) // #nosec G404
)

func (e *Message) Write(w io.Writer) error {
	date := e.Date
	if date.IsZero() {
		date = time.Now()
	}
	headers := []string{
		"From: " + e.From,
		"To: " + strings.Join(e.To, ", "),
		"Subject: " + mime.QEncoding.Encode("UTF-8", e.Subject),
		"Date: " + date.Format(time.RFC1123Z),
		"MIME-Version: 1.0",
	}
	names := make([]string, 0, len(e.Headers))
	for name, value := range e.Headers {
		if value != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		headers = append(headers, textproto.CanonicalMIMEHeaderKey(name)+": "+mime.QEncoding.Encode("UTF-8", e.Headers[name]))
	}

	boundary := newBoundary(e.Rand)
	headers = append(headers, fmt.Sprintf("Content-Type: multipart/alternative; boundary=%s", boundary))
	if _, err := io.WriteString(w, strings.Join(headers, "\r\n")+"\r\n\r\n"); err != nil {
		return err
	}

	parts := multipart.NewWriter(w)
	if err := parts.SetBoundary(boundary); err != nil {
		return err
	}
	if err := writeQuotedPrintable(parts, "text/plain; charset=UTF-8", e.PlainMessage); err != nil {
		return err
	}
	if e.HtmlMessage != "" {
		if err := writeQuotedPrintable(parts, "text/html; charset=UTF-8", e.HtmlMessage); err != nil {
			return err
		}
	}
	return parts.Close()
}

// Validate checks the envelope addresses before a connection is opened.
func (e *Message) Validate() error {
	if _, err := mail.ParseAddress(e.From); err != nil {
		return fmt.Errorf("invalid from address %q: %w", e.From, err)
	}
	if len(e.To) == 0 {
		return fmt.Errorf("no recipients")
	}
	for _, to := range e.To {
		if _, err := mail.ParseAddress(to); err != nil {
			return fmt.Errorf("invalid recipient %q: %w", to, err)
		}
	}
	return nil
}

func newBoundary(random *rand.Rand) string {
	var buf [30]byte
	if random == nil {
		boundaryMu.Lock()
		defer boundaryMu.Unlock()
		random = boundaryRand
	}
	_, _ = random.Read(buf[:])
	return fmt.Sprintf("%x", buf[:])
}

func writeQuotedPrintable(parts *multipart.Writer, contentType string, content string) error {
	part, err := parts.CreatePart(textproto.MIMEHeader{
		"Content-Transfer-Encoding": {"quoted-printable"},
		"Content-Type":              {contentType},
	})
	if err != nil {
		return err
	}
	buf := bytes.NewBuffer(nil)
	qp := quotedprintable.NewWriter(buf)
	if _, err := qp.Write([]byte(content)); err != nil {
		return err
	}
	if err := qp.Close(); err != nil {
		return err
	}
	_, err = io.Copy(part, buf)
	return err
}
