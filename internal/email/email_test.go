package email

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	crand "crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"io"
	"math/big"
	"math/rand"
	"mime"
	"mime/multipart"
	"net"
	"net/mail"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/stretchr/testify/require"
)

func readParts(t *testing.T, raw []byte) (*mail.Message, map[string]string) {
	t.Helper()
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/alternative", mediaType)

	parts := map[string]string{}
	reader := multipart.NewReader(msg.Body, params["boundary"])
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		body, err := io.ReadAll(part)
		require.NoError(t, err)
		contentType, _, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
		require.NoError(t, err)
		// quoted-printable hard line breaks are CRLF on the wire
		parts[contentType] = strings.ReplaceAll(string(body), "\r\n", "\n")
	}
	return msg, parts
}

func TestMessageWrite(t *testing.T) {
	require := require.New(t)
	message := Message{
		From:         "alerts@leonardo.example",
		To:           []string{"owner@example.com", "second@example.com"},
		Subject:      "【Leonardo】熊を検出しました",
		PlainMessage: "デバイス UNIT-0001 が熊を検出しました。\n信頼度: 92%",
		HtmlMessage:  "<p>熊を検出しました</p>",
		Date:         time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
		Headers:      map[string]string{"x-leonardo-device": "UNIT-0001", "X-Empty": ""},
		// #nosec G404
		Rand: rand.New(rand.NewSource(0)),
	}
	buf := bytes.NewBuffer(nil)
	require.NoError(message.Write(buf))

	msg, parts := readParts(t, buf.Bytes())
	subject, err := new(mime.WordDecoder).DecodeHeader(msg.Header.Get("Subject"))
	require.NoError(err)
	require.Equal(message.Subject, subject)
	require.Equal("owner@example.com, second@example.com", msg.Header.Get("To"))
	require.Equal("UNIT-0001", msg.Header.Get("X-Leonardo-Device"))
	require.Empty(msg.Header.Get("X-Empty"))
	date, err := msg.Header.Date()
	require.NoError(err)
	require.True(message.Date.Equal(date))
	require.Equal(message.PlainMessage, parts["text/plain"])
	require.Equal(message.HtmlMessage, parts["text/html"])

	// the same seed produces the same bytes
	again := bytes.NewBuffer(nil)
	message.Rand = rand.New(rand.NewSource(0)) // #nosec G404
	require.NoError(message.Write(again))
	require.Equal(buf.String(), again.String())
}

type received struct {
	from  string
	to    []string
	data  []byte
	helo  string
	onTLS bool
}

type backend struct {
	mu       sync.Mutex
	messages []received
}

func (b *backend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &session{backend: b, conn: c}, nil
}

type session struct {
	backend *backend
	conn    *smtp.Conn
	current received
}

func (s *session) Reset() {
	s.current = received{}
}

func (s *session) Logout() error {
	return nil
}

func (s *session) Mail(from string, _ *smtp.MailOptions) error {
	s.current.from = from
	return nil
}

func (s *session) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.current.to = append(s.current.to, to)
	return nil
}

func (s *session) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.current.data = data
	s.current.helo = s.conn.Hostname()
	_, s.current.onTLS = s.conn.TLSConnectionState()
	s.backend.mu.Lock()
	s.backend.messages = append(s.backend.messages, s.current)
	s.backend.mu.Unlock()
	return nil
}

// startServer runs an in-process SMTP server. A non nil tlsConfig makes it
// advertise STARTTLS.
func startServer(t *testing.T, tlsConfig *tls.Config) (string, *backend) {
	t.Helper()
	be := &backend{}
	server := smtp.NewServer(be)
	server.Domain = "localhost"
	server.ReadTimeout = 5 * time.Second
	server.WriteTimeout = 5 * time.Second
	server.TLSConfig = tlsConfig
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		_ = server.Serve(l)
	}()
	t.Cleanup(func() {
		_ = server.Close()
	})
	return l.Addr().String(), be
}

// selfSignedTLS returns a server config for 127.0.0.1 and a client config
// trusting it.
func selfSignedTLS(t *testing.T) (*tls.Config, *tls.Config) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), crand.Reader)
	require.NoError(t, err)
	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "leonardo smtp test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
	}
	der, err := x509.CreateCertificate(crand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	pool := x509.NewCertPool()
	pool.AddCert(cert)
	server := &tls.Config{
		Certificates: []tls.Certificate{{Certificate: [][]byte{der}, PrivateKey: key, Leaf: cert}},
		MinVersion:   tls.VersionTLS12,
	}
	client := &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}
	return server, client
}

var testMessage = Message{
	From:         "alerts@leonardo.example",
	To:           []string{"owner@example.com"},
	Subject:      "位置不一致",
	PlainMessage: "hello",
}

func TestSend(t *testing.T) {
	require := require.New(t)
	addr, be := startServer(t, nil)

	options := SmtpServer{HostPort: addr, Hello: "leonardo.test"}
	require.True(options.Configured())
	require.False(SmtpServer{}.Configured())

	require.NoError(Send(options, testMessage))

	be.mu.Lock()
	defer be.mu.Unlock()
	require.Len(be.messages, 1)
	require.Equal("alerts@leonardo.example", be.messages[0].from)
	require.Equal([]string{"owner@example.com"}, be.messages[0].to)
	require.Equal("leonardo.test", be.messages[0].helo)
	require.False(be.messages[0].onTLS)
	_, parts := readParts(t, be.messages[0].data)
	require.Equal("hello", parts["text/plain"])
}

func TestSendStartTLS(t *testing.T) {
	require := require.New(t)
	serverTLS, clientTLS := selfSignedTLS(t)
	addr, be := startServer(t, serverTLS)

	require.NoError(Send(SmtpServer{HostPort: addr, StartTLS: true, Tls: clientTLS, Hello: "leonardo.test"}, testMessage))

	be.mu.Lock()
	require.Len(be.messages, 1)
	require.True(be.messages[0].onTLS)
	require.Equal("leonardo.test", be.messages[0].helo)
	be.mu.Unlock()

	// the certificate is not trusted without the test pool
	err := Send(SmtpServer{HostPort: addr, StartTLS: true}, testMessage)
	require.Error(err)

	// a server without STARTTLS is refused rather than used in the clear
	plainAddr, plain := startServer(t, nil)
	err = Send(SmtpServer{HostPort: plainAddr, StartTLS: true, Tls: clientTLS}, testMessage)
	require.Error(err)
	plain.mu.Lock()
	require.Empty(plain.messages)
	plain.mu.Unlock()
}

func TestMessageValidate(t *testing.T) {
	require.NoError(t, (&Message{From: "a@example.com", To: []string{"b@example.com"}}).Validate())
	require.Error(t, (&Message{From: "not an address", To: []string{"b@example.com"}}).Validate())
	require.Error(t, (&Message{From: "a@example.com"}).Validate())
	require.Error(t, Send(SmtpServer{HostPort: "127.0.0.1:1"}, Message{From: "a@example.com", To: []string{"@"}}))
}

func TestSendUnreachable(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	err = Send(SmtpServer{HostPort: addr}, Message{From: "a@example.com", To: []string{"b@example.com"}})
	require.Error(t, err)
}
