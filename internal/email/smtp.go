// Package email sends plain SMTP mail.
package email

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

type SmtpServer struct {
	HostPort string
	// Tls dials with implicit TLS, or upgrades with STARTTLS when StartTLS is set.
	Tls      *tls.Config
	StartTLS bool
	User     string
	Password string
	Hello    string
}

// Configured reports whether a server address was provided.
func (s SmtpServer) Configured() bool {
	return s.HostPort != ""
}

func dial(options SmtpServer) (*smtp.Client, error) {
	var client *smtp.Client
	var err error
	switch {
	case options.StartTLS:
		config := options.Tls
		if config == nil {
			host, _, _ := net.SplitHostPort(options.HostPort)
			config = &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
		}
		client, err = smtp.DialStartTLS(options.HostPort, config)
	case options.Tls != nil:
		client, err = smtp.DialTLS(options.HostPort, options.Tls)
	default:
		client, err = smtp.Dial(options.HostPort)
	}
	if err != nil {
		return nil, fmt.Errorf("could not connect to smtp server: %w", err)
	}

	// the greeting is reset by STARTTLS so the name can still be chosen here
	if options.Hello != "" {
		if err = client.Hello(options.Hello); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("could not greet upstream: %w", err)
		}
	}

	if options.User != "" || options.Password != "" {
		if err := client.Auth(sasl.NewLoginClient(options.User, options.Password)); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("AUTH failed: %w", err)
		}
	}
	return client, nil
}

func Send(options SmtpServer, email Message) error {
	if err := email.Validate(); err != nil {
		return err
	}
	client, err := dial(options)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Mail(email.From, nil); err != nil {
		return fmt.Errorf("smtp server rejected mail from '%s': %w", email.From, err)
	}
	for _, address := range email.To {
		if err := client.Rcpt(address, nil); err != nil {
			return fmt.Errorf("smtp server rejected mail to '%s': %w", address, err)
		}
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp server rejected request to send mail data: %w", err)
	}
	if err := email.Write(writer); err != nil {
		_ = writer.Close()
		return err
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("smtp server rejected mail data: %w", err)
	}

	if err := client.Quit(); err != nil {
		smtpError := &smtp.SMTPError{}
		// some servers answer QUIT with 250 instead of 221
		if errors.As(err, &smtpError) && smtpError.Code == 250 {
			return nil
		}
		return err
	}
	return nil
}
