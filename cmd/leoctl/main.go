package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/leonardo-io/leonardo/internal/devicekey"
	"github.com/urfave/cli/v3"
)

const (
	encodeJsonPretty = "json"
	encodeColumn     = "column"
)

// DefaultServiceURL is optionally set at build time using ldflags
var DefaultServiceURL = "https://leonardo.example.com"

func main() {
	// Override usage to capitalize "Show"
	cli.HelpFlag.(*cli.BoolFlag).Usage = "Show help"
	app := &cli.Command{
		Name:  "leoctl",
		Usage: "provisioning helpers for leonardo devices",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "output",
				Value: encodeColumn,
				Usage: "Output format: json, column (default columns)",
			},
		},
		Commands: []*cli.Command{
			factoryTokenCommand(),
			ownerTokenCommand(),
		},
	}
	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

type factoryToken struct {
	DeviceID     string `json:"device_id"`
	FactoryToken string `json:"factory_token"`
	Digest       string `json:"fth"`
	SetupURL     string `json:"setup_url"`
}

func factoryTokenCommand() *cli.Command {
	return &cli.Command{
		Name:      "factory-token",
		Usage:     "Print the factory token and setup URL flashed onto a device",
		ArgsUsage: "<device-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "factory-secret",
				Usage:    "Secret shared with the apiserver",
				Required: true,
				Sources:  cli.EnvVars("LEOAPI_FACTORY_SECRET"),
			},
			&cli.StringFlag{
				Name:    "device-id-pattern",
				Value:   devicekey.DefaultDeviceIDPattern,
				Usage:   "Regular expression device ids must match",
				Sources: cli.EnvVars("LEOAPI_DEVICE_ID_PATTERN"),
			},
			&cli.StringFlag{
				Name:  "service-url",
				Value: DefaultServiceURL,
				Usage: "Base URL of the device setup page",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			deviceID := command.Args().First()
			ids, err := devicekey.NewIDValidator(command.String("device-id-pattern"))
			if err != nil {
				return err
			}
			if err := ids.Validate(deviceID); err != nil {
				return err
			}
			token := devicekey.FactoryToken(deviceID, command.String("factory-secret"))
			digest := devicekey.Digest(token)
			return show(command, os.Stdout, factoryToken{
				DeviceID:     deviceID,
				FactoryToken: token,
				Digest:       digest,
				SetupURL:     devicekey.SetupURL(command.String("service-url"), deviceID, digest),
			})
		},
	}
}

type ownerToken struct {
	Subject   string    `json:"sub"`
	ExpiresAt time.Time `json:"expires_at"`
	Token     string    `json:"token"`
}

func ownerTokenCommand() *cli.Command {
	return &cli.Command{
		Name:      "owner-token",
		Usage:     "Sign an owner access token for development and testing",
		ArgsUsage: "[user-id]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "jwt-secret",
				Required: true,
				Sources:  cli.EnvVars("LEOAPI_JWT_SECRET"),
			},
			&cli.StringFlag{
				Name:    "jwt-issuer",
				Sources: cli.EnvVars("LEOAPI_JWT_ISSUER"),
			},
			&cli.DurationFlag{
				Name:  "ttl",
				Value: 24 * time.Hour,
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			subject := command.Args().First()
			if subject == "" {
				subject = uuid.NewString()
			} else if _, err := uuid.Parse(subject); err != nil {
				return fmt.Errorf("user id must be a uuid: %w", err)
			}
			now := time.Now()
			expires := now.Add(command.Duration("ttl"))
			claims := jwt.RegisteredClaims{
				Subject:   subject,
				Issuer:    command.String("jwt-issuer"),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expires),
			}
			signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(command.String("jwt-secret")))
			if err != nil {
				return err
			}
			return show(command, os.Stdout, ownerToken{Subject: subject, ExpiresAt: expires, Token: signed})
		},
	}
}

func show(command *cli.Command, w io.Writer, v any) error {
	if command.String("output") == encodeJsonPretty {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	switch v := v.(type) {
	case factoryToken:
		_, err := fmt.Fprintf(w, "device:        %s\nfactory token: %s\nfth:           %s\nsetup url:     %s\n", v.DeviceID, v.FactoryToken, v.Digest, v.SetupURL)
		return err
	case ownerToken:
		_, err := fmt.Fprintf(w, "%s\n", v.Token)
		return err
	}
	return fmt.Errorf("unsupported output %T", v)
}
