package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/leonardo-io/leonardo/internal/devicekey"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func TestShowFactoryToken(t *testing.T) {
	require := require.New(t)
	token := devicekey.FactoryToken("UNIT-0001", "s3cret")
	v := factoryToken{
		DeviceID:     "UNIT-0001",
		FactoryToken: token,
		Digest:       devicekey.Digest(token),
		SetupURL:     devicekey.SetupURL("https://leonardo.example.com/setup", "UNIT-0001", devicekey.Digest(token)),
	}
	require.Equal(devicekey.ExpectedDigest("UNIT-0001", "s3cret"), v.Digest)

	var out bytes.Buffer
	cmd := &cli.Command{
		Flags: []cli.Flag{&cli.StringFlag{Name: "output", Value: encodeJsonPretty}},
		Action: func(_ context.Context, command *cli.Command) error {
			return show(command, &out, v)
		},
	}
	require.NoError(cmd.Run(context.Background(), []string{"leoctl"}))

	var decoded map[string]string
	require.NoError(json.Unmarshal(out.Bytes(), &decoded))
	require.Equal(v.Digest, decoded["fth"])
	require.Contains(decoded["setup_url"], "device_id=UNIT-0001")
	require.Contains(decoded["setup_url"], "fth="+v.Digest)
}
