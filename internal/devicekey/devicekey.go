// Package devicekey holds the credential material exchanged between a device,
// its QR label and the apiserver.
//
// A device derives its factory token from its id and a shared factory secret.
// Only the digest of that token (the "fth") is printed on the label, and the
// first digest presented for a device id becomes the canonical claim digest.
package devicekey

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"regexp"
)

// DefaultDeviceIDPattern accepts ids such as LJ-A3F8B2C1-7294 or UNIT-0001.
const DefaultDeviceIDPattern = `^[A-Za-z0-9][A-Za-z0-9-]{2,29}$`

var ErrInvalidDeviceID = errors.New("invalid device id")

// FactoryToken derives the secret token a device holds.
func FactoryToken(deviceID string, factorySecret string) string {
	sum := sha256.Sum256([]byte(deviceID + ":" + factorySecret))
	return hex.EncodeToString(sum[:])[:16]
}

// Digest returns the public digest of a factory token.
func Digest(factoryToken string) string {
	sum := sha256.Sum256([]byte(factoryToken))
	return hex.EncodeToString(sum[:])[:16]
}

// ExpectedDigest is the digest a genuine device with deviceID presents.
func ExpectedDigest(deviceID string, factorySecret string) string {
	return Digest(FactoryToken(deviceID, factorySecret))
}

// Equal compares two digests in constant time.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// NewAccessToken returns a fresh URL-safe bearer token for a device.
func NewAccessToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate access token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// SetupURL is the URL encoded into a device's QR label.
func SetupURL(baseURL string, deviceID string, digest string) string {
	v := url.Values{}
	v.Set("device_id", deviceID)
	v.Set("fth", digest)
	return baseURL + "?" + v.Encode()
}

// IDValidator checks device ids against a fixed pattern.
type IDValidator struct {
	pattern *regexp.Regexp
}

func NewIDValidator(pattern string) (*IDValidator, error) {
	if pattern == "" {
		pattern = DefaultDeviceIDPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid device id pattern: %w", err)
	}
	return &IDValidator{pattern: re}, nil
}

func (v *IDValidator) Validate(deviceID string) error {
	if !v.pattern.MatchString(deviceID) {
		return fmt.Errorf("%w: %q", ErrInvalidDeviceID, deviceID)
	}
	return nil
}
