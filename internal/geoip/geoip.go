// Package geoip resolves public IP addresses to an approximate position and
// region name.
package geoip

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when an address cannot be geolocated, whether
// because it is not public, the provider failed, or the lookup timed out.
var ErrUnavailable = errors.New("geolocation unavailable")

type Result struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	// Region is the provider's administrative region name.
	Region string `json:"region"`
}

type Provider interface {
	Lookup(ctx context.Context, ip string) (Result, error)
}

// Cache stores lookup results keyed by IP address.
type Cache interface {
	Get(ctx context.Context, ip string) (Result, bool)
	Put(ctx context.Context, ip string, result Result)
}

// Static is a Provider backed by a fixed table, used for tests and for
// deployments without outbound network access.
type Static map[string]Result

func (s Static) Lookup(_ context.Context, ip string) (Result, error) {
	r, ok := s[ip]
	if !ok {
		return Result{}, ErrUnavailable
	}
	return r, nil
}
