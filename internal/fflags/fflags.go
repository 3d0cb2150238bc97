// Package fflags exposes feature flags backed by environment variables.
package fflags

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

type FFlags struct {
	logger *zap.SugaredLogger
	mu     sync.RWMutex
	flags  map[string]func() bool
}

func NewFFlags(logger *zap.SugaredLogger) *FFlags {
	return &FFlags{
		logger: logger,
		flags:  map[string]func() bool{},
	}
}

// RegisterFlag registers a flag whose value is computed on every read.
func (f *FFlags) RegisterFlag(name string, fn func() bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flags[name] = fn
}

// RegisterEnvFlag registers a flag read from env, falling back to
// defaultValue when env is unset or not a bool.
func (f *FFlags) RegisterEnvFlag(name string, env string, defaultValue bool) {
	f.RegisterFlag(name, func() bool {
		if v, err := strconv.ParseBool(os.Getenv(env)); err == nil {
			return v
		}
		return defaultValue
	})
}

// ListFlags returns the current value of every registered flag.
func (f *FFlags) ListFlags() map[string]bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	result := make(map[string]bool, len(f.flags))
	for name, fn := range f.flags {
		result[name] = fn()
	}
	return result
}

// Names returns the registered flag names in order.
func (f *FFlags) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.flags))
	for name := range f.flags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetFlag returns whether the named feature is enabled. An error is
// returned for an unknown flag.
func (f *FFlags) GetFlag(name string) (bool, error) {
	f.mu.RLock()
	fn, ok := f.flags[name]
	f.mu.RUnlock()
	if !ok {
		f.logger.Debugw("unknown feature flag", "name", name)
		return false, fmt.Errorf("invalid feature flag name: %s", name)
	}
	return fn(), nil
}

// Enabled is GetFlag for callers that treat unknown flags as disabled.
func (f *FFlags) Enabled(name string) bool {
	enabled, _ := f.GetFlag(name)
	return enabled
}
