// Package config defines the region/storage configuration every
// shmprom-instrumented process constructs at startup, adapted from the
// teacher's libs/database/config.go DefaultConfig+Validate pattern but
// validated declaratively via go-playground/validator/v10 struct tags
// rather than hand-written field-by-field checks.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Config carries everything needed to attach to a shared region and
// label self-instrumentation series. RegionPath is a filesystem path
// (the POSIX backend's identifier) rather than the uwsgi-style integer
// "sharedarea id" spec.md's host environment assumes, because Go has no
// such runtime concept.
type Config struct {
	// RegionPath is the backing file for shmregion.NewPosixRegion; empty
	// stands for an in-process shmregion.NewMemoryRegion. This package
	// only holds and validates the value: no constructor in the module
	// reads a Config, so the caller picks the backend itself.
	RegionPath string `validate:"omitempty,filepath"`

	// RegionCapacity is the fixed byte size of the region, validated
	// generously (at least enough for the 14-byte header plus one
	// minimal record).
	RegionCapacity int `validate:"required,min=37"`

	// Namespace is the metric-name prefix for this process (e.g.
	// "shmprom"). Nothing in the module applies it: metrics, registry
	// and exposition use metric names exactly as given.
	Namespace string `validate:"required,alphanum"`

	// ConstLabels is a constant label set for self-instrumentation
	// series (e.g. {"instance": "web-1"}). collector.ProcessCollector
	// and collector.TableCollector do not read it; their series carry
	// no labels.
	ConstLabels map[string]string `validate:"omitempty,dive,keys,alphanum,endkeys,required"`
}

// DefaultConfig returns a Config with sensible defaults for an
// in-process MemoryRegion-backed deployment: no backing file, a 1 MiB
// region, the "shmprom" namespace, and no constant labels.
func DefaultConfig() *Config {
	return &Config{
		RegionCapacity: 1 << 20,
		Namespace:      "shmprom",
		ConstLabels:    map[string]string{},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks c against its struct tags, returning a descriptive
// error on the first violation.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: invalid configuration: %w", err)
	}
	return nil
}
