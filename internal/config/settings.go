// Package config holds the pipeline settings shared by every stage.
package config

import (
	"github.com/go-playground/validator/v10"

	"github.com/spigell/rfp-responder/internal/rfperr"
)

const (
	DefaultMatchingThreshold = 0.3
	DefaultMarkupPercentage  = 25.0
)

// DefaultTests are the pricing tests applied when none are configured.
var DefaultTests = []string{"security_audit", "integration_test"}

// Settings is built once per process and passed to every component.
type Settings struct {
	MatchingThreshold float64  `mapstructure:"threshold" json:"matching_threshold" validate:"gte=0,lte=1"`
	MarkupPercentage  float64  `mapstructure:"markup-percentage" json:"markup_percentage" validate:"gte=0"`
	DefaultTests      []string `mapstructure:"default-tests" json:"default_tests" validate:"dive,required"`
}

// Default returns settings with the documented defaults.
func Default() *Settings {
	return &Settings{
		MatchingThreshold: DefaultMatchingThreshold,
		MarkupPercentage:  DefaultMarkupPercentage,
		DefaultTests:      append([]string(nil), DefaultTests...),
	}
}

// Validate checks value ranges. A nil receiver is valid and means defaults.
func (s *Settings) Validate() error {
	if s == nil {
		return nil
	}
	if err := validator.New().Struct(s); err != nil {
		return rfperr.InvalidData(err, "settings")
	}
	return nil
}

// OrDefault returns s, or the defaults when s is nil.
func (s *Settings) OrDefault() *Settings {
	if s == nil {
		return Default()
	}
	return s
}
