package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Alias1177/MarketRegime/internal/regime"
)

// ErrInvalidThresholds wraps every thresholds file that fails validation
var ErrInvalidThresholds = regime.ErrInvalidThresholds

// LoadThresholds overlays a YAML file on the default thresholds. An empty
// path returns the defaults.
func LoadThresholds(path string) (regime.Thresholds, error) {
	if path == "" {
		return regime.DefaultThresholds(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return regime.Thresholds{}, fmt.Errorf("reading thresholds: %w", err)
	}
	return ParseThresholds(data)
}

// ParseThresholds decodes YAML over the defaults and validates the result.
// Unknown keys are rejected so typos do not silently keep a default.
func ParseThresholds(data []byte) (regime.Thresholds, error) {
	th := regime.DefaultThresholds()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&th); err != nil && !errors.Is(err, io.EOF) {
		return regime.Thresholds{}, fmt.Errorf("parsing thresholds: %w", err)
	}

	if err := th.Validate(); err != nil {
		return regime.Thresholds{}, err
	}
	return th, nil
}
