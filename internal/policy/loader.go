package policy

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a policy file. An empty path returns the
// validated reference default.
func Load(path string) (*Policy, error) {
	if path == "" {
		p := Default()
		if err := Validate(p); err != nil {
			return nil, fmt.Errorf("default policy invalid: %w", err)
		}
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file %s: %w", path, err)
	}

	// Start from defaults so partial policy files only override what they set.
	p := Default()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse policy file %s: %w", path, err)
	}

	if err := Validate(p); err != nil {
		return nil, fmt.Errorf("policy file %s: %w", path, err)
	}

	return p, nil
}

// UnmarshalYAML decodes lifecycle windows from "72h" style strings. Fields
// absent from the file keep whatever the receiver already holds, so partial
// policy files fall back to the defaults.
func (l *Lifecycle) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		ObservationWindow   string   `yaml:"observation_window"`
		GracePeriod         string   `yaml:"grace_period"`
		PriceFreshness      string   `yaml:"price_freshness"`
		MinFavorableMovePct *float64 `yaml:"min_favorable_move_pct"`
		TargetMovePct       *float64 `yaml:"target_move_pct"`
		StopMovePct         *float64 `yaml:"stop_move_pct"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	durations := []struct {
		field *time.Duration
		text  string
		name  string
	}{
		{&l.ObservationWindow, raw.ObservationWindow, "observation_window"},
		{&l.GracePeriod, raw.GracePeriod, "grace_period"},
		{&l.PriceFreshness, raw.PriceFreshness, "price_freshness"},
	}
	for _, d := range durations {
		if d.text == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.text)
		if err != nil {
			return fmt.Errorf("lifecycle.%s: %w", d.name, err)
		}
		*d.field = parsed
	}

	if raw.MinFavorableMovePct != nil {
		l.MinFavorableMovePct = *raw.MinFavorableMovePct
	}
	if raw.TargetMovePct != nil {
		l.TargetMovePct = *raw.TargetMovePct
	}
	if raw.StopMovePct != nil {
		l.StopMovePct = *raw.StopMovePct
	}
	return nil
}
