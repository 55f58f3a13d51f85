package policy

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonwatch/backend/internal/contracts"
)

func TestDefault_IsValid(t *testing.T) {
	p := Default()
	require.NoError(t, Validate(p))
	assert.InDelta(t, 1.0, p.Weights.Sum(), 1e-9)
}

func TestValidate_WeightSum(t *testing.T) {
	tests := []struct {
		name    string
		weights Weights
		wantErr bool
	}{
		{"exact sum", Weights{0.40, 0.30, 0.20, 0.10}, false},
		{"within tolerance", Weights{0.40, 0.30, 0.20, 0.1000000005}, false},
		{"sums to 0.95", Weights{0.35, 0.25, 0.20, 0.15}, true},
		{"sums above one", Weights{0.40, 0.30, 0.20, 0.20}, true},
		{"all zero", Weights{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Default()
			p.Weights = tt.weights
			err := Validate(p)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, contracts.ErrInvalidWeightConfig),
					"want ErrInvalidWeightConfig, got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_FieldConstraints(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Policy)
	}{
		{"negative weight", func(p *Policy) { p.Weights.Technical = -0.1; p.Weights.Sentiment = 0.8 }},
		{"negative up delta", func(p *Policy) { p.Votes.UpDelta = -1 }},
		{"positive down delta", func(p *Policy) { p.Votes.DownDelta = 2 }},
		{"zero observation window", func(p *Policy) { p.Lifecycle.ObservationWindow = 0 }},
		{"grace not shorter than window", func(p *Policy) { p.Lifecycle.GracePeriod = p.Lifecycle.ObservationWindow }},
		{"zero price freshness", func(p *Policy) { p.Lifecycle.PriceFreshness = 0 }},
		{"partial floor above target", func(p *Policy) { p.Lifecycle.MinFavorableMovePct = 9 }},
		{"min confidence at 100", func(p *Policy) { p.View.MinConfidence = 100 }},
		{"missing policy id", func(p *Policy) { p.Meta.PolicyID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Default()
			tt.mutate(p)
			assert.Error(t, Validate(p))
		})
	}
}

func TestLoad_EmptyPathReturnsDefault(t *testing.T) {
	p, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), p)
}

func TestLoad_PartialFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	content := `
meta:
  policy_id: test_policy
weights:
  technical: 0.35
  sentiment: 0.30
  social: 0.20
  earnings: 0.15
lifecycle:
  observation_window: 48h
  min_favorable_move_pct: 3.5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	p, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test_policy", p.Meta.PolicyID)
	assert.Equal(t, 0.35, p.Weights.Technical)
	assert.Equal(t, 0.15, p.Weights.Earnings)
	assert.Equal(t, 48*time.Hour, p.Lifecycle.ObservationWindow)
	assert.Equal(t, 3.5, p.Lifecycle.MinFavorableMovePct)

	// Untouched fields keep the defaults.
	assert.Equal(t, Default().Votes, p.Votes)
	assert.Equal(t, Default().Lifecycle.GracePeriod, p.Lifecycle.GracePeriod)
	assert.Equal(t, Default().Lifecycle.TargetMovePct, p.Lifecycle.TargetMovePct)
	assert.Equal(t, Default().View.MinConfidence, p.View.MinConfidence)
}

func TestLoad_BadWeightsAreFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	content := `
weights:
  technical: 0.50
  sentiment: 0.30
  social: 0.20
  earnings: 0.10
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrInvalidWeightConfig))
}

func TestLoad_BadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	content := `
lifecycle:
  observation_window: three days
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
