package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	domain "github.com/lens-advisor/api/internal/domain"
)

//go:embed engine.defaults.yaml
var engineDefaults []byte

// EngineConfigError lists every problem found in an engine tuning file.
type EngineConfigError struct {
	Path     string
	problems []string
}

func (e *EngineConfigError) Error() string {
	source := e.Path
	if source == "" {
		source = "built-in defaults"
	}
	return fmt.Sprintf("engine config %s invalid: %s", source, strings.Join(e.problems, "; "))
}

// Problems returns a copy of the problem list.
func (e *EngineConfigError) Problems() []string {
	return append([]string(nil), e.problems...)
}

// LoadEngineConfig decodes the embedded defaults and, when path is set, layers the file at
// path on top. Lists in the file replace the defaults; maps are merged key by key. Unknown
// keys are rejected.
func LoadEngineConfig(path string) (domain.EngineConfig, error) {
	var cfg domain.EngineConfig
	if err := decodeStrict(engineDefaults, &cfg); err != nil {
		return domain.EngineConfig{}, fmt.Errorf("config: decode engine defaults: %w", err)
	}

	path = strings.TrimSpace(path)
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return domain.EngineConfig{}, fmt.Errorf("config: read engine config %s: %w", path, err)
		}
		if err := decodeStrict(raw, &cfg); err != nil {
			return domain.EngineConfig{}, fmt.Errorf("config: decode engine config %s: %w", path, err)
		}
	}

	if problems := validateEngineConfig(cfg); len(problems) > 0 {
		return domain.EngineConfig{}, &EngineConfigError{Path: path, problems: problems}
	}
	return cfg, nil
}

func decodeStrict(raw []byte, out *domain.EngineConfig) error {
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func validateEngineConfig(cfg domain.EngineConfig) []string {
	var problems []string
	if strings.TrimSpace(cfg.Currency) == "" {
		problems = append(problems, "currency is required")
	}
	if cfg.Vision.ProgressiveAddThreshold < 0 {
		problems = append(problems, "vision.progressiveAddThreshold must be non-negative")
	}

	previous := -1.0
	for i, threshold := range cfg.Index.Thresholds {
		if threshold.Index.Tier() == 0 {
			problems = append(problems, fmt.Sprintf("index.thresholds[%d]: unknown index %q", i, threshold.Index))
		}
		if threshold.MaxPower <= previous {
			problems = append(problems, fmt.Sprintf("index.thresholds[%d]: maxPower must increase", i))
		}
		previous = threshold.MaxPower
	}
	if cfg.Index.Fallback.Tier() == 0 {
		problems = append(problems, fmt.Sprintf("index.fallback: unknown index %q", cfg.Index.Fallback))
	}

	if cfg.Ranking.DiversityStep < 0 {
		problems = append(problems, "ranking.diversityStep must be non-negative")
	}
	if cfg.BestOffer.SavingsWeight < 0 || cfg.BestOffer.PriorityWeight < 0 {
		problems = append(problems, "bestOffer weights must be non-negative")
	}

	kinds := make([]string, 0, len(cfg.Upsell.Weights))
	for kind, weight := range cfg.Upsell.Weights {
		if weight < 0 {
			kinds = append(kinds, string(kind))
		}
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		problems = append(problems, fmt.Sprintf("upsell.weights.%s must be non-negative", kind))
	}
	for i, threshold := range cfg.Upsell.RewardThresholds {
		if threshold.MinCartValue <= 0 {
			problems = append(problems, fmt.Sprintf("upsell.rewardThresholds[%d]: minCartValue must be positive", i))
		}
	}
	return problems
}
