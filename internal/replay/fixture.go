package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/cosmicmind/internal/engine"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description     string                  `json:"description"`
	Config          FixtureConfig           `json:"config"`
	Steps           []Step                  `json:"steps"`
	ExpectedResults []FixtureExpectedResult `json:"expected_results"`
}

// FixtureConfig overrides engine defaults. Zero values keep the default.
type FixtureConfig struct {
	FocusSize           int           `json:"focus_size"`
	SimilarityThreshold float64       `json:"similarity_threshold"`
	Goals               []FixtureGoal `json:"goals"`
}

// FixtureGoal mirrors engine.GoalSeed with JSON tags.
type FixtureGoal struct {
	Description string  `json:"description"`
	Priority    float64 `json:"priority"`
}

// Step is one scripted input: some events to ingest, then optionally a cycle.
type Step struct {
	ID     string   `json:"id"`
	Ingest []string `json:"ingest,omitempty"`
	Cycle  bool     `json:"cycle,omitempty"`
}

// FixtureExpectedResult captures what a step must produce. A nil Truths
// skips the total-truth check.
type FixtureExpectedResult struct {
	StepID   string   `json:"step_id"`
	Concepts []string `json:"concepts"`
	Intents  []string `json:"intents"`
	Truths   *int     `json:"truths,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if len(f.Steps) == 0 {
		return nil, fmt.Errorf("fixture %s: no steps", path)
	}
	return &f, nil
}

// ToEngineConfig applies the fixture overrides to the default agent. The
// agent ID is fixed so replays are comparable.
func (fc *FixtureConfig) ToEngineConfig() engine.Config {
	cfg := engine.DefaultConfig()
	cfg.AgentID = "replay"
	if fc.FocusSize > 0 {
		cfg.FocusSize = fc.FocusSize
	}
	if fc.SimilarityThreshold > 0 {
		cfg.SimilarityThreshold = fc.SimilarityThreshold
	}
	if len(fc.Goals) > 0 {
		cfg.Goals = make([]engine.GoalSeed, len(fc.Goals))
		for i, g := range fc.Goals {
			cfg.Goals[i] = engine.GoalSeed{Description: g.Description, Priority: g.Priority}
		}
	}
	return cfg
}

// #endregion fixture-loader
