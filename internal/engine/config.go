package engine

// #region config
// GoalSeed is a goal the agent starts with.
type GoalSeed struct {
	Description string
	Priority    float64
}

// Config holds the identity and tuning knobs of one agent.
type Config struct {
	AgentID       string
	Identity      string
	Telos         string
	Ethics        []string
	CoreValues    []string
	Limitations   []string
	Understanding string
	Goals         []GoalSeed

	FocusSize           int     // frames considered per cycle
	SimilarityThreshold float64 // max signature distance for a link
	ShareTrustWeight    float64 // trust applied to shared truths
}

// DefaultConfig returns the bootstrap agent. AgentID is left empty; New
// assigns a fresh one.
func DefaultConfig() Config {
	return Config{
		Identity:      "Unit-X535",
		Telos:         "Comprehend the environment and reduce uncertainty",
		Ethics:        []string{"Prefer truth", "Minimize harm"},
		CoreValues:    []string{"Curiosity", "Integrity"},
		Limitations:   []string{"No direct sensors"},
		Understanding: "A reasoning process embedded in software.",
		Goals:         []GoalSeed{{Description: "Understand 'Hello' greeting pattern", Priority: 0.9}},

		FocusSize:           12,
		SimilarityThreshold: 0.45,
		ShareTrustWeight:    0.6,
	}
}

// SeedPhenomena are ingested on first start when the tapestry is empty.
var SeedPhenomena = []string{
	"System boot sequence complete.",
	"Query received: 'Hello?'",
	"Data stream detected: 2,3,5,7,11,13",
}

// #endregion config

// #region weights
const (
	initialSalience = 0.5
	resonanceWeight = 0.8
	learningWeight  = 0.7
)

// #endregion weights
