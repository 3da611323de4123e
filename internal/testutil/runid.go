package testutil

// FixedRunIDGenerator generates the same run ID every time.
//
// Unlike engine.FixedGenerator, which returns IDs in sequence, this
// generator never runs out. Scenario runs use it so recorded logs are
// byte-identical across executions.
//
// Thread-safety: FixedRunIDGenerator is stateless and safe for concurrent use.
type FixedRunIDGenerator struct {
	id string
}

// NewFixedRunIDGenerator creates a generator that always returns id.
// An empty id selects "test-run-default".
func NewFixedRunIDGenerator(id string) *FixedRunIDGenerator {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunIDGenerator{id: id}
}

// Generate returns the fixed run ID.
func (g *FixedRunIDGenerator) Generate() string {
	return g.id
}
