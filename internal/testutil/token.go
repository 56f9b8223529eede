package testutil

// DefaultRunToken is what FixedRunTokenGenerator returns when given no
// token.
const DefaultRunToken = "test-run-default"

// FixedRunTokenGenerator returns the same run token on every call.
//
// Unlike engine.FixedGenerator, which hands out a sequence and then
// panics, it never runs out; scenarios that start several runs all share
// one token.
type FixedRunTokenGenerator struct {
	token string
}

// NewFixedRunTokenGenerator creates a generator for token, or for
// DefaultRunToken when token is empty.
func NewFixedRunTokenGenerator(token string) *FixedRunTokenGenerator {
	if token == "" {
		token = DefaultRunToken
	}
	return &FixedRunTokenGenerator{token: token}
}

// Generate returns the fixed token.
func (g *FixedRunTokenGenerator) Generate() string {
	return g.token
}
