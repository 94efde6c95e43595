package ticketnumber

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Alphabet excludes characters that are easy to misread: 0/O and 1/I/L.
const Alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const (
	// Length is the size of a generated ticket number.
	Length = 6
	// DefaultMaxRetries bounds uniqueness lookups before falling back.
	DefaultMaxRetries = 10

	fallbackRandomChars = 3
)

// Checker answers whether a code is already used inside an organization.
type Checker interface {
	TicketNumberExists(ctx context.Context, organizationID, code string) (bool, error)
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context, organizationID, code string) (bool, error)

func (f CheckerFunc) TicketNumberExists(ctx context.Context, organizationID, code string) (bool, error) {
	return f(ctx, organizationID, code)
}

// Generator allocates short human-facing ticket numbers.
type Generator struct {
	checker Checker
	logger  *zap.Logger
	intn    func(n int) int
	now     func() time.Time
}

// Option customises a Generator.
type Option func(*Generator)

// WithRandom replaces the random source; intn must return a value in [0, n).
func WithRandom(intn func(n int) int) Option {
	return func(g *Generator) { g.intn = intn }
}

// WithClock replaces the clock used by the fallback suffix.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// New constructs a Generator backed by checker.
func New(checker Checker, logger *zap.Logger, opts ...Option) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Generator{
		checker: checker,
		logger:  logger,
		intn:    rand.IntN,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a random code without checking uniqueness.
func (g *Generator) Generate() string {
	return g.randomCode(Length)
}

// GenerateUnique returns the first code not yet used by the organization. When
// every attempt collides it returns a fallback built from a shorter random code
// and a clock-derived suffix; that code is not re-checked.
func (g *Generator) GenerateUnique(ctx context.Context, organizationID string, maxRetries int) (string, error) {
	if g.checker == nil {
		return "", errors.New("ticket number checker not configured")
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	for attempt := 0; attempt < maxRetries; attempt++ {
		code := g.Generate()
		exists, err := g.checker.TicketNumberExists(ctx, organizationID, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	code := g.fallbackCode()
	g.logger.Warn("ticket number retries exhausted; using fallback",
		zap.String("organization_id", organizationID),
		zap.Int("attempts", maxRetries),
		zap.String("ticket_number", code))
	return code, nil
}

// IsValid reports whether code has the expected length and alphabet.
func IsValid(code string) bool {
	if len(code) != Length {
		return false
	}
	for _, ch := range code {
		if !strings.ContainsRune(Alphabet, ch) {
			return false
		}
	}
	return true
}

func (g *Generator) randomCode(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(Alphabet[g.intn(len(Alphabet))])
	}
	return b.String()
}

func (g *Generator) fallbackCode() string {
	suffixLen := Length - fallbackRandomChars
	suffix := make([]byte, suffixLen)
	v := g.now().UnixMilli()
	if v < 0 {
		v = -v
	}
	base := int64(len(Alphabet))
	for i := suffixLen - 1; i >= 0; i-- {
		suffix[i] = Alphabet[v%base]
		v /= base
	}
	return g.randomCode(fallbackRandomChars) + string(suffix)
}
