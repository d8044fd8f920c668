package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/reflens/reflens/internal/app/model"
	"github.com/reflens/reflens/internal/app/repository"
	"go.uber.org/zap"
)

// maxGenerateAttempts bounds the generate-and-check loop. With 36^8 possible
// codes a handful of collisions in a row means the random source is broken,
// so fail loudly instead of spinning.
const maxGenerateAttempts = 20

const (
	bloomExpectedCodes = 100_000
	bloomFalsePositive = 0.001
)

// ErrCodeSpaceExhausted is returned when generation keeps colliding with
// existing codes past the attempt cap.
var ErrCodeSpaceExhausted = fmt.Errorf("ref code generation exceeded %d attempts", maxGenerateAttempts)

// CodeGenerator produces unique referral codes. Candidates come from
// crypto/rand; a bloom filter of issued codes answers most uniqueness checks
// without a store round-trip, and the store confirms the rest. The unique
// constraint on ref_codes.ref_code stays the final authority under races.
type CodeGenerator struct {
	codes  repository.RefCodeRepository
	logger *zap.Logger

	mu     sync.Mutex
	issued *bloom.BloomFilter
}

// NewCodeGenerator creates a generator backed by the given repository.
func NewCodeGenerator(codes repository.RefCodeRepository, logger *zap.Logger) *CodeGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CodeGenerator{
		codes:  codes,
		logger: logger,
		issued: bloom.NewWithEstimates(bloomExpectedCodes, bloomFalsePositive),
	}
}

// Seed preloads the bloom filter with every code already in the store.
// Called once at startup; a failed seed is not fatal since the store check
// still runs on every bloom hit.
func (g *CodeGenerator) Seed(ctx context.Context) error {
	existing, err := g.codes.AllCodes(ctx)
	if err != nil {
		return fmt.Errorf("seed code filter: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for _, code := range existing {
		g.issued.AddString(code)
	}

	g.logger.Info("seeded ref code filter", zap.Int("codes", len(existing)))
	return nil
}

// Generate returns a fresh 8-character code that no issued code equals.
func (g *CodeGenerator) Generate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		candidate, err := randomCode()
		if err != nil {
			return "", fmt.Errorf("generate ref code: %w", err)
		}

		g.mu.Lock()
		maybeIssued := g.issued.TestString(candidate)
		g.mu.Unlock()

		if maybeIssued {
			// Could be a bloom false positive; only the store knows.
			exists, err := g.codes.Exists(ctx, candidate)
			if err != nil {
				return "", fmt.Errorf("check ref code uniqueness: %w", err)
			}
			if exists {
				g.logger.Debug("ref code collision, retrying",
					zap.String("candidate", candidate),
					zap.Int("attempt", attempt+1))
				continue
			}
		}

		return candidate, nil
	}

	return "", ErrCodeSpaceExhausted
}

// MarkIssued records a successfully persisted code in the bloom filter.
func (g *CodeGenerator) MarkIssued(code string) {
	g.mu.Lock()
	g.issued.AddString(code)
	g.mu.Unlock()
}

func randomCode() (string, error) {
	alphabetLen := big.NewInt(int64(len(model.RefCodeAlphabet)))
	buf := make([]byte, model.RefCodeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", err
		}
		buf[i] = model.RefCodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
