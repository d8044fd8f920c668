package service

import (
	"context"
	"strings"
	"testing"

	"github.com/reflens/reflens/internal/app/model"
)

type mockRefCodeRepository struct {
	getFn      func(ctx context.Context, code string) (*model.RefCode, error)
	existsFn   func(ctx context.Context, code string) (bool, error)
	allCodesFn func(ctx context.Context) ([]string, error)
}

func (m *mockRefCodeRepository) GetByCode(ctx context.Context, code string) (*model.RefCode, error) {
	if m.getFn != nil {
		return m.getFn(ctx, code)
	}
	return nil, nil
}

func (m *mockRefCodeRepository) Exists(ctx context.Context, code string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, code)
	}
	return false, nil
}

func (m *mockRefCodeRepository) AllCodes(ctx context.Context) ([]string, error) {
	if m.allCodesFn != nil {
		return m.allCodesFn(ctx)
	}
	return nil, nil
}

func TestCodeGenerator_GenerateShape(t *testing.T) {
	gen := NewCodeGenerator(&mockRefCodeRepository{}, nil)

	code, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(code) != model.RefCodeLength {
		t.Fatalf("expected %d characters, got %d (%q)", model.RefCodeLength, len(code), code)
	}
	for _, r := range code {
		if !strings.ContainsRune(model.RefCodeAlphabet, r) {
			t.Fatalf("code %q contains %q outside the alphabet", code, r)
		}
	}
}

func TestCodeGenerator_GenerateDistinct(t *testing.T) {
	gen := NewCodeGenerator(&mockRefCodeRepository{}, nil)

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := gen.Generate(context.Background())
		if err != nil {
			t.Fatalf("Generate returned error: %v", err)
		}
		if seen[code] {
			t.Fatalf("code %q generated twice", code)
		}
		seen[code] = true
		gen.MarkIssued(code)
	}
}

func TestCodeGenerator_SeedLoadsExistingCodes(t *testing.T) {
	called := false
	repo := &mockRefCodeRepository{
		allCodesFn: func(ctx context.Context) ([]string, error) {
			called = true
			return []string{"abcd1234", "wxyz5678"}, nil
		},
	}
	gen := NewCodeGenerator(repo, nil)

	if err := gen.Seed(context.Background()); err != nil {
		t.Fatalf("Seed returned error: %v", err)
	}
	if !called {
		t.Fatal("expected Seed to read existing codes")
	}
	if !gen.issued.TestString("abcd1234") {
		t.Fatal("expected seeded code in the filter")
	}
}

func TestCodeGenerator_ColdFilterSkipsStoreCheck(t *testing.T) {
	existsCalls := 0
	repo := &mockRefCodeRepository{
		existsFn: func(ctx context.Context, code string) (bool, error) {
			existsCalls++
			return false, nil
		},
	}
	gen := NewCodeGenerator(repo, nil)

	if _, err := gen.Generate(context.Background()); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	// A candidate absent from the filter is definitely unissued, so no
	// store round-trip should happen.
	if existsCalls != 0 {
		t.Fatalf("expected no store checks on a cold filter, got %d", existsCalls)
	}
}
