package profile

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/lumen-fi/advisor/pkg/ai/mock"
	"github.com/lumen-fi/advisor/pkg/store/memory"
)

func noSignalClient() *mock.MockAIClient {
	client := mock.NewMockAIClient()
	client.CompletionFunc = func(ctx context.Context, prompt string) (string, error) {
		return `{"risk_tolerance": "", "financial_goals": [], "preferences": {"sustainability": -1.0, "technology": -1.0, "healthcare": -1.0}}`, nil
	}
	return client
}

func TestLoadCreatesDefaultOnce(t *testing.T) {
	storage := memory.NewStorage()
	m := NewManager(storage, noSignalClient())
	ctx := context.Background()

	profile, err := m.Load(ctx, "u")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.RiskTolerance != "moderate" {
		t.Fatalf("unexpected default risk tolerance %q", profile.RiskTolerance)
	}
	if profile.Preferences["technology"] != 0.5 {
		t.Fatalf("unexpected default preference: %v", profile.Preferences)
	}

	// the default must be persisted, not re-created per call
	stored, err := storage.Get(ctx, "u")
	if err != nil || stored == nil {
		t.Fatalf("default profile not persisted: %v %v", stored, err)
	}
}

func TestRecordBlendsPreferences(t *testing.T) {
	storage := memory.NewStorage()
	client := mock.NewMockAIClient()
	client.CompletionFunc = func(ctx context.Context, prompt string) (string, error) {
		return `{"risk_tolerance": "", "financial_goals": [], "preferences": {"sustainability": -1.0, "technology": 0.9, "healthcare": -1.0}}`, nil
	}
	m := NewManager(storage, client)
	ctx := context.Background()

	profile, err := m.Record(ctx, "u", "should I buy tech ETFs?", "some advice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 0.7*0.5 + 0.3*0.9 = 0.62
	if math.Abs(profile.Preferences["technology"]-0.62) > 1e-9 {
		t.Fatalf("unexpected blended score %v", profile.Preferences["technology"])
	}
	// -1 sentinel leaves the score untouched
	if profile.Preferences["sustainability"] != 0.5 {
		t.Fatalf("no-signal category must not move, got %v", profile.Preferences["sustainability"])
	}
}

func TestRecordTruncatesSummaryAndBoundsHistory(t *testing.T) {
	storage := memory.NewStorage()
	m := NewManager(storage, noSignalClient())
	ctx := context.Background()

	long := strings.Repeat("a", 150)
	for i := 0; i < 25; i++ {
		if _, err := m.Record(ctx, "u", fmt.Sprintf("query %d", i), long); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	profile, err := m.Load(ctx, "u")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(profile.InteractionHistory) != 20 {
		t.Fatalf("history must be bounded at 20, got %d", len(profile.InteractionHistory))
	}
	// oldest entries evicted first
	if profile.InteractionHistory[0].Query != "query 5" {
		t.Fatalf("unexpected oldest entry %q", profile.InteractionHistory[0].Query)
	}
	summary := profile.InteractionHistory[0].ResponseSummary
	if summary != strings.Repeat("a", 100)+"..." {
		t.Fatalf("unexpected summary %q", summary)
	}
}

func TestRecordSurvivesInferenceFailure(t *testing.T) {
	storage := memory.NewStorage()
	client := mock.NewMockAIClient()
	client.CompletionFunc = func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("provider down")
	}
	m := NewManager(storage, client)

	profile, err := m.Record(context.Background(), "u", "query", "response")
	if err != nil {
		t.Fatalf("inference failure must not fail recording: %v", err)
	}
	if len(profile.InteractionHistory) != 1 {
		t.Fatalf("interaction not recorded: %+v", profile.InteractionHistory)
	}
	if profile.Preferences["technology"] != 0.5 {
		t.Fatalf("preferences must stay at defaults, got %v", profile.Preferences)
	}
}

func TestRecordMergesInferredGoals(t *testing.T) {
	storage := memory.NewStorage()
	client := mock.NewMockAIClient()
	client.CompletionFunc = func(ctx context.Context, prompt string) (string, error) {
		return `{"risk_tolerance": "aggressive", "financial_goals": ["growth", "retirement"], "preferences": {}}`, nil
	}
	m := NewManager(storage, client)

	profile, err := m.Record(context.Background(), "u", "query", "response")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.RiskTolerance != "aggressive" {
		t.Fatalf("risk tolerance not updated: %q", profile.RiskTolerance)
	}
	want := []string{"retirement", "investment", "growth"}
	if len(profile.FinancialGoals) != len(want) {
		t.Fatalf("got goals %v, want %v", profile.FinancialGoals, want)
	}
	for i := range want {
		if profile.FinancialGoals[i] != want[i] {
			t.Fatalf("got goals %v, want %v", profile.FinancialGoals, want)
		}
	}
}

func TestApplyValidation(t *testing.T) {
	m := NewManager(memory.NewStorage(), nil)
	ctx := context.Background()

	_, err := m.Apply(ctx, "u", Updates{RiskTolerance: "reckless"})
	if !errors.Is(err, ErrInvalidUpdate) {
		t.Fatalf("expected ErrInvalidUpdate, got %v", err)
	}

	_, err = m.Apply(ctx, "u", Updates{Preferences: map[string]float64{"technology": 1.5}})
	if !errors.Is(err, ErrInvalidUpdate) {
		t.Fatalf("expected ErrInvalidUpdate, got %v", err)
	}

	profile, err := m.Apply(ctx, "u", Updates{
		RiskTolerance: "conservative",
		Preferences:   map[string]float64{"technology": 0.9},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.RiskTolerance != "conservative" || profile.Preferences["technology"] != 0.9 {
		t.Fatalf("update not applied: %+v", profile)
	}
}
