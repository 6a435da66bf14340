package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lumen-fi/advisor/pkg/ai"
	"github.com/lumen-fi/advisor/pkg/common"
	"github.com/lumen-fi/advisor/pkg/logger"
	"github.com/lumen-fi/advisor/pkg/store"
)

// summaryLimit bounds the response summary stored per interaction.
const summaryLimit = 100

// noSignal is the sentinel the preference inference uses for categories the
// query says nothing about.
const noSignal = -1.0

// blendOld and blendNew weight existing versus inferred preference scores.
const (
	blendOld = 0.7
	blendNew = 0.3
)

// ErrInvalidUpdate marks a manual profile update that failed validation.
var ErrInvalidUpdate = errors.New("invalid profile update")

var validRiskTolerances = map[string]struct{}{
	"conservative": {},
	"moderate":     {},
	"aggressive":   {},
}

// preferenceInference is the fixed schema of the model's preference-delta
// response.
type preferenceInference struct {
	RiskTolerance  string             `json:"risk_tolerance"`
	FinancialGoals []string           `json:"financial_goals"`
	Preferences    map[string]float64 `json:"preferences"`
}

// Updates is a manual profile update. Zero values leave the corresponding
// field untouched.
type Updates struct {
	RiskTolerance     string             `json:"risk_tolerance"`
	FinancialGoals    []string           `json:"financial_goals"`
	InvestmentHorizon string             `json:"investment_horizon"`
	Preferences       map[string]float64 `json:"preferences"`
}

// Manager owns profile lifecycle: default creation, interaction recording
// with model-inferred preference drift, and manual updates.
type Manager struct {
	storage store.ProfileStorage
	client  ai.AdvisorAIClient
}

// NewManager creates a profile manager. A nil client disables preference
// inference; interactions are still recorded.
func NewManager(storage store.ProfileStorage, client ai.AdvisorAIClient) *Manager {
	return &Manager{
		storage: storage,
		client:  client,
	}
}

// Load returns the user's profile, creating and persisting the default on
// first access.
func (m *Manager) Load(ctx context.Context, userID string) (*common.UserProfile, error) {
	profile, err := m.storage.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		return profile, nil
	}

	profile = common.DefaultProfile(userID)
	if err := m.storage.Put(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// Record appends the answered query to the user's history and folds
// model-inferred preference signals into the profile. Inference failure
// only skips the preference drift; the interaction is recorded regardless.
func (m *Manager) Record(ctx context.Context, userID, query, response string) (*common.UserProfile, error) {
	profile, err := m.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile.InteractionHistory = append(profile.InteractionHistory, common.Interaction{
		Query:           query,
		Timestamp:       time.Now().UTC(),
		ResponseSummary: summarize(response),
	})
	if len(profile.InteractionHistory) > common.MaxInteractionHistory {
		profile.InteractionHistory = profile.InteractionHistory[len(profile.InteractionHistory)-common.MaxInteractionHistory:]
	}

	if inferred, ok := m.inferPreferences(ctx, query); ok {
		applyInference(profile, inferred)
	}

	if err := m.storage.Put(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// Apply performs a validated manual profile update.
func (m *Manager) Apply(ctx context.Context, userID string, updates Updates) (*common.UserProfile, error) {
	if updates.RiskTolerance != "" {
		if _, ok := validRiskTolerances[updates.RiskTolerance]; !ok {
			return nil, fmt.Errorf("%w: unknown risk tolerance %q", ErrInvalidUpdate, updates.RiskTolerance)
		}
	}
	for key, score := range updates.Preferences {
		if score < 0 || score > 1 {
			return nil, fmt.Errorf("%w: preference %q score %v outside [0,1]", ErrInvalidUpdate, key, score)
		}
	}

	profile, err := m.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if updates.RiskTolerance != "" {
		profile.RiskTolerance = updates.RiskTolerance
	}
	if updates.InvestmentHorizon != "" {
		profile.InvestmentHorizon = updates.InvestmentHorizon
	}
	if len(updates.FinancialGoals) > 0 {
		profile.FinancialGoals = mergeGoals(profile.FinancialGoals, updates.FinancialGoals)
	}
	for key, score := range updates.Preferences {
		profile.Preferences[key] = score
	}

	if err := m.storage.Put(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// inferPreferences asks the model for preference deltas implied by the
// query. Any failure means no inference; the caller proceeds without it.
func (m *Manager) inferPreferences(ctx context.Context, query string) (*preferenceInference, bool) {
	if m.client == nil {
		return nil, false
	}

	prompt := fmt.Sprintf(ai.PreferencePrompt, query)
	response, err := m.client.GenerateCompletion(ctx, prompt)
	if err != nil {
		logger.Warn("[Profile] Preference inference failed, skipping", "err", err)
		return nil, false
	}

	var inferred preferenceInference
	if err := ai.UnmarshalFlexible(response, &inferred); err != nil {
		logger.Warn("[Profile] Preference inference returned undecodable JSON, skipping", "err", err)
		return nil, false
	}
	return &inferred, true
}

func applyInference(profile *common.UserProfile, inferred *preferenceInference) {
	if inferred.RiskTolerance != "" {
		profile.RiskTolerance = inferred.RiskTolerance
	}
	if len(inferred.FinancialGoals) > 0 {
		profile.FinancialGoals = mergeGoals(profile.FinancialGoals, inferred.FinancialGoals)
	}
	for key, score := range inferred.Preferences {
		existing, known := profile.Preferences[key]
		if !known || score == noSignal {
			continue
		}
		profile.Preferences[key] = clamp(blendOld*existing + blendNew*score)
	}
}

// mergeGoals unions goals preserving existing order; new goals append in
// input order.
func mergeGoals(existing, incoming []string) []string {
	seen := make(map[string]struct{}, len(existing))
	out := make([]string, 0, len(existing)+len(incoming))
	for _, g := range existing {
		if g == "" {
			continue
		}
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	for _, g := range incoming {
		if g == "" {
			continue
		}
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}

func summarize(response string) string {
	if len(response) > summaryLimit {
		return response[:summaryLimit] + "..."
	}
	return response
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
