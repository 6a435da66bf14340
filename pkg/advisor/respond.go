package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/lumen-fi/advisor/pkg/ai"
	"github.com/lumen-fi/advisor/pkg/common"
	"github.com/lumen-fi/advisor/pkg/logger"
)

// evidenceTokenBudget bounds the rendered evidence so the grounded prompt
// stays inside the model context. Lowest-ranked evidence is dropped first.
const evidenceTokenBudget = 6000

const encodingName = "cl100k_base"

// Respond generates the personalized answer for one query given retrieved
// evidence. It always returns text; generation failure yields the fixed
// apology. The interaction is recorded on the profile afterwards.
func (c *Client) Respond(
	ctx context.Context,
	query string,
	ownerID string,
	evidence *common.EvidenceBundle,
) (string, error) {
	userProfile, err := c.profiles.Load(ctx, ownerID)
	if err != nil {
		return "", fmt.Errorf("failed to load profile: %w", err)
	}

	vectorBlock, factBlock := renderEvidence(evidence)

	preferences, err := json.Marshal(userProfile.Preferences)
	if err != nil {
		return "", fmt.Errorf("failed to render preferences: %w", err)
	}

	prompt := fmt.Sprintf(
		ai.AdvisorPrompt,
		userProfile.RiskTolerance,
		strings.Join(userProfile.FinancialGoals, ", "),
		userProfile.InvestmentHorizon,
		string(preferences),
		vectorBlock,
		factBlock,
		query,
	)

	response := c.gateway.Complete(ctx, prompt)

	if _, err := c.profiles.Record(ctx, ownerID, query, response); err != nil {
		logger.Warn("[Advisor] Failed to record interaction", "user_id", ownerID, "err", err)
	}
	return response, nil
}

// renderEvidence formats the bundle into the two prompt blocks, spending
// the token budget on vector contexts first and facts with the remainder.
func renderEvidence(evidence *common.EvidenceBundle) (string, string) {
	if evidence == nil {
		evidence = &common.EvidenceBundle{}
	}

	budget := evidenceTokenBudget
	contexts := takeWithinBudget(evidence.VectorContexts, &budget)

	factLines := make([]string, 0, len(evidence.GraphFacts))
	for _, fact := range evidence.GraphFacts {
		line := fmt.Sprintf("- %s %s %s", fact.Entity1, fact.Relationship, fact.Entity2)
		if fact.Value != "" {
			line += fmt.Sprintf(" (%s)", fact.Value)
		}
		factLines = append(factLines, line)
	}
	factLines = takeWithinBudget(factLines, &budget)

	vectorBlock := "No relevant document contexts found."
	if len(contexts) > 0 {
		vectorBlock = strings.Join(contexts, "\n\n")
	}

	factBlock := "No relevant knowledge graph facts found."
	if len(factLines) > 0 {
		factBlock = "Relevant financial facts:\n" + strings.Join(factLines, "\n")
	}
	return vectorBlock, factBlock
}

// takeWithinBudget returns the leading items that fit the remaining token
// budget, decrementing it. If the tokenizer is unavailable everything is
// kept.
func takeWithinBudget(items []string, budget *int) []string {
	if len(items) == 0 {
		return items
	}

	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		logger.Warn("[Advisor] Tokenizer unavailable, skipping evidence budgeting", "err", err)
		return items
	}

	kept := make([]string, 0, len(items))
	for _, item := range items {
		cost := len(encoding.Encode(item, nil, nil))
		if cost > *budget {
			break
		}
		*budget -= cost
		kept = append(kept, item)
	}
	return kept
}
