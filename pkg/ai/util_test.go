package ai

import (
	"testing"
)

type factRow struct {
	Entity1      string `json:"entity1"`
	Relationship string `json:"relationship"`
	Entity2      string `json:"entity2"`
	Value        string `json:"value"`
}

func TestUnmarshalFlexibleCleanArray(t *testing.T) {
	input := `[{"entity1":"Apple","relationship":"reported","entity2":"revenue","value":"$365.8 billion"}]`

	var out []factRow
	if err := UnmarshalFlexible(input, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 fact, got %d", len(out))
	}
	if out[0].Entity1 != "Apple" || out[0].Value != "$365.8 billion" {
		t.Fatalf("unexpected fact: %+v", out[0])
	}
}

func TestUnmarshalFlexibleProseWrapped(t *testing.T) {
	input := `Here are the extracted facts:
[
    {"entity1": "interest rates", "relationship": "impacts", "entity2": "bond prices", "value": "inversely"}
]
Let me know if you need anything else.`

	var out []factRow
	if err := UnmarshalFlexible(input, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 fact, got %d", len(out))
	}
	if out[0].Relationship != "impacts" {
		t.Fatalf("unexpected relationship: %q", out[0].Relationship)
	}
}

func TestUnmarshalFlexibleRepairsTrailingComma(t *testing.T) {
	input := `{"risk_tolerance": "aggressive", "financial_goals": ["growth"],}`

	var out struct {
		RiskTolerance  string   `json:"risk_tolerance"`
		FinancialGoals []string `json:"financial_goals"`
	}
	if err := UnmarshalFlexible(input, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.RiskTolerance != "aggressive" {
		t.Fatalf("unexpected risk tolerance: %q", out.RiskTolerance)
	}
	if len(out.FinancialGoals) != 1 || out.FinancialGoals[0] != "growth" {
		t.Fatalf("unexpected goals: %v", out.FinancialGoals)
	}
}

func TestUnmarshalFlexibleNoJSON(t *testing.T) {
	var out []factRow
	if err := UnmarshalFlexible("I could not find any facts in this text.", &out); err == nil {
		t.Fatal("expected error for input without JSON")
	}
	if len(out) != 0 {
		t.Fatalf("target must stay untouched on failure, got %v", out)
	}
}

func TestSliceOutermostJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "array in prose",
			input: `sure: [1, 2] done`,
			want:  `[1, 2]`,
		},
		{
			name:  "object before array",
			input: `{"a": [1]} trailing`,
			want:  `{"a": [1]}`,
		},
		{
			name:  "no brackets",
			input: `nothing here`,
			want:  "",
		},
		{
			name:  "unclosed",
			input: `{"a": 1`,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sliceOutermostJSON(tt.input)
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
