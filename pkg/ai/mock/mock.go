package mock

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/lumen-fi/advisor/pkg/ai"
)

// MockAIClient is a test double for ai.AdvisorAIClient. It allows custom
// behavior injection via function fields; unset fields fall back to
// deterministic defaults so tests stay reproducible.
type MockAIClient struct {
	// CompletionFunc is called by GenerateCompletion if set.
	CompletionFunc func(ctx context.Context, prompt string) (string, error)

	// CompletionWithFormatFunc is called by GenerateCompletionWithFormat if set.
	CompletionWithFormatFunc func(ctx context.Context, name, description, prompt string, out any) error

	// EmbeddingFunc is called for every embedded input if set.
	EmbeddingFunc func(ctx context.Context, input []byte) ([]float32, error)

	// Dimensions sets the default embedding width. Zero means 768.
	Dimensions int

	completionCalls int
	embeddingCalls  int
}

// NewMockAIClient creates a mock client with deterministic defaults.
func NewMockAIClient() *MockAIClient {
	return &MockAIClient{}
}

func (m *MockAIClient) dim() int {
	if m.Dimensions > 0 {
		return m.Dimensions
	}
	return 768
}

// GenerateCompletion returns the scripted completion, or an empty string by
// default.
func (m *MockAIClient) GenerateCompletion(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (string, error) {
	m.completionCalls++
	if m.CompletionFunc != nil {
		return m.CompletionFunc(ctx, prompt)
	}
	return "", nil
}

// GenerateCompletionWithFormat runs the scripted structured completion, or
// leaves out untouched by default.
func (m *MockAIClient) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	m.completionCalls++
	if m.CompletionWithFormatFunc != nil {
		return m.CompletionWithFormatFunc(ctx, name, description, prompt, out)
	}
	return nil
}

// GenerateEmbedding returns a deterministic vector derived from the input
// hash, so equal texts embed equally and different texts diverge.
func (m *MockAIClient) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	m.embeddingCalls++
	if m.EmbeddingFunc != nil {
		return m.EmbeddingFunc(ctx, input)
	}
	return deterministicVector(string(input), m.dim()), nil
}

// GenerateEmbeddings returns deterministic vectors for each input.
func (m *MockAIClient) GenerateEmbeddings(ctx context.Context, inputs [][]byte) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i, input := range inputs {
		vec, err := m.GenerateEmbedding(ctx, input)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// CompletionCalls returns how many completion methods were invoked.
func (m *MockAIClient) CompletionCalls() int {
	return m.completionCalls
}

// EmbeddingCalls returns how many embedding calls were made.
func (m *MockAIClient) EmbeddingCalls() int {
	return m.embeddingCalls
}

func deterministicVector(text string, dim int) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, dim)
	var norm float64
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		v := float64(int64(seed>>11)) / float64(1<<52)
		vec[i] = float32(v)
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec
}
