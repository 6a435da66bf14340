package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	oai "github.com/openai/openai-go/v3"
	"github.com/sony/gobreaker"

	"github.com/lumen-fi/advisor/pkg/logger"
)

// ApologyMessage is the fixed text returned to users when generation is
// unavailable after retries and fallback are exhausted. A query always
// returns some text; this is the floor.
const ApologyMessage = "Sorry, the language model is temporarily unavailable. Please try again in a few minutes."

// ErrRateLimited marks a provider response that should trigger immediate
// failover rather than retry.
var ErrRateLimited = errors.New("provider rate limited")

// ErrGenerationUnavailable is returned by the structured-output path when
// retries and fallback are exhausted. Callers degrade the sub-step; the
// user-facing Complete path maps it to ApologyMessage instead.
var ErrGenerationUnavailable = errors.New("generation unavailable")

// Failover wraps a primary AdvisorAIClient with retry, rate-limit failover
// and a circuit breaker.
//
// Policy: transient failures (5xx, network, timeout) are retried up to
// MaxRetries times with exponential backoff; a 429 switches to the fallback
// provider immediately; other 4xx errors are not retried. The breaker trips
// after consecutive primary failures so a dead provider is skipped without
// paying the retry cost on every call.
//
// Embedding calls go to the primary only: mixing embedding providers would
// change the vector space under the index.
type Failover struct {
	primary     AdvisorAIClient
	fallback    AdvisorAIClient
	breaker     *gobreaker.CircuitBreaker
	maxRetries  int
	backoffBase time.Duration
}

// NewFailoverParams configures a Failover gateway. Fallback may be nil, in
// which case exhaustion surfaces ErrGenerationUnavailable (or the apology
// string on the Complete path).
type NewFailoverParams struct {
	Primary     AdvisorAIClient
	Fallback    AdvisorAIClient
	MaxRetries  int
	BackoffBase time.Duration
}

// NewFailover creates a Failover gateway around the given providers.
func NewFailover(params NewFailoverParams) *Failover {
	maxRetries := params.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	backoffBase := params.BackoffBase
	if backoffBase <= 0 {
		backoffBase = 500 * time.Millisecond
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "generation-primary",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	return &Failover{
		primary:     params.Primary,
		fallback:    params.Fallback,
		breaker:     breaker,
		maxRetries:  maxRetries,
		backoffBase: backoffBase,
	}
}

type errClass int

const (
	errClassTransient errClass = iota
	errClassRateLimited
	errClassFatal
)

func classify(err error) errClass {
	var apiErr *oai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 429:
			return errClassRateLimited
		case apiErr.StatusCode >= 500:
			return errClassTransient
		case apiErr.StatusCode >= 400:
			return errClassFatal
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errClassTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return errClassTransient
	}
	// Unrecognized errors are treated as transient network conditions.
	return errClassTransient
}

// callPrimary runs fn against the primary provider through the breaker,
// retrying transient failures with exponential backoff. A rate-limit
// response or an open breaker returns ErrRateLimited so the caller fails
// over without further attempts.
func (f *Failover) callPrimary(ctx context.Context, fn func(context.Context) (string, error)) (string, error) {
	var lastErr error
	for attempt := 0; attempt < f.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		res, err := f.breaker.Execute(func() (any, error) {
			return fn(ctx)
		})
		if err == nil {
			return res.(string), nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: circuit open", ErrRateLimited)
		}
		if errors.Is(err, context.Canceled) {
			return "", err
		}

		switch classify(err) {
		case errClassRateLimited:
			return "", fmt.Errorf("%w: %w", ErrRateLimited, err)
		case errClassFatal:
			return "", err
		}

		lastErr = err
		if attempt < f.maxRetries-1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(f.backoffBase << uint(attempt)):
			}
		}
	}
	return "", lastErr
}

// GenerateCompletion runs the retry-and-failover policy and surfaces the
// terminal error. Internal callers (search-term derivation, fact
// extraction, preference inference) use this so a dead gateway degrades
// their sub-step instead of producing apology text inside a pipeline.
func (f *Failover) GenerateCompletion(
	ctx context.Context,
	prompt string,
	opts ...GenerateOption,
) (string, error) {
	res, err := f.callPrimary(ctx, func(c context.Context) (string, error) {
		return f.primary.GenerateCompletion(c, prompt, opts...)
	})
	if err == nil {
		return res, nil
	}
	if errors.Is(err, context.Canceled) {
		return "", err
	}
	if classify(err) == errClassFatal && !errors.Is(err, ErrRateLimited) {
		return "", fmt.Errorf("%w: %w", ErrGenerationUnavailable, err)
	}

	if f.fallback != nil {
		logger.Warn("[AI] Primary generation provider failed, using fallback", "err", err)
		res, fbErr := f.fallback.GenerateCompletion(ctx, prompt, opts...)
		if fbErr == nil {
			return res, nil
		}
		logger.Error("[AI] Fallback generation provider failed", "err", fbErr)
		return "", fmt.Errorf("%w: %w", ErrGenerationUnavailable, fbErr)
	}
	return "", fmt.Errorf("%w: %w", ErrGenerationUnavailable, err)
}

// GenerateCompletionWithFormat applies the same policy to structured
// generation. Decode failures from the provider are not retried here; the
// caller's parse-or-none contract handles them.
func (f *Failover) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...GenerateOption,
) error {
	_, err := f.callPrimary(ctx, func(c context.Context) (string, error) {
		return "", f.primary.GenerateCompletionWithFormat(c, name, description, prompt, out, opts...)
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if classify(err) == errClassFatal && !errors.Is(err, ErrRateLimited) {
		return fmt.Errorf("%w: %w", ErrGenerationUnavailable, err)
	}

	if f.fallback != nil {
		logger.Warn("[AI] Primary structured generation failed, using fallback", "err", err)
		fbErr := f.fallback.GenerateCompletionWithFormat(ctx, name, description, prompt, out, opts...)
		if fbErr == nil {
			return nil
		}
		logger.Error("[AI] Fallback structured generation failed", "err", fbErr)
		return fmt.Errorf("%w: %w", ErrGenerationUnavailable, fbErr)
	}
	return fmt.Errorf("%w: %w", ErrGenerationUnavailable, err)
}

// Complete is the user-facing generation entry point: it never returns an
// error, degrading to the fixed apology string when retries and fallback
// are exhausted.
func (f *Failover) Complete(
	ctx context.Context,
	prompt string,
	opts ...GenerateOption,
) string {
	res, err := f.GenerateCompletion(ctx, prompt, opts...)
	if err != nil {
		logger.Error("[AI] Generation unavailable, returning apology", "err", err)
		return ApologyMessage
	}
	return res
}

// GenerateEmbedding delegates to the primary provider with transient retry.
func (f *Failover) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	var lastErr error
	for attempt := 0; attempt < f.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		vec, err := f.primary.GenerateEmbedding(ctx, input)
		if err == nil {
			return vec, nil
		}
		if errors.Is(err, context.Canceled) || classify(err) == errClassFatal {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// GenerateEmbeddings delegates to the primary provider with transient retry.
func (f *Failover) GenerateEmbeddings(ctx context.Context, inputs [][]byte) ([][]float32, error) {
	var lastErr error
	for attempt := 0; attempt < f.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		vecs, err := f.primary.GenerateEmbeddings(ctx, inputs)
		if err == nil {
			return vecs, nil
		}
		if errors.Is(err, context.Canceled) || classify(err) == errClassFatal {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}
