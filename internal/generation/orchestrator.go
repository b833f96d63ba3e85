package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"brandforge/internal/airtable"
	"brandforge/internal/logger"
)

// rateLimitThreshold is how many rate-limit-class failures are tolerated
// across the whole candidate chain before aborting outright. Hitting the
// threshold means the user is throttled everywhere and burning the
// remaining candidates would only dig the hole deeper.
const rateLimitThreshold = 2

// ErrRateLimitExceeded is returned when the chain saw rateLimitThreshold
// rate-limit-class failures, or when the chain was exhausted and the last
// failure was rate-limit class.
var ErrRateLimitExceeded = errors.New("too many rate limited generation attempts")

// ExhaustedError is returned when every candidate failed.
type ExhaustedError struct {
	Attempts int   // How many candidates were tried
	LastErr  error // The last raw failure
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all %d generation candidates failed: %v", e.Attempts, e.LastErr)
}

func (e *ExhaustedError) Unwrap() error {
	return e.LastErr
}

// ModelRef names one generation backend candidate as provider plus model.
type ModelRef struct {
	Provider string `json:"provider"` // e.g. "gemini", "openai"
	Model    string `json:"model"`    // Provider-specific model name
}

func (m ModelRef) String() string {
	return m.Provider + "/" + m.Model
}

// ParseModelRef parses "provider/model". A ref without a slash is treated
// as a bare model on the gemini provider.
func ParseModelRef(s string) ModelRef {
	provider, model, ok := strings.Cut(s, "/")
	if !ok {
		return ModelRef{Provider: "gemini", Model: s}
	}
	return ModelRef{Provider: provider, Model: model}
}

// Result carries a successful generation together with the candidate that
// produced it. Substituted is set when the winner differs from the
// preferred candidate, so the caller can reflect the change back into its
// persisted settings.
type Result[T any] struct {
	Value       T
	Winner      ModelRef
	Substituted bool
}

// ExecuteWithFallback runs task against the preferred candidate first and
// then against each fallback candidate in order (the preferred one is not
// tried twice if it also appears in the fallback list). The first success
// wins and the remaining candidates are never tried.
//
// Failures advance to the next candidate. Rate-limit-class failures are
// additionally counted; reaching rateLimitThreshold aborts immediately
// with ErrRateLimitExceeded even if untried candidates remain.
//
// The function has no side effects beyond invoking task; persistence,
// credential gating and UI state are composed around it by the caller.
func ExecuteWithFallback[T any](ctx context.Context, preferred ModelRef, fallbackOrder []ModelRef, task func(context.Context, ModelRef) (T, error)) (Result[T], error) {
	var zero Result[T]
	candidates := candidateChain(preferred, fallbackOrder)

	rateLimitHits := 0
	var lastErr error
	for _, candidate := range candidates {
		value, err := task(ctx, candidate)
		if err == nil {
			result := Result[T]{Value: value, Winner: candidate, Substituted: candidate != preferred}
			if result.Substituted {
				logger.Info("generation fell back to another candidate", "preferred", preferred.String(), "winner", candidate.String())
			}
			return result, nil
		}

		lastErr = err
		if IsRateLimit(err) {
			rateLimitHits++
			logger.Warn("generation candidate rate limited", "candidate", candidate.String(), "hits", rateLimitHits)
			if rateLimitHits >= rateLimitThreshold {
				return zero, fmt.Errorf("%w: %v", ErrRateLimitExceeded, err)
			}
		} else {
			logger.Warn("generation candidate failed", "candidate", candidate.String(), "error", err.Error())
		}
	}

	if lastErr != nil && IsRateLimit(lastErr) {
		return zero, fmt.Errorf("%w: %v", ErrRateLimitExceeded, lastErr)
	}
	return zero, &ExhaustedError{Attempts: len(candidates), LastErr: lastErr}
}

// candidateChain is the preferred candidate followed by the fallback order
// with the preferred candidate deduplicated, preserving relative order.
func candidateChain(preferred ModelRef, fallbackOrder []ModelRef) []ModelRef {
	chain := []ModelRef{preferred}
	for _, ref := range fallbackOrder {
		if ref != preferred {
			chain = append(chain, ref)
		}
	}
	return chain
}

// rateLimitSignatures are the substrings provider errors carry when the
// failure is a throttle rather than a hard error.
var rateLimitSignatures = []string{
	"429",
	"rate limit",
	"rate_limit",
	"too many requests",
	"resource_exhausted",
	"quota",
}

// IsRateLimit classifies an error as rate-limit class.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimitExceeded) || errors.Is(err, airtable.ErrRateLimited) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, signature := range rateLimitSignatures {
		if strings.Contains(msg, signature) {
			return true
		}
	}
	return false
}
