package oracle

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/deusflow/newsclip/internal/ratelimit"
	"github.com/googleapis/gax-go/v2/apierror"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/googleapi"
)

var (
	// ErrRateLimited marks a completion refused because of quota or rate limits.
	// It is the only error the call protocol retries.
	ErrRateLimited = errors.New("oracle rate limited")
	// ErrEmptyResponse is returned when the backend answered with no text.
	ErrEmptyResponse = errors.New("oracle returned empty response")
	// ErrBudgetExhausted is returned once the per-run request budget is spent.
	ErrBudgetExhausted = ratelimit.ErrBudgetExhausted
)

// Prompt is one completion request.
type Prompt struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
}

// Completer is a text generation backend.
type Completer interface {
	Name() string
	Complete(ctx context.Context, p Prompt) (string, error)
}

// IsRateLimited reports whether err is a rate-limit or quota signal from any backend.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusTooManyRequests {
		return true
	}
	var aerr *apierror.APIError
	if errors.As(err, &aerr) && aerr.HTTPCode() == http.StatusTooManyRequests {
		return true
	}
	var oerr *openai.APIError
	if errors.As(err, &oerr) && oerr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}
	var rerr *openai.RequestError
	if errors.As(err, &rerr) && rerr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "resource_exhausted")
}
