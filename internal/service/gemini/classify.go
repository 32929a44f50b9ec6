package gemini

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/pkg/errors"
)

// Reasons the API attaches to google.rpc.ErrorInfo details when the key
// itself is the problem.
var credentialReasons = map[string]bool{
	"API_KEY_INVALID":               true,
	"API_KEY_EXPIRED":               true,
	"API_KEY_SERVICE_BLOCKED":       true,
	"API_KEY_HTTP_REFERRER_BLOCKED": true,
	"SERVICE_DISABLED":              true,
	"BILLING_DISABLED":              true,
}

// Classify converts a failure from the genai SDK into an AppError whose code
// carries the error kind. fallback is the code for ordinary service
// failures (plan vs image API).
func Classify(err error, fallback string) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.As(err); ok {
		return err
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return errors.Wrap(err, fallback, "model request timed out")
	}

	apiErr, ok := asAPIError(err)
	if !ok {
		return errors.Wrap(err, fallback, "model request failed")
	}

	if isCredentialFailure(apiErr) {
		return errors.Credential(apiErr.Message, err)
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED":
		return errors.Wrap(err, errors.ErrCodeRateLimited, apiErr.Message)
	default:
		return errors.Wrap(err, fallback, apiErr.Message)
	}
}

func asAPIError(err error) (genai.APIError, bool) {
	var v genai.APIError
	if stderrors.As(err, &v) {
		return v, true
	}
	var p *genai.APIError
	if stderrors.As(err, &p) && p != nil {
		return *p, true
	}
	return genai.APIError{}, false
}

// isCredentialFailure covers a missing, invalid or unentitled key. A 404 on
// generateContent means the key cannot see the model ("Requested entity was
// not found"), which the user fixes by connecting another key.
func isCredentialFailure(e genai.APIError) bool {
	switch e.Code {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	switch e.Status {
	case "UNAUTHENTICATED", "PERMISSION_DENIED", "NOT_FOUND":
		return true
	}
	for _, d := range e.Details {
		if reason, ok := d["reason"].(string); ok {
			if credentialReasons[reason] || strings.HasPrefix(reason, "API_KEY") {
				return true
			}
		}
	}
	return false
}
