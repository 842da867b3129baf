package gemini

import (
	"errors"
	"fmt"

	"google.golang.org/api/googleapi"
)

var (
	// ErrAuth means the API key was rejected.
	ErrAuth = errors.New("gemini authentication failed")
	// ErrRateLimit means the quota was exhausted.
	ErrRateLimit = errors.New("gemini rate limit exceeded")
	// ErrBadRequest means the request or model name was rejected.
	ErrBadRequest = errors.New("gemini request rejected")
	// ErrTransient covers server and network failures worth retrying.
	ErrTransient = errors.New("gemini temporary failure")
)

func classifyGeminiError(err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == 401 || gerr.Code == 403:
			return fmt.Errorf("%w (%d)", ErrAuth, gerr.Code)
		case gerr.Code == 429:
			return fmt.Errorf("%w (%d)", ErrRateLimit, gerr.Code)
		case gerr.Code >= 500:
			return fmt.Errorf("%w (%d)", ErrTransient, gerr.Code)
		default:
			return fmt.Errorf("%w (%d)", ErrBadRequest, gerr.Code)
		}
	}

	// Raw messages may echo the conversation, so they are not wrapped.
	return ErrTransient
}

// IsRetryable reports whether a later attempt may succeed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrRateLimit)
}
