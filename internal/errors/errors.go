// Package errors defines the service-level error taxonomy and its mapping to
// HTTP responses. Keeps handlers clean by centralizing the translation.
package errors

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Swipe/match flow errors. Each stage of the swipe pipeline surfaces its own
// sentinel so callers can tell a failed write from a failed read: a failed
// reciprocity check means "unknown", never "no match".
var (
	// ErrSelfSwipe is returned when a profile tries to swipe on itself.
	ErrSelfSwipe = errors.New("cannot swipe on yourself")

	// ErrSwipeRecordingFailed means the decision could not be durably stored.
	// The flow must stop here; the reciprocity check is never attempted.
	ErrSwipeRecordingFailed = errors.New("swipe could not be recorded")

	// ErrReciprocityCheckFailed means the reciprocity read failed. The result
	// is indeterminate, not false.
	ErrReciprocityCheckFailed = errors.New("reciprocity check failed")

	// ErrMatchCreationFailed means neither the direct insert, the conflict
	// reconciliation read, nor the transactional fallback produced a readable
	// match row. The swipe itself stays recorded.
	ErrMatchCreationFailed = errors.New("match could not be created")

	// ErrProfileNotFound indicates the requested profile does not exist.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrMatchNotFound indicates the match does not exist or the caller is
	// not one of its participants.
	ErrMatchNotFound = errors.New("match not found")
)

// Stable machine-readable codes returned alongside HTTP statuses.
const (
	CodeBadRequest   = "bad_request"
	CodeUnauthorized = "unauthorized"
	CodeNotFound     = "not_found"
	CodeTimeout      = "timeout"
	CodeCanceled     = "canceled"
	CodeInternal     = "internal_error"

	// Domain-specific:
	CodeSwipeFailed       = "swipe_failed"
	CodeReciprocityFailed = "reciprocity_check_failed"
	CodeMatchFailed       = "match_failed"
)

// Map converts repo/service/infra errors into an HTTP status and a stable
// error code.
func Map(err error) (int, string) {
	switch {
	case errors.Is(err, ErrSelfSwipe):
		return http.StatusBadRequest, CodeBadRequest

	case errors.Is(err, ErrProfileNotFound),
		errors.Is(err, ErrMatchNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, CodeNotFound

	case errors.Is(err, ErrSwipeRecordingFailed):
		return http.StatusInternalServerError, CodeSwipeFailed

	case errors.Is(err, ErrReciprocityCheckFailed):
		return http.StatusInternalServerError, CodeReciprocityFailed

	case errors.Is(err, ErrMatchCreationFailed):
		return http.StatusInternalServerError, CodeMatchFailed

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, CodeTimeout

	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, CodeCanceled

	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// Respond writes the JSON error body for err and aborts the request.
//
// Example body:
//
//	{"code": "match_failed", "message": "match could not be created"}
func Respond(c *gin.Context, err error) {
	status, code := Map(err)
	c.AbortWithStatusJSON(status, gin.H{"code": code, "message": err.Error()})
}

// BadRequest aborts with a 400 and the given message.
// Use in handlers for input validation failures.
func BadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"code": CodeBadRequest, "message": msg})
}
