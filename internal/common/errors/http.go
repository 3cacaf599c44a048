// internal/common/errors/http.go
package errors

import "net/http"

// HTTPStatus maps an error code to the status returned by the action API.
// PARTIAL_CASCADE_FAILURE maps to 200: the primary action succeeded and the
// failure report travels in the response body.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusForbidden
	case ErrCodeInvalidTransition, ErrCodeMissingField:
		return http.StatusUnprocessableEntity
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodePartialCascadeFailure:
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}
