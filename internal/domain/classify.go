package domain

import (
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"
)

// ErrorClass is the taxonomy the trigger loop uses to decide a message's
// fate. Classification happens only at the loop boundary; the coordinator
// decides SUCCEEDED/FAILED and suppression, never ack/retry.
type ErrorClass int

const (
	// ErrClassNone: no escaping error; the message is consumed.
	ErrClassNone ErrorClass = iota
	// ErrClassValidation: parameter/precondition failure. Normally
	// suppressed inside the scope; consumed without retry if it escapes.
	ErrClassValidation
	// ErrClassUnrecoverableAPI: the tracking service rejected a call
	// permanently (bad request / not found). Consumed — redelivery would
	// loop forever against a permanently-rejecting API.
	ErrClassUnrecoverableAPI
	// ErrClassRecoverableAPI: any other tracking-service failure.
	// Returned to the queue for redelivery.
	ErrClassRecoverableAPI
	// ErrClassTimeout: the run exceeded its wall-clock deadline.
	ErrClassTimeout
	// ErrClassUnknown: anything else. Neither acked nor nacked; the
	// queue's lease expiry redelivers.
	ErrClassUnknown
)

// Classify maps an error that escaped a coordinator scope onto the taxonomy.
// Remote-API classification keys off the HTTP status carried by
// *googleapi.Error, matching the tracking service's REST surface.
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrClassNone
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return ErrClassValidation
	}
	var terr *TimeoutError
	if errors.As(err, &terr) {
		return ErrClassTimeout
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == http.StatusBadRequest || gerr.Code == http.StatusNotFound {
			return ErrClassUnrecoverableAPI
		}
		return ErrClassRecoverableAPI
	}
	return ErrClassUnknown
}
