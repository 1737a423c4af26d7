package booking

import "fmt"

// BookingError carries a stable code alongside the message so handlers can
// map engine failures without string matching.
type BookingError struct {
	Code    string
	Message string
}

func (e *BookingError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewValidationError flags malformed input rejected at the boundary.
func NewValidationError(msg string) error {
	return &BookingError{Code: "validationError", Message: msg}
}

// NewSystemError flags a persistence or internal failure.
func NewSystemError(msg string) error {
	return &BookingError{Code: "systemError", Message: msg}
}

// ErrBookingBusy signals that another booking for the same driver or rider is
// in flight and the caller should retry shortly.
var ErrBookingBusy = &BookingError{Code: "bookingBusy", Message: "another booking for this driver or rider is being processed"}
