package clients

import "fmt"

// TransportError indicates a call that could not complete: connection refused,
// DNS failure, timeout, or a canceled context. The remote never produced a
// usable response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UploadError indicates the processing service accepted the call but reported
// that it could not store or process the document.
type UploadError struct {
	StatusCode int
	Message    string
}

func (e *UploadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("document upload rejected (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("document upload rejected: %s", e.Message)
}

// ConflictError indicates the device registry rejected a registration because
// a device with the same identity already exists.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("device already registered: %s", e.Message)
}

// RegistrationValidationError indicates the device registry rejected the
// submitted draft as malformed.
type RegistrationValidationError struct {
	StatusCode int
	Message    string
}

func (e *RegistrationValidationError) Error() string {
	return fmt.Sprintf("device registration rejected (status %d): %s", e.StatusCode, e.Message)
}

// RulesGenerationError indicates the rules-generation call failed. It is never
// surfaced to onboarding callers; the workflow absorbs it via the fallback
// generator.
type RulesGenerationError struct {
	Op  string
	Err error
}

func (e *RulesGenerationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RulesGenerationError) Unwrap() error {
	return e.Err
}
