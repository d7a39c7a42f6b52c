package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFile is returned when the upload contains no image file
	ErrNoFile = errors.New("please select an image to upload")

	// ErrNotAnImage is returned when the uploaded file is not a supported image type
	ErrNotAnImage = errors.New("uploaded file is not a supported image type")

	// ErrFileTooLarge is returned when the uploaded file exceeds the size limit
	ErrFileTooLarge = errors.New("uploaded image is too large")

	// ErrOCRAPIFailure is returned when the OCR vendor request fails at the transport level
	ErrOCRAPIFailure = errors.New("OCR API request failed")
)

// TransportError means no usable HTTP response was obtained from the OCR
// vendor after the retry policy was exhausted.
type TransportError struct {
	Attempts int
	TimedOut bool
	Err      error
}

func (e *TransportError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("OCR API timed out after %d attempt(s)", e.Attempts)
	}
	return fmt.Sprintf("OCR API unreachable after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// VendorStatusError means the OCR vendor answered with a non-2xx status.
type VendorStatusError struct {
	StatusCode int
	ErrorCode  int
	Body       string
	Attempts   int
}

func (e *VendorStatusError) Error() string {
	return fmt.Sprintf("OCR API returned status %d", e.StatusCode)
}

// VendorPayloadError means the vendor answered 2xx but embedded a
// non-success exit code in the payload.
type VendorPayloadError struct {
	ExitCode int
	Attempts int
}

func (e *VendorPayloadError) Error() string {
	return fmt.Sprintf("OCR API reported exit code %d", e.ExitCode)
}
