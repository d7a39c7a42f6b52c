package domain

import "context"

// OCRClient defines the interface for sending an image to the OCR vendor.
// The returned result always carries the attempt count; transport failures
// are reported inside the result rather than as an error so that callers
// can surface diagnostics uniformly.
type OCRClient interface {
	Parse(ctx context.Context, image []byte, filename, mimeType string) *OCRCallResult
}
