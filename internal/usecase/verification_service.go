package usecase

import (
	"context"
	"log"

	"github.com/labelcheck/backend/internal/domain"
)

// VerificationService orchestrates one label verification: it sends the
// image to the OCR vendor, interprets the outcome and compares the
// recognized text against the submitted fields. All state is request-scoped.
type VerificationService struct {
	ocr                domain.OCRClient
	enableDebugLogging bool
}

// NewVerificationService creates a new verification service
func NewVerificationService(ocr domain.OCRClient, enableDebugLogging bool) *VerificationService {
	return &VerificationService{
		ocr:                ocr,
		enableDebugLogging: enableDebugLogging,
	}
}

// VerifyLabel runs the full pipeline for one uploaded image. The returned
// error, when non-nil, is one of the typed upstream errors from the domain
// package; the HTTP layer maps those to status codes.
func (s *VerificationService) VerifyLabel(ctx context.Context, image []byte, filename, mimeType string, fields domain.SubmittedFields) (*domain.VerificationReport, error) {
	result := s.ocr.Parse(ctx, image, filename, mimeType)

	if !result.Success {
		log.Printf("[VERIFY] OCR transport failure after %d attempt(s): %v", result.Attempts, result.Err)
		return nil, &domain.TransportError{
			Attempts: result.Attempts,
			TimedOut: result.TimedOut,
			Err:      result.Err,
		}
	}

	if result.StatusCode < 200 || result.StatusCode >= 300 {
		log.Printf("[VERIFY] OCR API status %d after %d attempt(s)", result.StatusCode, result.Attempts)
		statusErr := &domain.VendorStatusError{
			StatusCode: result.StatusCode,
			Body:       string(result.Body),
			Attempts:   result.Attempts,
		}
		if result.HasExitCode {
			statusErr.ErrorCode = result.ExitCode
		}
		return nil, statusErr
	}

	// Vendor can answer 200 with a failure code embedded in the payload.
	// Unknown payload shapes carry no exit code and pass through leniently.
	if result.HasExitCode && !domain.IsSuccessExitCode(result.ExitCode) {
		log.Printf("[VERIFY] OCR API exit code %d", result.ExitCode)
		return nil, &domain.VendorPayloadError{
			ExitCode: result.ExitCode,
			Attempts: result.Attempts,
		}
	}

	checks := VerifyLabels(result.ParsedText, fields)
	report := &domain.VerificationReport{
		Verified: IsVerificationComplete(checks),
		Checks:   checks,
		Fields:   fields,
		Attempts: result.Attempts,
	}

	if s.enableDebugLogging {
		log.Printf("[VERIFY] parsed %d chars, found=%v missing=%v verified=%v",
			len(result.ParsedText), checks.Found, checks.Missing, report.Verified)
	}

	return report, nil
}
