package http

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/labelcheck/backend/internal/domain"
	"github.com/labelcheck/backend/internal/usecase"
)

// allowedImageTypes lists the declared mime types accepted for upload.
var allowedImageTypes = map[string]bool{
	"image/gif":  true,
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
	"image/tiff": true,
	"image/bmp":  true,
}

// verifyResponse is the body of a mechanically completed verification.
// Success carries the overall verdict; an unmatched field is not an error.
type verifyResponse struct {
	Success  bool                   `json:"success"`
	Reason   string                 `json:"reason"`
	Attempts int                    `json:"attempts"`
	Fields   domain.SubmittedFields `json:"fields"`
	Found    []string               `json:"found"`
	Missing  []string               `json:"missing"`
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	verification   *usecase.VerificationService
	maxUploadBytes int64
}

// NewHandler creates a new HTTP handler
func NewHandler(verification *usecase.VerificationService, maxUploadBytes int64) *Handler {
	return &Handler{
		verification:   verification,
		maxUploadBytes: maxUploadBytes,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "labelcheck-backend",
		"version": "1.0.0",
	})
}

// VerifyLabel handles one multipart upload: validate the file, run the OCR
// pipeline and map every outcome to a JSON response.
func (h *Handler) VerifyLabel(c *gin.Context) {
	if h.verification == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"reason":  "verification service not configured",
		})
		return
	}

	var fields domain.SubmittedFields
	if err := c.ShouldBind(&fields); err != nil {
		// Binding failures on optional text fields are upload parse errors.
		h.rejectUpload(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.rejectUpload(c, err)
		return
	}

	if fileHeader.Size > h.maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"reason":  fmt.Sprintf("%v (limit %d bytes)", domain.ErrFileTooLarge, h.maxUploadBytes),
		})
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if !allowedImageTypes[mimeType] {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"reason":  fmt.Sprintf("%v: %s", domain.ErrNotAnImage, mimeType),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.internalError(c, err)
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		h.internalError(c, err)
		return
	}

	report, err := h.verification.VerifyLabel(c.Request.Context(), image, fileHeader.Filename, mimeType, fields)
	if err != nil {
		h.upstreamError(c, err)
		return
	}

	c.JSON(http.StatusOK, verifyResponse{
		Success:  report.Verified,
		Reason:   verdictReason(report.Checks),
		Attempts: report.Attempts,
		Fields:   report.Fields,
		Found:    report.Checks.Found,
		Missing:  report.Checks.Missing,
	})
}

// rejectUpload maps multipart parse failures to a 400 with a specific
// reason, distinguishing an oversized body from a missing file.
func (h *Handler) rejectUpload(c *gin.Context, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"reason":  fmt.Sprintf("%v (limit %d bytes)", domain.ErrFileTooLarge, h.maxUploadBytes),
		})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"reason":  domain.ErrNoFile.Error(),
	})
}

// upstreamError maps the typed errors from the verification service to
// HTTP responses: transport and vendor-status failures are 502, a vendor
// payload error code is 400.
func (h *Handler) upstreamError(c *gin.Context, err error) {
	var transportErr *domain.TransportError
	if errors.As(err, &transportErr) {
		reason := "OCR service did not respond"
		if transportErr.TimedOut {
			reason = "OCR service timed out"
		}
		c.JSON(http.StatusBadGateway, gin.H{
			"success":  false,
			"reason":   reason,
			"attempts": transportErr.Attempts,
		})
		return
	}

	var statusErr *domain.VendorStatusError
	if errors.As(err, &statusErr) {
		resp := gin.H{
			"success":   false,
			"reason":    fmt.Sprintf("OCR service returned status %d", statusErr.StatusCode),
			"attempts":  statusErr.Attempts,
			"apiStatus": statusErr.StatusCode,
			"apiBody":   statusErr.Body,
		}
		if statusErr.ErrorCode != 0 {
			resp["apiErrorCode"] = statusErr.ErrorCode
		}
		c.JSON(http.StatusBadGateway, resp)
		return
	}

	var payloadErr *domain.VendorPayloadError
	if errors.As(err, &payloadErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success":      false,
			"reason":       fmt.Sprintf("OCR engine could not parse the image (exit code %d)", payloadErr.ExitCode),
			"attempts":     payloadErr.Attempts,
			"apiErrorCode": payloadErr.ExitCode,
		})
		return
	}

	h.internalError(c, err)
}

func (h *Handler) internalError(c *gin.Context, err error) {
	log.Printf("[HTTP] internal error: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"reason":  "internal server error",
	})
}

// verdictReason renders the verification outcome for humans.
func verdictReason(checks domain.LabelChecks) string {
	switch {
	case len(checks.Found) == 0 && len(checks.Missing) == 0:
		return "no fields were submitted for verification"
	case len(checks.Missing) == 0:
		return "all submitted fields were found on the label"
	default:
		return "fields not found on label: " + strings.Join(checks.Missing, ", ")
	}
}
