package ocrspace

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"time"

	"github.com/labelcheck/backend/internal/domain"
	"golang.org/x/time/rate"
)

const (
	maxAttempts           = 3
	defaultAttemptTimeout = 60 * time.Second
	baseBackoff           = 1000 * time.Millisecond
)

// Client handles communication with the OCR.space parse API
type Client struct {
	httpClient     *http.Client
	apiKey         string
	baseURL        string
	engine         string
	rateLimiter    *rate.Limiter
	attemptTimeout time.Duration
	sleep          func(time.Duration)
	debug          bool
}

// NewClient creates a new OCR.space API client
func NewClient(apiKey, baseURL, engine string) *Client {
	// OCR.space free tier allows 500 requests per day, bursty
	limiter := rate.NewLimiter(rate.Limit(0.16), 10)

	return &Client{
		httpClient:     &http.Client{},
		apiKey:         apiKey,
		baseURL:        baseURL,
		engine:         engine,
		rateLimiter:    limiter,
		attemptTimeout: defaultAttemptTimeout,
		sleep:          time.Sleep,
	}
}

// SetDebug toggles verbose request logging
func (c *Client) SetDebug(enabled bool) {
	c.debug = enabled
}

// SetAttemptTimeout overrides the per-attempt timeout. Used by tests that
// exercise the timeout path without waiting out the production value.
func (c *Client) SetAttemptTimeout(d time.Duration) {
	c.attemptTimeout = d
}

func (c *Client) debugLog(format string, args ...interface{}) {
	if c.debug {
		log.Printf("[OCR] "+format, args...)
	}
}

// exponentialBackoff returns the delay before the retry following the given
// attempt: 1s, 2s, 4s, ...
func exponentialBackoff(attempt int) time.Duration {
	return baseBackoff << (attempt - 1)
}

// Parse posts the image to the OCR vendor and returns the transport-level
// outcome. Retry policy: up to 3 attempts, retrying only on a per-attempt
// timeout or a status >= 500; any other failure stops immediately. Any HTTP
// response received counts as transport success regardless of status —
// status interpretation belongs to the caller.
func (c *Client) Parse(ctx context.Context, image []byte, filename, mimeType string) *domain.OCRCallResult {
	result := &domain.OCRCallResult{Attempts: 1}

	payload, contentType, err := encodeMultipart(image, filename, mimeType, c.engine)
	if err != nil {
		result.Err = fmt.Errorf("%w: encode request: %v", domain.ErrOCRAPIFailure, err)
		return result
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result.Attempts = attempt

		if err := c.rateLimiter.Wait(ctx); err != nil {
			result.Err = fmt.Errorf("%w: rate limiter: %v", domain.ErrOCRAPIFailure, err)
			return result
		}

		status, body, err := c.doAttempt(ctx, payload, contentType)
		if err != nil {
			// Drop any response state from an earlier attempt: a timeout
			// after a retried 5xx is a transport failure, not that 5xx.
			result.Success = false
			result.StatusCode = 0
			result.Body = nil
			result.ParsedText = ""
			result.ExitCode = 0
			result.HasExitCode = false

			result.Err = fmt.Errorf("%w: %v", domain.ErrOCRAPIFailure, err)
			result.TimedOut = isTimeout(err)
			c.debugLog("attempt %d/%d failed: %v", attempt, maxAttempts, err)

			// Only timeouts are retried among transport failures.
			if !result.TimedOut || attempt == maxAttempts {
				return result
			}
			c.sleep(exponentialBackoff(attempt))
			continue
		}

		result.Success = true
		result.StatusCode = status
		result.Body = body
		result.ParsedText = ExtractParsedText(body)
		result.ExitCode, result.HasExitCode = ExitCode(body)
		result.Err = nil
		result.TimedOut = false

		if status >= http.StatusInternalServerError && attempt < maxAttempts {
			c.debugLog("attempt %d/%d got status %d, retrying", attempt, maxAttempts, status)
			c.sleep(exponentialBackoff(attempt))
			continue
		}

		c.debugLog("status %d after %d attempt(s)", status, attempt)
		return result
	}

	return result
}

// doAttempt runs one HTTP exchange under the per-attempt timeout.
func (c *Client) doAttempt(ctx context.Context, payload []byte, contentType string) (int, []byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("User-Agent", "LabelCheck/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return resp.StatusCode, body, nil
}

// isTimeout classifies a transport error as a timeout, as opposed to DNS or
// connection failures which are not retried.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// encodeMultipart builds the vendor request body once; attempts re-read it
// from the same byte slice.
func encodeMultipart(image []byte, filename, mimeType, engine string) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", mimeType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", err
	}

	if err := writer.WriteField("OCREngine", engine); err != nil {
		return nil, "", err
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return buf.Bytes(), writer.FormDataContentType(), nil
}
