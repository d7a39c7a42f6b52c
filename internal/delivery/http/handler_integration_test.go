package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/labelcheck/backend/config"
	"github.com/labelcheck/backend/internal/domain"
	"github.com/labelcheck/backend/internal/infrastructure/ocrspace"
	"github.com/labelcheck/backend/internal/usecase"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	// Set Gin to test mode once for all tests
	gin.SetMode(gin.TestMode)

	exitCode := m.Run()

	os.Exit(exitCode)
}

const testMaxUploadBytes = 1 << 20

// setupTestRouter wires a real OCR client against the given fake vendor URL.
func setupTestRouter(vendorURL string) *gin.Engine {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"*"},
		},
		OCR: config.OCRConfig{
			APIKey:  "test-api-key",
			BaseURL: vendorURL,
			Engine:  "1",
		},
		Upload: config.UploadConfig{
			MaxBytes: testMaxUploadBytes,
		},
	}

	client := ocrspace.NewClient(cfg.OCR.APIKey, cfg.OCR.BaseURL, cfg.OCR.Engine)
	service := usecase.NewVerificationService(client, false)
	handler := NewHandler(service, cfg.Upload.MaxBytes)

	return SetupRouter(cfg, handler)
}

// fakeVendor counts calls and serves a fixed status and body.
func fakeVendor(status int, body string) (*httptest.Server, *int) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	return server, &calls
}

// uploadRequest builds a multipart upload with an optional file part.
func uploadRequest(t *testing.T, fields map[string]string, filename, mimeType string, fileBody []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("WriteField(%s) error: %v", name, err)
		}
	}

	if filename != "" {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
		header.Set("Content-Type", mimeType)
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("CreatePart error: %v", err)
		}
		if _, err := part.Write(fileBody); err != nil {
			t.Fatalf("file write error: %v", err)
		}
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("multipart close error: %v", err)
	}

	req, _ := http.NewRequest("POST", "/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response %q: %v", w.Body.String(), err)
	}
	return response
}

func TestHealthCheckEndpoint(t *testing.T) {
	router := setupTestRouter("http://vendor.invalid")

	req, _ := http.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	response := decodeBody(t, w)
	if response["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", response["status"])
	}
	if response["service"] != "labelcheck-backend" {
		t.Errorf("service = %v, want labelcheck-backend", response["service"])
	}
}

func TestUpload_NoFile(t *testing.T) {
	server, calls := fakeVendor(http.StatusOK, `{}`)
	defer server.Close()

	router := setupTestRouter(server.URL)

	req := uploadRequest(t, map[string]string{"brandName": "Old Tom's"}, "", "", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	response := decodeBody(t, w)
	if response["success"] != false {
		t.Errorf("success = %v, want false", response["success"])
	}
	reason, _ := response["reason"].(string)
	if !strings.Contains(reason, "select an image") {
		t.Errorf("reason = %q, want to mention selecting an image", reason)
	}
	if *calls != 0 {
		t.Errorf("vendor calls = %d, want 0", *calls)
	}
}

func TestUpload_NotAnImage(t *testing.T) {
	server, calls := fakeVendor(http.StatusOK, `{}`)
	defer server.Close()

	router := setupTestRouter(server.URL)

	req := uploadRequest(t, nil, "notes.txt", "text/plain", []byte("plain text"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	response := decodeBody(t, w)
	reason, _ := response["reason"].(string)
	if !strings.Contains(reason, "not a supported image type") {
		t.Errorf("reason = %q, want to mention unsupported image type", reason)
	}
	if *calls != 0 {
		t.Errorf("vendor calls = %d, want 0", *calls)
	}
}

func TestUpload_FileTooLarge(t *testing.T) {
	server, calls := fakeVendor(http.StatusOK, `{}`)
	defer server.Close()

	router := setupTestRouter(server.URL)

	oversized := make([]byte, testMaxUploadBytes+1)
	req := uploadRequest(t, nil, "huge.png", "image/png", oversized)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	response := decodeBody(t, w)
	reason, _ := response["reason"].(string)
	if !strings.Contains(reason, "too large") {
		t.Errorf("reason = %q, want to mention size limit", reason)
	}
	if *calls != 0 {
		t.Errorf("vendor calls = %d, want 0", *calls)
	}
}

func TestUpload_VerifiedLabel(t *testing.T) {
	vendorBody, _ := json.Marshal(domain.OCRResponse{
		ParsedResults: []domain.OCRParsedResult{
			{ParsedText: "old toms gin"},
			{ParsedText: "london dry gin 40% abv"},
		},
		OCRExitCode: domain.OCRExitCodeParsed,
	})
	server, calls := fakeVendor(http.StatusOK, string(vendorBody))
	defer server.Close()

	router := setupTestRouter(server.URL)

	req := uploadRequest(t, map[string]string{
		"brandName":      "Old Tom's",
		"productClass":   "London Dry Gin",
		"alcoholContent": "40",
	}, "label.png", "image/png", []byte("fake-image"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d (body %s)", w.Code, http.StatusOK, w.Body.String())
	}

	response := decodeBody(t, w)
	if response["success"] != true {
		t.Errorf("success = %v, want true", response["success"])
	}
	if response["attempts"] != float64(1) {
		t.Errorf("attempts = %v, want 1", response["attempts"])
	}
	found, _ := response["found"].([]interface{})
	if len(found) != 3 {
		t.Errorf("found = %v, want all three fields", response["found"])
	}
	missing, _ := response["missing"].([]interface{})
	if len(missing) != 0 {
		t.Errorf("missing = %v, want empty", response["missing"])
	}
	fields, _ := response["fields"].(map[string]interface{})
	if fields["brandName"] != "Old Tom's" {
		t.Errorf("fields.brandName = %v, want echoed submission", fields["brandName"])
	}
	if *calls != 1 {
		t.Errorf("vendor calls = %d, want 1", *calls)
	}
}

func TestUpload_MissingFieldIsStillHTTP200(t *testing.T) {
	vendorBody, _ := json.Marshal(domain.OCRResponse{
		ParsedResults: []domain.OCRParsedResult{
			{ParsedText: "old toms gin\nlondon dry gin"},
		},
		OCRExitCode: domain.OCRExitCodeParsed,
	})
	server, _ := fakeVendor(http.StatusOK, string(vendorBody))
	defer server.Close()

	router := setupTestRouter(server.URL)

	req := uploadRequest(t, map[string]string{
		"brandName":      "Old Tom's",
		"productClass":   "London Dry Gin",
		"alcoholContent": "40",
	}, "label.png", "image/png", []byte("fake-image"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	response := decodeBody(t, w)
	if response["success"] != false {
		t.Errorf("success = %v, want false", response["success"])
	}
	missing, _ := response["missing"].([]interface{})
	if len(missing) != 1 || missing[0] != "alcoholContent" {
		t.Errorf("missing = %v, want [alcoholContent]", response["missing"])
	}
	reason, _ := response["reason"].(string)
	if !strings.Contains(reason, "alcoholContent") {
		t.Errorf("reason = %q, want to name the missing field", reason)
	}
}

func TestUpload_VendorUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	router := setupTestRouter(server.URL)

	req := uploadRequest(t, map[string]string{"brandName": "Old Tom's"}, "label.png", "image/png", []byte("fake-image"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusBadGateway)
	}

	response := decodeBody(t, w)
	if response["success"] != false {
		t.Errorf("success = %v, want false", response["success"])
	}
	reason, _ := response["reason"].(string)
	if !strings.Contains(reason, "did not respond") {
		t.Errorf("reason = %q, want the non-timeout transport reason", reason)
	}
	if response["attempts"] != float64(1) {
		t.Errorf("attempts = %v, want 1 (connection errors are not retried)", response["attempts"])
	}
}

func TestUpload_VendorTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Exceed the per-attempt timeout without answering.
		time.Sleep(300 * time.Millisecond)
	}))
	defer slow.Close()

	cfg := &config.Config{
		Server: config.ServerConfig{Environment: "test", AllowedOrigins: []string{"*"}},
		OCR:    config.OCRConfig{APIKey: "test-api-key", BaseURL: slow.URL, Engine: "1"},
		Upload: config.UploadConfig{MaxBytes: testMaxUploadBytes},
	}
	client := ocrspace.NewClient(cfg.OCR.APIKey, cfg.OCR.BaseURL, cfg.OCR.Engine)
	client.SetAttemptTimeout(100 * time.Millisecond)
	service := usecase.NewVerificationService(client, false)
	handler := NewHandler(service, cfg.Upload.MaxBytes)
	router := SetupRouter(cfg, handler)

	req := uploadRequest(t, map[string]string{"brandName": "Old Tom's"}, "label.png", "image/png", []byte("fake-image"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusBadGateway)
	}

	response := decodeBody(t, w)
	if response["success"] != false {
		t.Errorf("success = %v, want false", response["success"])
	}
	reason, _ := response["reason"].(string)
	if !strings.Contains(reason, "timed out") {
		t.Errorf("reason = %q, want the timeout-specific reason", reason)
	}
	if response["attempts"] != float64(3) {
		t.Errorf("attempts = %v, want 3 (timeouts are retried to exhaustion)", response["attempts"])
	}
}

func TestUpload_VendorClientError(t *testing.T) {
	server, calls := fakeVendor(http.StatusBadRequest, `{"OCRExitCode":99}`)
	defer server.Close()

	router := setupTestRouter(server.URL)

	req := uploadRequest(t, map[string]string{"brandName": "Old Tom's"}, "label.png", "image/png", []byte("fake-image"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusBadGateway)
	}

	response := decodeBody(t, w)
	if response["apiStatus"] != float64(http.StatusBadRequest) {
		t.Errorf("apiStatus = %v, want 400", response["apiStatus"])
	}
	if response["apiErrorCode"] != float64(99) {
		t.Errorf("apiErrorCode = %v, want 99", response["apiErrorCode"])
	}
	if response["attempts"] != float64(1) {
		t.Errorf("attempts = %v, want 1 (4xx is not retried)", response["attempts"])
	}
	if *calls != 1 {
		t.Errorf("vendor calls = %d, want 1", *calls)
	}
}

func TestUpload_VendorPayloadError(t *testing.T) {
	server, _ := fakeVendor(http.StatusOK, `{"OCRExitCode":3,"IsErroredOnProcessing":true}`)
	defer server.Close()

	router := setupTestRouter(server.URL)

	req := uploadRequest(t, map[string]string{"brandName": "Old Tom's"}, "label.png", "image/png", []byte("fake-image"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	response := decodeBody(t, w)
	if response["apiErrorCode"] != float64(3) {
		t.Errorf("apiErrorCode = %v, want 3", response["apiErrorCode"])
	}
	reason, _ := response["reason"].(string)
	if !strings.Contains(reason, "exit code 3") {
		t.Errorf("reason = %q, want to surface exit code", reason)
	}
}

func TestUpload_ServiceNotConfigured(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{Environment: "test", AllowedOrigins: []string{"*"}},
		Upload: config.UploadConfig{MaxBytes: testMaxUploadBytes},
	}
	handler := NewHandler(nil, cfg.Upload.MaxBytes)
	router := SetupRouter(cfg, handler)

	req := uploadRequest(t, nil, "label.png", "image/png", []byte("fake-image"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}
