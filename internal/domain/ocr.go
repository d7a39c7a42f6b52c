package domain

// OCRCallResult captures the transport-level outcome of one call to the OCR
// vendor, including how many attempts the retry loop used. A received HTTP
// response of any status counts as transport success; interpreting the
// status code is left to the caller.
type OCRCallResult struct {
	Success    bool
	StatusCode int
	Body       []byte

	// ParsedText and ExitCode are extracted from Body when a response was
	// received. HasExitCode distinguishes "exit code 0" from "no exit code
	// in the payload".
	ParsedText  string
	ExitCode    int
	HasExitCode bool

	Err      error
	TimedOut bool
	Attempts int
}

// OCRParsedResult is one per-page entry in an OCR.space response.
type OCRParsedResult struct {
	ParsedText string `json:"ParsedText"`
}

// OCRResponse is the documented shape of an OCR.space parse response. The
// vendor is not strict about it, so the mapper also handles bare strings and
// top-level ParsedText fields.
type OCRResponse struct {
	ParsedResults         []OCRParsedResult `json:"ParsedResults"`
	OCRExitCode           int               `json:"OCRExitCode"`
	IsErroredOnProcessing bool              `json:"IsErroredOnProcessing"`
}

// OCR.space exit codes considered a successful parse.
const (
	OCRExitCodeParsed          = 1
	OCRExitCodePartiallyParsed = 2
)

// IsSuccessExitCode reports whether an OCR.space exit code indicates the
// image was parsed (fully or partially).
func IsSuccessExitCode(code int) bool {
	return code == OCRExitCodeParsed || code == OCRExitCodePartiallyParsed
}
