package ocrspace

import (
	"encoding/json"
	"strings"
)

// ExtractParsedText maps the vendor's loosely specified response shapes to a
// single plain-text string. Resolution order, first match wins:
//
//  1. object with a non-empty ParsedResults array: per-page ParsedText
//     values joined with newlines (missing ParsedText treated as empty)
//  2. object with a top-level string ParsedText
//  3. body that is itself a JSON string
//  4. anything else: the raw serialized body, so verification can still run
func ExtractParsedText(body []byte) string {
	fallback := string(body)

	var payload interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return fallback
	}

	switch v := payload.(type) {
	case string:
		return v
	case map[string]interface{}:
		if pages, ok := v["ParsedResults"].([]interface{}); ok && len(pages) > 0 {
			texts := make([]string, 0, len(pages))
			for _, p := range pages {
				page, _ := p.(map[string]interface{})
				text, _ := page["ParsedText"].(string)
				texts = append(texts, text)
			}
			return strings.Join(texts, "\n")
		}
		if text, ok := v["ParsedText"].(string); ok {
			return text
		}
	}

	return fallback
}

// ExitCode extracts the vendor's numeric OCRExitCode when present. The
// vendor contract is loose here: responses without a recognizable exit code
// report false and are treated as successful by callers.
func ExitCode(body []byte) (int, bool) {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, false
	}

	code, ok := payload["OCRExitCode"].(float64)
	if !ok {
		return 0, false
	}
	return int(code), true
}
