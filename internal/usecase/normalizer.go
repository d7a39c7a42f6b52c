package usecase

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/labelcheck/backend/internal/domain"
)

// apostrophes covers the straight and typographic quote characters that OCR
// engines routinely drop or misread on printed labels.
var apostrophes = runes.Predicate(func(r rune) bool {
	switch r {
	case '\'', '‘', '’', '`', '´':
		return true
	}
	return false
})

// foldTransform decomposes to compatibility form and strips combining marks
// and apostrophes, so "Tóm's" and "toms" compare equal after lower-casing.
// Chained transformers carry internal state, so a fresh chain is built per
// call rather than shared across requests.
func foldTransform() transform.Transformer {
	return transform.Chain(
		norm.NFKD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Remove(apostrophes),
	)
}

// Normalize folds text for comparison: NFKD decomposition, diacritic and
// apostrophe removal, whitespace collapsed to single spaces, trimmed,
// lower-cased. Idempotent.
func Normalize(s string) string {
	folded, _, err := transform.String(foldTransform(), s)
	if err != nil {
		folded = s
	}
	folded = cases.Lower(language.Und).String(folded)
	return strings.Join(strings.Fields(folded), " ")
}

// TextContains reports whether the normalized needle occurs in the
// normalized haystack. A blank needle never counts as found.
func TextContains(haystack, needle string) bool {
	n := Normalize(needle)
	if n == "" {
		return false
	}
	return strings.Contains(Normalize(haystack), n)
}

// AlcoholContentMatches checks whether the submitted alcohol content appears
// in the OCR text as a numeric token followed by "%", "percent" or "abv".
// The raw OCR text is searched, not the normalized form: the suffix
// alternation already covers case variants and the numeric token must stay
// exact. A bare number without a qualifying suffix does not count, so "13.5
// years" never matches an ABV of 13.5.
func AlcoholContentMatches(raw, sourceText string) bool {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return false
	}

	// Canonical minimal decimal form: "13.50" and "13.5" both render "13.5".
	canonical := strconv.FormatFloat(value, 'f', -1, 64)

	pattern := `(?i)\b` + regexp.QuoteMeta(canonical) + `(\.0)?\s*(%|percent|abv)`
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(sourceText)
}

// VerifyLabels classifies each submitted, non-empty field as found on the
// label or missing from it. Fields that were not submitted appear in
// neither slice. Order of evaluation does not affect the result.
func VerifyLabels(parsedText string, fields domain.SubmittedFields) domain.LabelChecks {
	checks := domain.LabelChecks{
		Found:   []string{},
		Missing: []string{},
	}

	classify := func(name string, found bool) {
		if found {
			checks.Found = append(checks.Found, name)
		} else {
			checks.Missing = append(checks.Missing, name)
		}
	}

	if strings.TrimSpace(fields.BrandName) != "" {
		classify(domain.FieldBrandName, TextContains(parsedText, fields.BrandName))
	}
	if strings.TrimSpace(fields.ProductClass) != "" {
		classify(domain.FieldProductClass, TextContains(parsedText, fields.ProductClass))
	}
	if strings.TrimSpace(fields.AlcoholContent) != "" {
		classify(domain.FieldAlcoholContent, AlcoholContentMatches(fields.AlcoholContent, parsedText))
	}

	return checks
}

// IsVerificationComplete reports whether every submitted field was found and
// at least one field was submitted. A request with zero submitted fields is
// never complete.
func IsVerificationComplete(checks domain.LabelChecks) bool {
	return len(checks.Missing) == 0 && len(checks.Found) > 0
}
