package domain

// Field names used in verification results
const (
	FieldBrandName      = "brandName"
	FieldProductClass   = "productClass"
	FieldAlcoholContent = "alcoholContent"
)

// SubmittedFields holds the label values the caller wants verified.
// Empty values are treated as absent and skipped during verification.
type SubmittedFields struct {
	BrandName      string `form:"brandName" json:"brandName,omitempty"`
	ProductClass   string `form:"productClass" json:"productClass,omitempty"`
	AlcoholContent string `form:"alcoholContent" json:"alcoholContent,omitempty"`
}

// LabelChecks classifies each submitted field as found on the label or not.
// A field appears in exactly one of the two slices; fields that were not
// submitted appear in neither.
type LabelChecks struct {
	Found   []string `json:"found"`
	Missing []string `json:"missing"`
}

// VerificationReport is the outcome of a mechanically completed verification.
type VerificationReport struct {
	Verified bool            `json:"verified"`
	Checks   LabelChecks     `json:"checks"`
	Fields   SubmittedFields `json:"fields"`
	Attempts int             `json:"attempts"`
}
