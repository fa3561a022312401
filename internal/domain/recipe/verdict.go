package recipe

// MaxSuggestedExtras caps the ingredients a reviewer may suggest per verdict
const MaxSuggestedExtras = 2

// Verdict is the outcome of reviewing a candidate recipe
type Verdict struct {
	Valid           bool     `json:"valid"`
	Reasoning       string   `json:"reasoning"`
	SuggestedExtras []string `json:"suggested_extras"`
}

// Rejected builds a conservative invalid verdict
func Rejected(reasoning string) Verdict {
	return Verdict{Valid: false, Reasoning: reasoning, SuggestedExtras: []string{}}
}
