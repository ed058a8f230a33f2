package normalizer

// ExtractionState tags how much of the canonical shape could be read from a raw item
type ExtractionState string

const (
	// Complete means every core field was found
	Complete ExtractionState = "complete"
	// Partial means at least one core field is missing; see Extraction.Missing
	Partial ExtractionState = "partial"
	// Failed means the item could not be read at all; core fields are empty
	Failed ExtractionState = "failed"
)

// Core field names
const (
	FieldUsername  = "username"
	FieldContent   = "content"
	FieldURL       = "url"
	FieldCreatedAt = "created_at"
	FieldPlatform  = "platform"
	FieldError     = "error"
)

// Extraction is the explicit outcome of reading one item. Callers must check State
// before trusting the best-guess fields of a Candidate.
type Extraction struct {
	State   ExtractionState `json:"state"`
	Missing []string        `json:"missing,omitempty"`
	Err     string          `json:"error,omitempty"`
}

// OK reports whether the item produced usable content
func (e Extraction) OK() bool {
	if e.State == Failed {
		return false
	}
	for _, m := range e.Missing {
		if m == FieldContent {
			return false
		}
	}
	return true
}

// FieldCandidate is one raw field that may hold a core value
type FieldCandidate struct {
	Field   string `json:"field"`
	Preview string `json:"preview"`
}

// Alternatives lists every raw field found for each core value, best guess first
type Alternatives struct {
	Username  []FieldCandidate `json:"username"`
	Content   []FieldCandidate `json:"content"`
	URL       []FieldCandidate `json:"url"`
	CreatedAt []FieldCandidate `json:"created_at"`
}

// Candidate is a raw item plus best-guess canonical values
type Candidate struct {
	Raw          map[string]any   `json:"raw"`
	Platform     string           `json:"platform"`
	Username     string           `json:"username"`
	Content      string           `json:"content"`
	URL          string           `json:"url"`
	CreatedAt    string           `json:"created_at"`
	Engagement   map[string]int64 `json:"engagement,omitempty"`
	Metadata     map[string]any   `json:"metadata,omitempty"`
	Alternatives Alternatives     `json:"alternatives"`
	Extraction   Extraction       `json:"extraction"`
}

// engagementField maps a platform counter onto a universal metric name
type engagementField struct {
	source string
	metric string
}

// profile lists where a platform keeps each core field, in preference order.
// Dotted keys address nested objects.
type profile struct {
	username   []string
	content    []string
	url        []string
	createdAt  []string
	engagement []engagementField
	metadata   []string
	// urlFromItem builds a canonical URL when no direct URL field exists
	urlFromItem func(item map[string]any) (field, url string)
}
