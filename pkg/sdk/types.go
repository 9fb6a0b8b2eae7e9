package roomrank

// Request is the input to a recommendation call. Query holds the free-text
// apartment query or the roommate profile. TopK of zero uses the server
// default.
type Request struct {
	Query string
	TopK  int
}

type apartmentsPayload struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

type roommatesPayload struct {
	Profile string `json:"profile"`
	TopK    int    `json:"top_k,omitempty"`
}

// Item is one ranked recommendation.
type Item struct {
	ID                 string         `json:"id"`
	VectorScore        float64        `json:"vector_score"`
	RerankScore        *float64       `json:"rerank_score,omitempty"`
	CompatibilityScore *float64       `json:"compatibility_score,omitempty"`
	FinalScore         float64        `json:"final_score"`
	Rationale          string         `json:"rationale,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
}

// Usage reports token consumption for one request.
type Usage struct {
	EmbeddingTokens int `json:"embedding_tokens"`
	LLMTokens       int `json:"llm_tokens"`
}

// Result is a ranked recommendation response. Degraded means at least one
// pipeline stage fell back (extraction, rerank or compatibility scoring);
// the ranking is still usable. Reason is set on empty results.
type Result struct {
	Results  []Item `json:"results"`
	Degraded bool   `json:"degraded"`
	Reason   string `json:"reason,omitempty"`
	Usage    Usage  `json:"usage"`
}

// HealthReport is the server health response.
type HealthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
