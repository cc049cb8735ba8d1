package api

// StoreInfoV1 is the /summary response of the query server.
type StoreInfoV1 struct {
	K           int       `json:"k"`
	RunID       string    `json:"run_id,omitempty"`
	Fingerprint string    `json:"fingerprint"`
	Canonical   bool      `json:"canonical"`
	HasFilter   bool      `json:"has_filter"`
	Summary     SummaryV1 `json:"summary"`
}

// SeenV1 answers whether a k-mer went through the run's filters.
// Seen is approximate: false is definite, true may be a false positive.
type SeenV1 struct {
	Kmer  string `json:"kmer"`
	Query string `json:"query"` // the form looked up (canonical when the run was)
	Seen  bool   `json:"seen"`
}

// ErrorV1 is the body of every non-2xx query response.
type ErrorV1 struct {
	Error string `json:"error"`
}
