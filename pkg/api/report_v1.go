package api

// ReportV1 is the stable JSON schema of a build run report.
type ReportV1 struct {
	RunID       string          `json:"run_id"`
	Started     string          `json:"started"` // RFC 3339
	DurationMS  int64           `json:"duration_ms"`
	Chunks      int             `json:"chunks"`
	Succeeded   int             `json:"succeeded"`
	Failed      []FailedChunkV1 `json:"failed,omitempty"`
	Kmers       int             `json:"kmers"`
	Skipped     int             `json:"skipped"`
	Promoted    int             `json:"promoted"`
	PrunedEdges int             `json:"pruned_edges,omitempty"`
	Fingerprint string          `json:"fingerprint"`
	Summary     SummaryV1       `json:"summary"`
	Analysis    *AnalysisV1     `json:"analysis,omitempty"`
}

// FailedChunkV1 is a chunk skipped under best-effort.
type FailedChunkV1 struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// AnalysisV1 is the topology of the final graph.
type AnalysisV1 struct {
	Components       int `json:"components"`
	LargestComponent int `json:"largest_component"`
	CyclicNodes      int `json:"cyclic_nodes"`
	SelfLoops        int `json:"self_loops"`
	Tips             int `json:"tips"`
}
