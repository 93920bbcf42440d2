package dto

// RowError reports the violations of one rejected row.
type RowError struct {
	Row    int      `json:"row"`
	Errors []string `json:"errors"`
}

// IngestResult summarizes one CSV ingestion for the operator.
type IngestResult struct {
	UploadToken    string     `json:"upload_token"`
	TotalRows      int        `json:"total_rows"`
	StagedCount    int        `json:"staged_count"`
	AssignedCount  int        `json:"assigned_count"`
	UnmatchedCount int        `json:"unmatched_count"`
	InvalidCount   int        `json:"invalid_count"`
	RowErrors      []RowError `json:"row_errors,omitempty"`
}
