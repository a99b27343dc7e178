package api

// QueryRequest is the request body for POST /api/query.
type QueryRequest struct {
	Question string `json:"question"`
	Store    string `json:"store"`
}

// ExecutedResponse is returned when the pipeline ran the query.
type ExecutedResponse struct {
	Status string           `json:"status"` // always "executed"
	SQL    string           `json:"sql"`
	Params []any            `json:"params"`
	Rows   int              `json:"rows"`
	Data   []map[string]any `json:"data"`
}

// GeneratedResponse is returned when SQL was produced but never executed,
// either by the model's own refusal or by the safety guard.
type GeneratedResponse struct {
	Status  string `json:"status"` // always "generated"
	SQL     string `json:"sql"`
	Params  []any  `json:"params"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

// UnsupportedResponse is returned when no query could be produced.
type UnsupportedResponse struct {
	Unsupported bool   `json:"unsupported"` // always true
	Message     string `json:"message"`
}

// StoresResponse lists the configured store names.
type StoresResponse struct {
	Stores []string `json:"stores"`
}
