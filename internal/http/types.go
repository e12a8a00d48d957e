package http

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// StatusResponse is the response body for GET /api/v1/status.
type StatusResponse struct {
	Status  string       `json:"status"`
	Version string       `json:"version,omitempty"`
	Counts  StatusCounts `json:"counts"`
}

// StatusCounts holds artifact counts. -1 means the count is unavailable.
type StatusCounts struct {
	Transcripts       int `json:"transcripts"`
	ImageDescriptions int `json:"image_descriptions"`
}

// TranscriptRequest is the request body for POST /api/v1/transcripts.
type TranscriptRequest struct {
	Transcript string `json:"transcript"`
}

// ImageRequest is the JSON request body for POST /api/v1/images.
type ImageRequest struct {
	Image     string `json:"image"`
	MediaType string `json:"mediaType,omitempty"`
}

// QueryRequest is the request body for POST /api/v1/query.
type QueryRequest struct {
	Question string `json:"question"`
}

// ReceiptResponse is returned for every stored artifact.
type ReceiptResponse struct {
	Kind        string `json:"kind"`
	Timestamp   string `json:"timestamp"`
	MediaType   string `json:"mediaType,omitempty"`
	Description string `json:"description,omitempty"`
}
