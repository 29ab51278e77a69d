package types

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type UploadResponse struct {
	Status   string       `json:"status"`
	Document IngestResult `json:"document"`
	JobID    string       `json:"jobId"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
