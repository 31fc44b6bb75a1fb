package models

// SourceType identifies how document content reaches the ingestion endpoint.
type SourceType string

const (
	SourceURL  SourceType = "url"
	SourcePDF  SourceType = "pdf"
	SourceJSON SourceType = "json"
	SourceText SourceType = "text"
)

// LoadDocumentsRequest is the non-file part of POST /api/load-documents.
// PDF and JSON uploads additionally carry a multipart "file" field.
type LoadDocumentsRequest struct {
	Type     SourceType `json:"type" form:"type"`
	URL      string     `json:"url" form:"url"`
	Content  string     `json:"content" form:"content"`
	Tag      string     `json:"tag" form:"tag"`
	MaxPages int        `json:"maxPages" form:"maxPages"`
}

// LoadDocumentsResponse reports the outcome of an ingestion request.
type LoadDocumentsResponse struct {
	Message          string `json:"message"`
	Source           string `json:"source"`
	Tag              string `json:"tag,omitempty"`
	Chunks           int    `json:"chunks,omitempty"`
	AlreadyProcessed bool   `json:"alreadyProcessed,omitempty"`
}

// IngestEvent is published to Kafka after an ingestion attempt, when event
// publishing is enabled.
type IngestEvent struct {
	Source        string `json:"source"`
	SourceType    string `json:"source_type"`
	Tag           string `json:"tag,omitempty"`
	Chunks        int    `json:"chunks"`
	ContentLength int    `json:"content_length"`
	Success       bool   `json:"success"`
	Error         string `json:"error,omitempty"`
}
