package models

import "time"

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Question  string `json:"question"`
	UserID    string `json:"userId"`
	Provider  string `json:"provider"`  // optional per-request backend override
	ModelName string `json:"modelName"` // optional per-request model override
}

// ChatResponse is the body returned by POST /api/chat.
type ChatResponse struct {
	Answer string `json:"answer"`
}

// UserProfile is the per-user record the chat flow reads for personalisation.
type UserProfile struct {
	UserID        string  `bson:"_id" json:"userId"`
	Name          string  `bson:"name" json:"name"`
	MonthlyIncome float64 `bson:"monthly_income,omitempty" json:"monthlyIncome,omitempty"`
}

// ScrapedURLRecord is one entry of the append-only URL ingestion ledger.
// URLs are stored with the fragment stripped.
type ScrapedURLRecord struct {
	URL           string    `bson:"url" json:"url"`
	Timestamp     time.Time `bson:"timestamp" json:"timestamp"`
	Success       bool      `bson:"success" json:"success"`
	ContentLength int       `bson:"content_length,omitempty" json:"contentLength,omitempty"`
}
