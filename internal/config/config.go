package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AppInfo holds basic application identification.
type AppInfo struct {
	Name        string `yaml:"name"`        // application name
	Version     string `yaml:"version"`     // application version
	Environment string `yaml:"environment"` // "development" or "production"
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port           int      `yaml:"port"`           // HTTP listen port
	AllowedOrigins []string `yaml:"allowedOrigins"` // CORS origins for the admin panel
	MaxUploadBytes int64    `yaml:"maxUploadBytes"` // upload size cap, defaults to 10MB
}

// LoggerConfig holds the logger settings.
type LoggerConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error"
}

// FieldConfig describes one field of the Milvus collection schema.
type FieldConfig struct {
	Name         string `yaml:"name"`
	DataType     string `yaml:"dataType"` // "Int64", "VarChar", "FloatVector", ...
	IsPrimaryKey bool   `yaml:"isPrimaryKey"`
	IsAutoID     bool   `yaml:"isAutoID"`
	Dim          int    `yaml:"dim,omitempty"`       // vector types only
	MaxLength    int    `yaml:"maxLength,omitempty"` // VarChar only
}

// IndexConfig describes the vector index of the Milvus collection.
type IndexConfig struct {
	FieldName  string                 `yaml:"fieldName"`
	IndexType  string                 `yaml:"indexType"`  // e.g. "IVF_FLAT", "HNSW"
	MetricType string                 `yaml:"metricType"` // e.g. "L2", "COSINE"
	Params     map[string]interface{} `yaml:"params"`
}

// SchemaConfig describes the Milvus collection schema.
type SchemaConfig struct {
	CollectionName string        `yaml:"collectionName"`
	Description    string        `yaml:"description"`
	VectorField    string        `yaml:"vectorField"`
	Fields         []FieldConfig `yaml:"fields"`
	Index          IndexConfig   `yaml:"index"`
}

// MilvusConfig holds the Milvus connection and schema settings.
type MilvusConfig struct {
	Address string       `yaml:"address"`
	Schema  SchemaConfig `yaml:"schema"`
}

// MongoConfig holds the MongoDB connection settings.
type MongoConfig struct {
	Address  string `yaml:"address"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MinIOConfig holds the MinIO object storage settings.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"` // bucket archiving uploaded files
	Secure    bool   `yaml:"secure"`
}

// KafkaConfig holds the Kafka settings for the ingestion event stream.
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// DatabaseConfigs groups all backing store settings.
type DatabaseConfigs struct {
	Milvus  MilvusConfig `yaml:"milvus"`
	MongoDB MongoConfig  `yaml:"mongodb"`
	Redis   RedisConfig  `yaml:"redis"`
	MinIO   MinIOConfig  `yaml:"minio"`
	Kafka   KafkaConfig  `yaml:"kafka"`
}

// ProviderModelConfig holds the settings for one model of one provider.
type ProviderModelConfig struct {
	APIKey  string `yaml:"apiKey"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"baseURL,omitempty"` // self-hosted providers only
}

// LLMConfig selects and configures the chat completion backends.
type LLMConfig struct {
	Provider string              `yaml:"provider"` // default: "openai", "ollama" or "gemini"
	OpenAI   ProviderModelConfig `yaml:"openai"`
	Ollama   ProviderModelConfig `yaml:"ollama"`
	Gemini   ProviderModelConfig `yaml:"gemini"`
}

// EmbeddingConfig selects and configures the embedding backend.
type EmbeddingConfig struct {
	Provider string              `yaml:"provider"`
	OpenAI   ProviderModelConfig `yaml:"openai"`
	Ollama   ProviderModelConfig `yaml:"ollama"`
	Gemini   ProviderModelConfig `yaml:"gemini"`
}

// RAGConfig holds the retrieval pipeline tuning knobs.
type RAGConfig struct {
	ChunkSize     int `yaml:"chunkSize"`     // max chunk length in runes, default 500
	ChunkOverlap  int `yaml:"chunkOverlap"`  // overlap between consecutive chunks, default 200
	TopK          int `yaml:"topK"`          // retrieval breadth for ordinary questions, default 6
	BroadTopK     int `yaml:"broadTopK"`     // retrieval breadth for broad questions, default 20
	MaxCrawlPages int `yaml:"maxCrawlPages"` // crawl budget per ingested URL, default 5
}

// SessionConfig holds the conversation session settings.
type SessionConfig struct {
	Backend string `yaml:"backend"` // "memory" or "redis"
	TTL     int    `yaml:"ttl"`     // pending-clarification lifetime in seconds
}

// AppConfig is the root of the YAML configuration file.
type AppConfig struct {
	App       AppInfo         `yaml:"app"`
	Server    ServerConfig    `yaml:"server"`
	Logger    LoggerConfig    `yaml:"logger"`
	Databases DatabaseConfigs `yaml:"databases"`
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	RAG       RAGConfig       `yaml:"rag"`
	Session   SessionConfig   `yaml:"session"`
}

// LoadConfig reads and parses the YAML configuration file at path, then
// fills in defaults and environment fallbacks for secrets.
func LoadConfig(path string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(yamlFile, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 3003
	}
	if c.Server.MaxUploadBytes == 0 {
		c.Server.MaxUploadBytes = 10 << 20
	}
	if c.RAG.ChunkSize == 0 {
		c.RAG.ChunkSize = 500
	}
	if c.RAG.ChunkOverlap == 0 {
		c.RAG.ChunkOverlap = 200
	}
	if c.RAG.TopK == 0 {
		c.RAG.TopK = 6
	}
	if c.RAG.BroadTopK == 0 {
		c.RAG.BroadTopK = 20
	}
	if c.RAG.MaxCrawlPages == 0 {
		c.RAG.MaxCrawlPages = 5
	}
	if c.Session.Backend == "" {
		c.Session.Backend = "memory"
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = 600
	}
}

// applyEnv lets API keys come from the environment so they can be kept out
// of the config file.
func (c *AppConfig) applyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.LLM.OpenAI.APIKey = v
		c.Embedding.OpenAI.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.LLM.Gemini.APIKey = v
		c.Embedding.Gemini.APIKey = v
	}
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		c.LLM.Ollama.BaseURL = v
		c.Embedding.Ollama.BaseURL = v
	}
}
