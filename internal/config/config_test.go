package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
app:
  name: "bostr"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 3003, cfg.Server.Port)
	assert.Equal(t, int64(10<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, 500, cfg.RAG.ChunkSize)
	assert.Equal(t, 200, cfg.RAG.ChunkOverlap)
	assert.Equal(t, 6, cfg.RAG.TopK)
	assert.Equal(t, 20, cfg.RAG.BroadTopK)
	assert.Equal(t, 5, cfg.RAG.MaxCrawlPages)
	assert.Equal(t, "memory", cfg.Session.Backend)
	assert.Equal(t, 600, cfg.Session.TTL)
}

func TestLoadConfigReadsValues(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
  allowedOrigins:
    - "http://localhost:3000"
rag:
  chunkSize: 300
  chunkOverlap: 50
databases:
  milvus:
    address: "milvus:19530"
    schema:
      collectionName: "documents"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 300, cfg.RAG.ChunkSize)
	assert.Equal(t, 50, cfg.RAG.ChunkOverlap)
	assert.Equal(t, "milvus:19530", cfg.Databases.Milvus.Address)
	assert.Equal(t, "documents", cfg.Databases.Milvus.Schema.CollectionName)
}

func TestLoadConfigEnvOverridesAPIKeys(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	path := writeConfig(t, `
llm:
  provider: "openai"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.LLM.OpenAI.APIKey)
	assert.Equal(t, "sk-test", cfg.Embedding.OpenAI.APIKey)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "saknas.yaml"))
	assert.Error(t, err)
}
