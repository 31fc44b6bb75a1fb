package milvus

import (
	"context"
	"fmt"
	"sync"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"bostr/internal/config"
)

var (
	instance *MilvusClient
	once     sync.Once
	initErr  error
)

// MilvusClient wraps the raw Milvus client together with its configuration.
type MilvusClient struct {
	Client client.Client
	Config *config.MilvusConfig
}

// GetClient connects to Milvus once and returns the shared client instance.
func GetClient(ctx context.Context, cfg *config.MilvusConfig) (*MilvusClient, error) {
	once.Do(func() {
		c, err := client.NewClient(ctx, client.Config{Address: cfg.Address})
		if err != nil {
			initErr = fmt.Errorf("failed to connect to Milvus: %w", err)
			return
		}
		instance = &MilvusClient{Client: c, Config: cfg}
	})
	return instance, initErr
}

// Close shuts down the Milvus connection.
func (c *MilvusClient) Close() {
	if c.Client != nil {
		c.Client.Close()
	}
}

// HealthCheck verifies the Milvus connection is alive.
func (c *MilvusClient) HealthCheck(ctx context.Context) error {
	if c.Client == nil {
		return fmt.Errorf("milvus client is nil")
	}
	if _, err := c.Client.ListCollections(ctx); err != nil {
		return fmt.Errorf("milvus health check failed: %w", err)
	}
	return nil
}

// EnsureCollection creates the configured collection and its vector index if
// they do not exist yet, then loads the collection into memory.
func (c *MilvusClient) EnsureCollection(ctx context.Context) error {
	collName := c.Config.Schema.CollectionName
	exists, err := c.Client.HasCollection(ctx, collName)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if !exists {
		schemaFields := make([]*entity.Field, 0, len(c.Config.Schema.Fields))
		for _, fieldCfg := range c.Config.Schema.Fields {
			field := entity.NewField().WithName(fieldCfg.Name)

			if fieldCfg.IsPrimaryKey {
				field = field.WithIsPrimaryKey(true)
			}
			if fieldCfg.IsAutoID {
				field = field.WithIsAutoID(true)
			}

			switch fieldCfg.DataType {
			case "Int64":
				field = field.WithDataType(entity.FieldTypeInt64)
			case "VarChar":
				field = field.WithDataType(entity.FieldTypeVarChar).WithMaxLength(int64(fieldCfg.MaxLength))
			case "FloatVector":
				field = field.WithDataType(entity.FieldTypeFloatVector).WithDim(int64(fieldCfg.Dim))
			case "Bool":
				field = field.WithDataType(entity.FieldTypeBool)
			case "Float":
				field = field.WithDataType(entity.FieldTypeFloat)
			case "Double":
				field = field.WithDataType(entity.FieldTypeDouble)
			default:
				return fmt.Errorf("unsupported field data type: %s", fieldCfg.DataType)
			}

			schemaFields = append(schemaFields, field)
		}

		schema := entity.NewSchema().
			WithName(collName).
			WithDescription(c.Config.Schema.Description)
		for _, field := range schemaFields {
			schema = schema.WithField(field)
		}

		if err := c.Client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
			return fmt.Errorf("failed to create collection '%s': %w", collName, err)
		}

		idx, err := c.buildIndexFromConfig()
		if err != nil {
			return err
		}
		if err := c.Client.CreateIndex(ctx, collName, c.Config.Schema.Index.FieldName, idx, false); err != nil {
			return fmt.Errorf("failed to create index on field '%s': %w", c.Config.Schema.Index.FieldName, err)
		}
	}

	if err := c.Client.LoadCollection(ctx, collName, false); err != nil {
		return fmt.Errorf("failed to load collection '%s': %w", collName, err)
	}
	return nil
}

// DropCollection removes the configured collection entirely.
func (c *MilvusClient) DropCollection(ctx context.Context) error {
	collName := c.Config.Schema.CollectionName
	if err := c.Client.DropCollection(ctx, collName); err != nil {
		return fmt.Errorf("failed to drop collection '%s': %w", collName, err)
	}
	return nil
}

// EntityCount returns the row count reported by the collection statistics.
func (c *MilvusClient) EntityCount(ctx context.Context) (int64, error) {
	collName := c.Config.Schema.CollectionName
	stats, err := c.Client.GetCollectionStatistics(ctx, collName)
	if err != nil {
		return 0, fmt.Errorf("failed to read statistics for '%s': %w", collName, err)
	}
	var count int64
	if rc, ok := stats["row_count"]; ok {
		fmt.Sscanf(rc, "%d", &count)
	}
	return count, nil
}

// Flush persists buffered inserts so they become visible to searches.
func (c *MilvusClient) Flush(ctx context.Context) error {
	collName := c.Config.Schema.CollectionName
	if err := c.Client.Flush(ctx, collName, false); err != nil {
		return fmt.Errorf("failed to flush collection '%s': %w", collName, err)
	}
	return nil
}

func (c *MilvusClient) buildIndexFromConfig() (entity.Index, error) {
	idxCfg := c.Config.Schema.Index

	metric := entity.L2
	switch idxCfg.MetricType {
	case "IP":
		metric = entity.IP
	case "COSINE":
		metric = entity.COSINE
	}

	switch idxCfg.IndexType {
	case "", "IVF_FLAT":
		nlist := 128
		if v, ok := idxCfg.Params["nlist"].(int); ok {
			nlist = v
		}
		return entity.NewIndexIvfFlat(metric, nlist)
	case "HNSW":
		m, ef := 16, 200
		if v, ok := idxCfg.Params["M"].(int); ok {
			m = v
		}
		if v, ok := idxCfg.Params["efConstruction"].(int); ok {
			ef = v
		}
		return entity.NewIndexHNSW(metric, m, ef)
	case "FLAT":
		return entity.NewIndexFlat(metric)
	default:
		return nil, fmt.Errorf("unsupported index type: %s", idxCfg.IndexType)
	}
}
