// Package objectstore implements the Object Store Adapter: read-only access
// to the live S3-compatible gateway (path-style addressing, SigV4) through
// a pool of clients. Operations are not retried.
package objectstore

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/snapvault/browser/internal/config"
)

// ClientManager owns the pool of S3 client handles used for every OSA
// operation. Unlike the upstream deployment this adapter has no write path:
// there is no CargoShip transporter and no Transfer Acceleration client to
// configure, because the core never writes.
type ClientManager struct {
	pool *ConnectionPool
	cfg  config.S3Config
}

// NewClientManager loads AWS config and builds a pool of path-style S3
// clients against the configured gateway endpoint.
func NewClientManager(ctx context.Context, cfg config.S3Config) (*ClientManager, error) {
	var optFns []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	factory := func() (*s3.Client, error) {
		return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			o.UsePathStyle = cfg.ForcePathStyle
		}), nil
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 8
	}
	pool, err := NewConnectionPool(poolSize, factory)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 connection pool: %w", err)
	}

	return &ClientManager{pool: pool, cfg: cfg}, nil
}

// Get borrows a pooled client. Callers must return it with Put.
func (m *ClientManager) Get() *s3.Client {
	return m.pool.Get()
}

// Put returns a client to the pool.
func (m *ClientManager) Put(client *s3.Client) {
	m.pool.Put(client)
}

// HealthCheck verifies the gateway is reachable by listing buckets, which
// requires only the minimal permission every deployment of this adapter has.
func (m *ClientManager) HealthCheck(ctx context.Context) error {
	client := m.pool.Get()
	defer m.pool.Put(client)

	_, err := client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return fmt.Errorf("object store health check failed: %w", err)
	}
	return nil
}

// Close releases pooled resources.
func (m *ClientManager) Close() error {
	return m.pool.Close()
}

// Stats reports current pool statistics.
func (m *ClientManager) Stats() PoolStats {
	return m.pool.Stats()
}
