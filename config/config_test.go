package config

import (
	"testing"
	"time"

	"inventory-sync/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestEndpointEnvKey(t *testing.T) {
	assert.Equal(t, "GATEWAY_URL_PRODUCT_INTAKE", EndpointEnvKey(models.CollectionProductIntake))
	assert.Equal(t, "GATEWAY_URL_GOODS_BALANCE", EndpointEnvKey(models.CollectionGoodsBalance))
	assert.Equal(t, "GATEWAY_URL_STAFF", EndpointEnvKey(models.CollectionStaff))
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("QUEUE_BACKEND", "")
	t.Setenv("QUEUE_RETRY_DELAY_MS", "")
	t.Setenv("KAFKA_ENABLED", "")
	t.Setenv("DATABASE_DRIVER", "")

	cfg := Load()
	assert.Equal(t, BackendSQLite, cfg.Queue.Backend)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, 200*time.Millisecond, cfg.Queue.InterTaskDelay)
	assert.Equal(t, 5*time.Second, cfg.Queue.RetryDelay)
	assert.Equal(t, 2*time.Second, cfg.Queue.StartupDelay)
	assert.False(t, cfg.Kafka.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("QUEUE_BACKEND", BackendPostgres)
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("QUEUE_RETRY_DELAY_MS", "750")
	t.Setenv("GATEWAY_URL_PRODUCT_BALANCE", "https://example.test/exec?sheet=productOstatka")

	cfg := Load()
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 750*time.Millisecond, cfg.Queue.RetryDelay)
	assert.Equal(t, "https://example.test/exec?sheet=productOstatka", cfg.Gateway.Endpoints[models.CollectionProductBalance])
}
