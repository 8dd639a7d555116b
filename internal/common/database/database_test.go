package database

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assessment-workers/internal/common/config"
	"assessment-workers/internal/common/metrics"
)

// ==========================
// Redis Tests
// ==========================

func TestRedis_Ping(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DependencyUp.WithLabelValues("redis")))

	mr.Close()
	assert.Error(t, client.Ping(context.Background()))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.DependencyUp.WithLabelValues("redis")))
}

func TestRedisOptions(t *testing.T) {
	opts := redisOptions(config.RedisConfig{Address: "cache:6379", DB: 2})
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 10, opts.PoolSize)
}

func TestRedis_RequiresAddress(t *testing.T) {
	_, err := NewRedis(config.RedisConfig{})
	assert.Error(t, err)
}

// ==========================
// Elasticsearch Tests
// ==========================

func createTestESServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestElasticsearch_Ping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{name: "healthy", status: http.StatusOK},
		{name: "unhealthy", status: http.StatusServiceUnavailable, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := createTestESServer(t, tt.status)

			client, err := NewElasticsearch(config.ElasticsearchConfig{URL: srv.URL})
			require.NoError(t, err)

			err = client.Ping(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// ==========================
// Postgres Tests
// ==========================

func TestNewPostgres_PoolSettings(t *testing.T) {
	client, err := NewPostgres(config.PostgresConfig{
		Host:           "localhost",
		Port:           5432,
		Database:       "assessments",
		User:           "test",
		SSLMode:        "disable",
		MaxConnections: 7,
		MaxIdle:        2,
	})
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, 7, client.GetDB().Stats().MaxOpenConnections)
}

func TestNewPostgres_PingFailureMarksDependencyDown(t *testing.T) {
	client, err := NewPostgres(config.PostgresConfig{
		Host:     "127.0.0.1",
		Port:     1,
		Database: "assessments",
		User:     "test",
		SSLMode:  "disable",
	})
	require.NoError(t, err)
	defer client.Close()

	assert.Error(t, client.Ping(context.Background()))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.DependencyUp.WithLabelValues("postgres")))
}
