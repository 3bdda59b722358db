package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const strongSecret = "this-is-a-very-secure-secret-key-for-production-use-1234"

func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setEnvs(t, map[string]string{"ENVIRONMENT": "development"})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, DriverMongo, cfg.StoreDriver)
	assert.Equal(t, "movie-api", cfg.JWTIssuer)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTTokenTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThreshold())
}

func TestLoad_Development_AcceptsPlaceholderSecret(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT": "development",
		"JWT_SECRET":  PlaceholderJWTSecret,
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, PlaceholderJWTSecret, cfg.JWTSecret)
}

func TestLoad_NonDevelopment_SecretRules(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		secret  string
		wantErr string
	}{
		{"production placeholder", "production", PlaceholderJWTSecret, "JWT_SECRET must be explicitly set"},
		{"staging placeholder", "staging", PlaceholderJWTSecret, "JWT_SECRET must be explicitly set"},
		{"production short", "production", "short-but-not-default-secret", "JWT_SECRET must be at least 32 characters"},
		{"production strong", "production", strongSecret, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnvs(t, map[string]string{
				"ENVIRONMENT": tt.env,
				"JWT_SECRET":  tt.secret,
			})

			cfg, err := Load()
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.secret, cfg.JWTSecret)
				return
			}
			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		envs    map[string]string
		wantErr string
	}{
		{"bad port", map[string]string{"HTTP_PORT": "70000"}, "invalid HTTP port"},
		{"bad driver", map[string]string{"STORE_DRIVER": "redis"}, "STORE_DRIVER"},
		{"low bcrypt cost", map[string]string{"BCRYPT_COST": "3"}, "BCRYPT_COST"},
		{"high bcrypt cost", map[string]string{"BCRYPT_COST": "32"}, "BCRYPT_COST"},
		{"zero ttl", map[string]string{"JWT_TOKEN_TTL": "0s"}, "JWT_TOKEN_TTL"},
		{"unparseable ttl", map[string]string{"JWT_TOKEN_TTL": "seven days"}, "parse config"},
		{"zero rate limit", map[string]string{"LOGIN_RATE_LIMIT_RPS": "0"}, "LOGIN_RATE_LIMIT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENVIRONMENT", "development")
			setEnvs(t, tt.envs)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_Derived(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT":                "development",
		"STORE_DRIVER":               DriverPostgres,
		"POSTGRES_HOST":              "db",
		"DB_MAX_CONNS":               "10",
		"OTEL_ENABLED":               "true",
		"STORE_BREAKER_MIN_REQUESTS": "8",
		"TRUSTED_PROXY_CIDRS":        "10.0.0.0/8,172.16.0.0/12",
	})

	cfg, err := Load()
	require.NoError(t, err)

	pg := cfg.PostgresConfig()
	assert.Equal(t, "db", pg.Host)
	assert.Equal(t, int32(10), pg.MaxConns)

	br := cfg.BreakerConfig()
	assert.Equal(t, "postgres-store", br.Name)
	assert.Equal(t, uint32(8), br.MinRequests)

	tr := cfg.TracingConfig()
	assert.True(t, tr.Enabled)
	assert.Equal(t, ServiceName, tr.ServiceName)

	assert.Equal(t, "movies", cfg.MongoConfig().Database)

	ac := cfg.AuthConfig()
	assert.Equal(t, PlaceholderJWTSecret, ac.Secret)
	assert.Equal(t, "movie-api", ac.Issuer)
	assert.Equal(t, 7*24*time.Hour, ac.TokenTTL)
	assert.Equal(t, 10, ac.BcryptCost)

	assert.Equal(t, []string{"10.0.0.0/8", "172.16.0.0/12"}, cfg.TrustedProxyCIDRs)
}
