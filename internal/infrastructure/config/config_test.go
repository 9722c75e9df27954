package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"PMS_APP_NAME":                  os.Getenv("PMS_APP_NAME"),
		"PMS_APP_ENV":                   os.Getenv("PMS_APP_ENV"),
		"PMS_APP_PORT":                  os.Getenv("PMS_APP_PORT"),
		"PMS_DATABASE_HOST":             os.Getenv("PMS_DATABASE_HOST"),
		"PMS_DATABASE_PORT":             os.Getenv("PMS_DATABASE_PORT"),
		"PMS_DATABASE_PASSWORD":         os.Getenv("PMS_DATABASE_PASSWORD"),
		"PMS_DATABASE_SSLMODE":          os.Getenv("PMS_DATABASE_SSLMODE"),
		"PMS_DATABASE_MAX_OPEN_CONNS":   os.Getenv("PMS_DATABASE_MAX_OPEN_CONNS"),
		"PMS_DATABASE_MAX_IDLE_CONNS":   os.Getenv("PMS_DATABASE_MAX_IDLE_CONNS"),
		"PMS_BILLING_TAX_RATE":          os.Getenv("PMS_BILLING_TAX_RATE"),
		"PMS_BILLING_SERVICE_FEE":       os.Getenv("PMS_BILLING_SERVICE_FEE"),
		"PMS_BILLING_PAYMENT_TERMS_DAYS": os.Getenv("PMS_BILLING_PAYMENT_TERMS_DAYS"),
		"PMS_BILLING_SWEEP_HOUR":        os.Getenv("PMS_BILLING_SWEEP_HOUR"),
		"PMS_INFERENCE_BASE_URL":        os.Getenv("PMS_INFERENCE_BASE_URL"),
		"PMS_JWT_SECRET":                os.Getenv("PMS_JWT_SECRET"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "pms-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "pms", cfg.Database.DBName)
		assert.Equal(t, 0.10, cfg.Billing.TaxRate)
		assert.Equal(t, 25.00, cfg.Billing.ServiceFee)
		assert.Equal(t, 14, cfg.Billing.PaymentTermsDays)
		assert.Equal(t, "http://localhost:8100", cfg.Inference.BaseURL)
	})

	t.Run("loads values from environment variables with PMS prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("PMS_APP_NAME", "test-pms")
		os.Setenv("PMS_APP_PORT", "9000")
		os.Setenv("PMS_DATABASE_HOST", "testdb.local")
		os.Setenv("PMS_DATABASE_PORT", "5433")
		os.Setenv("PMS_BILLING_TAX_RATE", "0.0825")
		os.Setenv("PMS_BILLING_PAYMENT_TERMS_DAYS", "30")
		os.Setenv("PMS_INFERENCE_BASE_URL", "http://scoring.internal:9100")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-pms", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, 0.0825, cfg.Billing.TaxRate)
		assert.Equal(t, 30, cfg.Billing.PaymentTermsDays)
		assert.Equal(t, "http://scoring.internal:9100", cfg.Inference.BaseURL)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv()
		os.Setenv("PMS_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("PMS_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
	})

	t.Run("validates tax rate is a fraction", func(t *testing.T) {
		clearEnv()
		os.Setenv("PMS_BILLING_TAX_RATE", "10")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tax_rate")
	})

	t.Run("validates sweep hour range", func(t *testing.T) {
		clearEnv()
		os.Setenv("PMS_BILLING_SWEEP_HOUR", "24")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sweep_hour")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	clearAll := func() {
		for _, k := range []string{"PMS_APP_ENV", "PMS_JWT_SECRET", "PMS_DATABASE_PASSWORD", "PMS_DATABASE_SSLMODE"} {
			os.Unsetenv(k)
		}
	}
	defer clearAll()

	t.Run("requires jwt secret in production", func(t *testing.T) {
		clearAll()
		os.Setenv("PMS_APP_ENV", "production")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret")
	})

	t.Run("rejects sslmode disable in production", func(t *testing.T) {
		clearAll()
		os.Setenv("PMS_APP_ENV", "production")
		os.Setenv("PMS_JWT_SECRET", "0123456789abcdef0123456789abcdef")
		os.Setenv("PMS_DATABASE_PASSWORD", "secret")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sslmode")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db.example.com",
		Port:     5432,
		User:     "pms",
		Password: "p@ss word",
		DBName:   "pmsdb",
		SSLMode:  "require",
	}

	dsn := d.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "db.example.com:5432")
	assert.Contains(t, dsn, "sslmode=require")
	// Special characters must be escaped
	assert.NotContains(t, dsn, "p@ss word")
}

func TestRedisConfig_Addr(t *testing.T) {
	r := RedisConfig{Host: "cache.local", Port: 6380}
	assert.Equal(t, "cache.local:6380", r.Addr())
}
