package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TAX_RATE", "")
	t.Setenv("MIN_CANCELLATION_HOURS", "")
	t.Setenv("GATEWAY_TIMEOUT", "")

	cfg := Load()
	assert.Equal(t, 0.18, cfg.Pricing.TaxRate)
	assert.Equal(t, 0.05, cfg.Pricing.ServiceFeeRate)
	assert.Equal(t, 99.0, cfg.Pricing.DefaultBasePrice)
	assert.Equal(t, 24, cfg.Booking.MinCancellationHours)
	assert.Equal(t, 50, cfg.Booking.MaxParticipants)
	assert.Equal(t, "INR", cfg.Razorpay.Currency)
	assert.Equal(t, 10*time.Second, cfg.Razorpay.Timeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TAX_RATE", "0.12")
	t.Setenv("MIN_CANCELLATION_HOURS", "48")
	t.Setenv("GATEWAY_TIMEOUT", "3s")
	t.Setenv("MAX_PARTICIPANTS", "not-a-number")

	cfg := Load()
	assert.Equal(t, 0.12, cfg.Pricing.TaxRate)
	assert.Equal(t, 48, cfg.Booking.MinCancellationHours)
	assert.Equal(t, 3*time.Second, cfg.Razorpay.Timeout)
	assert.Equal(t, DEFAULT_MAX_PARTICIPANTS, cfg.Booking.MaxParticipants)
}

func TestGetDSN(t *testing.T) {
	t.Setenv("DATABASE_HOST", "localhost")
	t.Setenv("DATABASE_NAME", "myguide")
	assert.Contains(t, GetDSN(), "host=localhost")
	assert.Contains(t, GetDSN(), "dbname=myguide")
}

func TestLoadDatabase(t *testing.T) {
	t.Setenv("DATABASE_HOST", "db")
	t.Setenv("DATABASE_MAX_OPEN_CONNS", "25")
	t.Setenv("DATABASE_MAX_IDLE_CONNS", "")
	t.Setenv("DATABASE_CONN_MAX_LIFETIME", "5m")

	db := LoadDatabase()
	assert.Contains(t, db.DSN, "host=db")
	assert.Equal(t, 25, db.MaxOpenConns)
	assert.Equal(t, DEFAULT_DB_MAX_IDLE_CONNS, db.MaxIdleConns)
	assert.Equal(t, 5*time.Minute, db.ConnMaxLifetime)
}
