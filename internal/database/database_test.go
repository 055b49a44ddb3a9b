package database

import (
	"testing"
	"time"

	"storefront/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolConfig(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:            "db",
		Port:            5432,
		User:            "storefront",
		Password:        "secret",
		Database:        "ledger",
		MaxConnections:  4,
		MinConnections:  1,
		MaxConnLifetime: 600,
	}

	pc, err := poolConfig(cfg)

	require.NoError(t, err)
	assert.Equal(t, int32(4), pc.MaxConns)
	assert.Equal(t, int32(1), pc.MinConns)
	assert.Equal(t, 10*time.Minute, pc.MaxConnLifetime)
	assert.Equal(t, "db", pc.ConnConfig.Host)
	assert.Equal(t, "ledger", pc.ConnConfig.Database)
	assert.Equal(t, applicationName, pc.ConnConfig.RuntimeParams["application_name"])
}

func TestPoolConfig_MinAboveMaxIsIgnored(t *testing.T) {
	pc, err := poolConfig(config.DatabaseConfig{
		Host: "db", Port: 5432, User: "u", Database: "d",
		MaxConnections: 2, MinConnections: 5,
	})

	require.NoError(t, err)
	assert.Equal(t, int32(2), pc.MaxConns)
	assert.Equal(t, int32(0), pc.MinConns)
}
