package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tztw/projectmap/config"
)

func TestDSN(t *testing.T) {
	cfg := &config.DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Name: "tztw"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=tztw sslmode=disable", DSN(cfg))

	cfg.SSLMode = "require"
	assert.Contains(t, DSN(cfg), "sslmode=require")
}
