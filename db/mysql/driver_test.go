package mysql

import (
	"testing"
	"time"

	sqldriver "github.com/go-sql-driver/mysql"
	"github.com/kasuganosora/neonmaze/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDSN_ForcesTimeOptions(t *testing.T) {
	dsn, err := normalizeDSN("maze:secret@tcp(db:3306)/neonmaze")
	require.NoError(t, err)

	c, err := sqldriver.ParseDSN(dsn)
	require.NoError(t, err)
	assert.True(t, c.ParseTime)
	assert.Equal(t, time.UTC, c.Loc)
	assert.Equal(t, "db:3306", c.Addr)
	assert.Equal(t, "neonmaze", c.DBName)
}

func TestNormalizeDSN_OverridesCallerTimeOptions(t *testing.T) {
	dsn, err := normalizeDSN("u:p@tcp(h:3306)/d?parseTime=false&loc=Local&timeout=5s")
	require.NoError(t, err)

	c, err := sqldriver.ParseDSN(dsn)
	require.NoError(t, err)
	assert.True(t, c.ParseTime)
	assert.Equal(t, time.UTC, c.Loc)
	assert.Equal(t, 5*time.Second, c.Timeout)
}

func TestNormalizeDSN_Rejects(t *testing.T) {
	_, err := normalizeDSN("")
	assert.Error(t, err)

	_, err = normalizeDSN("not a dsn")
	assert.ErrorContains(t, err, "parse dsn")
}

func TestOpen_BadDSNFailsBeforeDialing(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Mode: "mysql", MySQLDSN: "nope"})
	assert.ErrorContains(t, err, "parse dsn")
}

func TestPoolLimits(t *testing.T) {
	open, idle, life := poolLimits(config.DatabaseConfig{})
	assert.Equal(t, 50, open)
	assert.Equal(t, 10, idle)
	assert.Equal(t, time.Hour, life)

	open, idle, life = poolLimits(config.DatabaseConfig{MySQLMaxOpen: 4, MySQLMaxIdle: 8, MySQLMaxLife: time.Minute})
	assert.Equal(t, 4, open)
	assert.Equal(t, 4, idle)
	assert.Equal(t, time.Minute, life)
}
