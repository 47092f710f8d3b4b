package connection

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func serverDatabases() []dbRow {
	return []dbRow{
		{"master", strPtr("SQL_Latin1_General_CP1_CI_AS")},
		{"AppDb", nil},
		{"CaseDb", strPtr("SQL_Latin1_General_CP1_CS_AS")},
	}
}

func TestDatabaseExists(t *testing.T) {
	tests := []struct {
		name   string
		dbName string
		want   bool
	}{
		{"ci database exact", "master", true},
		{"ci database other case", "MASTER", true},
		{"null collation is case insensitive", "appdb", true},
		{"cs database exact", "CaseDb", true},
		{"cs database wrong case", "casedb", false},
		{"missing database", "NoSuchDb", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, stub, _ := newTestManager(nil, map[string]string{"host": "dbhost"})
			stub.queryRows = serverDatabases()

			exists, err := m.DatabaseExists(context.Background(), tt.dbName)
			require.NoError(t, err)
			assert.Equal(t, tt.want, exists)
		})
	}
}

func TestDatabaseExistsIndexIsCached(t *testing.T) {
	m, stub, _ := newTestManager(nil, map[string]string{"host": "dbhost"})
	stub.queryRows = serverDatabases()
	ctx := context.Background()

	_, err := m.DatabaseExists(ctx, "master")
	require.NoError(t, err)
	_, err = m.DatabaseExists(ctx, "AppDb")
	require.NoError(t, err)

	// one short-lived connection serves the whole index
	require.Len(t, stub.conns, 1)
	require.Len(t, stub.conns[0].queries, 1)
	assert.Equal(t, "select name, collation_name from sys.databases;", stub.conns[0].queries[0])
	assert.Equal(t, 1, stub.conns[0].closeCount)
}

func TestDatabaseExistsInvalidate(t *testing.T) {
	m, stub, _ := newTestManager(nil, map[string]string{"host": "dbhost"})
	stub.queryRows = serverDatabases()
	ctx := context.Background()

	exists, err := m.DatabaseExists(ctx, "NewDb")
	require.NoError(t, err)
	assert.False(t, exists)

	stub.queryRows = append(serverDatabases(), dbRow{"NewDb", nil})
	m.InvalidateDatabaseIndex()

	exists, err = m.DatabaseExists(ctx, "NewDb")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Len(t, stub.conns, 2)
}

func TestDatabaseExistsQueryFailureFailsClosed(t *testing.T) {
	m, stub, _ := newTestManager(nil, map[string]string{"host": "dbhost"})
	stub.queryErr = errors.New("permission denied on sys.databases")

	// a catalog-query failure is logged and degrades to "does not
	// exist"; it never aborts the cycle
	exists, err := m.DatabaseExists(context.Background(), "master")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, _, err = m.CheckDatabase(context.Background())
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDatabaseExistsQueryFailureIsNotCached(t *testing.T) {
	m, stub, _ := newTestManager(nil, map[string]string{"host": "dbhost"})
	stub.queryErr = errors.New("permission denied on sys.databases")

	_, err := m.DatabaseExists(context.Background(), "master")
	require.NoError(t, err)

	// the next lookup retries the catalog query instead of trusting a
	// half-built index
	stub.queryErr = nil
	stub.queryRows = serverDatabases()
	exists, err := m.DatabaseExists(context.Background(), "master")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDatabaseExistsConnectFailurePropagates(t *testing.T) {
	m, stub, _ := newTestManager(nil, map[string]string{
		"host":            "127.0.0.1,1",
		"command_timeout": "1",
	})
	stub.connectErr = errors.New("login failed")

	exists, err := m.DatabaseExists(context.Background(), "master")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConnectionFailed))
	assert.False(t, exists)
}

func TestCheckDatabase(t *testing.T) {
	m, stub, _ := newTestManager(nil, map[string]string{"host": "dbhost", "database": "AppDb"})
	stub.queryRows = serverDatabases()

	exists, checkContext, err := m.CheckDatabase(context.Background())
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "dbhost - AppDb", checkContext)
}

func TestCheckDatabaseDefaultsToMaster(t *testing.T) {
	m, stub, _ := newTestManager(nil, map[string]string{"host": "dbhost"})
	stub.queryRows = serverDatabases()

	exists, checkContext, err := m.CheckDatabase(context.Background())
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "dbhost - master", checkContext)
}
