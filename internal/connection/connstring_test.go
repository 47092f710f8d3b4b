package connection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnStringODBCWithDSN(t *testing.T) {
	m, _, _ := newTestManager(map[string]string{"connector": "odbc"}, map[string]string{
		"dsn":      "mydsn",
		"username": "watcher",
		"password": "s3cret",
	})

	// a DSN suppresses the host, database and driver defaults
	assert.Equal(t, "ConnectRetryCount=2;DSN=mydsn;UID=watcher;PWD=s3cret;",
		m.connStringODBC(DefaultDBKey, ""))
}

func TestConnStringADOProviderOverride(t *testing.T) {
	m, _, _ := newTestManager(nil, map[string]string{
		"host":        "dbhost",
		"adoprovider": "MSOLEDBSQL",
	})

	cs := m.connStringADO(DefaultDBKey, "")
	assert.Contains(t, cs, "Provider=MSOLEDBSQL;")
}

func TestConnStringPasswordNeverLogged(t *testing.T) {
	m, _, _ := newTestManager(map[string]string{"connector": "odbc"}, map[string]string{
		"host":     "dbhost",
		"password": "s3cret",
	})
	log := newCapturedLogger()
	m.SetLogger(log.Logger)

	cs := m.connStringODBC(DefaultDBKey, "")
	assert.Contains(t, cs, "PWD=s3cret;")

	for _, entry := range log.drain() {
		assert.NotContains(t, entry.Message, "s3cret")
	}
}
