package connection

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dbpulse/dbpulse/internal/driver"
	"github.com/dbpulse/dbpulse/pkg/config"
	"github.com/dbpulse/dbpulse/pkg/health"
	"github.com/dbpulse/dbpulse/pkg/logger"
)

const (
	// DefaultDatabase is the database monitored when none is configured
	DefaultDatabase = "master"

	// DefaultDBKey is the config key holding the monitored database name
	DefaultDBKey = "database"

	// ProcGuardDBKey is the config key guarding stored-procedure checks
	// to a specific database
	ProcGuardDBKey = "proc_only_if_database"

	defaultDriver         = "SQL Server"
	defaultCommandTimeout = 5
	sqlServer2014         = 2014

	// effectively "always modern" when server_version is not configured
	defaultServerVersion = 1_000_000_000

	connectorADO  = "ado"
	connectorODBC = "odbc"

	// ensure that by default the agent's reads can never block updates
	// to any tables it's reading from
	setupStatement = "SET TRANSACTION ISOLATION LEVEL READ UNCOMMITTED"
)

var validADOProviders = []string{"SQLOLEDB", "MSOLEDBSQL", "MSOLEDBSQL19", "SQLNCLI11"}

const defaultADOProvider = "SQLOLEDB"

// Manager owns the cache of live SQL Server connections for one
// monitored instance. Connections are keyed by the full resolved access
// identity; no other component may keep a native connection past a
// cursor borrow. The driver family is fixed at construction.
type Manager struct {
	instance *config.Config
	report   health.ReportFunc
	log      *logger.Logger

	connectorName string
	connector     driver.Connector
	adoProvider   string
	timeout       time.Duration
	serverVersion int

	mu       sync.Mutex
	conns    map[ConnKey]driver.Conn
	existing map[string]databaseEntry
}

// NewManager creates a connection manager from the shared init config
// and the per-instance config. The handler receives a service-check
// result for every connection attempt.
func NewManager(initConfig, instance *config.Config, handler health.ReportFunc) *Manager {
	m := &Manager{
		instance:      instance,
		report:        handler,
		conns:         make(map[ConnKey]driver.Conn),
		timeout:       time.Duration(instance.GetInt("command_timeout", defaultCommandTimeout)) * time.Second,
		serverVersion: instance.GetInt("server_version", defaultServerVersion),
	}

	defaultConnector := connectorADO
	if connector := initConfig.Get("connector"); connector != "" {
		if isValidConnector(connector) {
			defaultConnector = strings.ToLower(connector)
		} else {
			m.safeLog("error", "Invalid database connector %s, defaulting to %s", connector, connectorADO)
		}
	} else {
		m.safeLog("debug", "`connector` config value was not set, defaulting to %s", connectorADO)
	}
	m.connectorName = m.resolveConnector(defaultConnector)

	switch m.connectorName {
	case connectorODBC:
		m.connector = driver.NewODBCConnector()
	default:
		m.connector = driver.NewADOConnector()
	}

	m.adoProvider = defaultADOProvider
	if provider := initConfig.Get("adoprovider"); provider != "" {
		if isValidADOProvider(provider) {
			m.adoProvider = provider
		} else {
			m.safeLog("error", "Invalid ADODB provider string %s, defaulting to %s", provider, defaultADOProvider)
		}
	}

	return m
}

func isValidConnector(connector string) bool {
	switch strings.ToLower(connector) {
	case connectorADO, connectorODBC:
		return true
	}
	return false
}

func isValidADOProvider(provider string) bool {
	for _, valid := range validADOProviders {
		if strings.EqualFold(provider, valid) {
			return true
		}
	}
	return false
}

// resolveConnector applies the per-instance connector override, falling
// back to the default when the override is invalid
func (m *Manager) resolveConnector(defaultConnector string) string {
	connector := m.instance.Get("connector")
	if connector == "" || strings.EqualFold(connector, defaultConnector) {
		return defaultConnector
	}
	if !isValidConnector(connector) {
		m.safeLog("warn", "Invalid database connector %s using default %s", connector, defaultConnector)
		return defaultConnector
	}
	m.safeLog("debug", "Overriding default connector for %s with %s", m.instance.Get("host"), connector)
	return strings.ToLower(connector)
}

// getADOProvider applies the per-instance provider override, falling
// back to the resolved provider when the override is invalid
func (m *Manager) getADOProvider() string {
	provider := m.instance.Get("adoprovider")
	if provider == "" || provider == m.adoProvider {
		return m.adoProvider
	}
	if !isValidADOProvider(provider) {
		m.safeLog("warn", "Invalid ADO provider %s using default %s", provider, m.adoProvider)
		return m.adoProvider
	}
	m.safeLog("debug", "Overriding default ADO provider for %s with %s", m.instance.Get("host"), provider)
	return provider
}

// SetLogger sets the logger for the manager
func (m *Manager) SetLogger(log *logger.Logger) {
	m.log = log
}

// SetConnector replaces the driver connector. The family selected at
// construction stays fixed; this only swaps the implementation behind
// it, which is how tests substitute a stub driver.
func (m *Manager) SetConnector(c driver.Connector) {
	m.connector = c
}

// Connector returns the active driver family name
func (m *Manager) Connector() string {
	return m.connectorName
}

// safeLog safely logs a message if a logger is configured
func (m *Manager) safeLog(level string, format string, args ...interface{}) {
	if m.log == nil {
		return
	}
	switch level {
	case "info":
		m.log.Info(format, args...)
	case "error":
		m.log.Error(format, args...)
	case "warn":
		m.log.Warn(format, args...)
	case "debug":
		m.log.Debug(format, args...)
	}
}

// OpenDBConnections opens the connection for a target database and
// installs it in the cache. Connections are opened explicitly so they
// are known to be usable before a check runs and closable once it ends;
// an open connection holds locks on the server, which presents as issues
// like the SQL Server Agent being unable to stop.
//
// On failure the probe-and-classify path reports CRITICAL through the
// status handler; the error is returned only for the default database so
// a multi-database scan keeps going when a secondary database is down.
func (m *Manager) OpenDBConnections(ctx context.Context, dbKey, dbName string, isDefault bool, keyPrefix string) error {
	connKey := m.connKey(dbKey, dbName, keyPrefix)
	info := m.getAccessInfo(dbKey, dbName)

	cs := m.instance.Get("connection_string")
	if cs != "" {
		cs += ";"
	}

	if err := m.validateConnectionOptions(dbKey, dbName); err != nil {
		return err
	}

	switch m.connectorName {
	case connectorODBC:
		cs += m.connStringODBC(dbKey, dbName)
	default:
		cs += m.connStringADO(dbKey, dbName)
	}

	// autocommit: true disables implicit transactions
	rawConn, err := m.connector.Connect(ctx, cs, driver.ConnectOptions{Timeout: m.timeout, Autocommit: true})
	if err == nil {
		m.report(health.StatusOK, info.Host, info.Database, "", isDefault)
		m.install(connKey, rawConn)
		err = m.setupNewConnection(ctx, rawConn)
	}
	if err != nil {
		tcpStatus := "OK"
		if reason := m.testNetworkConnectivity(ctx); reason != "" {
			tcpStatus = reason
		}
		message := fmt.Sprintf(
			"Unable to connect to SQL Server (host=%s database=%s). TCP-connection(%s). Exception: %s",
			info.Host, info.Database, tcpStatus, formatConnectionError(err))
		message = m.redactPassword(message)

		m.report(health.StatusCritical, info.Host, info.Database, message, isDefault)

		// Only raise on the default instance database
		if isDefault {
			return &ConnectionError{Host: info.Host, Database: info.Database, Message: message, Cause: err}
		}
	}
	return nil
}

// install places a new connection in the cache, explicitly closing any
// previous entry under the same key first to avoid leaking descriptors
// on reconnect
func (m *Manager) install(key ConnKey, conn driver.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, exists := m.conns[key]; exists {
		if err := old.Close(); err != nil {
			m.safeLog("info", "Could not close db connection\n%s", err)
		}
	}
	m.conns[key] = conn
}

// setupNewConnection pins the session isolation level on a fresh
// connection
func (m *Manager) setupNewConnection(ctx context.Context, conn driver.Conn) error {
	cursor, err := conn.Cursor()
	if err != nil {
		return err
	}
	defer m.CloseCursor(cursor)
	return cursor.Exec(ctx, setupStatement)
}

// GetCursor returns a fresh cursor from the cached connection for a
// target database. The miss error names only the host: the cache key
// embeds auth info in clear text and must never leak.
func (m *Manager) GetCursor(dbKey, dbName, keyPrefix string) (driver.Cursor, error) {
	connKey := m.connKey(dbKey, dbName, keyPrefix)

	m.mu.Lock()
	conn, exists := m.conns[connKey]
	m.mu.Unlock()
	if !exists {
		return nil, &LookupError{Host: m.instance.Get("host")}
	}
	return conn.Cursor()
}

// CloseCursor closes a cursor explicitly. Any failure is logged, never
// returned: the driver may have closed the cursor already, and cleanup
// must not mask the primary operation.
func (m *Manager) CloseCursor(cursor driver.Cursor) {
	if cursor == nil {
		return
	}
	if err := cursor.Close(); err != nil {
		m.safeLog("warn", "Could not close cursor\n%s", err)
	}
}

// CloseDBConnections closes the cached connection for a target database
// and removes it. Closing is idempotent and a failure is logged rather
// than returned, because a close must never abort a monitoring cycle.
func (m *Manager) CloseDBConnections(dbKey, dbName, keyPrefix string) {
	connKey := m.connKey(dbKey, dbName, keyPrefix)

	m.mu.Lock()
	defer m.mu.Unlock()

	conn, exists := m.conns[connKey]
	if !exists {
		return
	}
	if err := conn.Close(); err != nil {
		m.safeLog("warn", "Could not close db connection\n%s", err)
		return
	}
	delete(m.conns, connKey)
}

// WithManagedConnection opens the connection for a target database, runs
// fn, and guarantees the connection is closed on every exit path.
func (m *Manager) WithManagedConnection(ctx context.Context, dbKey, dbName, keyPrefix string, fn func() error) error {
	if err := m.OpenDBConnections(ctx, dbKey, dbName, true, keyPrefix); err != nil {
		return err
	}
	defer m.CloseDBConnections(dbKey, dbName, keyPrefix)
	return fn()
}

// WithDefaultDatabase runs fn with an open connection to the default
// database
func (m *Manager) WithDefaultDatabase(ctx context.Context, fn func() error) error {
	return m.WithManagedConnection(ctx, "", DefaultDatabase, "", fn)
}

// WithDefaultConnection runs fn with an open connection to the
// configured monitored database
func (m *Manager) WithDefaultConnection(ctx context.Context, keyPrefix string, fn func() error) error {
	return m.WithManagedConnection(ctx, DefaultDBKey, "", keyPrefix, fn)
}

// WithManagedCursor borrows a cursor on the configured monitored
// database connection, runs fn, and closes the cursor on every exit
// path. This is the only place callers may skip close bookkeeping.
func (m *Manager) WithManagedCursor(keyPrefix string, fn func(driver.Cursor) error) error {
	cursor, err := m.GetCursor(DefaultDBKey, "", keyPrefix)
	if err != nil {
		return err
	}
	defer m.CloseCursor(cursor)
	return fn(cursor)
}

// CheckDatabaseConns opens and closes a connection for a non-default
// database as a pure connectivity check. Failures are reported through
// the status handler but never returned, so a scan over many databases
// continues past one that is down.
func (m *Manager) CheckDatabaseConns(ctx context.Context, dbName string) {
	// isDefault false: OpenDBConnections swallows the failure after
	// reporting it
	_ = m.OpenDBConnections(ctx, "", dbName, false, "")
	m.CloseDBConnections("", dbName, "")
}
