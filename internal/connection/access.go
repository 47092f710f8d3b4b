package connection

// AccessInfo is the resolved set of fields used to reach one database.
// Defaults are applied when a field is absent; once resolved for a given
// lookup the value is never mutated.
type AccessInfo struct {
	DSN      string
	Host     string
	Username string
	Password string
	Database string
	Driver   string
}

// ConnKey identifies one cached connection. It carries the password, so
// it must never be logged, rendered in an error, or exposed outside the
// cache map.
type ConnKey struct {
	Prefix   string
	DSN      string
	Host     string
	Username string
	Password string
	Database string
	Driver   string
}

// getAccessInfo resolves the connection fields for a target database.
// dbName overrides the config value stored under dbKey when non-empty.
func (m *Manager) getAccessInfo(dbKey, dbName string) AccessInfo {
	database := dbName
	if database == "" {
		database = m.instance.Get(dbKey)
	}

	info := AccessInfo{
		DSN:      m.instance.Get("dsn"),
		Host:     m.hostWithPort(),
		Username: m.instance.Get("username"),
		Password: m.instance.Get("password"),
		Database: database,
		Driver:   m.instance.Get("driver"),
	}

	if info.DSN == "" {
		if info.Host == "" {
			m.safeLog("debug", "No host provided, falling back to defaults: host=127.0.0.1, port=%d", defaultPort)
			info.Host = "127.0.0.1,1433"
		}
		if info.Database == "" {
			m.safeLog("debug", "No database provided, falling back to default: %s", DefaultDatabase)
			info.Database = DefaultDatabase
		}
		if info.Driver == "" {
			m.safeLog("debug", "No driver provided, falling back to default: %s", defaultDriver)
			info.Driver = defaultDriver
		}
	}
	return info
}

// connKey builds the cache key for a target database
func (m *Manager) connKey(dbKey, dbName, keyPrefix string) ConnKey {
	info := m.getAccessInfo(dbKey, dbName)
	return ConnKey{
		Prefix:   keyPrefix,
		DSN:      info.DSN,
		Host:     info.Host,
		Username: info.Username,
		Password: info.Password,
		Database: info.Database,
		Driver:   info.Driver,
	}
}
