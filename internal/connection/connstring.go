package connection

import (
	"fmt"
	"strings"
)

// csField is one entry of a family's field-order table: the wire key and
// the AccessInfo field it renders. Both families share the same "emit
// the present fields in fixed order" algorithm; only the tables differ.
type csField struct {
	key   string
	value func(info AccessInfo) string
}

var odbcFieldOrder = []csField{
	{"DSN", func(i AccessInfo) string { return i.DSN }},
	{"DRIVER", func(i AccessInfo) string { return i.Driver }},
	{"Server", func(i AccessInfo) string { return i.Host }},
	{"Database", func(i AccessInfo) string { return i.Database }},
	{"UID", func(i AccessInfo) string { return i.Username }},
}

var adoFieldOrder = []csField{
	{"Data Source", func(i AccessInfo) string { return i.Host }},
	{"Initial Catalog", func(i AccessInfo) string { return i.Database }},
	{"User ID", func(i AccessInfo) string { return i.Username }},
}

// buildFromFields renders the present fields in table order, each
// terminated by ';'
func buildFromFields(fields []csField, info AccessInfo) string {
	var b strings.Builder
	for _, f := range fields {
		if v := f.value(info); v != "" {
			fmt.Fprintf(&b, "%s=%s;", f.key, v)
		}
	}
	return b.String()
}

// retryPrefix returns the connection-resiliency prefix for server
// versions that support it. The feature exists on Azure SQL Database and
// SQL Server 2014 and later.
func (m *Manager) retryPrefix() string {
	if m.serverVersion >= sqlServer2014 {
		return "ConnectRetryCount=2;"
	}
	return ""
}

// connStringODBC builds the ODBC-family connection string for a target
// database. The password is appended after the debug log line so it
// never reaches the log.
func (m *Manager) connStringODBC(dbKey, dbName string) string {
	info := m.getAccessInfo(dbKey, dbName)

	connStr := m.retryPrefix() + buildFromFields(odbcFieldOrder, info)
	m.safeLog("debug", "Connection string (before password) %s", connStr)
	if info.Password != "" {
		connStr += fmt.Sprintf("PWD=%s;", info.Password)
	}
	return connStr
}

// connStringADO builds the ADO/OLEDB-family connection string for a
// target database. When neither username nor password is configured the
// integrated-security marker is appended instead of credentials.
func (m *Manager) connStringADO(dbKey, dbName string) string {
	info := m.getAccessInfo(dbKey, dbName)
	provider := m.getADOProvider()

	connStr := m.retryPrefix() + fmt.Sprintf("Provider=%s;", provider) + buildFromFields(adoFieldOrder, info)
	m.safeLog("debug", "Connection string (before password) %s", connStr)
	if info.Password != "" {
		connStr += fmt.Sprintf("Password=%s;", info.Password)
	}
	if info.Username == "" && info.Password == "" {
		connStr += "Integrated Security=SSPI;"
	}
	return connStr
}
