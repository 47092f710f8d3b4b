package connection

import "strings"

// Option tables map each raw connection-string key to the discrete
// configuration field it duplicates. The two tables encode genuinely
// different wire formats, one per driver family.
func adoOptions(databaseField string) map[string]string {
	return map[string]string{
		"PROVIDER":        "adoprovider",
		"Data Source":     "host",
		"Initial Catalog": databaseField,
		"User ID":         "username",
		"Password":        "password",
	}
}

func odbcOptions(databaseField string) map[string]string {
	return map[string]string{
		"DSN":      "dsn",
		"DRIVER":   "driver",
		"SERVER":   "host",
		"DATABASE": databaseField,
		"UID":      "username",
		"PWD":      "password",
	}
}

// validateConnectionOptions enforces "specify each logical setting
// exactly once, through exactly one channel": a setting may come from a
// discrete config field or from the raw connection string, never both,
// and raw-string keys must belong to the active driver family.
func (m *Manager) validateConnectionOptions(dbKey, dbName string) error {
	cs := m.instance.Get("connection_string")
	username := m.instance.Get("username")
	password := m.instance.Get("password")

	databaseField := dbName
	if databaseField == "" {
		databaseField = dbKey
	}

	var activeOptions, otherOptions map[string]string
	var otherFamily string
	if m.connectorName == connectorADO {
		activeOptions = adoOptions(databaseField)
		otherOptions = odbcOptions(databaseField)
		otherFamily = connectorODBC
	} else {
		activeOptions = odbcOptions(databaseField)
		otherOptions = adoOptions(databaseField)
		otherFamily = connectorADO
	}

	activeFields := make(map[string]bool, len(activeOptions))
	for _, field := range activeOptions {
		activeFields[field] = true
	}
	warned := make(map[string]bool)
	for _, field := range otherOptions {
		if activeFields[field] || warned[field] || !m.instance.IsSet(field) {
			continue
		}
		warned[field] = true
		m.safeLog("warn", "%s option will be ignored since %s connection is used", field, m.connectorName)
	}

	if cs == "" {
		return nil
	}

	parsed, err := ParseConnectionStringProperties(cs)
	if err != nil {
		return err
	}

	if trusted, ok := parsed.GetFold("trusted_connection"); ok {
		switch strings.ToLower(trusted) {
		case "yes", "true":
			if username != "" || password != "" {
				m.safeLog("warn", "Username and password are ignored when using Windows authentication")
			}
		}
	}

	for key, field := range activeOptions {
		if parsed.HasFold(key) && m.instance.IsSet(field) {
			return NewConfigurationError(
				"%s has been provided both in the connection string and as a configuration option (%s), please specify it only once",
				key, field)
		}
	}
	for key := range otherOptions {
		if parsed.HasFold(key) {
			return NewConfigurationError(
				"%s has been provided in the connection string. This option is only available for %s connections, however %s has been selected",
				key, otherFamily, m.connectorName)
		}
	}
	return nil
}
