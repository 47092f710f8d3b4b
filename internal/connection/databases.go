package connection

import (
	"context"
	"errors"
	"strings"
)

// databaseExistsQuery also fetches collation, which decides whether a
// name comparison is case sensitive
const databaseExistsQuery = "select name, collation_name from sys.databases;"

// databaseEntry is one row of the lazily built existence index, keyed in
// the cache by the lowercased name
type databaseEntry struct {
	name            string
	caseInsensitive bool
}

// CheckDatabase reports whether the configured monitored database exists
// on the server, resolving the server's case-sensitivity rules. The
// "host - database" context string is returned alongside for status
// messages.
func (m *Manager) CheckDatabase(ctx context.Context) (bool, string, error) {
	dbName := m.instance.Get(DefaultDBKey)
	if dbName == "" {
		dbName = DefaultDatabase
	}
	checkContext := m.instance.Get("host") + " - " + dbName
	exists, err := m.databaseExists(ctx, dbName)
	return exists, checkContext, err
}

// DatabaseExists reports whether dbName exists on the server
func (m *Manager) DatabaseExists(ctx context.Context, dbName string) (bool, error) {
	return m.databaseExists(ctx, dbName)
}

func (m *Manager) databaseExists(ctx context.Context, dbName string) (bool, error) {
	m.mu.Lock()
	index := m.existing
	m.mu.Unlock()

	if index == nil {
		var err error
		index, err = m.fetchDatabaseIndex(ctx)
		if err != nil {
			// a failed connect keeps its classified error; a failed
			// catalog query degrades to "does not exist" so one bad
			// permission grant cannot abort the whole cycle
			if errors.Is(err, ErrConnectionFailed) || errors.Is(err, ErrInvalidConfiguration) {
				return false, err
			}
			m.safeLog("error", "Failed to check if database %s exists: %s", dbName, err)
			return false, nil
		}
		m.mu.Lock()
		m.existing = index
		m.mu.Unlock()
	}

	entry, found := index[strings.ToLower(dbName)]
	if !found {
		return false, nil
	}
	// on a case-sensitive server the configured name must match exactly
	return entry.caseInsensitive || entry.name == dbName, nil
}

// InvalidateDatabaseIndex drops the cached existence index so the next
// lookup re-reads sys.databases
func (m *Manager) InvalidateDatabaseIndex() {
	m.mu.Lock()
	m.existing = nil
	m.mu.Unlock()
}

// fetchDatabaseIndex reads sys.databases over a short-lived connection
// to the default database. A NULL collation (contained or restoring
// databases) is treated as case insensitive, matching the server default.
func (m *Manager) fetchDatabaseIndex(ctx context.Context) (map[string]databaseEntry, error) {
	index := make(map[string]databaseEntry)
	err := m.WithManagedConnection(ctx, "", DefaultDatabase, "", func() error {
		cursor, err := m.GetCursor("", DefaultDatabase, "")
		if err != nil {
			return err
		}
		defer m.CloseCursor(cursor)

		rows, err := cursor.Query(ctx, databaseExistsQuery)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var name string
			var collation *string
			if err := rows.Scan(&name, &collation); err != nil {
				return err
			}
			index[strings.ToLower(name)] = databaseEntry{
				name:            name,
				caseInsensitive: collation == nil || strings.Contains(*collation, "CI"),
			}
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return index, nil
}
