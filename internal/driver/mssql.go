package driver

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb"
)

// Both connector families ride on go-mssqldb, which accepts ADO and
// ODBC style "key=value;" connection strings including the standard key
// synonyms (Data Source, Initial Catalog, UID, PWD). The families stay
// separate values so configuration selects them explicitly and tests can
// replace either one.

// NewADOConnector returns the connector for the ADO/OLEDB family
func NewADOConnector() Connector {
	return &sqlServerConnector{name: "ado"}
}

// NewODBCConnector returns the connector for the ODBC family
func NewODBCConnector() Connector {
	return &sqlServerConnector{name: "odbc"}
}

type sqlServerConnector struct {
	name string
}

func (c *sqlServerConnector) Name() string {
	return c.name
}

// Connect opens a native connection and pins one session for cursors, so
// session-scoped statements issued after connect apply to every cursor.
func (c *sqlServerConnector) Connect(ctx context.Context, connString string, opts ConnectOptions) (Conn, error) {
	cs := normalizeServerPort(connString)
	if opts.Timeout > 0 {
		secs := int(opts.Timeout / time.Second)
		if secs < 1 {
			secs = 1
		}
		cs += fmt.Sprintf("dial timeout=%d;connection timeout=%d;", secs, secs)
	}

	db, err := sql.Open("sqlserver", cs)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %w", err)
	}

	connectCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	sess, err := db.Conn(connectCtx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	if err := sess.PingContext(connectCtx); err != nil {
		sess.Close()
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	return &sqlServerConn{db: db, sess: sess, timeout: opts.Timeout}, nil
}

type sqlServerConn struct {
	db      *sql.DB
	sess    *sql.Conn
	timeout time.Duration
	closed  bool
}

func (c *sqlServerConn) Cursor() (Cursor, error) {
	if c.closed {
		return nil, ErrConnectionClosed
	}
	return &sqlServerCursor{sess: c.sess, timeout: c.timeout}, nil
}

func (c *sqlServerConn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	sessErr := c.sess.Close()
	dbErr := c.db.Close()
	if sessErr != nil {
		return sessErr
	}
	return dbErr
}

type sqlServerCursor struct {
	sess    *sql.Conn
	timeout time.Duration
	closed  bool
}

func (c *sqlServerCursor) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

func (c *sqlServerCursor) Exec(ctx context.Context, stmt string) error {
	if c.closed {
		return ErrConnectionClosed
	}
	opCtx, cancel := c.opContext(ctx)
	defer cancel()
	_, err := c.sess.ExecContext(opCtx, stmt)
	return err
}

func (c *sqlServerCursor) Query(ctx context.Context, query string) (Rows, error) {
	if c.closed {
		return nil, ErrConnectionClosed
	}
	// No per-op deadline here: the rows outlive this call and a canceled
	// context would invalidate them mid-scan. The session-level
	// connection timeout still bounds the statement on the server side.
	rows, err := c.sess.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *sqlServerCursor) Close() error {
	// The session belongs to the connection; closing a cursor only marks
	// it unusable. Re-closing is not an error.
	c.closed = true
	return nil
}

// normalizeServerPort rewrites the ADO/ODBC "host,port" server
// convention into discrete server and port parameters, which is what
// go-mssqldb expects. Segment boundaries honor brace escaping, so a ';'
// inside an escaped value never starts a new segment. Only plain
// (unescaped) server segments are rewritten; everything else passes
// through byte-for-byte.
func normalizeServerPort(connString string) string {
	segments := splitSegments(connString)
	for i, seg := range segments {
		key, value, found := strings.Cut(seg, "=")
		if !found || strings.ContainsAny(value, "{}") {
			continue
		}
		k := strings.ToLower(strings.TrimSpace(key))
		if k != "server" && k != "data source" {
			continue
		}
		host, port, hasPort := strings.Cut(value, ",")
		if !hasPort {
			continue
		}
		segments[i] = key + "=" + host + ";port=" + port
	}
	cs := strings.Join(segments, ";")
	if cs != "" && !strings.HasSuffix(cs, ";") {
		cs += ";"
	}
	return cs
}

// splitSegments splits a connection string on ';' outside brace-escaped
// regions, with "}}" inside an escape kept as a literal
func splitSegments(s string) []string {
	var segments []string
	start := 0
	escaping := false
	for i := 0; i < len(s); i++ {
		switch {
		case escaping:
			if s[i] == '}' {
				if i+1 < len(s) && s[i+1] == '}' {
					i++
					continue
				}
				escaping = false
			}
		case s[i] == '{':
			escaping = true
		case s[i] == ';':
			segments = append(segments, s[start:i])
			start = i + 1
		}
	}
	return append(segments, s[start:])
}
