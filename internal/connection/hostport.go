package connection

import (
	"strconv"
	"strings"
)

// defaultPort is the port SQL Server listens on unless configured otherwise
const defaultPort = 1433

// splitServerHostPort splits the "host[,port]" convention used by SQL
// Server host strings. It returns the host, the port (empty when absent)
// and any extra comma-separated fields that were discarded; the caller
// decides whether discarding warrants a warning.
func splitServerHostPort(host string) (string, string, []string) {
	if host == "" {
		return "", "", nil
	}
	parts := strings.Split(host, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) == 1 {
		return parts[0], "", nil
	}
	return parts[0], parts[1], parts[2:]
}

// hostWithPort returns the configured host in "host,port" form. A port
// embedded in the host string wins, then the separate port option, then
// the default. An unparsable port falls back to the default with a
// warning.
func (m *Manager) hostWithPort() string {
	host := m.instance.Get("host")
	if host == "" {
		return ""
	}

	port := strconv.Itoa(defaultPort)
	splitHost, splitPort, discarded := splitServerHostPort(host)
	if len(discarded) > 0 {
		m.safeLog("warn",
			"invalid sqlserver host string has more than one comma: %s. using only 1st two items: host:%s, port:%s",
			host, splitHost, splitPort)
	}

	if splitPort != "" {
		port = splitPort
	} else if configPort := m.instance.Get("port"); configPort != "" {
		port = configPort
	}
	if _, err := strconv.Atoi(port); err != nil {
		m.safeLog("warn", "Invalid port %s; falling back to default %d", port, defaultPort)
		port = strconv.Itoa(defaultPort)
	}

	return splitHost + "," + port
}
