package connection

import (
	"context"
	"fmt"
	"net"
	"strconv"
)

// testNetworkConnectivity tries to establish a raw TCP connection to the
// database host within the command timeout. It returns a description of
// the failure, or the empty string when the host is reachable, meaning a
// connect failure happened at the protocol or auth layer instead.
func (m *Manager) testNetworkConnectivity(ctx context.Context) string {
	host, port, _ := splitServerHostPort(m.instance.Get("host"))
	if port == "" {
		port = strconv.Itoa(defaultPort)
		if providedPort := m.instance.Get("port"); providedPort != "" {
			port = providedPort
		}
	}

	if _, err := strconv.Atoi(port); err != nil {
		return fmt.Sprintf("ERROR: invalid port: %v", err)
	}

	dialer := net.Dialer{Timeout: m.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return fmt.Sprintf("ERROR: %v", err)
	}
	conn.Close()

	return ""
}
