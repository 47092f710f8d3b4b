package connection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitServerHostPort(t *testing.T) {
	tests := []struct {
		in            string
		host, port    string
		wantDiscarded int
	}{
		{"", "", "", 0},
		{"dbhost", "dbhost", "", 0},
		{"dbhost,1500", "dbhost", "1500", 0},
		{"dbhost, 1500", "dbhost", "1500", 0},
		{"dbhost,1500,extra", "dbhost", "1500", 1},
		{"dbhost,1500,a,b", "dbhost", "1500", 2},
	}
	for _, tt := range tests {
		host, port, discarded := splitServerHostPort(tt.in)
		assert.Equal(t, tt.host, host, tt.in)
		assert.Equal(t, tt.port, port, tt.in)
		assert.Len(t, discarded, tt.wantDiscarded, tt.in)
	}
}

func TestHostWithPort(t *testing.T) {
	tests := []struct {
		name     string
		instance map[string]string
		want     string
	}{
		{"bare host gets default port", map[string]string{"host": "dbhost"}, "dbhost,1433"},
		{"embedded port wins", map[string]string{"host": "dbhost,1500", "port": "4000"}, "dbhost,1500"},
		{"port option fills in", map[string]string{"host": "dbhost", "port": "4000"}, "dbhost,4000"},
		{"extra fields discarded", map[string]string{"host": "dbhost,1500,unexpected"}, "dbhost,1500"},
		{"unparsable port falls back", map[string]string{"host": "dbhost,not-a-port"}, "dbhost,1433"},
		{"unparsable port option falls back", map[string]string{"host": "dbhost", "port": "oops"}, "dbhost,1433"},
		{"no host", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _ := newTestManager(nil, tt.instance)
			assert.Equal(t, tt.want, m.hostWithPort())
		})
	}
}
