package driver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectorNames(t *testing.T) {
	assert.Equal(t, "ado", NewADOConnector().Name())
	assert.Equal(t, "odbc", NewODBCConnector().Name())
}

func TestNormalizeServerPort(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"server with port",
			"server=dbhost,1500;database=master;",
			"server=dbhost;port=1500;database=master;",
		},
		{
			"data source with port",
			"Data Source=dbhost,1500;Initial Catalog=master;",
			"Data Source=dbhost;port=1500;Initial Catalog=master;",
		},
		{
			"server without port untouched",
			"server=dbhost;database=master;",
			"server=dbhost;database=master;",
		},
		{
			"escaped value untouched",
			"server={dbhost,1500};database=master;",
			"server={dbhost,1500};database=master;",
		},
		{
			"separator inside escaped value is not a boundary",
			"PWD={ab;server=h,1;cd};database=master;",
			"PWD={ab;server=h,1;cd};database=master;",
		},
		{
			"literal brace inside escaped value",
			"PWD={a}};b};server=dbhost,1500;",
			"PWD={a}};b};server=dbhost;port=1500;",
		},
		{
			"trailing separator appended",
			"server=dbhost",
			"server=dbhost;",
		},
		{
			"case insensitive key",
			"SERVER=dbhost,1500;",
			"SERVER=dbhost;port=1500;",
		},
		{
			"empty string",
			"",
			"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeServerPort(tt.in))
		})
	}
}

func TestProviderError(t *testing.T) {
	cause := errors.New("wire reset")
	err := &ProviderError{HResult: -2147352567, Message: "Invalid connection string attribute", Cause: cause}

	assert.True(t, errors.Is(err, ErrConnectionFailed))
	assert.Equal(t, cause, errors.Unwrap(err))
	assert.Contains(t, err.Error(), "hresult=-2147352567")
	assert.Contains(t, err.Error(), "wire reset")

	bare := &ProviderError{HResult: 7, Message: "nope"}
	assert.NotContains(t, bare.Error(), "<nil>")
}
