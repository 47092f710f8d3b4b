package connection

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConnectionStringProperties(t *testing.T) {
	tests := []struct {
		name string
		cs   string
		want map[string]string
	}{
		{
			"simple pairs",
			"key1=value1;key2=value2",
			map[string]string{"key1": "value1", "key2": "value2"},
		},
		{
			"trailing semicolon",
			"key1=value1;",
			map[string]string{"key1": "value1"},
		},
		{
			"spaces between pairs",
			"key1=value1;   key2=value2",
			map[string]string{"key1": "value1", "key2": "value2"},
		},
		{
			"keys with spaces",
			"User ID=watcher;Initial Catalog=master",
			map[string]string{"User ID": "watcher", "Initial Catalog": "master"},
		},
		{
			"braces escape separators",
			"PWD={pass;word=1};Server=dbhost",
			map[string]string{"PWD": "pass;word=1", "Server": "dbhost"},
		},
		{
			"double closing brace is a literal",
			"PWD={ab}}cd};Server=dbhost",
			map[string]string{"PWD": "ab}cd", "Server": "dbhost"},
		},
		{
			"surrounding whitespace trimmed",
			"  key1=value1;key2=value2  ",
			map[string]string{"key1": "value1", "key2": "value2"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConnectionStringProperties(tt.cs)
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), got.Len())
			for k, want := range tt.want {
				v, ok := got.Get(k)
				require.True(t, ok, "missing key %q", k)
				assert.Equal(t, want, v)
			}
		})
	}
}

func TestParseConnectionStringPropertiesRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		cs   string
	}{
		{"plain pairs", "Server=dbhost;Database=master;UID=watcher;"},
		{"value with separator", "PWD={pass;word};Server=dbhost;"},
		{"value with equals", "PWD={pass=word};Server=dbhost;"},
		{"value with literal brace", "PWD={ab}}cd};Server=dbhost;"},
		{"everything at once", "PWD={a=b;c}}d};APP=dbpulse;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := ParseConnectionStringProperties(tt.cs)
			require.NoError(t, err)

			// serializing and re-parsing yields the same property set
			reparsed, err := ParseConnectionStringProperties(parsed.String())
			require.NoError(t, err)
			assert.Equal(t, parsed.Keys(), reparsed.Keys())
			for _, k := range parsed.Keys() {
				want, _ := parsed.Get(k)
				got, ok := reparsed.Get(k)
				require.True(t, ok, "missing key %q after round trip", k)
				assert.Equal(t, want, got, k)
			}
		})
	}
}

func TestParseConnectionStringPropertiesKeyOrder(t *testing.T) {
	got, err := ParseConnectionStringProperties("b=1;a=2;c=3")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, got.Keys())
}

func TestParseConnectionStringPropertiesFold(t *testing.T) {
	got, err := ParseConnectionStringProperties("Trusted_Connection=yes")
	require.NoError(t, err)

	v, ok := got.GetFold("trusted_connection")
	require.True(t, ok)
	assert.Equal(t, "yes", v)
	assert.True(t, got.HasFold("TRUSTED_CONNECTION"))
	assert.False(t, got.HasFold("uid"))
}

func TestParseConnectionStringPropertiesErrors(t *testing.T) {
	tests := []struct {
		name string
		cs   string
	}{
		{"empty key", "=value"},
		{"equals inside value", "key=val=ue"},
		{"empty value", "key=;other=1"},
		{"empty value at end", "key1=value1;key2="},
		{"unterminated escape", "key={value"},
		{"closing brace outside escape", "key=va}lue"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConnectionStringProperties(tt.cs)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfiguration))
		})
	}
}
