package connection

import "strings"

// we're only including the bare minimum set of special characters needed
// to parse the connection string while supporting brace escaping; the
// driver or the server ultimately decides what's valid
const connStringSpecialCharacters = "=;{}"

// Properties is the parsed form of a connection-string fragment: an
// ordered key/value mapping. Keys keep their parsed spelling; lookups may
// be exact or case-insensitive.
type Properties struct {
	keys   []string
	values map[string]string
}

// Len returns the number of parsed properties
func (p *Properties) Len() int {
	return len(p.keys)
}

// Keys returns the property keys in parse order
func (p *Properties) Keys() []string {
	return p.keys
}

// Get returns the value for an exact key
func (p *Properties) Get(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

// GetFold returns the value for a key compared case-insensitively
func (p *Properties) GetFold(key string) (string, bool) {
	for k, v := range p.values {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

// HasFold reports whether a key is present, compared case-insensitively
func (p *Properties) HasFold(key string) bool {
	_, ok := p.GetFold(key)
	return ok
}

// String renders the properties back into "key=value;" form in parse
// order, brace escaping any value that contains reserved characters
// (with '}' doubled inside the escape)
func (p *Properties) String() string {
	var b strings.Builder
	for _, k := range p.keys {
		v := p.values[k]
		if strings.ContainsAny(v, connStringSpecialCharacters) {
			v = "{" + strings.ReplaceAll(v, "}", "}}") + "}"
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(v)
		b.WriteByte(';')
	}
	return b.String()
}

func (p *Properties) set(key, value string) {
	if _, exists := p.values[key]; !exists {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// ParseConnectionStringProperties parses the properties portion of a SQL
// Server connection string (i.e. "key1=value1;key2=value2;...") into an
// ordered key/value map. The string must contain properties only: the
// subprotocol, server name, instance name and port number are not part
// of it.
//
// This is a character state machine rather than a split on separators
// because '=' and ';' are legal inside brace-escaped values; one escape
// flag plus the key/value accumulators and a key-closed marker is the
// entire parser state.
func ParseConnectionStringProperties(cs string) (*Properties, error) {
	cs = strings.TrimSpace(cs)
	params := &Properties{values: make(map[string]string)}
	i := 0
	escaping := false
	key, keyDone := "", false
	var parsed strings.Builder

	for i < len(cs) {
		c := cs[i]
		if escaping {
			if strings.HasPrefix(cs[i:], "}}") {
				parsed.WriteByte('}')
				i += 2
				continue
			}
			if c == '}' {
				escaping = false
				i++
				continue
			}
			parsed.WriteByte(c)
			i++
			continue
		}
		if c == '{' {
			escaping = true
			i++
			continue
		}
		// ignore leading whitespace, i.e. between two keys "A=B;  C=D"
		if !keyDone && parsed.Len() == 0 && c == ' ' {
			i++
			continue
		}
		if c == '=' {
			if keyDone {
				return nil, NewConfigurationError(
					"invalid connection string: unexpected '=' while parsing value at index=%d: %s", i, cs)
			}
			key, keyDone = parsed.String(), true
			parsed.Reset()
			if key == "" {
				return nil, NewConfigurationError("invalid connection string: empty key at index=%d: %s", i, cs)
			}
			i++
			continue
		}
		if c == ';' {
			if parsed.Len() == 0 {
				return nil, NewConfigurationError("invalid connection string: empty value at index=%d: %s", i, cs)
			}
			params.set(key, parsed.String())
			key, keyDone = "", false
			parsed.Reset()
			i++
			continue
		}
		if strings.IndexByte(connStringSpecialCharacters, c) >= 0 {
			return nil, NewConfigurationError(
				"invalid connection string: invalid character '%c' at index=%d: %s", c, i, cs)
		}
		parsed.WriteByte(c)
		i++
	}

	if escaping {
		return nil, NewConfigurationError(
			"invalid connection string: did not find expected matching closing brace '}': %s", cs)
	}
	// the last ';' can be omitted so check for a final remaining param here
	if key != "" {
		if parsed.Len() == 0 {
			return nil, NewConfigurationError(
				"invalid connection string: empty value at the end of the connection string: %s", cs)
		}
		params.set(key, parsed.String())
	}
	return params, nil
}
