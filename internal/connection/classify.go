package connection

import (
	"errors"
	"strings"

	"github.com/dbpulse/dbpulse/internal/driver"
)

// knownProviderCodes maps provider error codes to human phrases. The
// database-open code can also be caused by a failed TCP connection, but
// the reachability probe already reports on TCP status separately so the
// phrase doesn't restate it.
var knownProviderCodes = map[int32]string{
	-2147352567: "unable to connect",
	-2147217843: "login failed for user",
	-2147467259: "could not open database requested by login",
}

// misleadingProviderMessage is the generic text some providers attach to
// failures that have nothing to do with connection-string syntax
const misleadingProviderMessage = "Invalid connection string attribute"

// passwordMask replaces the configured password in outgoing diagnostics
const passwordMask = "******"

// formatConnectionError formats a native connect error. When the error
// carries the misleading provider message and both of its codes are
// known, the two looked-up phrases replace it; anything else keeps its
// default text.
func formatConnectionError(err error) string {
	var pe *driver.ProviderError
	if errors.As(err, &pe) && pe.Message == misleadingProviderMessage {
		baseMessage, baseKnown := knownProviderCodes[pe.HResult]
		subMessage, subKnown := knownProviderCodes[pe.SubCode]
		if baseKnown && subKnown {
			return baseMessage + ": " + subMessage
		}
	}
	return err.Error()
}

// redactPassword masks every occurrence of the configured password
func (m *Manager) redactPassword(message string) string {
	password := m.instance.Get("password")
	if password == "" {
		return message
	}
	return strings.ReplaceAll(message, password, passwordMask)
}
