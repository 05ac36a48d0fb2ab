// ABOUTME: Structured error kinds for the remote service boundary
// ABOUTME: Maps service error text to kinds so callers never match substrings
package remote

import "strings"

// Kind classifies a remote-call failure. The update protocol branches on the
// kind alone; the service's English wording is interpreted here and nowhere
// else.
type Kind string

const (
	KindUnsyncedIdentity Kind = "unsynced-identity"
	KindMissingResource  Kind = "missing-resource"
	KindNetwork          Kind = "network"
	KindValidation       Kind = "validation"
	KindUnauthorized     Kind = "unauthorized"
	KindUnknown          Kind = "unknown"
)

// Error is a classified remote failure.
type Error struct {
	Kind Kind
	// Resource names the missing backend resource for KindMissingResource.
	Resource string
	Message  string
}

func (e *Error) Error() string {
	return e.Message
}

// AsError extracts a *Error from any error, defaulting to KindUnknown.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	if re, ok := err.(*Error); ok {
		return re
	}
	return &Error{Kind: KindUnknown, Message: err.Error()}
}

// classifyMessage maps a service error message to a Kind. The substrings
// mirror the wording the service emits: "local ID" / "hasn't been synced"
// for an assignee the service has never seen, and the schema-cache wording
// for a table that was never provisioned.
func classifyMessage(msg string) (Kind, string) {
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "local id") || strings.Contains(lower, "hasn't been synced") || strings.Contains(lower, "has not been synced"):
		return KindUnsyncedIdentity, ""
	case strings.Contains(lower, "could not find the table"):
		return KindMissingResource, tableName(msg)
	case strings.Contains(lower, "unauthorized") || strings.Contains(lower, "admin role required"):
		return KindUnauthorized, ""
	case strings.Contains(lower, "required") || strings.Contains(lower, "invalid"):
		return KindValidation, ""
	default:
		return KindUnknown, ""
	}
}

// tableName pulls the quoted table name out of a schema-cache error message.
func tableName(msg string) string {
	start := strings.IndexByte(msg, '\'')
	if start < 0 {
		return ""
	}
	rest := msg[start+1:]
	end := strings.IndexByte(rest, '\'')
	if end < 0 {
		return ""
	}
	return rest[:end]
}
