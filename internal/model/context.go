package model

// RequestContext carries the tenant scope resolved for one request.  It is
// built by middleware from request headers and passed down explicitly to
// every core operation; no handler or service falls back to a default
// property constant.
type RequestContext struct {
	PropertyID uint64 // property the request operates on
	RequestID  string // correlation id for logs and audit rows
	Channel    string // originating channel (e.g. "ADMIN", "WEB", "OTA")
}

// Valid reports whether the context names a property.  Operations must
// refuse to run with an invalid context.
func (rc RequestContext) Valid() bool { return rc.PropertyID != 0 }
