package introspect

import "errors"

// Sentinel errors for the introspection coroutine.
var (
	ErrTimeout                  = errors.New("introspect: step timed out waiting for a reply")
	ErrIntrospectionUnsupported = errors.New("introspect: device does not advertise bcs.rpc for RPC introspection")
)
