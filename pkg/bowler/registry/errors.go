package registry

import "errors"

// Sentinel errors for the namespace/RPC registry.
var (
	ErrUndefinedNamespace = errors.New("registry: undefined namespace")
	ErrUndefinedRpc       = errors.New("registry: undefined rpc")
	ErrUnsupportedMethod  = errors.New("registry: method not supported by this rpc")
	ErrUnknownNamespaceID = errors.New("registry: unknown namespace id")
)
