package bowler

// Transport is the duplex byte channel a Device drives. It is consumed,
// never implemented, by this package: the physical serial line, a TCP
// socket, or (in tests) pkg/bowler/transporttest's LoopTransport.
//
// Grounded on internal/ron's treatment of its underlying net.Conn/serial
// port purely through Read/Write plus a registered error callback, and on
// internal/qmp.Conn's split of "decode in a background reader goroutine,
// deliver to the owning task via a channel" -- OnRawChunk plays that role
// here without committing the interface to any particular decoder.
type Transport interface {
	// Open establishes the underlying connection. It is called exactly
	// once, from Device.Connect.
	Open() error

	// Write sends b in full, preserving call order relative to other
	// Write calls issued by the same Device.
	Write(b []byte) error

	// OnRawChunk registers the callback the transport invokes with every
	// chunk of bytes it reads off the wire. Only one callback is ever
	// registered, by Device.Connect.
	OnRawChunk(fn func([]byte))

	// OnError registers the callback invoked when the transport
	// encounters a fatal read or write error.
	OnError(fn func(error))
}
