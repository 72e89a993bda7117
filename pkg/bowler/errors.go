package bowler

import "errors"

// Sentinel errors for the command dispatcher.
var (
	ErrTimeout          = errors.New("bowler: call timed out waiting for a reply")
	ErrTransportClosed  = errors.New("bowler: transport closed")
	ErrNotConnected     = errors.New("bowler: device is not connected")
	ErrAlreadyConnected = errors.New("bowler: device is already connected")
)
