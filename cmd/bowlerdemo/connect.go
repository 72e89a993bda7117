package main

import (
	"fmt"

	"github.com/neuronrobotics/bowlerhost/pkg/bowler"
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/nettransport"
)

// connectDevice dials cfg's transport and runs the standard Bowler
// connect sequence (optional introspection, heartbeat start, then the
// power/revision/info resync). The caller must call dev.Close() when done.
func connectDevice(cfg demoConfig, extra ...func(*bowler.Device) error) (*bowler.Device, error) {
	conn, err := nettransport.Dial(cfg.Network, cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("dialing %s %s: %w", cfg.Network, cfg.Address, err)
	}

	opts := bowler.DefaultOptions()
	opts.IntrospectNamespaces = cfg.Introspect
	opts.IntrospectRPCs = cfg.IntrospectRPCs
	opts.HeartbeatMS = cfg.HeartbeatMS
	opts.RequestTimeoutMS = cfg.TimeoutMS

	dev := bowler.New(conn, opts)
	for _, fn := range extra {
		if err := fn(dev); err != nil {
			return nil, err
		}
	}

	done := make(chan error, 1)
	dev.Connect(func(err error) { done <- err })
	if err := <-done; err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return dev, nil
}
