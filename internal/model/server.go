package model

import (
	"context"
	"net"
)

// SecurityLayer opens listeners, plain or TLS, for the servers.
type SecurityLayer interface {
	Listen(protocol, addr string) (net.Listener, error)
}

// Server is a long-running listener such as the gRPC API or the metrics
// endpoint. Start blocks until the server stops; Stop drains in-flight
// requests until ctx is done.
type Server interface {
	Start(securityLayer SecurityLayer) error
	Stop(ctx context.Context) error
	Address() string
}
