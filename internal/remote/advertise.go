package remote

import (
	"fmt"
	"net"
	"strconv"

	"github.com/enbility/zeroconf/v3"
)

// mDNS service type and domain of the remote control.
const (
	ServiceType = "_stories._tcp"
	Domain      = "local."
)

// Advertisement is a registered mDNS announcement.
type Advertisement struct {
	server *zeroconf.Server
}

// Advertise announces the remote control listening on addr under the given
// instance name so phones on the same network can find it.
func Advertise(instance, addr string) (*Advertisement, error) {
	port, err := listenPort(addr)
	if err != nil {
		return nil, err
	}
	server, err := zeroconf.Register(instance, ServiceType, Domain, port, txtRecords(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", ServiceType, err)
	}
	return &Advertisement{server: server}, nil
}

// Shutdown withdraws the announcement.
func (a *Advertisement) Shutdown() {
	if a != nil && a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}

func txtRecords() []string {
	return []string{"api=/api", "ws=/ws"}
}

func listenPort(addr string) (int, error) {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(p)
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("invalid port in listen address %q", addr)
	}
	return port, nil
}
