package net

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/golang/glog"
	"github.com/hashicorp/mdns"
)

const serviceType = "_paintboard._tcp"

// Advertise announces a host on the LAN until the returned server is shut
// down.
func Advertise(port int, name string) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}
	if name == "" {
		name = host
	}

	// NewMDNSService builds the SRV, TXT and A records.
	service, err := mdns.NewMDNSService(name, serviceType, "", "", port, nil, []string{"PaintBoard"})
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}
	glog.Infof("[mdns] advertising %q on port %d", name, port)
	return server, nil
}

// Browse returns the host:port of every board answering within timeout.
func Browse(ctx context.Context, timeout time.Duration) ([]string, error) {
	entries := make(chan *mdns.ServiceEntry, 8)
	var found []string
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for e := range entries {
			if e.AddrV4 == nil || e.Port == 0 {
				continue
			}
			found = append(found, fmt.Sprintf("%s:%d", e.AddrV4.String(), e.Port))
		}
	}()

	params := mdns.DefaultParams(serviceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < params.Timeout {
			params.Timeout = left
		}
	}
	err := mdns.Query(params)
	close(entries)
	<-collected
	if err != nil {
		return nil, err
	}
	glog.V(2).Infof("[mdns] found %d boards", len(found))
	return found, nil
}
