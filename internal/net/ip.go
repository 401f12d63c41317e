package net

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/golang/glog"
)

const (
	URLScheme   = "paintboard://"
	DefaultPort = 8888
)

// OutgoingIP finds the preferred local IP address for the host to share.
func OutgoingIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		// No route out, the LAN may still be reachable.
		return localIPFallback()
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}

func localIPFallback() string {
	ifaces, _ := net.Interfaces()
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, _ := iface.Addrs()
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok && ipnet.IP.To4() != nil {
				return ipnet.IP.String()
			}
		}
	}
	glog.Warning("[net] no LAN address found, share link will only work locally")
	return "127.0.0.1"
}

func ShareLink(host string, port int) string {
	return fmt.Sprintf("%s%s", URLScheme, net.JoinHostPort(host, fmt.Sprint(port)))
}

func IsShareLink(s string) bool {
	return strings.HasPrefix(s, URLScheme)
}

// WebSocketURL turns a share link, host:port or ws(s) URL into the URL of
// the backend endpoint.
func WebSocketURL(target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", fmt.Errorf("empty board address")
	}
	if strings.HasPrefix(target, "ws://") || strings.HasPrefix(target, "wss://") {
		u, err := url.Parse(target)
		if err != nil {
			return "", err
		}
		if u.Path == "" || u.Path == "/" {
			u.Path = "/ws"
		}
		return u.String(), nil
	}

	addr := strings.TrimSuffix(strings.TrimPrefix(target, URLScheme), "/")
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		// bare host, use the default port
		host, port = addr, fmt.Sprint(DefaultPort)
	}
	if host == "" {
		return "", fmt.Errorf("board address %q has no host", target)
	}
	return "ws://" + net.JoinHostPort(host, port) + "/ws", nil
}
