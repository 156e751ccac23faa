package utils

import (
	"net"
	"strings"
)

// LocalIPs returns the non-loopback IPv4 addresses of this host.
// Link-local (169.254.x.x) addresses are dropped when a routable one exists.
func LocalIPs() []string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil
	}

	var all []string
	routable := false
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() || ipnet.IP.To4() == nil {
			continue
		}
		ip := ipnet.IP.String()
		all = append(all, ip)
		if !strings.HasPrefix(ip, "169.254") {
			routable = true
		}
	}

	var ips []string
	for _, ip := range all {
		if routable && strings.HasPrefix(ip, "169.254") {
			continue
		}
		ips = append(ips, ip)
	}
	return ips
}

// LANURLs builds http://ip:port for every local address, the URLs a
// shop floor phone on the same network would open
func LANURLs(port string) []string {
	var urls []string
	for _, ip := range LocalIPs() {
		urls = append(urls, "http://"+net.JoinHostPort(ip, port))
	}
	return urls
}
