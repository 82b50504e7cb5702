package proxy

import (
	"net"
	"strconv"
)

// IsPortFree reports whether a TCP listener can be bound on 127.0.0.1:port.
// The probe listener is closed before returning. Any bind error, including
// an out-of-range port, counts as "not free".
//
// The answer can be stale by the time the proxy binds the port itself.
func IsPortFree(port int) bool {
	ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	if err != nil {
		return false
	}
	ln.Close()
	return true
}

// CheckPort returns a *PortInUseError when port is taken.
func CheckPort(port int) error {
	if !IsPortFree(port) {
		return &PortInUseError{Port: port}
	}
	return nil
}
