package ddp

import (
	"net"
)

// UDPConn defines the send side of a connected UDP socket.
// This abstraction enables unit testing without real network connections.
type UDPConn interface {
	// Write sends a datagram to the connected remote address.
	Write(b []byte) (int, error)

	// Close closes the socket.
	Close() error

	// RemoteAddr returns the remote network address.
	RemoteAddr() net.Addr
}

// UDPDialer defines an interface for creating connected UDP sockets.
// This abstraction enables dependency injection of socket creation.
type UDPDialer interface {
	// DialUDP connects a UDP socket to the given remote address.
	DialUDP(network string, raddr *net.UDPAddr) (UDPConn, error)
}

// RealUDPConn wraps *net.UDPConn to implement UDPConn.
type RealUDPConn struct {
	conn *net.UDPConn
}

// Write sends a datagram on the UDP connection.
func (r *RealUDPConn) Write(b []byte) (int, error) {
	return r.conn.Write(b)
}

// Close closes the UDP connection.
func (r *RealUDPConn) Close() error {
	return r.conn.Close()
}

// RemoteAddr returns the remote network address.
func (r *RealUDPConn) RemoteAddr() net.Addr {
	return r.conn.RemoteAddr()
}

// RealUDPDialer implements UDPDialer using net.DialUDP.
type RealUDPDialer struct{}

// NewRealUDPDialer creates a new RealUDPDialer.
func NewRealUDPDialer() *RealUDPDialer {
	return &RealUDPDialer{}
}

// DialUDP connects a new UDP socket.
func (d *RealUDPDialer) DialUDP(network string, raddr *net.UDPAddr) (UDPConn, error) {
	conn, err := net.DialUDP(network, nil, raddr)
	if err != nil {
		return nil, err
	}
	return &RealUDPConn{conn: conn}, nil
}

// MockUDPConn implements UDPConn for testing.
type MockUDPConn struct {
	// Datagrams records every payload passed to Write, in order.
	Datagrams [][]byte
	// Closed indicates whether Close was called.
	Closed bool
	// WriteErrors maps a zero-based write index to the error returned for
	// that call. Writes not listed succeed.
	WriteErrors map[int]error
	// Remote is returned by RemoteAddr.
	Remote *net.UDPAddr

	writeCount int
}

// NewMockUDPConn creates a new MockUDPConn.
func NewMockUDPConn() *MockUDPConn {
	return &MockUDPConn{
		Remote: &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: DefaultPort},
	}
}

// Write records the datagram, returning a configured error if one is set for
// this call index.
func (m *MockUDPConn) Write(b []byte) (int, error) {
	idx := m.writeCount
	m.writeCount++
	if err, ok := m.WriteErrors[idx]; ok {
		return 0, err
	}
	payload := make([]byte, len(b))
	copy(payload, b)
	m.Datagrams = append(m.Datagrams, payload)
	return len(b), nil
}

// Close marks the socket as closed.
func (m *MockUDPConn) Close() error {
	m.Closed = true
	return nil
}

// RemoteAddr returns the mock remote address.
func (m *MockUDPConn) RemoteAddr() net.Addr {
	return m.Remote
}

// MockUDPDialer implements UDPDialer for testing.
type MockUDPDialer struct {
	// Conn is the connection to return from DialUDP.
	Conn *MockUDPConn
	// Error is returned by DialUDP if set.
	Error error
	// DialCalls records all DialUDP calls.
	DialCalls []*net.UDPAddr
}

// NewMockUDPDialer creates a new MockUDPDialer returning the given conn.
func NewMockUDPDialer(conn *MockUDPConn) *MockUDPDialer {
	return &MockUDPDialer{Conn: conn}
}

// DialUDP returns the configured mock connection.
func (d *MockUDPDialer) DialUDP(network string, raddr *net.UDPAddr) (UDPConn, error) {
	d.DialCalls = append(d.DialCalls, raddr)
	if d.Error != nil {
		return nil, d.Error
	}
	return d.Conn, nil
}
