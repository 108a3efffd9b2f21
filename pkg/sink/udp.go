package sink

import (
	"context"
	"fmt"
	"net"

	"github.com/robotalks/uartbridge/pkg/telemetry"
)

// UDP sends each frame as a single datagram to a fixed endpoint.
type UDP struct {
	conn *net.UDPConn
}

// DialUDP creates the datagram socket. Failing here is fatal for the bridge.
func DialUDP(target string) (*UDP, error) {
	addr, err := net.ResolveUDPAddr("udp", target)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %v", target, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %v", target, err)
	}
	return &UDP{conn: conn}, nil
}

// RemoteAddr returns the monitor endpoint.
func (u *UDP) RemoteAddr() net.Addr {
	return u.conn.RemoteAddr()
}

// Name implements Sink.
func (u *UDP) Name() string {
	return "udp"
}

// Send implements Sink. Delivery is not acknowledged.
func (u *UDP) Send(ctx context.Context, frame *telemetry.Frame) error {
	_, err := u.conn.Write(frame.Bytes)
	return err
}

// Close implements io.Closer.
func (u *UDP) Close() error {
	return u.conn.Close()
}
