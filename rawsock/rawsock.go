// Package rawsock opens AF_PACKET sockets bound to one network interface
// and pushes fully formed ethernet frames out of them. Conn satisfies the
// scheduler's Sender interface.
package rawsock

import (
	"errors"
	"net"
	"syscall"
)

// htons converts to network byte order; AF_PACKET wants the protocol in
// network order in both socket() and bind().
func htons(v uint16) uint16 {
	return v<<8 | v>>8
}

// Conn is a raw packet socket bound to a single interface.
type Conn struct {
	fd      int
	ifindex int
	name    string
}

// Open binds a raw socket to the named interface. Needs CAP_NET_RAW.
func Open(ifname string) (*Conn, error) {
	iface, err := net.InterfaceByName(ifname)
	if err != nil {
		return nil, errors.New("rawsock open: " + err.Error())
	}
	fd, err := syscall.Socket(syscall.AF_PACKET, syscall.SOCK_RAW|syscall.SOCK_CLOEXEC,
		int(htons(syscall.ETH_P_IPV6)))
	if err != nil {
		return nil, errors.New("socket AF_PACKET: " + err.Error())
	}
	sll := &syscall.SockaddrLinklayer{
		Protocol: htons(syscall.ETH_P_IPV6),
		Ifindex:  iface.Index,
	}
	if err = syscall.Bind(fd, sll); err != nil {
		syscall.Close(fd)
		return nil, errors.New("bind " + ifname + ": " + err.Error())
	}
	return &Conn{fd: fd, ifindex: iface.Index, name: ifname}, nil
}

// Send writes one frame, retrying on EINTR. The frame must carry its own
// ethernet header; the socket is already bound so no destination sockaddr
// is needed.
func (c *Conn) Send(pkt []byte, flags int) error {
	for {
		n, err := syscall.Write(c.fd, pkt)
		if err != nil {
			if err == syscall.EINTR {
				continue
			}
			return errors.New("send on " + c.name + ": " + err.Error())
		}
		if n != len(pkt) {
			return errors.New("send on " + c.name + ": short write")
		}
		return nil
	}
}

// Fd return fd
func (c *Conn) Fd() int {
	return c.fd
}

// Interface returns the bound interface name.
func (c *Conn) Interface() string {
	return c.name
}

// SetSendBuffSize for SO_SNDBUF.
// must < `sysctl -a | grep net.core.wmem_max`
func (c *Conn) SetSendBuffSize(bytes int) error {
	if err := syscall.SetsockoptInt(c.fd, syscall.SOL_SOCKET, syscall.SO_SNDBUF, bytes); err != nil {
		return errors.New("Set SO_SNDBUF: " + err.Error())
	}
	return nil
}

// Close releases the socket.
func (c *Conn) Close() {
	if c.fd != -1 {
		syscall.Close(c.fd)
		c.fd = -1
	}
}
