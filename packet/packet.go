// Package packet builds the forged ethernet/IPv6/ICMPv6 frames the tool
// transmits. Frames come back as flat byte slices ready for a raw socket;
// nothing here touches the wire.
package packet

import (
	"encoding/binary"
	"errors"
	"net"
)

const (
	etherTypeIPv6 = 0x86dd
	protoICMPv6   = 58

	// Neighbor discovery messages travel with hop limit 255 and are dropped
	// otherwise (RFC 4861).
	ndHopLimit = 255

	typeRouterAdvert   = 134
	typeNeighborAdvert = 136

	optSourceLinkAddr = 1
	optTargetLinkAddr = 2

	ethHdrLen  = 14
	ipv6HdrLen = 40
)

// NeighborAdvert describes a forged neighbor advertisement.
type NeighborAdvert struct {
	SrcMAC, DstMAC net.HardwareAddr
	SrcIP, DstIP   net.IP
	Target         net.IP

	Router    bool
	Solicited bool
	Override  bool
}

// RouterAdvert describes a forged router advertisement.
type RouterAdvert struct {
	SrcMAC, DstMAC net.HardwareAddr
	SrcIP, DstIP   net.IP

	HopLimit uint8
	Lifetime uint16 // router lifetime, seconds; 0 withdraws the router
}

// Frame renders the full ethernet frame.
func (na *NeighborAdvert) Frame() ([]byte, error) {
	if err := checkAddrs(na.SrcMAC, na.DstMAC, na.SrcIP, na.DstIP); err != nil {
		return nil, err
	}
	target := na.Target.To16()
	if target == nil || target.To4() != nil {
		return nil, errors.New("packet: target is not an IPv6 address")
	}
	// type/code/cksum + flags + target + target lladdr option
	icmp := make([]byte, 8+16+8)
	icmp[0] = typeNeighborAdvert
	var flags byte
	if na.Router {
		flags |= 0x80
	}
	if na.Solicited {
		flags |= 0x40
	}
	if na.Override {
		flags |= 0x20
	}
	icmp[4] = flags
	copy(icmp[8:24], target)
	icmp[24] = optTargetLinkAddr
	icmp[25] = 1 // option length, units of 8 octets
	copy(icmp[26:32], na.SrcMAC)

	return assemble(na.SrcMAC, na.DstMAC, na.SrcIP, na.DstIP, icmp)
}

// Frame renders the full ethernet frame.
func (ra *RouterAdvert) Frame() ([]byte, error) {
	if err := checkAddrs(ra.SrcMAC, ra.DstMAC, ra.SrcIP, ra.DstIP); err != nil {
		return nil, err
	}
	// type/code/cksum + hoplimit/flags/lifetime + reachable + retrans
	// + source lladdr option
	icmp := make([]byte, 16+8)
	icmp[0] = typeRouterAdvert
	icmp[4] = ra.HopLimit
	binary.BigEndian.PutUint16(icmp[6:8], ra.Lifetime)
	icmp[16] = optSourceLinkAddr
	icmp[17] = 1
	copy(icmp[18:24], ra.SrcMAC)

	return assemble(ra.SrcMAC, ra.DstMAC, ra.SrcIP, ra.DstIP, icmp)
}

func checkAddrs(srcMAC, dstMAC net.HardwareAddr, srcIP, dstIP net.IP) error {
	if len(srcMAC) != 6 || len(dstMAC) != 6 {
		return errors.New("packet: MAC addresses must be 6 bytes")
	}
	if ip := srcIP.To16(); ip == nil || srcIP.To4() != nil {
		return errors.New("packet: source is not an IPv6 address")
	}
	if ip := dstIP.To16(); ip == nil || dstIP.To4() != nil {
		return errors.New("packet: destination is not an IPv6 address")
	}
	return nil
}

// assemble lays out ethernet + IPv6 + ICMPv6 and fills in the checksum.
func assemble(srcMAC, dstMAC net.HardwareAddr, srcIP, dstIP net.IP, icmp []byte) ([]byte, error) {
	src, dst := srcIP.To16(), dstIP.To16()

	frame := make([]byte, ethHdrLen+ipv6HdrLen+len(icmp))
	copy(frame[0:6], dstMAC)
	copy(frame[6:12], srcMAC)
	binary.BigEndian.PutUint16(frame[12:14], etherTypeIPv6)

	ip := frame[ethHdrLen:]
	ip[0] = 6 << 4
	binary.BigEndian.PutUint16(ip[4:6], uint16(len(icmp)))
	ip[6] = protoICMPv6
	ip[7] = ndHopLimit
	copy(ip[8:24], src)
	copy(ip[24:40], dst)

	body := ip[ipv6HdrLen:]
	copy(body, icmp)
	binary.BigEndian.PutUint16(body[2:4], Checksum(src, dst, protoICMPv6, body))
	return frame, nil
}

// Checksum computes the ICMPv6 checksum over the IPv6 pseudo-header and the
// message body (RFC 8200 §8.1). The body's checksum field must be zero.
func Checksum(src, dst net.IP, nextHeader uint8, body []byte) uint16 {
	var sum uint32
	add := func(b []byte) {
		for i := 0; i+1 < len(b); i += 2 {
			sum += uint32(b[i])<<8 | uint32(b[i+1])
		}
		if len(b)%2 == 1 {
			sum += uint32(b[len(b)-1]) << 8
		}
	}
	add(src.To16())
	add(dst.To16())
	var ph [8]byte
	binary.BigEndian.PutUint32(ph[0:4], uint32(len(body)))
	ph[7] = nextHeader
	add(ph[:])
	add(body)
	for sum > 0xffff {
		sum = sum&0xffff + sum>>16
	}
	return ^uint16(sum)
}
