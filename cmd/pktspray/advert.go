package main

import (
	"errors"
	"net"

	"github.com/urfave/cli"

	"github.com/pktspray/pktspray/packet"
)

var (
	srcMAC, dstMAC string
	srcIP, dstIP   string
	targetIP       string
	naRouter       bool
	naSolicited    bool
	naOverride     bool
	raHopLimit     int
	raLifetime     int
)

var addrFlags = []cli.Flag{
	cli.StringFlag{
		Name:        "src-mac",
		Usage:       "source MAC address (spoofed)",
		Destination: &srcMAC,
	},
	cli.StringFlag{
		Name:        "dst-mac",
		Usage:       "destination MAC address",
		Destination: &dstMAC,
	},
	cli.StringFlag{
		Name:        "src-ip",
		Usage:       "source IPv6 address (spoofed)",
		Destination: &srcIP,
	},
	cli.StringFlag{
		Name:        "dst-ip",
		Usage:       "destination IPv6 address",
		Destination: &dstIP,
	},
}

var naFlags = append([]cli.Flag{
	cli.StringFlag{
		Name:        "target",
		Usage:       "target IPv6 address being advertised",
		Destination: &targetIP,
	},
	cli.BoolFlag{
		Name:        "router",
		Usage:       "set the router flag",
		Destination: &naRouter,
	},
	cli.BoolFlag{
		Name:        "solicited",
		Usage:       "set the solicited flag",
		Destination: &naSolicited,
	},
	cli.BoolFlag{
		Name:        "override",
		Usage:       "set the override flag",
		Destination: &naOverride,
	},
}, addrFlags...)

var raFlags = append([]cli.Flag{
	cli.IntFlag{
		Name:        "hop-limit",
		Value:       64,
		Usage:       "advertised current hop limit",
		Destination: &raHopLimit,
	},
	cli.IntFlag{
		Name:        "lifetime",
		Usage:       "advertised router lifetime in seconds (0 withdraws the router)",
		Destination: &raLifetime,
	},
}, addrFlags...)

func neighborAdvert(ctx *cli.Context) error {
	macs, ips, err := parseAddrs()
	if err != nil {
		return err
	}
	target, err := parseIP6(targetIP, "target")
	if err != nil {
		return err
	}
	na := &packet.NeighborAdvert{
		SrcMAC: macs[0], DstMAC: macs[1],
		SrcIP: ips[0], DstIP: ips[1],
		Target:    target,
		Router:    naRouter,
		Solicited: naSolicited,
		Override:  naOverride,
	}
	frame, err := na.Frame()
	if err != nil {
		return err
	}
	return run(iface, []*frameSpec{{frame: frame, timeout: timeout, repeat: repeat}})
}

func routerAdvert(ctx *cli.Context) error {
	macs, ips, err := parseAddrs()
	if err != nil {
		return err
	}
	ra := &packet.RouterAdvert{
		SrcMAC: macs[0], DstMAC: macs[1],
		SrcIP: ips[0], DstIP: ips[1],
		HopLimit: uint8(raHopLimit),
		Lifetime: uint16(raLifetime),
	}
	frame, err := ra.Frame()
	if err != nil {
		return err
	}
	return run(iface, []*frameSpec{{frame: frame, timeout: timeout, repeat: repeat}})
}

func parseAddrs() (macs [2]net.HardwareAddr, ips [2]net.IP, err error) {
	if macs[0], err = net.ParseMAC(srcMAC); err != nil {
		err = errors.New("bad --src-mac: " + err.Error())
		return
	}
	if macs[1], err = net.ParseMAC(dstMAC); err != nil {
		err = errors.New("bad --dst-mac: " + err.Error())
		return
	}
	if ips[0], err = parseIP6(srcIP, "src-ip"); err != nil {
		return
	}
	ips[1], err = parseIP6(dstIP, "dst-ip")
	return
}

func parseIP6(s, name string) (net.IP, error) {
	ip := net.ParseIP(s)
	if ip == nil || ip.To4() != nil {
		return nil, errors.New("bad --" + name + ": not an IPv6 address")
	}
	return ip, nil
}
