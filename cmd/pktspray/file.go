package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/urfave/cli"

	"github.com/pktspray/pktspray/packet"
)

// commandFile is the JSON batch format: one interface, many scheduled
// frames. Example:
//
//	{
//	  "iface": "eth0",
//	  "commands": [
//	    {"type": "ra", "src-mac": "...", "dst-mac": "...",
//	     "src-ip": "...", "dst-ip": "...", "lifetime": 0,
//	     "repeat": -1, "timeout": "5s"},
//	    {"type": "raw", "data": "deadbeef...", "repeat": 3, "timeout": "1s"}
//	  ]
//	}
type commandFile struct {
	Iface    string      `json:"iface"`
	Commands []fileEntry `json:"commands"`
}

type fileEntry struct {
	Type    string `json:"type"` // na, ra or raw
	Repeat  int    `json:"repeat"`
	Timeout string `json:"timeout"`

	SrcMAC string `json:"src-mac"`
	DstMAC string `json:"dst-mac"`
	SrcIP  string `json:"src-ip"`
	DstIP  string `json:"dst-ip"`

	// na
	Target    string `json:"target"`
	Router    bool   `json:"router"`
	Solicited bool   `json:"solicited"`
	Override  bool   `json:"override"`

	// ra
	HopLimit uint8  `json:"hop-limit"`
	Lifetime uint16 `json:"lifetime"`

	// raw
	Data string `json:"data"`
}

func fromFile(ctx *cli.Context) error {
	name := ctx.Args().First()
	if name == "" {
		return errors.New("no command file given")
	}
	buf, err := os.ReadFile(name)
	if err != nil {
		return err
	}
	var cf commandFile
	if err = json.Unmarshal(buf, &cf); err != nil {
		return errors.New("parse " + name + ": " + err.Error())
	}
	frames, err := cf.frames()
	if err != nil {
		return err
	}
	return run(cf.Iface, frames)
}

func (cf *commandFile) frames() ([]*frameSpec, error) {
	if len(cf.Commands) == 0 {
		return nil, errors.New("command file has no commands")
	}
	frames := make([]*frameSpec, 0, len(cf.Commands))
	for i, e := range cf.Commands {
		fs, err := e.frame()
		if err != nil {
			return nil, fmt.Errorf("command #%d: %s", i, err.Error())
		}
		frames = append(frames, fs)
	}
	return frames, nil
}

func (e *fileEntry) frame() (*frameSpec, error) {
	fs := &frameSpec{repeat: e.Repeat}
	if e.Timeout != "" {
		d, err := time.ParseDuration(e.Timeout)
		if err != nil {
			return nil, errors.New("bad timeout: " + err.Error())
		}
		fs.timeout = d
	}
	var err error
	switch e.Type {
	case "na":
		var na *packet.NeighborAdvert
		if na, err = e.neighborAdvert(); err == nil {
			fs.frame, err = na.Frame()
		}
	case "ra":
		var ra *packet.RouterAdvert
		if ra, err = e.routerAdvert(); err == nil {
			fs.frame, err = ra.Frame()
		}
	case "raw":
		fs.frame, err = decodeFrame(e.Data)
	default:
		err = errors.New("unknown type " + e.Type)
	}
	if err != nil {
		return nil, err
	}
	return fs, nil
}

func (e *fileEntry) neighborAdvert() (*packet.NeighborAdvert, error) {
	macs, ips, err := e.addrs()
	if err != nil {
		return nil, err
	}
	target := net.ParseIP(e.Target)
	if target == nil || target.To4() != nil {
		return nil, errors.New("bad target: not an IPv6 address")
	}
	return &packet.NeighborAdvert{
		SrcMAC: macs[0], DstMAC: macs[1],
		SrcIP: ips[0], DstIP: ips[1],
		Target:    target,
		Router:    e.Router,
		Solicited: e.Solicited,
		Override:  e.Override,
	}, nil
}

func (e *fileEntry) routerAdvert() (*packet.RouterAdvert, error) {
	macs, ips, err := e.addrs()
	if err != nil {
		return nil, err
	}
	return &packet.RouterAdvert{
		SrcMAC: macs[0], DstMAC: macs[1],
		SrcIP: ips[0], DstIP: ips[1],
		HopLimit: e.HopLimit,
		Lifetime: e.Lifetime,
	}, nil
}

func (e *fileEntry) addrs() (macs [2]net.HardwareAddr, ips [2]net.IP, err error) {
	if macs[0], err = net.ParseMAC(e.SrcMAC); err != nil {
		err = errors.New("bad src-mac: " + err.Error())
		return
	}
	if macs[1], err = net.ParseMAC(e.DstMAC); err != nil {
		err = errors.New("bad dst-mac: " + err.Error())
		return
	}
	if ips[0] = net.ParseIP(e.SrcIP); ips[0] == nil || ips[0].To4() != nil {
		err = errors.New("bad src-ip: not an IPv6 address")
		return
	}
	if ips[1] = net.ParseIP(e.DstIP); ips[1] == nil || ips[1].To4() != nil {
		err = errors.New("bad dst-ip: not an IPv6 address")
	}
	return
}
