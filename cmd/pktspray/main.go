package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli"

	"github.com/pktspray/pktspray"
	"github.com/pktspray/pktspray/rawsock"
)

var (
	iface   string
	repeat  int
	timeout time.Duration
)

var sharedFlags = []cli.Flag{
	cli.StringFlag{
		Name:        "iface, i",
		Usage:       "network interface to transmit on",
		Destination: &iface,
	},
	cli.IntFlag{
		Name:        "repeat, r",
		Value:       1,
		Usage:       "number of sends; negative means repeat forever",
		Destination: &repeat,
	},
	cli.DurationFlag{
		Name:        "timeout, t",
		Usage:       "delay before a single send, or interval between repeated sends",
		Destination: &timeout,
	},
}

func main() {
	app := cli.NewApp()
	app.Name = "pktspray"
	app.HelpName = "pktspray"
	app.Usage = "send forged IPv6 packets on a schedule"
	app.Version = version
	app.Commands = []cli.Command{
		{
			Name:    "na",
			Aliases: []string{"neighbor-advert"},
			Usage:   "send forged neighbor advertisements",
			Flags:   append(naFlags, sharedFlags...),
			Action:  neighborAdvert,
		},
		{
			Name:    "ra",
			Aliases: []string{"router-advert"},
			Usage:   "send forged router advertisements",
			Flags:   append(raFlags, sharedFlags...),
			Action:  routerAdvert,
		},
		{
			Name:   "raw",
			Usage:  "send a raw hex-encoded frame",
			Flags:  append(rawFlags, sharedFlags...),
			Action: rawFrame,
		},
		{
			Name:      "file",
			Usage:     "run every command from a JSON file",
			ArgsUsage: "<commands.json>",
			Action:    fromFile,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "pktspray:", err)
		os.Exit(1)
	}
}

// run opens the raw socket and hands the frames to the scheduler. The
// process exit code is the only status channel; any fatal error surfaces
// here.
func run(ifname string, frames []*frameSpec) error {
	if ifname == "" {
		return errors.New("no interface given (use --iface)")
	}
	conn, err := rawsock.Open(ifname)
	if err != nil {
		return err
	}
	defer conn.Close()

	cmds := make([]*pktspray.Command, 0, len(frames))
	for _, fs := range frames {
		cmds = append(cmds, &pktspray.Command{
			Sender:  conn,
			Packet:  fs.frame,
			Timeout: fs.timeout,
			Repeat:  fs.repeat,
		})
	}
	return pktspray.NewScheduler(pktspray.EvDataArrSize(len(cmds) + 16)).Run(cmds)
}

// frameSpec is one rendered frame plus its schedule.
type frameSpec struct {
	frame   []byte
	timeout time.Duration
	repeat  int
}
