package main

import (
	"encoding/hex"
	"errors"
	"strings"

	"github.com/urfave/cli"
)

var rawData string

var rawFlags = []cli.Flag{
	cli.StringFlag{
		Name:        "data",
		Usage:       "hex-encoded ethernet frame to transmit as-is",
		Destination: &rawData,
	},
}

func rawFrame(ctx *cli.Context) error {
	frame, err := decodeFrame(rawData)
	if err != nil {
		return err
	}
	return run(iface, []*frameSpec{{frame: frame, timeout: timeout, repeat: repeat}})
}

func decodeFrame(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', ':', '\n', '\t':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return nil, errors.New("no frame data given (use --data)")
	}
	frame, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.New("bad --data: " + err.Error())
	}
	return frame, nil
}
