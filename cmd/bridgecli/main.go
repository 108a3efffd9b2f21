package main

import (
	"github.com/robotalks/uartbridge/pkg/bridge"
	"github.com/robotalks/uartbridge/pkg/cli/sh"
	"github.com/robotalks/uartbridge/pkg/l0/uart"
)

//go-build: CGO_ENABLED=0

func init() {
	uart.SetupFlags()
	bridge.SetupFlags()
	sh.SetupFlags()
}

func main() {
	sh.Main()
}
