package main

//go-build: CGO_ENABLED=0

import (
	"errors"
	"flag"
	"strings"

	"github.com/golang/glog"

	"github.com/robotalks/uartbridge/pkg/bridge"
	fx "github.com/robotalks/uartbridge/pkg/framework"
	"github.com/robotalks/uartbridge/pkg/l0/uart"
)

func init() {
	uart.SetupFlags()
	bridge.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	serialConf := uart.Default()
	port, err := serialConf.Open()
	if errors.Is(err, uart.ErrNoDevice) {
		if ports, _ := uart.Ports(); len(ports) > 0 {
			glog.Exitf("%v, available: %s", err, strings.Join(ports, " "))
		}
	}
	if err != nil {
		glog.Exit(err)
	}
	defer port.Close()

	reader := serialConf.NewFrameReader(port)
	defer reader.Close()
	b, err := bridge.Default().NewBridge(reader, port)
	if err != nil {
		glog.Exitf("bridge init failed: %v", err)
	}
	defer b.Close()

	glog.Infof("bridge ready on %s at %d baud", serialConf.Device, serialConf.BaudRate)
	if err := fx.NewRunner().HandleSignals().Go(b).Wait(); err != nil {
		glog.Error(err)
	}
}
