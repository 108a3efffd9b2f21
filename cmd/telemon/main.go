package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/uartbridge/pkg/framework"
	"github.com/robotalks/uartbridge/pkg/sink/mqtt"
	"github.com/robotalks/uartbridge/pkg/telemetry"
)

var (
	listenAddr = ":5006"
	mqttURL    string
)

func init() {
	if val := os.Getenv("TELEMON_LISTEN"); val != "" {
		listenAddr = val
	}
	if val := os.Getenv("BRIDGE_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&listenAddr, "listen", listenAddr, "UDP address receiving frames, empty to disable.")
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL to subscribe frames from.")
}

func printFrame(source string, payload []byte) {
	ts := time.Now().Format("15:04:05.000")
	if _, err := telemetry.ParseFrame(payload); err != nil {
		fmt.Printf("%s %s: %v: %q\n", ts, source, err, payload)
		return
	}
	fmt.Printf("%s %s: %s\n", ts, source, payload)
}

type udpMonitor struct {
	addr string
}

func (m *udpMonitor) Name() string {
	return "udp"
}

func (m *udpMonitor) Run(ctx context.Context) error {
	conn, err := net.ListenPacket("udp", m.addr)
	if err != nil {
		return err
	}
	glog.Infof("listening on udp://%s", conn.LocalAddr())
	return fx.RunWithContextCloser(ctx, conn, func() error {
		buf := make([]byte, 64*1024)
		for {
			n, from, err := conn.ReadFrom(buf)
			if err != nil {
				return err
			}
			printFrame(from.String(), buf[:n])
		}
	})
}

type mqttMonitor struct {
	brokerURL string
}

func (m *mqttMonitor) Name() string {
	return "mqtt"
}

func (m *mqttMonitor) Run(ctx context.Context) error {
	q, err := mqtt.NewQueueFromURL(m.brokerURL)
	if err != nil {
		return err
	}
	q.Sub(mqtt.FrameTopic("+"), func(topic string, payload []byte) {
		printFrame(topic, payload)
	})
	q.Sub(mqtt.ReadingTopic("+"), func(topic string, payload []byte) {
		msg, err := telemetry.UnmarshalReading(payload)
		if err != nil {
			glog.Warningf("%s: bad reading: %v", topic, err)
			return
		}
		glog.V(1).Infof("%s: %s", topic, msg)
	})
	q.Sub(mqtt.MetaTopic("+"), func(topic string, payload []byte) {
		if len(payload) == 0 {
			fmt.Printf("%s: gone\n", strings.TrimSuffix(topic, "/meta"))
			return
		}
		fmt.Printf("%s: %s\n", topic, payload)
	})
	token := q.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}
	<-ctx.Done()
	q.Close()
	return ctx.Err()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	runner := fx.NewRunner().HandleSignals()
	if listenAddr != "" {
		runner.Go(&udpMonitor{addr: listenAddr})
	}
	if mqttURL != "" {
		runner.Go(&mqttMonitor{brokerURL: mqttURL})
	}
	if len(runner.Runners) == 0 {
		glog.Exit("nothing to monitor, set -listen or -mqtt")
	}
	if err := runner.Wait(); err != nil {
		glog.Exit(err)
	}
}
