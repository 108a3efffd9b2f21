// Package sh provides an interactive shell to exercise the bridge pipeline
// by hand: decode records, push frames to the sinks, tune the calibration
// and watch the serial link.
package sh

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/robotalks/uartbridge/pkg/bridge"
	"github.com/robotalks/uartbridge/pkg/l0/uart"
	"github.com/robotalks/uartbridge/pkg/sink"
	"github.com/robotalks/uartbridge/pkg/telemetry"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell  *ishell.Shell
	Config *bridge.Config
	Serial *uart.Config

	fanout *sink.Fanout
}

const (
	shellKey = "$shell"
	prompt   = "bridge > "
)

var (
	evalOnly   bool
	outputJSON bool

	commands = []*ishell.Cmd{
		&DecodeCmd,
		&SendCmd,
		&CalibCmd,
		&PortsCmd,
		&WatchCmd,
	}
)

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// New creates a new shell.
func New(conf *bridge.Config, serialConf *uart.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
		Serial: serialConf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(prompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Normalizer creates a Normalizer from the current calibration.
func (s *Shell) Normalizer() (*telemetry.Normalizer, error) {
	return telemetry.NewNormalizer(s.Config.Calibration)
}

// Sinks creates the configured fanout on first use.
func (s *Shell) Sinks() (*sink.Fanout, error) {
	if s.fanout == nil {
		fanout, err := s.Config.NewSinks(nil)
		if err != nil {
			return nil, err
		}
		s.fanout = fanout
	}
	return s.fanout, nil
}

// Print prints v in JSON when requested, or its text form.
func (s *Shell) Print(c *ishell.Context, v fmt.Stringer) {
	if !s.OutputJSON {
		c.Println(v.String())
		return
	}
	out, err := json.Marshal(v)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(string(out))
}

// Close releases the sinks.
func (s *Shell) Close() error {
	if s.fanout != nil {
		return s.fanout.Close()
	}
	return nil
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	defer s.Close()
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			glog.Exit(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	fmt.Fprintln(os.Stderr, "command expected: "+strings.Join(commandNames(), ", "))
	os.Exit(2)
}

func commandNames() []string {
	names := make([]string, len(commands))
	for n, cmd := range commands {
		names[n] = cmd.Name
	}
	return names
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(bridge.Default(), uart.Default()).Run(flag.Args()...)
}
