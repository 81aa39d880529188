// Package repl implements the emulator's minimal external-collaborator
// CLI surface (spec §6): help, history, exit, show. Grounded on
// cli.c's command table and readline-history integration in the
// indBikeSim C original, reimplemented here with a plain bounded slice
// since no readline-equivalent dependency is present in the example
// pack.
package repl

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/srg/dirconsim/internal/session"
)

// MaxHistory bounds the in-memory command history (cli.c keeps the
// same bound for its readline history file).
const MaxHistory = 50

// Handler executes one REPL line at a time and reports whether the
// caller should exit (the `exit` command sets the exit flag per
// spec §4.9 step 4).
type Handler struct {
	out     io.Writer
	server  *session.Server
	history []string
}

// New builds a Handler that prints to out and reports on srv for `show`.
func New(out io.Writer, srv *session.Server) *Handler {
	return &Handler{out: out, server: srv}
}

// Execute runs one REPL line. Blank lines are ignored. Unknown commands
// print an error and keep the loop running.
func (h *Handler) Execute(line string) (exit bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	h.record(line)

	switch line {
	case "help":
		h.printHelp()
	case "history":
		h.printHistory()
	case "exit":
		return true
	case "show":
		h.printShow()
	default:
		fmt.Fprintf(h.out, "unknown command %q (try \"help\")\n", line)
	}
	return false
}

func (h *Handler) record(line string) {
	h.history = append(h.history, line)
	if len(h.history) > MaxHistory {
		h.history = h.history[len(h.history)-MaxHistory:]
	}
}

func (h *Handler) printHelp() {
	bold := color.New(color.Bold)
	bold.Fprintln(h.out, "Commands:")
	fmt.Fprintln(h.out, "  help     show this message")
	fmt.Fprintln(h.out, "  history  list previous commands")
	fmt.Fprintln(h.out, "  show     print current session/telemetry state")
	fmt.Fprintln(h.out, "  exit     stop the emulator")
}

func (h *Handler) printHistory() {
	for i, line := range h.history {
		fmt.Fprintf(h.out, "%4d  %s\n", i+1, line)
	}
}

func (h *Handler) printShow() {
	cyan := color.New(color.FgCyan)
	cyan.Fprintln(h.out, "session:")
	fmt.Fprintf(h.out, "  active:              %v\n", h.server.Session.Active())
	fmt.Fprintf(h.out, "  control granted:     %v\n", h.server.ControlGranted)
	fmt.Fprintf(h.out, "  activity in progress: %v\n", h.server.ActivityInProgress)
	fmt.Fprintf(h.out, "  tx/rx frames:        %d/%d\n", h.server.Session.TxCount, h.server.Session.RxCount)
	cyan.Fprintln(h.out, "telemetry (configured constants):")
	fmt.Fprintf(h.out, "  speed:    %d (x0.01 kph)\n", h.server.ConfigTelemetry.SpeedCentiKph)
	fmt.Fprintf(h.out, "  cadence:  %d (x0.5 rpm)\n", h.server.ConfigTelemetry.CadenceHalfRPM)
	fmt.Fprintf(h.out, "  power:    %d W\n", h.server.ConfigTelemetry.Power)
	fmt.Fprintf(h.out, "  heart rate: %d bpm\n", h.server.ConfigTelemetry.HeartRate)
	cyan.Fprintln(h.out, "mDNS:")
	fmt.Fprintf(h.out, "  rx/tx datagrams: %d/%d\n", h.server.RxMDNSCount, h.server.TxMDNSCount)
}
