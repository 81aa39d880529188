package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"unicode"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// formatVersion adds a 'v' prefix if version starts with a digit.
func formatVersion(ver string) string {
	if len(ver) > 0 && unicode.IsDigit(rune(ver[0])) {
		return "v" + ver
	}
	return ver
}

var rootCmd = &cobra.Command{
	Use:   "dirconsim",
	Short: "DIRCON indoor bike trainer emulator",
	Long: `dirconsim emulates a Wahoo-style indoor cycling trainer speaking
the DIRCON wire protocol over TCP, mirroring the Cycling Power Service
and Fitness Machine Service over a GATT-shaped request/response/notify
framing, and advertises itself over mDNS so a DIRCON-capable app can
find it without a BLE radio.`,
	Version: formatVersion(version),
	RunE:    runServe,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", FormatUserError(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	registerFlags(rootCmd)
}
