package main

import (
	"fmt"
	"net"
	"os"

	"github.com/rs/xid"
	"github.com/spf13/cobra"

	"github.com/srg/dirconsim/internal/eventloop"
	"github.com/srg/dirconsim/internal/mdnsresponder"
	"github.com/srg/dirconsim/internal/repl"
	"github.com/srg/dirconsim/internal/session"
	"github.com/srg/dirconsim/internal/tcpopts"
	"github.com/srg/dirconsim/internal/telemetry"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	logger, err := cfg.NewLogger("dirconsim.log")
	if err != nil {
		return fmt.Errorf("configure logger: %w", err)
	}

	ip, mac, err := resolveBindInterface(cfg.IPAddress)
	if err != nil {
		return fmt.Errorf("resolve bind interface: %w", err)
	}

	listenAddr := fmt.Sprintf("%s:%d", ip.String(), cfg.TCPPort)
	lc := tcpopts.ListenConfig()
	listener, err := lc.Listen(cmd.Context(), "tcp4", listenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddr, err)
	}

	telemetryCfg := session.TelemetryConfig{
		SpeedCentiKph:  cfg.SpeedCentiKph,
		CadenceHalfRPM: cfg.CadenceHalfRPM,
		Power:          cfg.Power,
		HeartRate:      cfg.HeartRate,
	}
	powerRange := session.PowerRange{Min: cfg.PowerRangeMin, Max: cfg.PowerRangeMax, Inc: cfg.PowerRangeInc}
	srv := session.NewServer(listenAddr, mac, telemetryCfg, powerRange)

	queue, err := buildTelemetryQueue(cfg.ActivityPath)
	if err != nil {
		return fmt.Errorf("load activity file: %w", err)
	}

	identity := buildIdentity(ip, mac, cfg.TCPPort, xid.New().String())
	responder := mdnsresponder.NewResponder(identity)

	var mdnsConn *net.UDPConn
	if !cfg.NoMDNS {
		mdnsConn, err = bindMDNSSocket()
		if err != nil {
			return fmt.Errorf("bind mDNS socket: %w", err)
		}
	} else {
		mdnsConn, err = net.ListenUDP("udp4", &net.UDPAddr{})
		if err != nil {
			return fmt.Errorf("bind placeholder mDNS socket: %w", err)
		}
	}

	loop := eventloop.New(srv, queue, responder, logger, listener, mdnsConn, ip)
	loop.DissectFlag = cfg.Dissect
	loop.HexDump = cfg.HexDump
	loop.MDNSEnabled = !cfg.NoMDNS

	replHandler := repl.New(os.Stdout, srv)
	loop.OnCommand = replHandler.Execute

	printBanner(identity, listenAddr, cfg.NoMDNS)

	return loop.Run(cmd.Context())
}

func buildTelemetryQueue(activityPath string) (telemetry.Source, error) {
	if activityPath == "" {
		return telemetry.NewQueue(nil), nil
	}
	samples, err := telemetry.LoadActivityFile(activityPath)
	if err != nil {
		return nil, err
	}
	return telemetry.NewQueue(samples), nil
}

func bindMDNSSocket() (*net.UDPConn, error) {
	group := net.ParseIP(mdnsresponder.MulticastGroup)
	return net.ListenMulticastUDP("udp4", nil, &net.UDPAddr{IP: group, Port: mdnsresponder.UDPPort})
}

func printBanner(id mdnsresponder.Identity, listenAddr string, noMDNS bool) {
	fmt.Fprintf(os.Stdout, "dirconsim %s (%s, %s)\n", formatVersion(version), commit, date)
	fmt.Fprintf(os.Stdout, "listening on %s as %s\n", listenAddr, id.HostName())
	if !noMDNS {
		fmt.Fprintf(os.Stdout, "advertising %s over mDNS\n", id.InstanceServiceName())
	} else {
		fmt.Fprintln(os.Stdout, "mDNS advertisement disabled (--no-mdns)")
	}
}
