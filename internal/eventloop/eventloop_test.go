package eventloop

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/srg/dirconsim/internal/dirconproto"
	"github.com/srg/dirconsim/internal/mdnsresponder"
	"github.com/srg/dirconsim/internal/session"
	"github.com/srg/dirconsim/internal/telemetry"
)

func newTestLoop(t *testing.T) (*Loop, string) {
	t.Helper()

	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	mdnsConn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mdnsConn.Close() })

	srv := session.NewServer(listener.Addr().String(), net.HardwareAddr{0, 1, 2, 3, 4, 5}, session.TelemetryConfig{}, session.PowerRange{Max: 1500, Inc: 1})
	identity := mdnsresponder.Identity{MAC: srv.MACAddr, IPv4: net.IPv4(127, 0, 0, 1), Port: 36866, SerialNum: "test"}
	responder := mdnsresponder.NewResponder(identity)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	loop := New(srv, telemetry.NewQueue(nil), responder, logger, listener, mdnsConn, net.IPv4(127, 0, 0, 1))
	return loop, listener.Addr().String()
}

func TestLoopDiscoverServicesRoundTrip(t *testing.T) {
	loop, addr := newTestLoop(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	conn, err := net.DialTimeout("tcp4", addr, time.Second)
	require.NoError(t, err)
	defer conn.Close()

	req := &dirconproto.Frame{MesgID: dirconproto.DiscoverServices, SeqNum: 1, RespCode: dirconproto.Success}
	_, err = conn.Write(req.Encode())
	require.NoError(t, err)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	hdr := make([]byte, dirconproto.HeaderSize)
	_, err = readFull(conn, hdr)
	require.NoError(t, err)

	_, resp, mesgLen, err := dirconproto.DecodeHeader(hdr)
	require.NoError(t, err)
	require.Equal(t, dirconproto.Success, resp.RespCode)
	require.Equal(t, uint16(32), mesgLen) // 2 services x 16 bytes

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit after cancel")
	}
}

func TestLoopConnectionDropOnClientClose(t *testing.T) {
	loop, addr := newTestLoop(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	conn, err := net.DialTimeout("tcp4", addr, time.Second)
	require.NoError(t, err)

	req := &dirconproto.Frame{MesgID: dirconproto.DiscoverServices, SeqNum: 1}
	_, err = conn.Write(req.Encode())
	require.NoError(t, err)
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	hdr := make([]byte, dirconproto.HeaderSize)
	_, err = readFull(conn, hdr)
	require.NoError(t, err)

	conn.Close()

	require.Eventually(t, func() bool {
		return !loop.Server.Session.Active()
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestEvaluateTimersSkipsAdvertisementWhenMDNSDisabled(t *testing.T) {
	loop, _ := newTestLoop(t)
	loop.MDNSEnabled = false

	loop.evaluateTimers(time.Now())
	require.Equal(t, uint64(0), loop.Server.TxMDNSCount)
}

func TestHandleMDNSSuppressesLoopbackDatagram(t *testing.T) {
	loop, _ := newTestLoop(t)

	ev := mdnsEvent{
		data: []byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, // minimal 12-byte header, no questions
		addr: &net.UDPAddr{IP: loop.ownIPv4, Port: 5353},
	}

	loop.handleMDNS(ev)

	require.Equal(t, uint64(0), loop.Server.RxMDNSCount, "loopback datagram must not be counted")
	require.Equal(t, uint64(0), loop.Server.TxMDNSCount, "loopback datagram must not produce a response")
}

func TestHandleMDNSCountsNonLoopbackDatagram(t *testing.T) {
	loop, _ := newTestLoop(t)

	ev := mdnsEvent{
		data: []byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, // well-formed header, no questions, no response produced
		addr: &net.UDPAddr{IP: net.IPv4(10, 0, 0, 99), Port: 5353},
	}

	loop.handleMDNS(ev)

	require.Equal(t, uint64(1), loop.Server.RxMDNSCount)
	require.Equal(t, uint64(0), loop.Server.TxMDNSCount)
}

func TestLoopRejectsSecondConcurrentConnection(t *testing.T) {
	loop, addr := newTestLoop(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	conn1, err := net.DialTimeout("tcp4", addr, time.Second)
	require.NoError(t, err)
	defer conn1.Close()

	require.Eventually(t, func() bool {
		return loop.Server.Session.Active()
	}, 2*time.Second, 10*time.Millisecond)

	conn2, err := net.DialTimeout("tcp4", addr, time.Second)
	require.NoError(t, err)
	defer conn2.Close()

	_ = conn2.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 1)
	_, err = conn2.Read(buf)
	require.Error(t, err) // rejected connection is closed immediately

	cancel()
	<-done
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
