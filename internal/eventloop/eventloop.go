// Package eventloop implements the emulator's single cooperative
// dispatcher (spec §4.9): one readiness wait per iteration over the
// listening socket, the active client socket, the mDNS socket, and
// stdin, with unconditional timer evaluation on every iteration.
//
// The C original expresses this with a single poll(2) call across four
// file descriptors. Go has no equivalent blocking multiplexer over
// heterogeneous I/O sources, so each source gets its own goroutine that
// feeds a decoded event onto a channel, and a single select loop -
// running on one goroutine, touching no shared state any other
// goroutine mutates - plays the role of poll's readiness fan-in (spec
// §9: "reinterpret the source's control-flow constructs idiomatically
// rather than transliterate them"). Every mutation of *session.Server
// still happens from that one goroutine, preserving the single-threaded
// cooperative model spec §5 describes.
package eventloop

import (
	"bufio"
	"context"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/srg/dirconsim/internal/dircondump"
	"github.com/srg/dirconsim/internal/dirconproto"
	"github.com/srg/dirconsim/internal/handlers"
	"github.com/srg/dirconsim/internal/mdnsresponder"
	"github.com/srg/dirconsim/internal/notifyscheduler"
	"github.com/srg/dirconsim/internal/session"
	"github.com/srg/dirconsim/internal/tcpopts"
	"github.com/srg/dirconsim/internal/telemetry"
)

// MaxFrameSize bounds a single DIRCON frame (header + payload); a
// larger mesg_len is rejected and the session dropped (spec §4.5.7
// step 2).
const MaxFrameSize = 512

// tickInterval is the timer-evaluation granularity spec §4.9 names.
const tickInterval = 10 * time.Millisecond

type frameEvent struct {
	conn  net.Conn
	frame dirconproto.Frame
	err   error
}

type mdnsEvent struct {
	data []byte
	addr *net.UDPAddr
}

// Loop owns every I/O source and the single *session.Server it mutates.
type Loop struct {
	Server    *session.Server
	Queue     telemetry.Source
	Responder *mdnsresponder.Responder
	Logger    *logrus.Logger

	DissectFlag string
	HexDump     bool

	// MDNSEnabled gates the advertisement timer and query handling
	// (the --no-mdns flag, spec §6). Defaults to true in New.
	MDNSEnabled bool

	// OnCommand handles one line read from stdin (the supplemented CLI
	// REPL). Returning true requests loop exit. Nil disables stdin
	// handling entirely.
	OnCommand func(line string) bool

	listener   net.Listener
	mdnsConn   *net.UDPConn
	mcastAddr  *net.UDPAddr
	ownIPv4    net.IP

	acceptCh chan net.Conn
	frameCh  chan frameEvent
	mdnsCh   chan mdnsEvent
	stdinCh  chan string

	activeConn net.Conn
	advertise  *mdnsresponder.AdvertiseTimer
	nextMsgID  uint16
}

// New builds a Loop ready to Run. listener and mdnsConn are assumed
// already bound (spec §4.9 names them as pre-existing descriptors).
func New(srv *session.Server, queue telemetry.Source, responder *mdnsresponder.Responder, logger *logrus.Logger, listener net.Listener, mdnsConn *net.UDPConn, ownIPv4 net.IP) *Loop {
	return &Loop{
		Server:    srv,
		Queue:     queue,
		Responder: responder,
		Logger:    logger,
		listener:  listener,
		mdnsConn:  mdnsConn,
		ownIPv4:   ownIPv4,
		mcastAddr: &net.UDPAddr{IP: net.ParseIP(mdnsresponder.MulticastGroup), Port: mdnsresponder.UDPPort},
		acceptCh:  make(chan net.Conn),
		frameCh:   make(chan frameEvent),
		mdnsCh:    make(chan mdnsEvent),
		stdinCh:     make(chan string),
		advertise:   mdnsresponder.NewAdvertiseTimer(),
		MDNSEnabled: true,
	}
}

// Run drives the loop until ctx is cancelled or SIGINT arrives (spec
// §4.9 step 4 / §5 "Cancellation"), then tears down.
func (l *Loop) Run(ctx context.Context) error {
	go l.acceptLoop()
	go l.mdnsReadLoop()
	if l.OnCommand != nil {
		go l.stdinLoop()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.teardown()
			return nil
		case <-sigCh:
			l.teardown()
			return nil
		case conn := <-l.acceptCh:
			l.evaluateTimers(time.Now())
			l.handleAccept(conn)
		case ev := <-l.frameCh:
			l.evaluateTimers(time.Now())
			l.handleFrame(ev)
		case ev := <-l.mdnsCh:
			l.evaluateTimers(time.Now())
			l.handleMDNS(ev)
		case line := <-l.stdinCh:
			l.evaluateTimers(time.Now())
			if l.OnCommand != nil && l.OnCommand(line) {
				l.teardown()
				return nil
			}
		case now := <-ticker.C:
			l.evaluateTimers(now)
		}
	}
}

func (l *Loop) teardown() {
	if l.activeConn != nil {
		_ = l.activeConn.Close()
	}
	_ = l.listener.Close()
	_ = l.mdnsConn.Close()
}

// evaluateTimers runs step 2 of spec §4.9: unconditionally check the
// DIRCON notification deadline and the mDNS advertisement schedule.
func (l *Loop) evaluateTimers(now time.Time) {
	if frame := notifyscheduler.Tick(l.Server, l.Queue, now); frame != nil {
		l.sendFrame(*frame)
	}
	if !l.MDNSEnabled {
		return
	}
	if fire, isResponse := l.advertise.Due(now); fire {
		l.sendAdvertisement(isResponse)
		l.advertise.RecordSent()
	}
}

// acceptLoop feeds every accepted connection onto acceptCh; the loop
// goroutine decides whether to keep or reject it (spec names only one
// active client socket at a time).
func (l *Loop) acceptLoop() {
	for {
		conn, err := l.listener.Accept()
		if err != nil {
			return
		}
		l.acceptCh <- conn
	}
}

func (l *Loop) handleAccept(conn net.Conn) {
	if l.Server.Session.Active() {
		_ = conn.Close()
		return
	}
	if err := tcpopts.Tune(conn); err != nil && l.Logger != nil {
		l.Logger.WithError(err).Warn("failed to tune accepted connection")
	}
	l.Server.Session.Conn = conn
	l.Server.Session.LocalAddr = conn.LocalAddr()
	l.Server.Session.RemoteAddr = conn.RemoteAddr()
	l.activeConn = conn
	go l.frameReadLoop(conn)
}

// frameReadLoop implements spec §4.5.7 steps 1-4 for one connection,
// pushing each validly framed request onto frameCh. An invalid mesg_id
// or version drops the frame with a warning log and no response (loop
// continues, spec step 4); a short read or oversized mesg_len drops the session
// (frameCh receives the terminal error).
func (l *Loop) frameReadLoop(conn net.Conn) {
	hdr := make([]byte, dirconproto.HeaderSize)
	for {
		if _, err := io.ReadFull(conn, hdr); err != nil {
			l.frameCh <- frameEvent{conn: conn, err: err}
			return
		}
		version, f, mesgLen, err := dirconproto.DecodeHeader(hdr)
		if err != nil {
			l.frameCh <- frameEvent{conn: conn, err: err}
			return
		}
		if dirconproto.HeaderSize+int(mesgLen) > MaxFrameSize {
			l.frameCh <- frameEvent{conn: conn, err: io.ErrShortBuffer}
			return
		}
		payload := make([]byte, mesgLen)
		if mesgLen > 0 {
			if _, err := io.ReadFull(conn, payload); err != nil {
				l.frameCh <- frameEvent{conn: conn, err: err}
				return
			}
		}
		if version != dirconproto.Version || !f.MesgID.Valid() {
			if l.Logger != nil {
				l.Logger.WithField("mesgId", f.MesgID).Warn("dropping frame with invalid version or message id")
			}
			continue
		}
		f.Payload = payload
		l.frameCh <- frameEvent{conn: conn, frame: f}
	}
}

func (l *Loop) handleFrame(ev frameEvent) {
	if ev.conn != l.activeConn {
		return
	}
	if ev.err != nil {
		l.dropSession()
		return
	}

	if l.Logger != nil && dircondump.ShouldDissect(l.DissectFlag, ev.frame.MesgID) {
		dircondump.Dissect(l.Logger, "rx", ev.frame, l.HexDump)
	}

	resp := l.dispatch(ev.frame)
	if resp == nil {
		return
	}
	l.sendFrame(*resp)

	if pending := l.Server.TakePendingCPResponse(); pending != nil {
		notif := handlers.BuildFMCPNotification(l.Server, pending)
		l.sendFrame(*notif)
	}
}

func (l *Loop) dispatch(req dirconproto.Frame) *dirconproto.Frame {
	switch req.MesgID {
	case dirconproto.DiscoverServices:
		return handlers.HandleDiscoverServices(l.Server, req)
	case dirconproto.DiscoverCharacteristics:
		return handlers.HandleDiscoverCharacteristics(l.Server, req)
	case dirconproto.ReadCharacteristic:
		return handlers.HandleReadCharacteristic(l.Server, req)
	case dirconproto.WriteCharacteristic:
		return handlers.HandleWriteCharacteristic(l.Server, req)
	case dirconproto.EnableCharacteristicNotifications:
		return handlers.HandleEnableCharacteristicNotifications(l.Server, req, time.Now())
	case dirconproto.UnsolicitedCharacteristicNotification:
		// Server-generated only (spec §4.5.6); a client-sent frame with
		// this opcode is dropped silently, same as the C original's
		// dirconProcUnsolicitedCharacteristicNotificationMesg no-op.
		return nil
	default:
		return &dirconproto.Frame{MesgID: req.MesgID, SeqNum: req.SeqNum, RespCode: dirconproto.UnknownMessage}
	}
}

func (l *Loop) sendFrame(frame dirconproto.Frame) {
	if !l.Server.Session.Active() {
		return
	}
	if l.Logger != nil && dircondump.ShouldDissect(l.DissectFlag, frame.MesgID) {
		dircondump.Dissect(l.Logger, "tx", frame, l.HexDump)
	}
	if _, err := l.Server.Session.Conn.Write(frame.Encode()); err != nil {
		if l.Logger != nil {
			l.Logger.WithError(err).Warn("write failed, dropping session")
		}
		l.dropSession()
		return
	}
	l.Server.Session.TxCount++
}

// dropSession runs spec §4.9's connection-drop cleanup.
func (l *Loop) dropSession() {
	l.activeConn = nil
	l.Server.DropSession()
}

func (l *Loop) mdnsReadLoop() {
	buf := make([]byte, 9000)
	for {
		n, addr, err := l.mdnsConn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		l.mdnsCh <- mdnsEvent{data: data, addr: addr}
	}
}

func (l *Loop) handleMDNS(ev mdnsEvent) {
	if !l.MDNSEnabled {
		return
	}
	srcIsOwn := ev.addr != nil && l.ownIPv4 != nil && ev.addr.IP.Equal(l.ownIPv4)
	if srcIsOwn {
		return
	}
	msg, err := mdnsresponder.DecodeMessage(ev.data)
	if err != nil {
		if l.Logger != nil {
			l.Logger.WithError(err).Debug("dropping malformed mDNS message")
		}
		return
	}
	l.Server.RxMDNSCount++
	resp := l.Responder.HandleQuery(msg, srcIsOwn)
	if resp == nil {
		return
	}
	if _, err := l.mdnsConn.WriteToUDP(resp.Encode(), ev.addr); err != nil {
		if l.Logger != nil {
			l.Logger.WithError(err).Warn("failed to send mDNS response")
		}
		return
	}
	l.Server.TxMDNSCount++
}

func (l *Loop) sendAdvertisement(isResponse bool) {
	l.nextMsgID++
	var msg *mdnsresponder.Message
	if isResponse {
		msg = l.Responder.AdvertiseResponse(l.nextMsgID)
	} else {
		msg = l.Responder.AdvertiseProbe(l.nextMsgID)
	}
	if _, err := l.mdnsConn.WriteToUDP(msg.Encode(), l.mcastAddr); err != nil {
		if l.Logger != nil {
			l.Logger.WithError(err).Warn("failed to send mDNS advertisement")
		}
		return
	}
	l.Server.TxMDNSCount++
}

func (l *Loop) stdinLoop() {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		l.stdinCh <- scanner.Text()
	}
}
