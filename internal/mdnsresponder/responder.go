package mdnsresponder

import (
	"fmt"
	"net"
	"time"
)

// Well-known mDNS constants (spec §4.8).
const (
	UDPPort             = 5353
	MulticastGroup      = "224.0.0.251"
	ServiceType         = "_wahoo-fitness-tnp._tcp.local"
	ServiceCatalogName  = "_services._dns-sd._udp.local"
	AdvertiseInterval   = 60 * time.Second
	InitialBurstCount   = 3
	InitialBurstSpacing = 250 * time.Millisecond
	TxtTTL              = 120
)

// Identity derives the emulator's host/service names and serial number
// from the interface MAC address (spec §4.8, §6).
type Identity struct {
	MAC        net.HardwareAddr
	IPv4       net.IP
	Port       int
	SerialNum  string
}

// suffix returns the hex of MAC bytes 4-5, uppercase, used in both the
// host name and the per-instance service name.
func (id Identity) suffix() string {
	if len(id.MAC) < 6 {
		return "0000"
	}
	return fmt.Sprintf("%02X%02X", id.MAC[4], id.MAC[5])
}

// HostName returns "Wahoo-KICKR-XXXX.local".
func (id Identity) HostName() string { return fmt.Sprintf("Wahoo-KICKR-%s.local", id.suffix()) }

// InstanceServiceName returns "Wahoo KICKR XXXX._wahoo-fitness-tnp._tcp.local".
func (id Identity) InstanceServiceName() string {
	return fmt.Sprintf("Wahoo KICKR %s.%s", id.suffix(), ServiceType)
}

// MACString renders the MAC as "XX-XX-XX-XX-XX-XX" for the TXT record.
func (id Identity) MACString() string {
	parts := make([]string, len(id.MAC))
	for i, b := range id.MAC {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "-"
		}
		out += p
	}
	return out
}

// Responder crafts and classifies mDNS messages. It holds no sockets
// itself; the event loop owns I/O and calls into this type for framing
// decisions (spec §4.9's separation of transport from protocol logic).
type Responder struct {
	Identity Identity
}

// NewResponder builds a Responder for the given identity.
func NewResponder(id Identity) *Responder { return &Responder{Identity: id} }

func ptrRR(name, target string) RR {
	return RR{Name: name, Type: TypePTR, Class: ClassIN, TTL: TxtTTL, RData: EncodeName(target)}
}

func aRR(name string, ip net.IP, cacheFlush bool) RR {
	class := uint16(ClassIN)
	if cacheFlush {
		class |= CacheFlushBit
	}
	ip4 := ip.To4()
	if ip4 == nil {
		ip4 = net.IPv4zero.To4()
	}
	return RR{Name: name, Type: TypeA, Class: class, TTL: TxtTTL, RData: []byte(ip4)}
}

func hinfoRR(name string) RR {
	cpu := "DIRCON"
	os := "emulator"
	rdata := append([]byte{byte(len(cpu))}, cpu...)
	rdata = append(rdata, byte(len(os)))
	rdata = append(rdata, os...)
	return RR{Name: name, Type: TypeHINFO, Class: ClassIN, TTL: TxtTTL, RData: rdata}
}

func srvRR(name, target string, port int, cacheFlush bool) RR {
	class := uint16(ClassIN)
	if cacheFlush {
		class |= CacheFlushBit
	}
	rdata := make([]byte, 6)
	rdata[0], rdata[1] = 0, 0 // priority
	rdata[2], rdata[3] = 0, 0 // weight
	rdata[4], rdata[5] = byte(port>>8), byte(port)
	rdata = append(rdata, EncodeName(target)...)
	return RR{Name: name, Type: TypeSRV, Class: class, TTL: TxtTTL, RData: rdata}
}

func (r *Responder) txtRR() RR {
	kvs := []string{
		"serial-number=" + r.Identity.SerialNum,
		"mac-address=" + r.Identity.MACString(),
		"ble-service-uuids=0x1818,0x1826",
	}
	var rdata []byte
	for _, kv := range kvs {
		rdata = append(rdata, byte(len(kv)))
		rdata = append(rdata, kv...)
	}
	return RR{Name: r.Identity.InstanceServiceName(), Type: TypeTXT, Class: ClassIN, TTL: TxtTTL, RData: rdata}
}

// AdvertiseProbe builds one of the three identical probe messages sent
// 250ms apart at startup: three Questions (two device-name ANY, one
// service-name ANY) plus three Authority records (A, HINFO, SRV).
func (r *Responder) AdvertiseProbe(id uint16) *Message {
	host := r.Identity.HostName()
	svc := r.Identity.InstanceServiceName()
	return &Message{
		Header: Header{ID: id, QDCount: 3, NSCount: 3},
		Questions: []Question{
			{QName: host, QType: TypeANY, QClass: ClassIN},
			{QName: host, QType: TypeANY, QClass: ClassIN},
			{QName: svc, QType: TypeANY, QClass: ClassIN},
		},
		Authority: []RR{
			aRR(host, r.Identity.IPv4, false),
			hinfoRR(host),
			srvRR(svc, host, r.Identity.Port, false),
		},
	}
}

// AdvertiseResponse builds the unsolicited advertisement response sent
// once after the probe burst: QR=1, three cache-flush Answers (A,
// HINFO, SRV).
func (r *Responder) AdvertiseResponse(id uint16) *Message {
	host := r.Identity.HostName()
	svc := r.Identity.InstanceServiceName()
	hinfo := hinfoRR(host)
	hinfo.Class |= CacheFlushBit
	return &Message{
		Header:  Header{ID: id, Flags: headerFlagQR, ANCount: 3},
		Answers: []RR{
			aRR(host, r.Identity.IPv4, true),
			hinfo,
			srvRR(svc, host, r.Identity.Port, true),
		},
	}
}

// HandleQuery inspects a decoded incoming message and, if it is a
// recognized service-browse query, returns the four-Answer response.
// Returns nil if the message warrants no reply (not a query, no
// matching question, or loopback).
//
// srcIsOwnIPv4 implements the loopback-suppression invariant (spec
// §4.8/§8): any datagram whose source equals the server's own bound
// IPv4 produces no response and no state change.
func (r *Responder) HandleQuery(msg *Message, srcIsOwnIPv4 bool) *Message {
	if srcIsOwnIPv4 || msg.Header.IsResponse() {
		return nil
	}

	for _, q := range msg.Questions {
		if q.QType != TypePTR || q.QClass != ClassIN {
			continue
		}
		if q.QName != ServiceCatalogName && q.QName != ServiceType {
			continue
		}

		host := r.Identity.HostName()
		svc := r.Identity.InstanceServiceName()

		var ptrTarget string
		if q.QName == ServiceCatalogName {
			ptrTarget = ServiceType
		} else {
			ptrTarget = svc
		}

		return &Message{
			Header: Header{ID: msg.Header.ID, Flags: headerFlagQR, ANCount: 4},
			Answers: []RR{
				ptrRR(q.QName, ptrTarget),
				aRR(host, r.Identity.IPv4, true),
				srvRR(svc, host, r.Identity.Port, true),
				r.txtRR(),
			},
		}
	}
	return nil
}
