// Package gatt builds and exposes the emulator's virtual GATT database:
// an ordered sequence of Services, each owning an ordered sequence of
// Characteristics with a property bitset. The table is built once at
// init and never mutated afterward (spec invariant).
//
// Grounded on the BLE CLI's internal/device/service.go and
// internal/device/go-ble/property.go, which wrap github.com/go-ble/ble's
// ble.Property bit flags behind a friendlier Properties accessor; here
// the same ble.Property bits classify a virtual characteristic's
// capabilities, and DirconPropertyByte translates them to DIRCON's own
// three-bit wire encoding (READ=0x01, WRITE=0x02, NOTIFY=0x04) which is
// independent of BLE's own property byte layout.
package gatt

import (
	"github.com/go-ble/ble"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/srg/dirconsim/internal/uuidreg"
)

// DIRCON wire-level property bits (spec §4.4), distinct from ble.Property's
// own bit positions.
const (
	DirconRead   byte = 0x01
	DirconWrite  byte = 0x02
	DirconNotify byte = 0x04
)

// Characteristic is a named, typed value inside a Service with a
// property bitset. Owned by exactly one Service; lifetime is the
// program's lifetime.
type Characteristic struct {
	UUID128 uuidreg.Uuid128
	UUID16  uuidreg.Uuid16 // derived; zero value if not a short-form UUID
	caps    ble.Property
}

// NewCharacteristic constructs a Characteristic for the given 16-bit
// UUID with the given BLE capability bits.
func NewCharacteristic(u16 uuidreg.Uuid16, caps ble.Property) *Characteristic {
	return &Characteristic{
		UUID128: uuidreg.FromU16(u16),
		UUID16:  u16,
		caps:    caps,
	}
}

// CanRead reports whether the READ property is set.
func (c *Characteristic) CanRead() bool { return c.caps&ble.CharRead != 0 }

// CanWrite reports whether the WRITE property is set.
func (c *Characteristic) CanWrite() bool { return c.caps&ble.CharWrite != 0 }

// CanNotify reports whether the NOTIFY property is set.
func (c *Characteristic) CanNotify() bool { return c.caps&ble.CharNotify != 0 }

// DirconPropertyByte maps the characteristic's capability bits onto
// DIRCON's wire-level property byte. Bits above the low three are never
// set by this emulator's table, so there is nothing to mask off.
func (c *Characteristic) DirconPropertyByte() byte {
	var b byte
	if c.CanRead() {
		b |= DirconRead
	}
	if c.CanWrite() {
		b |= DirconWrite
	}
	if c.CanNotify() {
		b |= DirconNotify
	}
	return b
}

// Name returns the diagnostic name for this characteristic's UUID.
func (c *Characteristic) Name() string { return uuidreg.Name(c.UUID128) }

// Service owns an ordered sequence of Characteristics. Order of
// insertion is the order of enumeration in Discover-Characteristics
// responses.
type Service struct {
	UUID128 uuidreg.Uuid128
	chars   *orderedmap.OrderedMap[uuidreg.Uuid128, *Characteristic]
}

// NewService constructs an empty Service for the given 16-bit UUID.
func NewService(u16 uuidreg.Uuid16) *Service {
	return &Service{
		UUID128: uuidreg.FromU16(u16),
		chars:   orderedmap.New[uuidreg.Uuid128, *Characteristic](),
	}
}

// AddCharacteristic appends c to the service's ordered characteristic
// list. Must only be called during table construction.
func (s *Service) AddCharacteristic(c *Characteristic) {
	s.chars.Set(c.UUID128, c)
}

// Characteristics returns the service's characteristics in insertion order.
func (s *Service) Characteristics() []*Characteristic {
	out := make([]*Characteristic, 0, s.chars.Len())
	for pair := s.chars.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// FindCharacteristic looks up a characteristic by its 128-bit UUID
// within this service, via the ordered map's keyed lookup.
func (s *Service) FindCharacteristic(u uuidreg.Uuid128) *Characteristic {
	if c, ok := s.chars.Get(u); ok {
		return c
	}
	return nil
}

// Table is the top-level virtual GATT database: an ordered sequence of
// Services. Built once at init; read-only for the rest of the process
// lifetime.
type Table struct {
	services []*Service
}

// NewTable constructs an empty table. Use AddService to populate it
// during init.
func NewTable() *Table { return &Table{} }

// AddService appends svc to the table's ordered service list. Must only
// be called during table construction.
func (t *Table) AddService(svc *Service) { t.services = append(t.services, svc) }

// Services returns the table's services in insertion order.
func (t *Table) Services() []*Service { return t.services }

// FindService looks up a service by its 128-bit UUID. Linear scan.
func (t *Table) FindService(u uuidreg.Uuid128) *Service {
	for _, s := range t.services {
		if uuidreg.Equal(s.UUID128, u) {
			return s
		}
	}
	return nil
}

// FindCharacteristic looks up a characteristic by its 128-bit UUID
// across every service in the table. Linear scan over services, then a
// keyed lookup in each service's characteristic map.
func (t *Table) FindCharacteristic(u uuidreg.Uuid128) (*Service, *Characteristic) {
	for _, s := range t.services {
		if c := s.FindCharacteristic(u); c != nil {
			return s, c
		}
	}
	return nil, nil
}

// 16-bit UUIDs of every characteristic this emulator exposes (spec §4.3).
const (
	CyclingPowerMeasurement   uuidreg.Uuid16 = 0x2A63
	CyclingPowerFeature       uuidreg.Uuid16 = 0x2A65
	CyclingPowerControlPoint  uuidreg.Uuid16 = 0x2A66
	SensorLocation            uuidreg.Uuid16 = 0x2A5D
	FitnessMachineFeature     uuidreg.Uuid16 = 0x2ACC
	IndoorBikeData            uuidreg.Uuid16 = 0x2AD2
	TrainingStatus            uuidreg.Uuid16 = 0x2AD3
	SupportedResistanceRange  uuidreg.Uuid16 = 0x2AD6
	SupportedPowerRange       uuidreg.Uuid16 = 0x2AD8
	FitnessMachineControlPt   uuidreg.Uuid16 = 0x2AD9
	FitnessMachineStatus      uuidreg.Uuid16 = 0x2ADA
	CyclingPowerServiceUUID16 uuidreg.Uuid16 = 0x1818
	FitnessMachineServiceU16  uuidreg.Uuid16 = 0x1826
)

// Build constructs the exact GATT table the emulator exposes: Cycling
// Power Service and Fitness Machine Service, each with the
// characteristics named in spec §4.3, in the order the Discover
// responses must enumerate them.
func Build() *Table {
	t := NewTable()

	cps := NewService(CyclingPowerServiceUUID16)
	cps.AddCharacteristic(NewCharacteristic(CyclingPowerMeasurement, ble.CharNotify))
	cps.AddCharacteristic(NewCharacteristic(CyclingPowerFeature, ble.CharRead))
	cps.AddCharacteristic(NewCharacteristic(CyclingPowerControlPoint, ble.CharWrite|ble.CharNotify))
	cps.AddCharacteristic(NewCharacteristic(SensorLocation, ble.CharRead))
	t.AddService(cps)

	ftms := NewService(FitnessMachineServiceU16)
	ftms.AddCharacteristic(NewCharacteristic(FitnessMachineFeature, ble.CharRead))
	ftms.AddCharacteristic(NewCharacteristic(IndoorBikeData, ble.CharNotify))
	ftms.AddCharacteristic(NewCharacteristic(TrainingStatus, ble.CharRead|ble.CharNotify))
	ftms.AddCharacteristic(NewCharacteristic(FitnessMachineControlPt, ble.CharWrite|ble.CharNotify))
	ftms.AddCharacteristic(NewCharacteristic(FitnessMachineStatus, ble.CharNotify))
	ftms.AddCharacteristic(NewCharacteristic(SupportedPowerRange, ble.CharRead))
	ftms.AddCharacteristic(NewCharacteristic(SupportedResistanceRange, ble.CharRead))
	t.AddService(ftms)

	return t
}
