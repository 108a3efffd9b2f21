package telemetry

import (
	"time"

	"github.com/golang/protobuf/proto"
)

// ReadingProto is the protobuf wire form of a Reading, published to
// binary consumers (e.g. the MQTT reading topic).
//
// Fields are proto2 optional scalars held by pointer, so every field is
// explicitly present on the wire, zero values included.
type ReadingProto struct {
	Soil1     *uint32  `protobuf:"varint,1,opt,name=soil1" json:"soil1,omitempty"`
	Soil2     *uint32  `protobuf:"varint,2,opt,name=soil2" json:"soil2,omitempty"`
	Rain      *bool    `protobuf:"varint,3,opt,name=rain" json:"rain,omitempty"`
	Tank      *uint32  `protobuf:"varint,4,opt,name=tank" json:"tank,omitempty"`
	Amb       *float64 `protobuf:"fixed64,5,opt,name=amb" json:"amb,omitempty"`
	Temp      *float64 `protobuf:"fixed64,6,opt,name=temp" json:"temp,omitempty"`
	Timestamp *int64   `protobuf:"varint,7,opt,name=timestamp" json:"timestamp,omitempty"`
}

// Reset implements proto.Message.
func (m *ReadingProto) Reset() { *m = ReadingProto{} }

// String implements proto.Message.
func (m *ReadingProto) String() string { return proto.CompactTextString(m) }

// ProtoMessage implements proto.Message.
func (*ReadingProto) ProtoMessage() {}

func (m *ReadingProto) GetSoil1() uint32 {
	if m != nil && m.Soil1 != nil {
		return *m.Soil1
	}
	return 0
}

func (m *ReadingProto) GetSoil2() uint32 {
	if m != nil && m.Soil2 != nil {
		return *m.Soil2
	}
	return 0
}

func (m *ReadingProto) GetRain() bool {
	if m != nil && m.Rain != nil {
		return *m.Rain
	}
	return false
}

func (m *ReadingProto) GetTank() uint32 {
	if m != nil && m.Tank != nil {
		return *m.Tank
	}
	return 0
}

func (m *ReadingProto) GetAmb() float64 {
	if m != nil && m.Amb != nil {
		return *m.Amb
	}
	return 0
}

func (m *ReadingProto) GetTemp() float64 {
	if m != nil && m.Temp != nil {
		return *m.Temp
	}
	return 0
}

func (m *ReadingProto) GetTimestamp() int64 {
	if m != nil && m.Timestamp != nil {
		return *m.Timestamp
	}
	return 0
}

// Proto converts the Reading, stamping it with the receive time.
func (r Reading) Proto(at time.Time) *ReadingProto {
	return &ReadingProto{
		Soil1:     proto.Uint32(uint32(r.Soil1)),
		Soil2:     proto.Uint32(uint32(r.Soil2)),
		Rain:      proto.Bool(r.Rain),
		Tank:      proto.Uint32(uint32(r.Tank)),
		Amb:       proto.Float64(r.Amb),
		Temp:      proto.Float64(r.Temp),
		Timestamp: proto.Int64(at.UnixNano()),
	}
}

// Reading converts back into a Reading. Absent fields are zero.
func (m *ReadingProto) Reading() Reading {
	return Reading{
		Soil1: int(m.GetSoil1()),
		Soil2: int(m.GetSoil2()),
		Rain:  m.GetRain(),
		Tank:  int(m.GetTank()),
		Amb:   m.GetAmb(),
		Temp:  m.GetTemp(),
	}
}

// MarshalReading encodes the Reading in protobuf.
func MarshalReading(r Reading, at time.Time) ([]byte, error) {
	return proto.Marshal(r.Proto(at))
}

// UnmarshalReading decodes a protobuf encoded Reading.
func UnmarshalReading(data []byte) (*ReadingProto, error) {
	var m ReadingProto
	if err := proto.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
