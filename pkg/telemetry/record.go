package telemetry

// MaxRecordSize is the size of the buffer a record must fit in, including
// the terminator the sensor firmware appends.
const MaxRecordSize = 256

// MaxRecordLen is the maximum number of payload bytes in a RawRecord.
const MaxRecordLen = MaxRecordSize - 1

// RawRecord is one record as received from the sensor stream.
type RawRecord []byte

// NewRawRecord copies p into a RawRecord, truncating silently to MaxRecordLen.
func NewRawRecord(p []byte) RawRecord {
	if len(p) > MaxRecordLen {
		p = p[:MaxRecordLen]
	}
	r := make(RawRecord, len(p))
	copy(r, p)
	return r
}

// IsEmpty indicates no bytes were received.
func (r RawRecord) IsEmpty() bool {
	return len(r) == 0
}

// String implements fmt.Stringer.
func (r RawRecord) String() string {
	return string(r)
}
