package telemetry

import (
	"math"
	"strconv"
	"strings"
)

// FieldSeparator separates fields in a record.
const FieldSeparator = ";"

// Decoded is the result of decoding one record.
type Decoded struct {
	// Tokens are the parsed fields in record order, unknown keys included.
	Tokens []Token
	// Discarded counts non-empty fields not matching `KEY=NUMBER`.
	Discarded int
}

// Decode tokenizes a record. It never fails: malformed fields are
// counted in Discarded and skipped.
func Decode(rec RawRecord) Decoded {
	return DecodeString(string(rec))
}

// DecodeString is Decode for a string record.
func DecodeString(rec string) (d Decoded) {
	for _, field := range strings.Split(rec, FieldSeparator) {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		if tok, ok := parseToken(field); ok {
			d.Tokens = append(d.Tokens, tok)
		} else {
			d.Discarded++
		}
	}
	return
}

// Fields returns the last value seen for each recognized key.
func (d Decoded) Fields() map[Key]float64 {
	fields := make(map[Key]float64, len(d.Tokens))
	for _, tok := range d.Tokens {
		if tok.Key.IsRecognized() {
			fields[tok.Key] = tok.Value
		}
	}
	return fields
}

// Unknown counts parsed tokens whose key is not recognized.
func (d Decoded) Unknown() (n int) {
	for _, tok := range d.Tokens {
		if !tok.Key.IsRecognized() {
			n++
		}
	}
	return
}

func parseToken(field string) (tok Token, ok bool) {
	pos := strings.IndexByte(field, '=')
	if pos < 0 {
		return
	}
	key := strings.TrimSpace(field[:pos])
	if key == "" || len(key) > MaxKeyLen {
		return
	}
	val, err := strconv.ParseFloat(strings.TrimSpace(field[pos+1:]), 64)
	if err != nil || math.IsNaN(val) || math.IsInf(val, 0) {
		return
	}
	return Token{Key: Key(key), Value: val}, true
}
