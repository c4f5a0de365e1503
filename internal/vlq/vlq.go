// Package vlq implements the base64 variable-length quantity encoding used by
// the "mappings", "originalScopes" and "generatedRanges" fields of source maps.
//
// Each value is stored as a sequence of base64 sextets. The lowest bit of the
// first sextet carries the sign, bit 0x20 of every sextet marks a
// continuation. The ',' and ';' characters are control tokens recognized by the
// same scanner.
package vlq

import "strings"

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

const (
	continuationBit = 0x20
	dataMask        = 0x1f
)

// Control identifies the kind of a token reported by ReadTokens.
type Control int

const (
	// Value is a decoded integer.
	Value Control = iota
	// EndSegment is the ',' separator.
	EndSegment
	// NextLine is the ';' separator.
	NextLine
	// Invalid is a character outside of the alphabet. Readers treat it as a
	// segment boundary.
	Invalid
)

func (c Control) String() string {
	switch c {
	case Value:
		return "value"
	case EndSegment:
		return "end-segment"
	case NextLine:
		return "next-line"
	default:
		return "invalid"
	}
}

const (
	invalidSextet = 0xff
	endSegment    = 0xfe
	nextLine      = 0xfd
	lastDecodable = 'z'
)

var decodeTable [lastDecodable + 1]byte

func init() {
	for i := range decodeTable {
		decodeTable[i] = invalidSextet
	}
	for i := 0; i < len(alphabet); i++ {
		decodeTable[alphabet[i]] = byte(i)
	}
	decodeTable[','] = endSegment
	decodeTable[';'] = nextLine
}

// Append appends the encoded form of v to dst and returns the extended slice.
func Append(dst []byte, v int) []byte {
	var data uint64
	if v < 0 {
		data = uint64(-int64(v))<<1 | 1
	} else {
		data = uint64(v) << 1
	}
	for {
		sextet := data & dataMask
		data >>= 5
		if data == 0 {
			return append(dst, alphabet[sextet])
		}
		dst = append(dst, alphabet[sextet|continuationBit])
	}
}

// AppendString is like Append but writes into a strings.Builder.
func AppendString(b *strings.Builder, v int) {
	var buf [16]byte
	b.Write(Append(buf[:0], v))
}

// Encode returns the encoded form of v.
func Encode(v int) string {
	var buf [16]byte
	return string(Append(buf[:0], v))
}

// ReadTokens scans s and calls onToken for every value and control token in
// order. The value argument is only meaningful for Value tokens. Characters
// beyond the alphabet's range are skipped silently, unknown characters inside
// it are reported as Invalid.
func ReadTokens(s string, onToken func(control Control, value int)) {
	var current uint64
	var shift uint
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c > lastDecodable {
			continue
		}
		switch d := decodeTable[c]; d {
		case endSegment:
			onToken(EndSegment, 0)
		case nextLine:
			onToken(NextLine, 0)
		case invalidSextet:
			onToken(Invalid, 0)
		default:
			if shift < 64 {
				current |= uint64(d&dataMask) << shift
			}
			if d&continuationBit != 0 {
				shift += 5
				continue
			}
			v := int(current >> 1)
			if current&1 != 0 {
				v = -v
			}
			onToken(Value, v)
			current, shift = 0, 0
		}
	}
}

// Decode decodes all values in s, ignoring control tokens.
func Decode(s string) []int {
	var values []int
	ReadTokens(s, func(control Control, value int) {
		if control == Value {
			values = append(values, value)
		}
	})
	return values
}
