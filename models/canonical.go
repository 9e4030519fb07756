package models

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// EncodingVersion identifies the canonical block encoding below. Changing the
// byte layout in any way changes every block hash and needs a new version.
const EncodingVersion = 1

// encodeBlockV1 produces the hash input of a block: a JSON object with sorted
// keys, ", " and ": " separators, ASCII-only strings and repr-style float
// formatting. Existing chains were hashed over exactly these bytes.
//
// Outer keys: index, nonce, previous_hash, timestamp, transactions.
// Transaction keys: candidate, sender, signature.
func encodeBlockV1(index int64, txs []Transaction, previousHash string, timestamp float64, nonce uint64) []byte {
	var b strings.Builder
	b.Grow(128 + len(txs)*320)

	b.WriteString(`{"index": `)
	b.WriteString(strconv.FormatInt(index, 10))
	b.WriteString(`, "nonce": `)
	b.WriteString(strconv.FormatUint(nonce, 10))
	b.WriteString(`, "previous_hash": `)
	writeString(&b, previousHash)
	b.WriteString(`, "timestamp": `)
	b.WriteString(formatFloat(timestamp))
	b.WriteString(`, "transactions": [`)
	for i, tx := range txs {
		if i > 0 {
			b.WriteString(", ")
		}
		r := tx.Record()
		b.WriteString(`{"candidate": `)
		writeString(&b, r.Candidate)
		b.WriteString(`, "sender": `)
		writeString(&b, r.Sender)
		b.WriteString(`, "signature": `)
		if r.Signature == "" {
			b.WriteString("null")
		} else {
			writeString(&b, r.Signature)
		}
		b.WriteString("}")
	}
	b.WriteString("]}")

	return []byte(b.String())
}

const hexDigits = "0123456789abcdef"

// writeString writes s as a JSON string, escaping everything outside
// printable ASCII. Invalid UTF-8 bytes are encoded as U+FFFD.
func writeString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			i++
			switch c {
			case '"':
				b.WriteString(`\"`)
			case '\\':
				b.WriteString(`\\`)
			case '\n':
				b.WriteString(`\n`)
			case '\r':
				b.WriteString(`\r`)
			case '\t':
				b.WriteString(`\t`)
			case '\b':
				b.WriteString(`\b`)
			case '\f':
				b.WriteString(`\f`)
			default:
				if c < 0x20 || c == 0x7f {
					writeUnicodeEscape(b, rune(c))
				} else {
					b.WriteByte(c)
				}
			}
			continue
		}

		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		if r > 0xffff {
			r1, r2 := utf16.EncodeRune(r)
			writeUnicodeEscape(b, r1)
			writeUnicodeEscape(b, r2)
			continue
		}
		writeUnicodeEscape(b, r)
	}
	b.WriteByte('"')
}

func writeUnicodeEscape(b *strings.Builder, r rune) {
	b.WriteString(`\u`)
	b.WriteByte(hexDigits[(r>>12)&0xf])
	b.WriteByte(hexDigits[(r>>8)&0xf])
	b.WriteByte(hexDigits[(r>>4)&0xf])
	b.WriteByte(hexDigits[r&0xf])
}

// formatFloat writes shortest round-trip digits, using
// scientific notation when the decimal exponent is < -4 or >= 16, and a
// trailing ".0" on integral values.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}

	if f != 0 {
		sci := strconv.FormatFloat(f, 'e', -1, 64)
		e := strings.IndexByte(sci, 'e')
		if exp, err := strconv.Atoi(sci[e+1:]); err == nil && (exp < -4 || exp >= 16) {
			return sci
		}
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
