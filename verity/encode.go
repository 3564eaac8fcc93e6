package verity

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"
)

// Encode returns the canonical (borsh) encoding of a:
//
//	name, version, cluster  u32 LE length + UTF-8 bytes
//	subject                 32 raw bytes
//	expiration              i64 LE
//	schema                  u32 LE length + UTF-8 bytes
//
// The layout must stay bit-for-bit identical to what issuers sign.
func Encode(a Attestation) []byte {
	n := 4*4 + len(a.Name) + len(a.Version) + len(a.Cluster) + len(a.Schema) + IdentitySize + 8
	out := make([]byte, 0, n)
	out = appendString(out, a.Name)
	out = appendString(out, a.Version)
	out = appendString(out, a.Cluster)
	out = append(out, a.Subject[:]...)
	out = binary.LittleEndian.AppendUint64(out, uint64(a.Expiration))
	out = appendString(out, a.Schema)
	return out
}

func appendString(out []byte, s string) []byte {
	out = binary.LittleEndian.AppendUint32(out, uint32(len(s)))
	return append(out, s...)
}

// Decode parses canonical bytes produced by Encode.
// Truncated input, invalid UTF-8 and trailing bytes are rejected.
func Decode(b []byte) (Attestation, error) {
	var a Attestation
	d := decoder{buf: b}
	a.Name = d.string("name")
	a.Version = d.string("version")
	a.Cluster = d.string("cluster")
	copy(a.Subject[:], d.take("subject", IdentitySize))
	if raw := d.take("expiration", 8); raw != nil {
		a.Expiration = int64(binary.LittleEndian.Uint64(raw))
	}
	a.Schema = d.string("schema")
	if d.err != nil {
		return Attestation{}, d.err
	}
	if len(d.buf) != 0 {
		return Attestation{}, newError(KindEncoding, CodeMalformedEncoding, "VERITY-ENC-203",
			fmt.Sprintf("%d trailing bytes", len(d.buf)))
	}
	return a, nil
}

type decoder struct {
	buf []byte
	err error
}

func (d *decoder) take(field string, n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || len(d.buf) < n {
		d.err = newError(KindEncoding, CodeMalformedEncoding, "VERITY-ENC-201", "truncated "+field)
		return nil
	}
	out := d.buf[:n]
	d.buf = d.buf[n:]
	return out
}

func (d *decoder) string(field string) string {
	raw := d.take(field+" length", 4)
	if raw == nil {
		return ""
	}
	n := binary.LittleEndian.Uint32(raw)
	if uint64(n) > math.MaxInt32 {
		d.err = newError(KindEncoding, CodeMalformedEncoding, "VERITY-ENC-201", "truncated "+field)
		return ""
	}
	s := d.take(field, int(n))
	if s == nil {
		return ""
	}
	if !utf8.Valid(s) {
		d.err = newError(KindEncoding, CodeMalformedEncoding, "VERITY-ENC-202", field+" is not valid UTF-8")
		return ""
	}
	return string(s)
}
