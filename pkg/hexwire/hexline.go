// SPDX-License-Identifier: Apache-2.0

package hexwire

// ParsedLine is a decoded Intel HEX record.
type ParsedLine struct {
	ByteCount  uint8
	Address    uint16
	RecordType uint8
	Data       [MaxDataBytes]byte
	Checksum   uint8
	Valid      bool
}

func parseHex2(hi, lo byte) (byte, bool) {
	h, ok1 := hexNibble(hi)
	l, ok2 := hexNibble(lo)
	if !ok1 || !ok2 {
		return 0, false
	}
	return h<<4 | l, true
}

func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	default:
		return 0, false
	}
}

// parseLine applies the six checks of §4.3 to line (the effective
// slice of a reassembled line buffer, pad bytes excluded), in order.
// The first failing check determines reason; a line that passes all
// six checks has Valid set true.
func parseLine(line []byte) (ParsedLine, string) {
	var p ParsedLine

	if len(line) < 11 {
		return p, "length below minimum of 11"
	}
	if line[0] != ':' {
		return p, "missing ':' start marker"
	}
	byteCount, ok := parseHex2(line[1], line[2])
	if !ok {
		return p, "non-hex byte count"
	}
	if byteCount > MaxDataBytes {
		return p, "byte count exceeds 16"
	}
	if len(line) != 11+2*int(byteCount) {
		return p, "length inconsistent with byte count"
	}
	addrHi, ok := parseHex2(line[3], line[4])
	if !ok {
		return p, "non-hex address"
	}
	addrLo, ok := parseHex2(line[5], line[6])
	if !ok {
		return p, "non-hex address"
	}
	recordType, ok := parseHex2(line[7], line[8])
	if !ok {
		return p, "non-hex record type"
	}
	if recordType > maxRecordType {
		return p, "record type exceeds 5"
	}

	var data [MaxDataBytes]byte
	for i := 0; i < int(byteCount); i++ {
		b, ok := parseHex2(line[9+2*i], line[10+2*i])
		if !ok {
			return p, "non-hex data byte"
		}
		data[i] = b
	}
	checksum, ok := parseHex2(line[9+2*int(byteCount)], line[10+2*int(byteCount)])
	if !ok {
		return p, "non-hex checksum"
	}

	sum := byteCount + addrHi + addrLo + recordType + checksum
	for i := 0; i < int(byteCount); i++ {
		sum += data[i]
	}
	if sum != 0 {
		return p, "checksum mismatch"
	}

	p.ByteCount = byteCount
	p.Address = uint16(addrHi)<<8 | uint16(addrLo)
	p.RecordType = recordType
	p.Data = data
	p.Checksum = checksum
	p.Valid = true
	return p, ""
}
