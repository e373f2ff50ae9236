// SPDX-License-Identifier: Apache-2.0

package hexwire

import (
	"fmt"
	"hash/crc32"
)

// InitFrame is the first message of a transfer, announcing the total
// line count and the expected file checksum.
type InitFrame struct {
	LineCount  uint16 // 15 bits
	FileCRC32  uint32
	InitCRC16  uint16 // low 16 bits of CRC32(first 48 bits), per spec
}

// SegmentFrame carries one 5-byte slice of a reassembled hex line.
type SegmentFrame struct {
	LineNum       uint16 // 15 bits
	SegmentIndex  uint8  // 4 bits
	SegmentTotal  uint8  // 4 bits
	Payload       [MaxSegmentPayload]byte
}

// IsInitFrame reports whether buf's first bit selects the Init frame
// kind (bit 0 of byte 0, per the little-endian packed word).
func IsInitFrame(buf [8]byte) bool {
	return buf[0]&0x01 == 0
}

// packWord reassembles the little-endian 64-bit word from 8 bytes.
// Implementations must build this explicitly byte by byte rather than
// relying on host-endian struct layout.
func packWord(buf [8]byte) uint64 {
	var word uint64
	for i := 0; i < 8; i++ {
		word |= uint64(buf[i]) << (8 * i)
	}
	return word
}

func unpackWord(word uint64) [8]byte {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(word >> (8 * i))
	}
	return buf
}

// InitCRC16Of computes the init-frame checksum: a CRC32 of the first 6
// bytes of the packed word, truncated to its low 16 bits. The
// transmitter must reproduce this exact construction for the two
// sides to agree on what "valid" means.
func InitCRC16Of(buf [8]byte) uint16 {
	return uint16(crc32.ChecksumIEEE(buf[:6]) & 0xFFFF)
}

// UnpackInitFrame decodes an 8-byte Init frame and also returns the
// checksum this side computes over the received bytes, so callers can
// compare it against the frame's own InitCRC16 without recomputing it
// twice.
func UnpackInitFrame(buf [8]byte) (InitFrame, uint16) {
	word := packWord(buf)
	m := InitFrame{
		LineCount: uint16((word >> 1) & 0x7FFF),
		FileCRC32: uint32((word >> 16) & 0xFFFFFFFF),
		InitCRC16: uint16((word >> 48) & 0xFFFF),
	}
	return m, InitCRC16Of(buf)
}

// PackInitFrame encodes m into its 8-byte wire form. InitCRC16 is
// taken from m verbatim; callers that want a self-consistent frame
// should set it with InitCRC16Of first.
func PackInitFrame(m InitFrame) [8]byte {
	var word uint64
	word |= 0 // bit 0 = 0 selects Init
	word |= uint64(m.LineCount&0x7FFF) << 1
	word |= uint64(m.FileCRC32) << 16
	word |= uint64(m.InitCRC16&0xFFFF) << 48
	return unpackWord(word)
}

// UnpackSegmentFrame decodes an 8-byte Segment frame.
func UnpackSegmentFrame(buf [8]byte) SegmentFrame {
	word := packWord(buf)
	m := SegmentFrame{
		LineNum:      uint16((word >> 1) & 0x7FFF),
		SegmentIndex: uint8((word >> 16) & 0x0F),
		SegmentTotal: uint8((word >> 20) & 0x0F),
	}
	for i := 0; i < MaxSegmentPayload; i++ {
		m.Payload[i] = byte(word >> (24 + 8*i))
	}
	return m
}

// PackSegmentFrame encodes m into its 8-byte wire form.
func PackSegmentFrame(m SegmentFrame) [8]byte {
	var word uint64
	word |= 1 // bit 0 = 1 selects Segment
	word |= uint64(m.LineNum&0x7FFF) << 1
	word |= uint64(m.SegmentIndex&0x0F) << 16
	word |= uint64(m.SegmentTotal&0x0F) << 20
	for i := 0; i < MaxSegmentPayload; i++ {
		word |= uint64(m.Payload[i]) << (24 + 8*i)
	}
	return unpackWord(word)
}

// String renders a Segment frame for debug logging, showing pad bytes
// as dots the way the original firmware's frame dump did.
func (m SegmentFrame) String() string {
	chars := make([]byte, MaxSegmentPayload)
	for i, b := range m.Payload {
		if b == PadByte {
			chars[i] = '.'
		} else {
			chars[i] = b
		}
	}
	return fmt.Sprintf("segment line=%d idx=%d/%d %q", m.LineNum, m.SegmentIndex, m.SegmentTotal, chars)
}

func (m InitFrame) String() string {
	return fmt.Sprintf("init lines=%d file_crc32=0x%08X init_crc16=0x%04X", m.LineCount, m.FileCRC32, m.InitCRC16)
}
