package dnsmsg

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// headerSize is the fixed 12-byte length of a DNS header (RFC 1035 section 4.1.1).
const headerSize = 12

// Header is the 12-byte fixed section at the front of every DNS message.
type Header struct {
	ID uint16

	QR     bool // query (false) / response (true)
	Opcode Opcode
	AA     bool // authoritative answer
	TC     bool // truncated
	RD     bool // recursion desired
	RA     bool // recursion available
	Z      uint8 // 3-bit reserved field
	RCODE  ResponseCode

	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
}

// SetRandomID assigns a cryptographically random transaction ID, per RFC
// 1035's requirement that query IDs be unpredictable.
func (h *Header) SetRandomID() error {
	var b [2]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Errorf("generate random header id: %w", err)
	}
	h.ID = binary.BigEndian.Uint16(b[:])
	return nil
}

// Marshal appends the wire form of the header to buf.
func (h *Header) Marshal(buf []byte) []byte {
	var b [headerSize]byte
	binary.BigEndian.PutUint16(b[0:2], h.ID)

	var flagByte1 byte
	if h.QR {
		flagByte1 |= 0b1000_0000
	}
	flagByte1 |= byte(h.Opcode&0x0F) << 3
	if h.AA {
		flagByte1 |= 0b0000_0100
	}
	if h.TC {
		flagByte1 |= 0b0000_0010
	}
	if h.RD {
		flagByte1 |= 0b0000_0001
	}
	b[2] = flagByte1

	var flagByte2 byte
	if h.RA {
		flagByte2 |= 0b1000_0000
	}
	flagByte2 |= (h.Z & 0x07) << 4
	flagByte2 |= byte(h.RCODE) & 0x0F
	b[3] = flagByte2

	binary.BigEndian.PutUint16(b[4:6], h.QDCount)
	binary.BigEndian.PutUint16(b[6:8], h.ANCount)
	binary.BigEndian.PutUint16(b[8:10], h.NSCount)
	binary.BigEndian.PutUint16(b[10:12], h.ARCount)

	return append(buf, b[:]...)
}

// UnmarshalHeader parses the fixed 12-byte header from the front of data.
func UnmarshalHeader(data []byte) (Header, error) {
	if len(data) < headerSize {
		return Header{}, fmt.Errorf("dnsmsg: header requires %d bytes, got %d", headerSize, len(data))
	}

	var h Header
	h.ID = binary.BigEndian.Uint16(data[0:2])

	flagByte1 := data[2]
	h.QR = flagByte1&0b1000_0000 != 0
	h.Opcode = Opcode((flagByte1 >> 3) & 0x0F)
	h.AA = flagByte1&0b0000_0100 != 0
	h.TC = flagByte1&0b0000_0010 != 0
	h.RD = flagByte1&0b0000_0001 != 0

	flagByte2 := data[3]
	h.RA = flagByte2&0b1000_0000 != 0
	h.Z = (flagByte2 >> 4) & 0x07
	h.RCODE = ResponseCode(flagByte2 & 0x0F)

	h.QDCount = binary.BigEndian.Uint16(data[4:6])
	h.ANCount = binary.BigEndian.Uint16(data[6:8])
	h.NSCount = binary.BigEndian.Uint16(data[8:10])
	h.ARCount = binary.BigEndian.Uint16(data[10:12])

	return h, nil
}
