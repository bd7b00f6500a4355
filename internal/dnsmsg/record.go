package dnsmsg

import (
	"encoding/binary"
	"fmt"
	"net"
)

// RDATA is a tagged union over the recognized resource-record payload
// types, with OpaqueRecord as the fallback for anything else.
type RDATA interface {
	// Type reports the wire type this rdata should be re-encoded as. For
	// every recognized variant this is the type that variant represents;
	// OpaqueRecord reports whatever numeric type it was decoded with.
	Type() Type
	marshalRDATA(buf []byte) ([]byte, error)
}

// ARecord is a 32-bit IPv4 address (RFC 1035 section 3.4.1).
type ARecord struct{ Addr net.IP }

func (ARecord) Type() Type { return TypeA }

func (r ARecord) marshalRDATA(buf []byte) ([]byte, error) {
	ip4 := r.Addr.To4()
	if ip4 == nil {
		return nil, fmt.Errorf("dnsmsg: A record address %v is not IPv4", r.Addr)
	}
	return append(buf, ip4...), nil
}

// AAAARecord is a 128-bit IPv6 address (RFC 3596).
type AAAARecord struct{ Addr net.IP }

func (AAAARecord) Type() Type { return TypeAAAA }

func (r AAAARecord) marshalRDATA(buf []byte) ([]byte, error) {
	ip6 := r.Addr.To16()
	if ip6 == nil {
		return nil, fmt.Errorf("dnsmsg: AAAA record address %v is not valid", r.Addr)
	}
	return append(buf, ip6...), nil
}

// CNAMERecord carries the canonical name for an alias.
type CNAMERecord struct{ Name string }

func (CNAMERecord) Type() Type { return TypeCNAME }

func (r CNAMERecord) marshalRDATA(buf []byte) ([]byte, error) {
	return EncodeName(buf, r.Name)
}

// NSRecord names an authoritative nameserver for a zone.
type NSRecord struct{ Name string }

func (NSRecord) Type() Type { return TypeNS }

func (r NSRecord) marshalRDATA(buf []byte) ([]byte, error) {
	return EncodeName(buf, r.Name)
}

// MXRecord is a mail exchange preference/name pair.
type MXRecord struct {
	Preference uint16
	Exchange   string
}

func (MXRecord) Type() Type { return TypeMX }

func (r MXRecord) marshalRDATA(buf []byte) ([]byte, error) {
	var pref [2]byte
	binary.BigEndian.PutUint16(pref[:], r.Preference)
	buf = append(buf, pref[:]...)
	return EncodeName(buf, r.Exchange)
}

// TXTRecord is free-form text data.
type TXTRecord struct{ Text string }

func (TXTRecord) Type() Type { return TypeTXT }

func (r TXTRecord) marshalRDATA(buf []byte) ([]byte, error) {
	// TXT rdata is one or more length-prefixed character-strings; Text is
	// written as consecutive strings of at most 255 bytes each, so any text
	// decoded by decodeCharStrings (which concatenates them) re-encodes.
	s := r.Text
	for len(s) > 255 {
		buf = append(buf, 255)
		buf = append(buf, s[:255]...)
		s = s[255:]
	}
	buf = append(buf, byte(len(s)))
	buf = append(buf, s...)
	return buf, nil
}

// OpaqueRecord carries raw rdata bytes for a type this codec does not
// otherwise recognize (e.g. SOA, PTR). Num is the wire type number as
// received, re-emitted unchanged on encode.
type OpaqueRecord struct {
	Num Type
	Raw []byte
}

func (o OpaqueRecord) Type() Type { return o.Num }

func (o OpaqueRecord) marshalRDATA(buf []byte) ([]byte, error) {
	return append(buf, o.Raw...), nil
}

// Record is a single resource record: an owner name plus a tagged rdata
// payload, class and TTL.
type Record struct {
	Name  string
	Class Class
	TTL   uint32
	Data  RDATA
}

// Marshal appends the uncompressed wire form of the record to buf.
// rdlength is always derived from the freshly serialized payload, never
// carried over from a decoded value.
func (r Record) Marshal(buf []byte) ([]byte, error) {
	buf, err := EncodeName(buf, r.Name)
	if err != nil {
		return nil, fmt.Errorf("dnsmsg: marshal record name: %w", err)
	}

	var fixed [8]byte
	binary.BigEndian.PutUint16(fixed[0:2], uint16(r.Data.Type()))
	binary.BigEndian.PutUint16(fixed[2:4], uint16(r.Class))
	binary.BigEndian.PutUint32(fixed[4:8], r.TTL)
	buf = append(buf, fixed[:]...)

	rdataStart := len(buf)
	buf = append(buf, 0, 0) // rdlength placeholder
	buf, err = r.Data.marshalRDATA(buf)
	if err != nil {
		return nil, fmt.Errorf("dnsmsg: marshal rdata: %w", err)
	}
	rdlength := len(buf) - rdataStart - 2
	binary.BigEndian.PutUint16(buf[rdataStart:rdataStart+2], uint16(rdlength))

	return buf, nil
}

// UnmarshalRecord parses one resource record starting at offset within msg,
// returning the record and the number of bytes it occupies from offset.
func UnmarshalRecord(msg []byte, offset int) (Record, int, error) {
	name, n, err := DecodeName(msg, offset)
	if err != nil {
		return Record{}, 0, fmt.Errorf("dnsmsg: record name: %w", err)
	}
	cursor := offset + n

	if cursor+10 > len(msg) {
		return Record{}, 0, fmt.Errorf("dnsmsg: record truncated before fixed fields at offset %d", cursor)
	}
	rtype := Type(binary.BigEndian.Uint16(msg[cursor : cursor+2]))
	class := Class(binary.BigEndian.Uint16(msg[cursor+2 : cursor+4]))
	ttl := binary.BigEndian.Uint32(msg[cursor+4 : cursor+8])
	rdlength := int(binary.BigEndian.Uint16(msg[cursor+8 : cursor+10]))
	cursor += 10

	if cursor+rdlength > len(msg) {
		return Record{}, 0, fmt.Errorf("dnsmsg: rdata of length %d overruns message at offset %d", rdlength, cursor)
	}
	rdata := msg[cursor : cursor+rdlength]

	data, err := decodeRDATA(rtype, msg, cursor, rdata)
	if err != nil {
		return Record{}, 0, fmt.Errorf("dnsmsg: decode %s rdata: %w", rtype, err)
	}
	cursor += rdlength

	return Record{Name: name, Class: class, TTL: ttl, Data: data}, cursor - offset, nil
}

// decodeRDATA interprets rdata (the rdlength-bounded slice starting at
// rdataOffset within msg) according to rtype. Names embedded in rdata may
// use compression pointers into msg, so both the full message and the
// rdata's absolute offset are required.
func decodeRDATA(rtype Type, msg []byte, rdataOffset int, rdata []byte) (RDATA, error) {
	switch rtype {
	case TypeA:
		if len(rdata) != 4 {
			return nil, fmt.Errorf("expected 4 bytes, got %d", len(rdata))
		}
		return ARecord{Addr: net.IPv4(rdata[0], rdata[1], rdata[2], rdata[3])}, nil

	case TypeAAAA:
		if len(rdata) != 16 {
			return nil, fmt.Errorf("expected 16 bytes, got %d", len(rdata))
		}
		ip := make(net.IP, 16)
		copy(ip, rdata)
		return AAAARecord{Addr: ip}, nil

	case TypeCNAME:
		name, _, err := DecodeName(msg, rdataOffset)
		if err != nil {
			return nil, err
		}
		return CNAMERecord{Name: name}, nil

	case TypeNS:
		name, _, err := DecodeName(msg, rdataOffset)
		if err != nil {
			return nil, err
		}
		return NSRecord{Name: name}, nil

	case TypeMX:
		if len(rdata) < 2 {
			return nil, fmt.Errorf("rdata too short for preference field: %d bytes", len(rdata))
		}
		pref := binary.BigEndian.Uint16(rdata[0:2])
		name, _, err := DecodeName(msg, rdataOffset+2)
		if err != nil {
			return nil, err
		}
		return MXRecord{Preference: pref, Exchange: name}, nil

	case TypeTXT:
		return TXTRecord{Text: decodeCharStrings(rdata)}, nil

	default:
		raw := make([]byte, len(rdata))
		copy(raw, rdata)
		return OpaqueRecord{Num: rtype, Raw: raw}, nil
	}
}

func decodeCharStrings(rdata []byte) string {
	var out []byte
	for offset := 0; offset < len(rdata); {
		strLen := int(rdata[offset])
		offset++
		if offset+strLen > len(rdata) {
			break
		}
		out = append(out, rdata[offset:offset+strLen]...)
		offset += strLen
	}
	return string(out)
}
