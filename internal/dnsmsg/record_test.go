package dnsmsg

import (
	"net"
	"testing"
)

func TestARecordRoundTrip(t *testing.T) {
	r := Record{
		Name:  "example.com",
		Class: ClassIN,
		TTL:   300,
		Data:  ARecord{Addr: net.IPv4(192, 0, 2, 1)},
	}
	buf, err := r.Marshal(nil)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	got, n, err := UnmarshalRecord(buf, 0)
	if err != nil {
		t.Fatalf("UnmarshalRecord: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("consumed %d bytes, want %d", n, len(buf))
	}
	if got.Name != r.Name || got.Class != r.Class || got.TTL != r.TTL {
		t.Fatalf("record mismatch: got %+v, want %+v", got, r)
	}
	a, ok := got.Data.(ARecord)
	if !ok {
		t.Fatalf("rdata type = %T, want ARecord", got.Data)
	}
	if !a.Addr.Equal(net.IPv4(192, 0, 2, 1)) {
		t.Fatalf("address = %v, want 192.0.2.1", a.Addr)
	}
}

func TestNSRecordWithCompressedExchange(t *testing.T) {
	// Build a message where the NS rdata name is a pointer back to the
	// question's name, exactly as an authority-section NS record for the
	// queried zone would reference it.
	msg, err := EncodeName(nil, "example.com")
	if err != nil {
		t.Fatalf("EncodeName: %v", err)
	}
	nameOffset := 0
	recordOffset := len(msg)

	msg, err = EncodeName(msg, "ns1.example.com")
	if err != nil {
		t.Fatalf("EncodeName: %v", err)
	}
	// Overwrite the tail of "ns1.example.com" with a pointer to "example.com"
	// by constructing the rdata manually instead of via EncodeName, since
	// the encoder itself never compresses.
	msg = msg[:recordOffset]
	msg = append(msg, 3, 'n', 's', '1')
	msg = append(msg, 0b1100_0000, byte(nameOffset))

	rec, err := decodeRDATA(TypeNS, msg, recordOffset, msg[recordOffset:])
	if err != nil {
		t.Fatalf("decodeRDATA: %v", err)
	}
	ns, ok := rec.(NSRecord)
	if !ok {
		t.Fatalf("rdata type = %T, want NSRecord", rec)
	}
	if ns.Name != "ns1.example.com" {
		t.Fatalf("ns name = %q, want ns1.example.com", ns.Name)
	}
}

func TestMXRecordRoundTrip(t *testing.T) {
	r := Record{
		Name:  "example.com",
		Class: ClassIN,
		TTL:   60,
		Data:  MXRecord{Preference: 10, Exchange: "mail.example.com"},
	}
	buf, err := r.Marshal(nil)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, _, err := UnmarshalRecord(buf, 0)
	if err != nil {
		t.Fatalf("UnmarshalRecord: %v", err)
	}
	mx, ok := got.Data.(MXRecord)
	if !ok {
		t.Fatalf("rdata type = %T, want MXRecord", got.Data)
	}
	if mx.Preference != 10 || mx.Exchange != "mail.example.com" {
		t.Fatalf("mx mismatch: %+v", mx)
	}
}

func TestTXTRecordRoundTrip(t *testing.T) {
	r := Record{Name: "example.com", Class: ClassIN, TTL: 60, Data: TXTRecord{Text: "hello world"}}
	buf, err := r.Marshal(nil)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, _, err := UnmarshalRecord(buf, 0)
	if err != nil {
		t.Fatalf("UnmarshalRecord: %v", err)
	}
	txt, ok := got.Data.(TXTRecord)
	if !ok {
		t.Fatalf("rdata type = %T, want TXTRecord", got.Data)
	}
	if txt.Text != "hello world" {
		t.Fatalf("text = %q, want %q", txt.Text, "hello world")
	}
}

func TestOpaqueRecordFallback(t *testing.T) {
	// SOA (type 6) is not specially recognized; it must decode as opaque
	// and re-encode the raw bytes unchanged.
	const soaType = 6
	raw := []byte{0xDE, 0xAD, 0xBE, 0xEF}

	var buf []byte
	buf, err := EncodeName(buf, "example.com")
	if err != nil {
		t.Fatalf("EncodeName: %v", err)
	}
	buf = append(buf, 0, soaType, 0, 1, 0, 0, 0, 60, 0, byte(len(raw)))
	buf = append(buf, raw...)

	got, n, err := UnmarshalRecord(buf, 0)
	if err != nil {
		t.Fatalf("UnmarshalRecord: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("consumed %d bytes, want %d", n, len(buf))
	}
	op, ok := got.Data.(OpaqueRecord)
	if !ok {
		t.Fatalf("rdata type = %T, want OpaqueRecord", got.Data)
	}
	if op.Num != soaType {
		t.Fatalf("opaque type = %d, want %d", op.Num, soaType)
	}

	reencoded, err := got.Marshal(nil)
	if err != nil {
		t.Fatalf("re-Marshal: %v", err)
	}
	if len(reencoded) != len(buf) {
		t.Fatalf("re-encoded length = %d, want %d", len(reencoded), len(buf))
	}
}
