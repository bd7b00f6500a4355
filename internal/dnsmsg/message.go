package dnsmsg

import "fmt"

// Message is a full DNS message: header plus the four sections.
type Message struct {
	Header     Header
	Questions  []Question
	Answers    []Record
	Authority  []Record
	Additional []Record
}

// Marshal assembles the full wire form of the message. Section counts in
// the header are always taken from the length of the actual sections being
// serialized, never from whatever counts Header carries.
func (m Message) Marshal() ([]byte, error) {
	m.Header.QDCount = uint16(len(m.Questions))
	m.Header.ANCount = uint16(len(m.Answers))
	m.Header.NSCount = uint16(len(m.Authority))
	m.Header.ARCount = uint16(len(m.Additional))

	buf := make([]byte, 0, 512)
	buf = m.Header.Marshal(buf)

	for i, q := range m.Questions {
		var err error
		buf, err = q.Marshal(buf)
		if err != nil {
			return nil, fmt.Errorf("dnsmsg: marshal question %d: %w", i, err)
		}
	}
	for _, section := range [][]Record{m.Answers, m.Authority, m.Additional} {
		for i, r := range section {
			var err error
			buf, err = r.Marshal(buf)
			if err != nil {
				return nil, fmt.Errorf("dnsmsg: marshal record %d: %w", i, err)
			}
		}
	}

	return buf, nil
}

// Unmarshal parses a complete DNS message from data, which must be exactly
// the bytes of one datagram (so that compression pointers resolve against
// it). Any malformed input yields an error; callers at the transport
// boundary treat that as a decode error and drop the datagram.
func Unmarshal(data []byte) (Message, error) {
	h, err := UnmarshalHeader(data)
	if err != nil {
		return Message{}, fmt.Errorf("dnsmsg: header: %w", err)
	}

	var m Message
	m.Header = h
	offset := 12

	m.Questions = make([]Question, 0, h.QDCount)
	for i := 0; i < int(h.QDCount); i++ {
		q, n, err := UnmarshalQuestion(data, offset)
		if err != nil {
			return Message{}, fmt.Errorf("dnsmsg: question %d: %w", i, err)
		}
		m.Questions = append(m.Questions, q)
		offset += n
	}

	sections := []struct {
		count int
		dst   *[]Record
	}{
		{int(h.ANCount), &m.Answers},
		{int(h.NSCount), &m.Authority},
		{int(h.ARCount), &m.Additional},
	}
	for _, s := range sections {
		*s.dst = make([]Record, 0, s.count)
		for i := 0; i < s.count; i++ {
			r, n, err := UnmarshalRecord(data, offset)
			if err != nil {
				return Message{}, fmt.Errorf("dnsmsg: record %d: %w", i, err)
			}
			*s.dst = append(*s.dst, r)
			offset += n
		}
	}

	return m, nil
}
