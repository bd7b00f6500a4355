package dnsmsg

import (
	"encoding/binary"
	"fmt"
)

// Question is a single entry of a message's question section.
type Question struct {
	Name  string
	Type  Type
	Class Class
}

// Marshal appends the uncompressed wire form of the question to buf.
func (q Question) Marshal(buf []byte) ([]byte, error) {
	buf, err := EncodeName(buf, q.Name)
	if err != nil {
		return nil, fmt.Errorf("dnsmsg: marshal question name: %w", err)
	}
	var fixed [4]byte
	binary.BigEndian.PutUint16(fixed[0:2], uint16(q.Type))
	binary.BigEndian.PutUint16(fixed[2:4], uint16(q.Class))
	return append(buf, fixed[:]...), nil
}

// UnmarshalQuestion parses a single question starting at offset within msg,
// returning the question and the number of bytes it occupies from offset.
func UnmarshalQuestion(msg []byte, offset int) (Question, int, error) {
	name, n, err := DecodeName(msg, offset)
	if err != nil {
		return Question{}, 0, fmt.Errorf("dnsmsg: question name: %w", err)
	}
	cursor := offset + n

	if cursor+4 > len(msg) {
		return Question{}, 0, fmt.Errorf("dnsmsg: question truncated at offset %d", cursor)
	}
	q := Question{
		Name:  name,
		Type:  Type(binary.BigEndian.Uint16(msg[cursor : cursor+2])),
		Class: Class(binary.BigEndian.Uint16(msg[cursor+2 : cursor+4])),
	}
	cursor += 4

	return q, cursor - offset, nil
}
