package resolver

import "github.com/blazskufca/iterative-dns/internal/dnsmsg"

// buildRefused builds a Refused response to a query this resolver declines
// to act on (malformed question count, or a colliding client re-send).
func buildRefused(query dnsmsg.Message) dnsmsg.Message {
	return dnsmsg.Message{
		Header: dnsmsg.Header{
			ID:     query.Header.ID,
			QR:     true,
			Opcode: query.Header.Opcode,
			RD:     query.Header.RD,
			RCODE:  dnsmsg.Refused,
		},
		Questions: query.Questions,
	}
}

// buildServerFailure builds a ServerFailure response to the client that
// originated query, used when a resolution cannot continue: a sub-query
// answer came back with the wrong record type, glue resolution failed, or
// the reaper abandoned a resolution that ran past its deadline.
func buildServerFailure(query dnsmsg.Message) dnsmsg.Message {
	return dnsmsg.Message{
		Header: dnsmsg.Header{
			ID:     query.Header.ID,
			QR:     true,
			Opcode: query.Header.Opcode,
			RD:     query.Header.RD,
			RCODE:  dnsmsg.ServerFailure,
		},
		Questions: query.Questions,
	}
}

// buildCacheHitResponse builds the response sent to a client when its
// question was already satisfied from cache, without starting a resolution.
func buildCacheHitResponse(query dnsmsg.Message, answer dnsmsg.Record) dnsmsg.Message {
	return dnsmsg.Message{
		Header: dnsmsg.Header{
			ID:     query.Header.ID,
			QR:     true,
			Opcode: query.Header.Opcode,
			RD:     query.Header.RD,
			RA:     true,
			RCODE:  dnsmsg.Normal,
		},
		Questions: query.Questions,
		Answers:   []dnsmsg.Record{answer},
	}
}

// buildSubQuery builds a synthesized A-record query for name, sent upstream
// to resolve the address of a glueless NS. It reuses the client's own
// transaction ID, which is the pending table's key.
func buildSubQuery(id uint16, name string) dnsmsg.Message {
	return dnsmsg.Message{
		Header: dnsmsg.Header{
			ID:     id,
			QR:     false,
			Opcode: dnsmsg.OpcodeQuery,
			RD:     true,
		},
		Questions: []dnsmsg.Question{
			{Name: name, Type: dnsmsg.TypeA, Class: dnsmsg.ClassIN},
		},
	}
}
