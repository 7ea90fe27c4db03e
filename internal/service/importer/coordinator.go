package importer

import "github.com/heartmarshall/cfp-sync/internal/domain"

// stager accumulates staged writes into chunks of at most limit ops.
// A group passed to stage is never split across chunks, so a person write
// always commits together with its email claim and release.
type stager struct {
	limit   int
	done    [][]domain.WriteOp
	current []domain.WriteOp
}

func newStager(limit int) *stager {
	return &stager{limit: limit}
}

func (s *stager) stage(group ...domain.WriteOp) {
	if len(group) == 0 {
		return
	}
	if len(s.current) > 0 && len(s.current)+len(group) > s.limit {
		s.done = append(s.done, s.current)
		s.current = nil
	}
	s.current = append(s.current, group...)
}

// chunks returns every chunk in staging order. The last one may be partial.
func (s *stager) chunks() [][]domain.WriteOp {
	if len(s.current) == 0 {
		return s.done
	}
	return append(s.done, s.current)
}

// pending returns the total number of staged ops.
func (s *stager) pending() int {
	n := len(s.current)
	for _, c := range s.done {
		n += len(c)
	}
	return n
}
