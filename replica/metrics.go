package replica

import (
	"github.com/go-kit/kit/metrics"
	"github.com/hayley-d/crdt/crdt"
)

type metricsService struct {
	service  Service
	inserts  metrics.Counter
	deletes  metrics.Counter
	updates  metrics.Counter
	applied  metrics.Counter
	buffered metrics.Counter
}

// NewMetricsService wraps a provided existing service so that
// local mutations and the fate of remote operations are counted.
func NewMetricsService(s Service, inserts metrics.Counter, deletes metrics.Counter, updates metrics.Counter, applied metrics.Counter, buffered metrics.Counter) Service {

	return &metricsService{
		service:  s,
		inserts:  inserts,
		deletes:  deletes,
		updates:  updates,
		applied:  applied,
		buffered: buffered,
	}
}

func (s *metricsService) Insert(value string, left *crdt.S4Vector, right *crdt.S4Vector) (crdt.Operation, error) {

	op, err := s.service.Insert(value, left, right)

	if err == nil {
		s.inserts.Add(1)
	}

	return op, err
}

func (s *metricsService) Delete(s4 crdt.S4Vector) (crdt.Operation, error) {

	op, err := s.service.Delete(s4)

	if err == nil {
		s.deletes.Add(1)
	}

	return op, err
}

func (s *metricsService) Update(s4 crdt.S4Vector, value string) (crdt.Operation, error) {

	op, err := s.service.Update(s4, value)

	if err == nil {
		s.updates.Add(1)
	}

	return op, err
}

func (s *metricsService) ApplyRemote(op crdt.Operation) (crdt.Outcome, error) {

	outcome, err := s.service.ApplyRemote(op)

	if err == nil {

		switch outcome {
		case crdt.OutcomeApplied:
			s.applied.Add(1)
		case crdt.OutcomeBuffered:
			s.buffered.Add(1)
		}
	}

	return outcome, err
}

func (s *metricsService) Read() []string {
	return s.service.Read()
}

func (s *metricsService) Snapshot() crdt.Snapshot {
	return s.service.Snapshot()
}
