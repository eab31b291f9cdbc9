package replica

import (
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/hayley-d/crdt/crdt"
)

type loggingService struct {
	logger  log.Logger
	service Service
}

// NewLoggingService wraps a provided existing
// service with the provided logger.
func NewLoggingService(s Service, logger log.Logger) Service {
	return &loggingService{logger, s}
}

// Insert wraps this service's Insert method with
// added logging capabilities.
func (s *loggingService) Insert(value string, left *crdt.S4Vector, right *crdt.S4Vector) (crdt.Operation, error) {

	op, err := s.service.Insert(value, left, right)

	logger := log.With(s.logger,
		"method", "INSERT",
		"id", op.S4.String(),
	)

	if err != nil {
		level.Info(logger).Log(
			"msg", "failed to perform operation INSERT correctly",
			"err", err,
		)
	} else {
		level.Debug(logger).Log()
	}

	return op, err
}

// Delete wraps this service's Delete method with
// added logging capabilities.
func (s *loggingService) Delete(s4 crdt.S4Vector) (crdt.Operation, error) {

	op, err := s.service.Delete(s4)

	logger := log.With(s.logger,
		"method", "DELETE",
		"id", s4.String(),
	)

	if err != nil {
		level.Info(logger).Log(
			"msg", "failed to perform operation DELETE correctly",
			"err", err,
		)
	} else {
		level.Debug(logger).Log()
	}

	return op, err
}

// Update wraps this service's Update method with
// added logging capabilities.
func (s *loggingService) Update(s4 crdt.S4Vector, value string) (crdt.Operation, error) {

	op, err := s.service.Update(s4, value)

	logger := log.With(s.logger,
		"method", "UPDATE",
		"id", s4.String(),
	)

	if err != nil {
		level.Info(logger).Log(
			"msg", "failed to perform operation UPDATE correctly",
			"err", err,
		)
	} else {
		level.Debug(logger).Log()
	}

	return op, err
}

// ApplyRemote wraps this service's ApplyRemote method
// with added logging capabilities.
func (s *loggingService) ApplyRemote(op crdt.Operation) (crdt.Outcome, error) {

	outcome, err := s.service.ApplyRemote(op)

	logger := log.With(s.logger,
		"method", "APPLY",
		"kind", string(op.Kind),
		"id", op.S4.String(),
		"outcome", outcome.String(),
	)

	if err != nil {
		level.Info(logger).Log(
			"msg", "failed to apply remote operation correctly",
			"err", err,
		)
	} else {
		level.Debug(logger).Log()
	}

	return outcome, err
}

// Read wraps this service's Read method.
func (s *loggingService) Read() []string {
	return s.service.Read()
}

// Snapshot wraps this service's Snapshot method.
func (s *loggingService) Snapshot() crdt.Snapshot {
	return s.service.Snapshot()
}
