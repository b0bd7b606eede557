package booking

import (
	"fmt"
	"strings"
	"time"

	"carelink/internal/metrics"
	"carelink/pkg/types"

	"github.com/sirupsen/logrus"
)

const (
	outcomeBooked = "booked"
	clockLayout   = "15:04"
)

// Service owns the schedule capacity ledger and the appointment workflow.
// Every capacity change happens inside the same transaction as the
// appointment change that causes it.
type Service struct {
	repo    Repository
	tx      Transactor
	logger  logrus.FieldLogger
	metrics *metrics.Collector
	now     func() time.Time
}

func NewService(repo Repository, tx Transactor, logger logrus.FieldLogger, collector *metrics.Collector) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("booking repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transactor required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{
		repo:    repo,
		tx:      tx,
		logger:  logger,
		metrics: collector,
		now:     time.Now,
	}, nil
}

// WithClock replaces the time source used for past-date checks.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) today() string {
	return s.now().Format(types.DateLayout)
}

func outcome(err error) string {
	if err == nil {
		return outcomeBooked
	}
	if typed := types.AsError(err); typed != nil {
		return strings.ToLower(string(typed.Code()))
	}
	return "error"
}
