package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"irrigation_panel/internal/models"
	"irrigation_panel/internal/repository"
)

const maxLogLimit = 1000

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

// ErrInvalidFilter is wrapped by every filter validation error.
var ErrInvalidFilter = errors.New("invalid log filter")

var (
	errInvalidTimeRange = fmt.Errorf("%w: from must be <= to", ErrInvalidFilter)
	errInvalidChannel   = fmt.Errorf("%w: channel out of range", ErrInvalidFilter)
)

// normalizeFilter converts bounds to UTC, upper-cases the type and clamps the limit.
func normalizeFilter(f LogFilter) (repository.EventQuery, error) {
	q := repository.EventQuery{
		From:    f.From,
		To:      f.To,
		Type:    strings.ToUpper(strings.TrimSpace(f.Type)),
		Channel: f.Channel,
		Limit:   f.Limit,
	}
	if !q.From.IsZero() {
		q.From = q.From.UTC()
	}
	if !q.To.IsZero() {
		q.To = q.To.UTC()
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.From.After(q.To) {
		return repository.EventQuery{}, errInvalidTimeRange
	}
	if q.Channel != nil && (*q.Channel < -1 || *q.Channel >= models.Channels) {
		return repository.EventQuery{}, errInvalidChannel
	}
	if q.Limit <= 0 || q.Limit > maxLogLimit {
		q.Limit = maxLogLimit
	}
	return q, nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.ChannelEvent, error) {
	q, err := normalizeFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, q)
}
