package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"irrigation_panel/internal/models"
	"irrigation_panel/internal/repository"
)

// fakeEventRepo records appended events and the last list query.
type fakeEventRepo struct {
	appended []models.ChannelEvent
	gotQuery repository.EventQuery
	events   []models.ChannelEvent
	err      error
	calls    int
}

func (f *fakeEventRepo) Append(ctx context.Context, e models.ChannelEvent) error {
	f.appended = append(f.appended, e)
	return f.err
}

func (f *fakeEventRepo) List(ctx context.Context, q repository.EventQuery) ([]models.ChannelEvent, error) {
	f.calls++
	f.gotQuery = q
	return f.events, f.err
}

func (f *fakeEventRepo) types() []string {
	out := make([]string, 0, len(f.appended))
	for _, e := range f.appended {
		out = append(out, e.Type)
	}
	return out
}

func intPtr(v int) *int { return &v }

func Test_normalizeFilter(t *testing.T) {
	t.Parallel()

	plus2 := time.FixedZone("UTC+2", 2*3600)
	tests := []struct {
		name    string
		in      LogFilter
		want    repository.EventQuery
		wantErr error
	}{
		{
			name: "empty filter gets default limit",
			in:   LogFilter{},
			want: repository.EventQuery{Limit: maxLogLimit},
		},
		{
			name: "bounds converted to UTC, type normalized",
			in: LogFilter{
				From:  time.Date(2025, 9, 10, 10, 0, 0, 0, plus2),
				To:    time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC),
				Type:  " on ",
				Limit: 20,
			},
			want: repository.EventQuery{
				From:  time.Date(2025, 9, 10, 8, 0, 0, 0, time.UTC),
				To:    time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC),
				Type:  "ON",
				Limit: 20,
			},
		},
		{
			name: "from after to",
			in: LogFilter{
				From: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
				To:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			},
			wantErr: errInvalidTimeRange,
		},
		{
			name:    "channel out of range",
			in:      LogFilter{Channel: intPtr(16)},
			wantErr: errInvalidChannel,
		},
		{
			name: "limit clamped",
			in:   LogFilter{Limit: 5000},
			want: repository.EventQuery{Limit: maxLogLimit},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := normalizeFilter(tc.in)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v; want %v", err, tc.wantErr)
			}
			if err != nil {
				return
			}
			if !got.From.Equal(tc.want.From) || !got.To.Equal(tc.want.To) ||
				got.Type != tc.want.Type || got.Limit != tc.want.Limit {
				t.Fatalf("got %+v; want %+v", got, tc.want)
			}
			if !got.From.IsZero() && got.From.Location() != time.UTC {
				t.Fatalf("from not in UTC: %v", got.From.Location())
			}
		})
	}
}

func TestEventLogService_List_Delegates(t *testing.T) {
	t.Parallel()

	repo := &fakeEventRepo{events: []models.ChannelEvent{{EventID: "1", Channel: 3}}}
	svc := NewEventLogService(repo)

	out, err := svc.List(context.Background(), LogFilter{Type: "off", Channel: intPtr(3)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0].EventID != "1" {
		t.Fatalf("unexpected events: %+v", out)
	}
	if repo.gotQuery.Type != "OFF" || repo.gotQuery.Channel == nil || *repo.gotQuery.Channel != 3 {
		t.Fatalf("unexpected query: %+v", repo.gotQuery)
	}
}

func TestEventLogService_List_ValidationSkipsRepo(t *testing.T) {
	t.Parallel()

	repo := &fakeEventRepo{}
	_, err := NewEventLogService(repo).List(context.Background(), LogFilter{Channel: intPtr(-5)})
	if !errors.Is(err, errInvalidChannel) {
		t.Fatalf("expected errInvalidChannel, got %v", err)
	}
	if repo.calls != 0 {
		t.Fatalf("repo must not be called, calls=%d", repo.calls)
	}
}

func TestEventLogService_List_RepoError(t *testing.T) {
	t.Parallel()

	repo := &fakeEventRepo{err: errors.New("db down")}
	_, err := NewEventLogService(repo).List(context.Background(), LogFilter{})
	if !errors.Is(err, repo.err) {
		t.Fatalf("expected repo error, got %v", err)
	}
}
