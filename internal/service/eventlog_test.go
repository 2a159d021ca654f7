package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"core_innovators/internal/models"
)

func mustTimeIn(loc *time.Location, y int, m time.Month, d, hh, mm, ss int) time.Time {
	return time.Date(y, m, d, hh, mm, ss, 0, loc)
}

func Test_toUTC(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   time.Time
		want func(time.Time) bool
	}{
		{
			name: "zero time remains zero",
			in:   time.Time{},
			want: func(out time.Time) bool { return out.IsZero() },
		},
		{
			name: "non-UTC converted to UTC preserving instant",
			in:   mustTimeIn(time.FixedZone("IST", 5*3600+1800), 2025, time.August, 1, 12, 0, 0),
			want: func(out time.Time) bool {
				exp := time.Date(2025, time.August, 1, 6, 30, 0, 0, time.UTC)
				return out.Location() == time.UTC && out.Equal(exp)
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if out := toUTC(tt.in); !tt.want(out) {
				t.Fatalf("unexpected result: %v", out)
			}
		})
	}
}

func TestEventLogService_List(t *testing.T) {
	t.Parallel()

	ist := time.FixedZone("IST", 5*3600+1800)
	from := mustTimeIn(ist, 2025, time.August, 1, 10, 0, 0)
	to := mustTimeIn(ist, 2025, time.August, 1, 11, 0, 0)

	tests := []struct {
		name      string
		filter    LogFilter
		repo      *fakeEventRepo
		wantErr   bool
		wantCalls int
		check     func(t *testing.T, repo *fakeEventRepo, got []models.Event)
	}{
		{
			name:      "normalizes type and converts range to UTC",
			filter:    LogFilter{From: from, To: to, Type: "  alert "},
			repo:      &fakeEventRepo{events: []models.Event{{EventID: "e1", Type: models.EventAlert}}},
			wantCalls: 1,
			check: func(t *testing.T, repo *fakeEventRepo, got []models.Event) {
				if repo.gotType != models.EventAlert {
					t.Fatalf("type = %q, want ALERT", repo.gotType)
				}
				if repo.gotFrom.Location() != time.UTC || !repo.gotFrom.Equal(from) {
					t.Fatalf("from not normalized: %v", repo.gotFrom)
				}
				if repo.gotTo.Location() != time.UTC || !repo.gotTo.Equal(to) {
					t.Fatalf("to not normalized: %v", repo.gotTo)
				}
				if len(got) != 1 || got[0].EventID != "e1" {
					t.Fatalf("unexpected events %+v", got)
				}
			},
		},
		{
			name:      "open range passes zero bounds",
			filter:    LogFilter{},
			repo:      &fakeEventRepo{},
			wantCalls: 1,
			check: func(t *testing.T, repo *fakeEventRepo, _ []models.Event) {
				if !repo.gotFrom.IsZero() || !repo.gotTo.IsZero() || repo.gotType != "" {
					t.Fatalf("expected empty filter, got %v %v %q", repo.gotFrom, repo.gotTo, repo.gotType)
				}
			},
		},
		{
			name:      "inverted range rejected before repo",
			filter:    LogFilter{From: to, To: from},
			repo:      &fakeEventRepo{},
			wantErr:   true,
			wantCalls: 0,
		},
		{
			name:      "repo error propagates",
			filter:    LogFilter{},
			repo:      &fakeEventRepo{err: errors.New("db locked")},
			wantErr:   true,
			wantCalls: 1,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := NewEventLogService(tt.repo)
			got, err := svc.List(context.Background(), tt.filter)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.repo.calls != tt.wantCalls {
				t.Fatalf("repo calls = %d, want %d", tt.repo.calls, tt.wantCalls)
			}
			if tt.check != nil {
				tt.check(t, tt.repo, got)
			}
		})
	}
}

func TestEventLogService_InvalidRangeIsDetectable(t *testing.T) {
	svc := NewEventLogService(&fakeEventRepo{})
	now := time.Now()
	_, err := svc.List(context.Background(), LogFilter{From: now, To: now.Add(-time.Minute)})
	if !IsInvalidRange(err) {
		t.Fatalf("expected invalid range, got %v", err)
	}
}

func TestEventLogService_Record(t *testing.T) {
	repo := &fakeEventRepo{}
	svc := NewEventLogService(repo)
	if err := svc.Record(context.Background(), models.EventAssistant, "hello", nil); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if got := repo.ofType(models.EventAssistant); len(got) != 1 || got[0].Description != "hello" {
		t.Fatalf("unexpected appended events %+v", got)
	}
}
