package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryAuditRepo struct {
	entries []Entry
}

func (r *memoryAuditRepo) Window(ctx context.Context, filters TimelineFilters, limit, offset int) ([]Entry, error) {
	var matched []Entry
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if filters.Entity != "" && e.Entity != filters.Entity {
			continue
		}
		if filters.Action != "" && e.Action != filters.Action {
			continue
		}
		matched = append(matched, e)
	}
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func seedEntries(n int) *memoryAuditRepo {
	repo := &memoryAuditRepo{}
	for i := 1; i <= n; i++ {
		repo.entries = append(repo.entries, Entry{
			ID:       int64(i),
			Action:   "submission.approve",
			Entity:   "cash_submission",
			EntityID: "1",
			At:       time.Now(),
		})
	}
	return repo
}

func TestTimelinePagesNewestFirst(t *testing.T) {
	svc := NewService(seedEntries(25))

	res, err := svc.Timeline(context.Background(), TimelineFilters{})
	require.NoError(t, err)
	require.Len(t, res.Rows, 20, "default page size")
	require.Equal(t, int64(25), res.Rows[0].ID)
	require.True(t, res.Paging.HasNext)
	require.Equal(t, 2, res.Paging.NextPage)
	require.Zero(t, res.Paging.PrevPage)

	res, err = svc.Timeline(context.Background(), TimelineFilters{Page: 2})
	require.NoError(t, err)
	require.Len(t, res.Rows, 5)
	require.False(t, res.Paging.HasNext)
	require.Equal(t, 1, res.Paging.PrevPage)
}

func TestTimelineClampsPageSize(t *testing.T) {
	svc := NewService(seedEntries(80))

	res, err := svc.Timeline(context.Background(), TimelineFilters{PageSize: 500})
	require.NoError(t, err)
	require.Len(t, res.Rows, 50)

	res, err = svc.Timeline(context.Background(), TimelineFilters{PageSize: -1})
	require.NoError(t, err)
	require.Len(t, res.Rows, 20)
}

func TestTimelineFiltersByEntity(t *testing.T) {
	repo := seedEntries(3)
	repo.entries = append(repo.entries, Entry{ID: 4, Action: "penalty.create", Entity: "penalty", EntityID: "9", At: time.Now()})
	svc := NewService(repo)

	res, err := svc.Timeline(context.Background(), TimelineFilters{Entity: "penalty"})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	require.Equal(t, int64(4), res.Rows[0].ID)
}
