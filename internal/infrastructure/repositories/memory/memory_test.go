package memory

import (
	"context"
	"testing"
	"time"

	"gridcast/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionRepository_RoundTrip(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded.Streams, "fresh repository yields an empty session")

	session := domain.NewSession()
	session.Streams = append(session.Streams, &domain.Stream{
		ID:          "s1",
		Platform:    domain.PlatformTwitch,
		ChannelName: "chan",
	})
	session.States["s1"] = &domain.StreamState{Volume: 80, Quality: domain.QualityAuto}

	require.NoError(t, repo.Save(ctx, session))

	// mutating the saved pointer must not leak into the stored copy
	session.States["s1"].Volume = 10

	loaded, err = repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Streams, 1)
	assert.Equal(t, 80, loaded.States["s1"].Volume)

	require.NoError(t, repo.Clear(ctx))
	loaded, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded.Streams)
}

func TestMemorySegmentRepository_CRUD(t *testing.T) {
	repo := NewMemorySegmentRepository()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []domain.SegmentID{"b", "a"} {
		require.NoError(t, repo.Save(ctx, &domain.RecordingSegment{
			ID:        id,
			Name:      "rec",
			StartTime: base.Add(time.Duration(1-i) * time.Minute),
			Status:    domain.SegmentCompleted,
		}))
	}

	got, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, domain.SegmentID("a"), got.ID)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSegmentNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, domain.SegmentID("a"), list[0].ID, "sorted by start time")

	require.NoError(t, repo.Delete(ctx, "a"))
	assert.ErrorIs(t, repo.Delete(ctx, "a"), domain.ErrSegmentNotFound)
}
