package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"affiliate-links/internal/model"
	"affiliate-links/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// setupTestDB 每个测试使用独立的内存数据库
func setupTestDB(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()

	db, err := database.Open(database.Options{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	return New(db, zap.NewNop().Sugar(), time.Second), db
}

func TestInsertAndGetLink(t *testing.T) {
	s, _ := setupTestDB(t)
	ctx := context.Background()

	link, err := s.InsertLink(ctx, "Example", "https://example.com", "example")
	require.NoError(t, err)
	assert.NotZero(t, link.ID)
	assert.False(t, link.CreatedAt.IsZero())

	got, err := s.GetLinkBySlug(ctx, "example")
	require.NoError(t, err)
	assert.Equal(t, link.ID, got.ID)
	assert.Equal(t, "Example", got.Title)
	assert.Equal(t, "https://example.com", got.URL)

	byID, err := s.GetLinkByID(ctx, link.ID)
	require.NoError(t, err)
	assert.Equal(t, "example", byID.Slug)

	_, err = s.GetLinkBySlug(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetLinkByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInsertLink_DuplicateSlug(t *testing.T) {
	s, _ := setupTestDB(t)
	ctx := context.Background()

	_, err := s.InsertLink(ctx, "A", "https://a.example.com", "same")
	require.NoError(t, err)

	_, err = s.InsertLink(ctx, "B", "https://b.example.com", "same")
	assert.ErrorIs(t, err, ErrDuplicateSlug)

	exists, err := s.SlugExists(ctx, "same")
	require.NoError(t, err)
	assert.True(t, exists)

	count, err := s.CountLinks(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestInsertLink_ConcurrentSameSlug(t *testing.T) {
	s, _ := setupTestDB(t)
	ctx := context.Background()

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		dup       int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.InsertLink(ctx, "Race", "https://race.example.com", "race")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrDuplicateSlug):
				dup++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, dup)
}

func TestListLinks_NewestFirstWithClicks(t *testing.T) {
	s, _ := setupTestDB(t)
	ctx := context.Background()

	first, err := s.InsertLink(ctx, "First", "https://example.com/1", "first")
	require.NoError(t, err)
	second, err := s.InsertLink(ctx, "Second", "https://example.com/2", "second")
	require.NoError(t, err)
	third, err := s.InsertLink(ctx, "Third", "https://example.com/3", "third")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, ok := s.InsertClick(ctx, second.ID, "127.0.0.1")
		require.True(t, ok)
	}
	_, ok := s.InsertClick(ctx, first.ID, "unknown")
	require.True(t, ok)

	links, err := s.ListLinks(ctx)
	require.NoError(t, err)
	require.Len(t, links, 3)

	assert.Equal(t, third.ID, links[0].ID)
	assert.Equal(t, second.ID, links[1].ID)
	assert.Equal(t, first.ID, links[2].ID)

	assert.EqualValues(t, 0, links[0].Clicks)
	assert.EqualValues(t, 2, links[1].Clicks)
	assert.EqualValues(t, 1, links[2].Clicks)
	assert.Equal(t, "second", links[1].Slug)
	assert.False(t, links[1].CreatedAt.IsZero())
}

func TestListLinks_Empty(t *testing.T) {
	s, _ := setupTestDB(t)

	links, err := s.ListLinks(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, links)
	assert.Empty(t, links)
}

func TestUpdateLink(t *testing.T) {
	s, _ := setupTestDB(t)
	ctx := context.Background()

	link, err := s.InsertLink(ctx, "Old", "https://old.example.com", "old")
	require.NoError(t, err)
	_, err = s.InsertLink(ctx, "Other", "https://other.example.com", "taken")
	require.NoError(t, err)

	t.Run("空 slug 保留原值", func(t *testing.T) {
		updated, err := s.UpdateLink(ctx, link.ID, "New", "https://new.example.com", "")
		require.NoError(t, err)
		assert.Equal(t, "New", updated.Title)
		assert.Equal(t, "https://new.example.com", updated.URL)
		assert.Equal(t, "old", updated.Slug)
		assert.True(t, link.CreatedAt.Equal(updated.CreatedAt))
	})

	t.Run("替换 slug", func(t *testing.T) {
		updated, err := s.UpdateLink(ctx, link.ID, "New", "https://new.example.com", "renamed")
		require.NoError(t, err)
		assert.Equal(t, "renamed", updated.Slug)

		_, err = s.GetLinkBySlug(ctx, "old")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("slug 冲突回滚", func(t *testing.T) {
		_, err := s.UpdateLink(ctx, link.ID, "Changed", "https://changed.example.com", "taken")
		assert.ErrorIs(t, err, ErrDuplicateSlug)

		got, err := s.GetLinkByID(ctx, link.ID)
		require.NoError(t, err)
		assert.Equal(t, "New", got.Title)
		assert.Equal(t, "renamed", got.Slug)
	})

	t.Run("不存在的 ID", func(t *testing.T) {
		_, err := s.UpdateLink(ctx, 999, "x", "https://x.example.com", "")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDeleteLink_RemovesClicks(t *testing.T) {
	s, db := setupTestDB(t)
	ctx := context.Background()

	link, err := s.InsertLink(ctx, "Doomed", "https://example.com", "doomed")
	require.NoError(t, err)
	keep, err := s.InsertLink(ctx, "Keep", "https://example.com/keep", "keep")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, ok := s.InsertClick(ctx, link.ID, "10.0.0.1")
		require.True(t, ok)
	}
	_, ok := s.InsertClick(ctx, keep.ID, "10.0.0.2")
	require.True(t, ok)

	deleted, err := s.DeleteLink(ctx, link.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = s.GetLinkBySlug(ctx, "doomed")
	assert.ErrorIs(t, err, ErrNotFound)

	var orphans int64
	require.NoError(t, db.Model(&model.Click{}).Where("link_id = ?", link.ID).Count(&orphans).Error)
	assert.Zero(t, orphans)

	kept, err := s.CountClicks(ctx, keep.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, kept)

	deleted, err = s.DeleteLink(ctx, link.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestInsertClick_DeletedLinkDoesNotResurrect(t *testing.T) {
	s, _ := setupTestDB(t)
	ctx := context.Background()

	link, err := s.InsertLink(ctx, "Gone", "https://example.com", "gone")
	require.NoError(t, err)
	_, err = s.DeleteLink(ctx, link.ID)
	require.NoError(t, err)

	assert.NotPanics(t, func() { s.InsertClick(ctx, link.ID, "127.0.0.1") })

	_, err = s.GetLinkByID(ctx, link.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ClosedDatabaseIsUnavailable(t *testing.T) {
	s, db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, database.Close(db))

	_, err := s.ListLinks(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, s.Ping(ctx), ErrUnavailable)

	_, ok := s.InsertClick(ctx, 1, "127.0.0.1")
	assert.False(t, ok)
}

func TestStore_ExpiredContextIsUnavailable(t *testing.T) {
	s, _ := setupTestDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.InsertLink(ctx, "Late", "https://example.com", "late")
	assert.ErrorIs(t, err, ErrUnavailable)
}
