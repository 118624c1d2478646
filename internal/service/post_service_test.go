package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathshala-plus/pathshala-api/internal/models"
	appErrors "github.com/pathshala-plus/pathshala-api/pkg/errors"
)

type mockPostRepo struct {
	posts        map[string]models.Post
	deleted      []string
	listForClass int
	sweepCount   int64
}

func (m *mockPostRepo) Create(ctx context.Context, post *models.Post) error {
	if m.posts == nil {
		m.posts = make(map[string]models.Post)
	}
	if post.ID == "" {
		post.ID = "generated"
	}
	m.posts[post.ID] = *post
	return nil
}

func (m *mockPostRepo) FindByID(ctx context.Context, id string) (*models.Post, error) {
	if p, ok := m.posts[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPostRepo) ListAll(ctx context.Context) ([]models.PostWithAuthor, error) {
	out := make([]models.PostWithAuthor, 0, len(m.posts))
	for _, p := range m.posts {
		out = append(out, models.PostWithAuthor{Post: p})
	}
	return out, nil
}

func (m *mockPostRepo) ListByCreator(ctx context.Context, teacherID string) ([]models.Post, error) {
	var out []models.Post
	for _, p := range m.posts {
		if p.CreatedBy == teacherID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPostRepo) ListForClass(ctx context.Context, class string) ([]models.Post, error) {
	m.listForClass++
	var out []models.Post
	for _, p := range m.posts {
		if p.TargetClass == class || p.TargetClass == models.TargetAllClasses {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPostRepo) Delete(ctx context.Context, id string) error {
	delete(m.posts, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockPostRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return m.sweepCount, nil
}

// memoryCacheRepo is an in-process CacheRepository used to observe feed
// caching without redis.
type memoryCacheRepo struct {
	entries map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: make(map[string][]byte)}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.entries = make(map[string][]byte)
	return nil
}

func newPostFixture(cacheRepo CacheRepository) (*PostService, *mockPostRepo) {
	repo := &mockPostRepo{}
	cache := NewCacheService(cacheRepo, NewMetricsService(), time.Minute, nil, cacheRepo != nil)
	return NewPostService(repo, cache, nil, nil), repo
}

func TestPostServiceCreateDefaultsTarget(t *testing.T) {
	svc, repo := newPostFixture(nil)

	post, err := svc.Create(context.Background(), "t1", CreatePostRequest{
		Type: models.PostNotice, Title: "Holiday tomorrow",
	})
	require.NoError(t, err)
	assert.Equal(t, models.TargetAllClasses, post.TargetClass)
	assert.Equal(t, "t1", post.CreatedBy)
	assert.Len(t, repo.posts, 1)
}

func TestPostServiceCreateInvalidType(t *testing.T) {
	svc, _ := newPostFixture(nil)

	_, err := svc.Create(context.Background(), "t1", CreatePostRequest{
		Type: "Announcement", Title: "x",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPostServiceListForTeacher(t *testing.T) {
	svc, repo := newPostFixture(nil)
	repo.posts = map[string]models.Post{
		"p1": {ID: "p1", CreatedBy: "t1"},
		"p2": {ID: "p2", CreatedBy: "t2"},
	}

	own, err := svc.ListForTeacher(context.Background(), &models.Teacher{ID: "t1", Name: "Amit", Role: models.RoleTeacher})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "Amit", own[0].AuthorName)

	all, err := svc.ListForTeacher(context.Background(), &models.Teacher{ID: "t3", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestPostServiceDeleteOwnership(t *testing.T) {
	svc, repo := newPostFixture(nil)
	repo.posts = map[string]models.Post{"p1": {ID: "p1", CreatedBy: "t1"}}

	err := svc.Delete(context.Background(), &models.Teacher{ID: "t2", Role: models.RoleTeacher}, "p1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Delete(context.Background(), &models.Teacher{ID: "t1", Role: models.RoleTeacher}, "p1"))
	assert.Contains(t, repo.deleted, "p1")
}

func TestPostServiceDeleteAsAdmin(t *testing.T) {
	svc, repo := newPostFixture(nil)
	repo.posts = map[string]models.Post{"p1": {ID: "p1", CreatedBy: "t1"}}

	require.NoError(t, svc.Delete(context.Background(), &models.Teacher{ID: "admin", Role: models.RoleAdmin}, "p1"))
	assert.Contains(t, repo.deleted, "p1")
}

func TestPostServiceFeedCaches(t *testing.T) {
	cacheRepo := newMemoryCacheRepo()
	svc, repo := newPostFixture(cacheRepo)
	repo.posts = map[string]models.Post{
		"p1": {ID: "p1", TargetClass: "5"},
		"p2": {ID: "p2", TargetClass: models.TargetAllClasses},
		"p3": {ID: "p3", TargetClass: "6"},
	}

	first, err := svc.Feed(context.Background(), "5")
	require.NoError(t, err)
	assert.Len(t, first, 2)
	assert.Equal(t, 1, repo.listForClass)

	// Second read is served from cache.
	second, err := svc.Feed(context.Background(), "5")
	require.NoError(t, err)
	assert.Len(t, second, 2)
	assert.Equal(t, 1, repo.listForClass)
}

func TestPostServiceCreateInvalidatesFeed(t *testing.T) {
	cacheRepo := newMemoryCacheRepo()
	svc, repo := newPostFixture(cacheRepo)
	repo.posts = map[string]models.Post{"p1": {ID: "p1", TargetClass: "5"}}

	_, err := svc.Feed(context.Background(), "5")
	require.NoError(t, err)
	require.NotEmpty(t, cacheRepo.entries)

	_, err = svc.Create(context.Background(), "t1", CreatePostRequest{Type: models.PostHomework, Title: "Ch. 4 exercises", TargetClass: "5"})
	require.NoError(t, err)
	assert.Empty(t, cacheRepo.entries)

	feed, err := svc.Feed(context.Background(), "5")
	require.NoError(t, err)
	assert.Len(t, feed, 2)
}

func TestPostServiceSweepExpired(t *testing.T) {
	svc, repo := newPostFixture(nil)
	repo.sweepCount = 3

	count, err := svc.SweepExpired(context.Background(), 240*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
