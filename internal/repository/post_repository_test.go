package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathshala-plus/pathshala-api/internal/models"
)

func postRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "type", "title", "description", "attachment_url", "attachment_name", "target_class", "created_by", "created_at"})
}

func TestPostRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewPostRepository(db)

	mock.ExpectExec("INSERT INTO posts").
		WillReturnResult(sqlmock.NewResult(1, 1))

	post := &models.Post{Type: models.PostNotice, Title: "Holiday tomorrow", TargetClass: models.TargetAllClasses, CreatedBy: "t1"}
	require.NoError(t, repo.Create(context.Background(), post))
	assert.NotEmpty(t, post.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepositoryListForClass(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewPostRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, type, title, description, attachment_url, attachment_name, target_class, created_by, created_at FROM posts WHERE target_class IN ($1, $2) ORDER BY created_at DESC`)).
		WithArgs(models.TargetAllClasses, "5").
		WillReturnRows(postRows().
			AddRow("p1", "Notice", "For everyone", nil, nil, nil, "All", "t1", time.Now()).
			AddRow("p2", "Homework", "For class five", nil, nil, nil, "5", "t1", time.Now()))

	posts, err := repo.ListForClass(context.Background(), "5")
	require.NoError(t, err)
	assert.Len(t, posts, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepositoryListAll(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewPostRepository(db)

	rows := sqlmock.NewRows([]string{"id", "type", "title", "description", "attachment_url", "attachment_name", "target_class", "created_by", "created_at", "author_name"}).
		AddRow("p1", "Notice", "Holiday", nil, nil, nil, "All", "t1", time.Now(), "Amit")
	mock.ExpectQuery("SELECT p.id, .* FROM posts p JOIN teachers t").
		WillReturnRows(rows)

	posts, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Amit", posts[0].AuthorName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepositoryDeleteCascades(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM submissions WHERE post_id = $1`)).
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM posts WHERE id = $1`)).
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "p1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepositoryDeleteOlderThan(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewPostRepository(db)
	cutoff := time.Now().Add(-240 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM submissions WHERE post_id IN").
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM posts WHERE created_at < $1`)).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	count, err := repo.DeleteOlderThan(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
