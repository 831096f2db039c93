package videos

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cols = []string{"id", "title", "description", "video_file", "thumbnail", "duration", "owner", "views", "is_published", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func videoRow(views int64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(cols).
		AddRow("v-1", "T1", "D1", "http://s3/v.mp4", "http://s3/t.png", 12.5, "u-1", views, true, now, now)
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+videos\s*\(title,\s*description,\s*video_file,\s*thumbnail,\s*duration,\s*owner\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6\)\s*RETURNING\s+id,`).
		WithArgs("T1", "D1", "http://s3/v.mp4", "http://s3/t.png", 12.5, "u-1").
		WillReturnRows(videoRow(0))

	got, err := repo.Create(context.Background(), &models.Video{
		Title: "T1", Description: "D1", VideoFile: "http://s3/v.mp4", Thumbnail: "http://s3/t.png", Duration: 12.5, Owner: "u-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "v-1", got.ID)
	assert.Equal(t, 12.5, got.Duration)
	assert.Equal(t, "u-1", got.Owner)
	assert.Equal(t, int64(0), got.Views)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateTitle(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT\s+INTO\s+videos`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "videos_title_key"})

	_, err := repo.Create(context.Background(), &models.Video{Title: "T1"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestGetByID(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+videos\s+WHERE\s+id\s*=\s*\$1$`).WithArgs("v-1").WillReturnRows(videoRow(4))
	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+videos\s+WHERE\s+id\s*=\s*\$1$`).WithArgs("v-2").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+videos\s+WHERE\s+id\s*=\s*\$1$`).WithArgs("v-3").WillReturnError(errors.New("conn reset"))

	v, err := repo.GetByID(context.Background(), "v-1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), v.Views)

	_, err = repo.GetByID(context.Background(), "v-2")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = repo.GetByID(context.Background(), "v-3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: conn reset")
}

func TestFindByTitle(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+videos\s+WHERE\s+title\s*=\s*\$1`).WithArgs("T1").WillReturnRows(videoRow(0))
	mock.ExpectQuery(`FROM\s+videos\s+WHERE\s+title\s*=\s*\$1`).WithArgs("new").WillReturnError(sql.ErrNoRows)

	v, err := repo.FindByTitle(context.Background(), "T1")
	require.NoError(t, err)
	assert.Equal(t, "v-1", v.ID)

	_, err = repo.FindByTitle(context.Background(), "new")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUpdate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)^UPDATE\s+videos\s+SET\s+title\s*=\s*\$2,\s*description\s*=\s*\$3,\s*thumbnail\s*=\s*\$4,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+id\s*=\s*\$1\s+RETURNING`
	mock.ExpectQuery(q).WithArgs("v-1", "T1", "D1", "http://s3/t.png").WillReturnRows(videoRow(0))
	mock.ExpectQuery(q).WithArgs("v-9", "T", "D", "th").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(q).WithArgs("v-1", "taken", "D", "th").WillReturnError(&pgconn.PgError{Code: "23505"})

	v, err := repo.Update(context.Background(), &models.Video{ID: "v-1", Title: "T1", Description: "D1", Thumbnail: "http://s3/t.png"})
	require.NoError(t, err)
	assert.Equal(t, "T1", v.Title)

	_, err = repo.Update(context.Background(), &models.Video{ID: "v-9", Title: "T", Description: "D", Thumbnail: "th"})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = repo.Update(context.Background(), &models.Video{ID: "v-1", Title: "taken", Description: "D", Thumbnail: "th"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestIncrementViews_IsAtomicUpdate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)^UPDATE\s+videos\s+SET\s+views\s*=\s*views\s*\+\s*1\s+WHERE\s+id\s*=\s*\$1\s+RETURNING`
	mock.ExpectQuery(q).WithArgs("v-1").WillReturnRows(videoRow(1))
	mock.ExpectQuery(q).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	v, err := repo.IncrementViews(context.Background(), "v-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Views)

	_, err = repo.IncrementViews(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetDetails(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	now := time.Now()
	q := `(?s)SELECT\s+v\.id,.*u\.username,\s*u\.fullname,\s*u\.avatar,.*COUNT\(\*\)\s+FROM\s+likes.*JOIN\s+users\s+u\s+ON\s+u\.id\s*=\s*v\.owner\s+WHERE\s+v\.id\s*=\s*\$1`
	mock.ExpectQuery(q).WithArgs("v-1").WillReturnRows(sqlmock.NewRows(append(cols, "username", "fullname", "avatar", "likes")).
		AddRow("v-1", "T1", "D1", "vf", "th", 3.0, "u-1", int64(7), true, now, now, "alice", "Alice A", "http://a", int64(2)))
	mock.ExpectQuery(q).WithArgs("v-2").WillReturnError(sql.ErrNoRows)

	d, err := repo.GetDetails(context.Background(), "v-1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", d.Video.Owner)
	require.NotNil(t, d.Owner)
	assert.Equal(t, models.OwnerSummary{UserName: "alice", FullName: "Alice A", Avatar: "http://a"}, *d.Owner)
	assert.Equal(t, int64(2), d.Likes)
	assert.Equal(t, int64(7), d.Views)

	_, err = repo.GetDetails(context.Background(), "v-2")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
