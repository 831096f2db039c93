package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/dbx"
	"github.com/dmitrijs2005/vidtube/internal/logging"
	"github.com/dmitrijs2005/vidtube/internal/server/config"
	"github.com/dmitrijs2005/vidtube/internal/server/media"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
	"github.com/dmitrijs2005/vidtube/internal/server/repositories/likes"
	"github.com/dmitrijs2005/vidtube/internal/server/repositories/users"
	"github.com/dmitrijs2005/vidtube/internal/server/repositories/videos"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
	}
}

// --- users ---

type fakeUsersRepo struct {
	mu        sync.Mutex
	byID      map[string]*models.User
	createErr error
	getErr    error
	findErr   error
	creates   int
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[string]*models.User{}}
}

func (f *fakeUsersRepo) add(u *models.User) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	c := *u
	f.byID[u.ID] = &c
	return u
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.creates++
	return f.add(u), nil
}

func (f *fakeUsersRepo) FindByUserNameOrEmail(ctx context.Context, userName, email string) (*models.User, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.UserName == userName || u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	c.Password = ""
	c.RefreshToken = ""
	return &c, nil
}

func (f *fakeUsersRepo) GetByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.RefreshToken != "" && u.RefreshToken == token {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) SetRefreshToken(ctx context.Context, userID, token string, expires time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok {
		return common.ErrorNotFound
	}
	u.RefreshToken = token
	u.RefreshTokenExpires = expires
	return nil
}

func (f *fakeUsersRepo) ClearRefreshToken(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok {
		return common.ErrorNotFound
	}
	u.RefreshToken = ""
	u.RefreshTokenExpires = time.Time{}
	return nil
}

func hashPassword(t *testing.T, pw string) string {
	t.Helper()
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(b)
}

// --- videos ---

type fakeVideosRepo struct {
	mu        sync.Mutex
	byID      map[string]*models.Video
	owners    map[string]*models.OwnerSummary
	likes     *fakeLikesRepo
	createErr error
	updateErr error
	getErr    error
	creates   int
	updates   int
}

func newFakeVideosRepo(l *fakeLikesRepo) *fakeVideosRepo {
	return &fakeVideosRepo{byID: map[string]*models.Video{}, owners: map[string]*models.OwnerSummary{}, likes: l}
}

func (f *fakeVideosRepo) add(v *models.Video) *models.Video {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	c := *v
	f.byID[v.ID] = &c
	return v
}

func (f *fakeVideosRepo) Create(ctx context.Context, v *models.Video) (*models.Video, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.creates++
	return f.add(v), nil
}

func (f *fakeVideosRepo) GetByID(ctx context.Context, id string) (*models.Video, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *v
	return &c, nil
}

func (f *fakeVideosRepo) FindByTitle(ctx context.Context, title string) (*models.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.byID {
		if v.Title == title {
			c := *v
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeVideosRepo) Update(ctx context.Context, v *models.Video) (*models.Video, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.byID[v.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	f.updates++
	stored.Title = v.Title
	stored.Description = v.Description
	stored.Thumbnail = v.Thumbnail
	c := *stored
	return &c, nil
}

func (f *fakeVideosRepo) IncrementViews(ctx context.Context, id string) (*models.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	v.Views++
	c := *v
	return &c, nil
}

func (f *fakeVideosRepo) GetDetails(ctx context.Context, id string) (*models.VideoDetails, error) {
	f.mu.Lock()
	v, ok := f.byID[id]
	owner := f.owners[id]
	f.mu.Unlock()
	if !ok || owner == nil {
		return nil, common.ErrorNotFound
	}
	n, _ := f.likes.CountByVideo(ctx, id)
	return &models.VideoDetails{Video: *v, Owner: owner, Likes: n}, nil
}

// --- likes ---

type fakeLikesRepo struct {
	mu       sync.Mutex
	byID     map[string]*models.Like
	findErr  error
	countErr error
}

func newFakeLikesRepo() *fakeLikesRepo {
	return &fakeLikesRepo{byID: map[string]*models.Like{}}
}

func (f *fakeLikesRepo) Find(ctx context.Context, videoID, userID string) (*models.Like, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.byID {
		if l.VideoID == videoID && l.LikedBy == userID {
			c := *l
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeLikesRepo) Create(ctx context.Context, videoID, userID string) (*models.Like, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l := &models.Like{ID: uuid.NewString(), VideoID: videoID, LikedBy: userID, CreatedAt: time.Now()}
	f.byID[l.ID] = l
	return l, nil
}

func (f *fakeLikesRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeLikesRepo) CountByVideo(ctx context.Context, videoID string) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, l := range f.byID {
		if l.VideoID == videoID {
			n++
		}
	}
	return n, nil
}

// --- manager ---

type fakeRepoManager struct {
	u *fakeUsersRepo
	v *fakeVideosRepo
	l *fakeLikesRepo
}

func newFakeRepoManager() *fakeRepoManager {
	l := newFakeLikesRepo()
	return &fakeRepoManager{u: newFakeUsersRepo(), v: newFakeVideosRepo(l), l: l}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository          { return m.u }
func (m *fakeRepoManager) Videos(db dbx.DBTX) videos.Repository        { return m.v }
func (m *fakeRepoManager) Likes(db dbx.DBTX) likes.Repository          { return m.l }

// --- media ---

type fakeMedia struct {
	mu        sync.Mutex
	durations map[string]float64
	failOn    map[string]error
	deleteErr error
	uploaded  []string
	deleted   []string
	// deleteCtxErrs records ctx.Err() as seen by each Delete call.
	deleteCtxErrs []error
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{durations: map[string]float64{}, failOn: map[string]error{}}
}

func (f *fakeMedia) Upload(ctx context.Context, localPath string) (*media.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failOn[localPath]; err != nil {
		return nil, err
	}
	f.uploaded = append(f.uploaded, localPath)
	key := fmt.Sprintf("k%d", len(f.uploaded))
	return &media.Asset{URL: "http://cdn/" + key, Key: key, Duration: f.durations[localPath]}, nil
}

func (f *fakeMedia) Delete(ctx context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ref)
	f.deleteCtxErrs = append(f.deleteCtxErrs, ctx.Err())
	return f.deleteErr
}

type fakeTempFiles struct {
	discarded map[string]int
}

func (f *fakeTempFiles) Discard(path string) error {
	if f.discarded == nil {
		f.discarded = map[string]int{}
	}
	f.discarded[path]++
	return nil
}

var errBoom = errors.New("boom")

func discardLogger() logging.Logger { return logging.NewDiscardLogger() }
