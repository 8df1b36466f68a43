package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/medflow/internal/hash"
	"github.com/Skotchmaster/medflow/internal/models"
)

func initTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Session{}))
	return db
}

func TestGormStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := &GormStore{DB: initTestDB(t), TTL: time.Hour}

	token, expire, err := store.Create(ctx, Data{UserID: "u1", IP: "10.0.0.1", UserAgent: "cli"})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expire, 5*time.Second)

	var row models.Session
	require.NoError(t, store.DB.First(&row).Error)
	assert.Equal(t, hash.Sha256Hex(token), row.SID)
	assert.NotEqual(t, token, row.SID)

	data, err := store.Get(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "u1", data.UserID)
	assert.Equal(t, "10.0.0.1", data.IP)

	require.NoError(t, store.Destroy(ctx, token))
	_, err = store.Get(ctx, token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormStore_ExpiredIsNotHonored(t *testing.T) {
	ctx := context.Background()
	store := &GormStore{DB: initTestDB(t), TTL: time.Hour}

	token, _, err := store.Create(ctx, Data{UserID: "u1"})
	require.NoError(t, err)

	require.NoError(t, store.DB.Model(&models.Session{}).
		Where("sid = ?", hash.Sha256Hex(token)).
		Update("expire", time.Now().UTC().Add(-time.Minute)).Error)

	_, err = store.Get(ctx, token)
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := store.Prune(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestGormStore_UnknownToken(t *testing.T) {
	store := &GormStore{DB: initTestDB(t)}
	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_Lifecycle(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()
	store, err := NewRedisStore(ctx, url, time.Minute)
	require.NoError(t, err)
	defer store.Close()

	token, _, err := store.Create(ctx, Data{UserID: "u1"})
	require.NoError(t, err)

	data, err := store.Get(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "u1", data.UserID)

	ttl, err := store.RDB.TTL(ctx, store.key(token)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, store.Destroy(ctx, token))
	_, err = store.Get(ctx, token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCookies(t *testing.T) {
	c := CreateCookie("abc", time.Now().Add(time.Hour), true)
	assert.Equal(t, CookieName, c.Name)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)

	d := DeleteCookie(false)
	assert.Equal(t, -1, d.MaxAge)
	assert.Empty(t, d.Value)
}
