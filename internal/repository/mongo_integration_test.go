package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"postboard/internal/models"
)

// newMongoTestDB connects to MONGO_TEST_URI and returns a throwaway database.
// The test is skipped when the variable is unset.
func newMongoTestDB(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := client.Database("postboard_test_" + bson.NewObjectID().Hex())
	require.NoError(t, EnsureMongoIndexes(ctx, db))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

func TestMongoUserRepository(t *testing.T) {
	db := newMongoTestDB(t)
	repo := NewMongoUserRepository(db)
	ctx := context.Background()

	u := &models.User{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", PasswordHash: "h1"}
	require.NoError(t, repo.Create(ctx, u))
	assert.Len(t, u.ID, 24)

	assert.ErrorIs(t, repo.Create(ctx, &models.User{Email: "ada@example.com"}), ErrUserExists)

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got.Email)

	require.NoError(t, repo.UpdatePasswordHash(ctx, u.ID, "h2"))
	got, err = repo.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "h2", got.PasswordHash)

	_, err = repo.GetByID(ctx, "zz")
	assert.ErrorIs(t, err, ErrInvalidID)
	_, err = repo.GetByID(ctx, bson.NewObjectID().Hex())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMongoPostRepository(t *testing.T) {
	db := newMongoTestDB(t)
	repo := NewMongoPostRepository(db)
	ctx := context.Background()

	p := &models.Post{Name: "sunset", Description: "orange", Image: models.Image{Data: []byte{0, 1, 2, 250}, ContentType: "image/png"}}
	require.NoError(t, repo.Create(ctx, p))
	assert.ErrorIs(t, repo.Create(ctx, &models.Post{Name: "sunset", Image: p.Image}), ErrPostExists)

	img := models.Image{Data: []byte("jpeg-bytes"), ContentType: "image/jpeg"}
	require.NoError(t, repo.Update(ctx, p.ID, &models.UpdatePostRequest{Image: &img}))

	posts, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, img, posts[0].Image)
	assert.Equal(t, "orange", posts[0].Description)

	require.NoError(t, repo.Delete(ctx, p.ID))
	assert.ErrorIs(t, repo.Delete(ctx, p.ID), ErrPostNotFound)
}
