package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"postboard/internal/models"
)

const PostsCollection = "posts"

type imageDocument struct {
	Data        string `bson:"data"`
	ContentType string `bson:"contentType"`
}

type postDocument struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	Name        string        `bson:"pName"`
	Description string        `bson:"pDescription"`
	Image       imageDocument `bson:"image"`
	CreatedAt   time.Time     `bson:"createdAt"`
}

func newImageDocument(img models.Image) imageDocument {
	return imageDocument{Data: img.EncodedData(), ContentType: img.ContentType}
}

type mongoPostRepository struct {
	coll *mongo.Collection
}

func NewMongoPostRepository(db *mongo.Database) PostRepository {
	return &mongoPostRepository{coll: db.Collection(PostsCollection)}
}

func (r *mongoPostRepository) Create(ctx context.Context, post *models.Post) error {
	doc := postDocument{
		ID:          bson.NewObjectID(),
		Name:        post.Name,
		Description: post.Description,
		Image:       newImageDocument(post.Image),
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrPostExists
		}
		return fmt.Errorf("failed to create post: %w", err)
	}

	post.ID = doc.ID.Hex()
	post.CreatedAt = doc.CreatedAt
	return nil
}

func (r *mongoPostRepository) ListAll(ctx context.Context) ([]models.Post, error) {
	cursor, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	var docs []postDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode posts: %w", err)
	}

	posts := make([]models.Post, 0, len(docs))
	for _, d := range docs {
		img, err := models.DecodeImage(d.Image.Data, d.Image.ContentType)
		if err != nil {
			return nil, fmt.Errorf("post %s: corrupt image data: %w", d.ID.Hex(), err)
		}
		posts = append(posts, models.Post{
			ID:          d.ID.Hex(),
			Name:        d.Name,
			Description: d.Description,
			Image:       img,
			CreatedAt:   d.CreatedAt,
		})
	}
	return posts, nil
}

func (r *mongoPostRepository) Update(ctx context.Context, id string, req *models.UpdatePostRequest) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}

	set := bson.D{}
	if req.Name != nil {
		set = append(set, bson.E{Key: "pName", Value: *req.Name})
	}
	if req.Description != nil {
		set = append(set, bson.E{Key: "pDescription", Value: *req.Description})
	}
	if req.Image != nil {
		set = append(set, bson.E{Key: "image", Value: newImageDocument(*req.Image)})
	}
	if len(set) == 0 {
		return nil
	}

	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrPostExists
		}
		return fmt.Errorf("failed to update post: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *mongoPostRepository) Delete(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}

	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrPostNotFound
	}
	return nil
}
