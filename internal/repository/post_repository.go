package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"postboard/internal/models"
)

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	ListAll(ctx context.Context) ([]models.Post, error)
	Update(ctx context.Context, id string, req *models.UpdatePostRequest) error
	Delete(ctx context.Context, id string) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO posts (id, p_name, p_description, image_data, image_content_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		post.ID,
		post.Name,
		post.Description,
		post.Image.EncodedData(),
		post.Image.ContentType,
		post.CreatedAt,
	).Scan(&post.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrPostExists
		}
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

func (r *postRepository) ListAll(ctx context.Context) ([]models.Post, error) {
	query := `
		SELECT id, p_name, p_description, image_data, image_content_type, created_at
		FROM posts
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		var p models.Post
		var data, contentType string
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &data, &contentType, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		img, err := models.DecodeImage(data, contentType)
		if err != nil {
			return nil, fmt.Errorf("post %s: corrupt image data: %w", p.ID, err)
		}
		p.Image = img
		posts = append(posts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}
	return posts, nil
}

func (r *postRepository) Update(ctx context.Context, id string, req *models.UpdatePostRequest) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}

	setValues := []string{}
	args := []interface{}{}
	argID := 1

	if req.Name != nil {
		setValues = append(setValues, fmt.Sprintf("p_name = $%d", argID))
		args = append(args, *req.Name)
		argID++
	}
	if req.Description != nil {
		setValues = append(setValues, fmt.Sprintf("p_description = $%d", argID))
		args = append(args, *req.Description)
		argID++
	}
	if req.Image != nil {
		setValues = append(setValues, fmt.Sprintf("image_data = $%d", argID))
		args = append(args, req.Image.EncodedData())
		argID++
		setValues = append(setValues, fmt.Sprintf("image_content_type = $%d", argID))
		args = append(args, req.Image.ContentType)
		argID++
	}

	if len(setValues) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf(
		"UPDATE posts SET %s WHERE id = $%d",
		strings.Join(setValues, ", "),
		argID,
	)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrPostExists
		}
		return fmt.Errorf("failed to update post: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	if n == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if n == 0 {
		return ErrPostNotFound
	}
	return nil
}
