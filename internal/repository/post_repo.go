package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"BlogAPI/internal/model"
)

var (
	ErrPostNotFound  = errors.New("post not found")
	ErrDuplicateSlug = errors.New("slug already in use")
)

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateSlug
	}
	return err
}

type PostRepository struct {
	DB *pgxpool.Pool
}

func NewPostRepository(db *pgxpool.Pool) *PostRepository {
	return &PostRepository{DB: db}
}

const postColumns = `id, author_id, title, content, slug, excerpt, category, tags, featured_image, created_at, updated_at`

func scanPost(row pgx.Row) (*model.Post, error) {
	var p model.Post
	if err := row.Scan(&p.ID, &p.AuthorID, &p.Title, &p.Content, &p.Slug, &p.Excerpt,
		&p.Category, &p.Tags, &p.FeaturedImage, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PostRepository) Create(ctx context.Context, p *model.Post) error {
	query := `INSERT INTO posts (id, author_id, title, content, slug, excerpt, category, tags, featured_image, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.DB.Exec(ctx, query, p.ID, p.AuthorID, p.Title, p.Content, p.Slug, p.Excerpt,
		p.Category, p.Tags, p.FeaturedImage, p.CreatedAt, p.UpdatedAt)
	return mapUniqueViolation(err)
}

func (r *PostRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id=$1`
	return scanPost(r.DB.QueryRow(ctx, query, id))
}

// Update rewrites editable fields only; author_id is immutable after creation.
func (r *PostRepository) Update(ctx context.Context, p *model.Post) error {
	query := `UPDATE posts
			SET title=$2, content=$3, slug=$4, excerpt=$5, category=$6, tags=$7, updated_at=$8
			WHERE id=$1`
	tag, err := r.DB.Exec(ctx, query, p.ID, p.Title, p.Content, p.Slug, p.Excerpt, p.Category, p.Tags, p.UpdatedAt)
	if err != nil {
		return mapUniqueViolation(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *PostRepository) SetFeaturedImage(ctx context.Context, id uuid.UUID, key string) error {
	tag, err := r.DB.Exec(ctx, `UPDATE posts SET featured_image=$2 WHERE id=$1`, id, key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *PostRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM posts WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

// List returns posts newest first. category filters when non-empty; limit<=0
// means no limit.
func (r *PostRepository) List(ctx context.Context, category string, limit, offset int) ([]model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts`
	args := []interface{}{}
	if category != "" {
		query += ` WHERE category=$1`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		args = append(args, limit, offset)
		if category != "" {
			query += ` LIMIT $2 OFFSET $3`
		} else {
			query += ` LIMIT $1 OFFSET $2`
		}
	}

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPosts(rows)
}

func (r *PostRepository) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE author_id=$1 ORDER BY created_at DESC`
	rows, err := r.DB.Query(ctx, query, authorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPosts(rows)
}

func collectPosts(rows pgx.Rows) ([]model.Post, error) {
	list := []model.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}
