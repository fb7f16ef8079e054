package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"BlogAPI/internal/model"
	"BlogAPI/internal/repository"
)

const excerptLen = 200

var (
	// ErrNotPostAuthor means the post exists but the actor may not touch it.
	// Handlers map it to 403, distinct from the 404 of an unknown id.
	ErrNotPostAuthor   = errors.New("not the post author")
	ErrNoFeaturedImage = errors.New("post has no featured image")
)

// PostRepo is the persistence surface PostService needs.
type PostRepo interface {
	Create(ctx context.Context, p *model.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Post, error)
	Update(ctx context.Context, p *model.Post) error
	Delete(ctx context.Context, id uuid.UUID) error
	SetFeaturedImage(ctx context.Context, id uuid.UUID, key string) error
	List(ctx context.Context, category string, limit, offset int) ([]model.Post, error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]model.Post, error)
}

// ImageStore holds featured images under per-post object keys.
type ImageStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, string, error)
	Remove(ctx context.Context, key string) error
}

type PostInput struct {
	Title    string
	Content  string
	Category string
	Tags     []string
}

type PostService struct {
	Posts  PostRepo
	Images ImageStore // nil when image storage is not configured
}

func NewPostService(posts PostRepo, images ImageStore) *PostService {
	return &PostService{Posts: posts, Images: images}
}

func slugify(title string) string {
	return strings.ReplaceAll(strings.ToLower(title), " ", "-")
}

func excerpt(content string) string {
	r := []rune(content)
	if len(r) <= excerptLen {
		return content
	}
	return string(r[:excerptLen])
}

func validatePostInput(in PostInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(in.Content) == "" {
		return fmt.Errorf("%w: content is required", ErrValidation)
	}
	return nil
}

// canModify: the author owns the post; admins may act on any post.
func canModify(p *model.Post, actor *model.User) bool {
	return p.AuthorID == actor.ID || actor.Role == model.RoleAdmin
}

// Create stores a new post authored by the acting user. The author is always
// the authenticated requester, never a field from the request body.
func (s *PostService) Create(ctx context.Context, author *model.User, in PostInput) (*model.Post, error) {
	if err := validatePostInput(in); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	p := &model.Post{
		ID:        uuid.New(),
		AuthorID:  author.ID,
		Title:     in.Title,
		Content:   in.Content,
		Slug:      slugify(in.Title),
		Excerpt:   excerpt(in.Content),
		Category:  in.Category,
		Tags:      in.Tags,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if err := s.Posts.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlug) {
			return nil, fmt.Errorf("%w: a post with this title already exists", ErrValidation)
		}
		return nil, err
	}
	return p, nil
}

func (s *PostService) Get(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	return s.Posts.GetByID(ctx, id)
}

func (s *PostService) List(ctx context.Context, category string, limit, offset int) ([]model.Post, error) {
	return s.Posts.List(ctx, category, limit, offset)
}

func (s *PostService) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]model.Post, error) {
	return s.Posts.ListByAuthor(ctx, authorID)
}

// Update applies in to the post. Check order is fixed: existence first
// (unknown id surfaces as not-found), ownership second. The author id is
// never rewritten.
func (s *PostService) Update(ctx context.Context, id uuid.UUID, actor *model.User, in PostInput) (*model.Post, error) {
	existing, err := s.Posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canModify(existing, actor) {
		return nil, ErrNotPostAuthor
	}
	if err := validatePostInput(in); err != nil {
		return nil, err
	}

	existing.Title = in.Title
	existing.Content = in.Content
	existing.Slug = slugify(in.Title)
	existing.Excerpt = excerpt(in.Content)
	existing.Category = in.Category
	if in.Tags != nil {
		existing.Tags = in.Tags
	}
	existing.UpdatedAt = time.Now().UTC()

	if err := s.Posts.Update(ctx, existing); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlug) {
			return nil, fmt.Errorf("%w: a post with this title already exists", ErrValidation)
		}
		return nil, err
	}
	return existing, nil
}

// Delete removes the post, same existence-then-ownership order as Update.
// A stored featured image is removed best-effort; the post deletion wins.
func (s *PostService) Delete(ctx context.Context, id uuid.UUID, actor *model.User) error {
	existing, err := s.Posts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !canModify(existing, actor) {
		return ErrNotPostAuthor
	}
	if err := s.Posts.Delete(ctx, id); err != nil {
		return err
	}
	if s.Images != nil && existing.FeaturedImage != "" {
		_ = s.Images.Remove(ctx, existing.FeaturedImage)
	}
	return nil
}

// AttachImage uploads data as the post's featured image and records its
// object key. Owner-or-admin only, same check order as Update.
func (s *PostService) AttachImage(ctx context.Context, id uuid.UUID, actor *model.User, data []byte, contentType string) error {
	if s.Images == nil {
		return fmt.Errorf("%w: image storage is not configured", ErrValidation)
	}
	existing, err := s.Posts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !canModify(existing, actor) {
		return ErrNotPostAuthor
	}

	key := "posts/" + id.String()
	if err := s.Images.Upload(ctx, key, data, contentType); err != nil {
		return err
	}
	if err := s.Posts.SetFeaturedImage(ctx, id, key); err != nil {
		// no record points at the object, so don't leave it behind
		_ = s.Images.Remove(ctx, key)
		return err
	}
	return nil
}

// Image streams back the stored featured image of a post.
func (s *PostService) Image(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	existing, err := s.Posts.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if s.Images == nil || existing.FeaturedImage == "" {
		return nil, "", ErrNoFeaturedImage
	}
	return s.Images.Download(ctx, existing.FeaturedImage)
}
