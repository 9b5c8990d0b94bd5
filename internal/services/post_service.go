package services

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/postsmith/ghostwriter-backend/internal/dto"
	"github.com/postsmith/ghostwriter-backend/internal/models"
	"gorm.io/gorm"
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrNotPostOwner    = errors.New("you do not own this post")
	ErrTitleRequired   = errors.New("title is required")
	ErrInvalidStatus   = errors.New("unknown post status")
	ErrInvalidTone     = errors.New("unknown post tone")
	ErrVersionConflict = errors.New("post was modified by another session")
)

// PostService owns the draft lifecycle. All mutating operations on a post
// serialize through a per-post mutex so an in-flight autosave can never
// overwrite an explicit save that already completed.
type PostService struct {
	db    *gorm.DB
	locks sync.Map // uuid.UUID -> *sync.Mutex
}

func NewPostService(db *gorm.DB) *PostService {
	return &PostService{db: db}
}

func (s *PostService) lock(postID uuid.UUID) func() {
	v, _ := s.locks.LoadOrStore(postID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *PostService) Create(userID uuid.UUID, req *dto.CreatePostRequest) (*models.Post, error) {
	if req.Title == "" {
		return nil, ErrTitleRequired
	}

	tone := req.Tone
	if tone == "" {
		tone = models.ToneProfessional
	}
	if !models.ValidTone(tone) {
		return nil, ErrInvalidTone
	}

	post := models.Post{
		ID:      uuid.New(),
		UserID:  userID,
		Title:   req.Title,
		Content: req.Content,
		Tone:    tone,
		Status:  models.StatusDraft,
		Version: 1,
	}

	if err := s.db.Create(&post).Error; err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	return &post, nil
}

func (s *PostService) Get(userID, postID uuid.UUID) (*models.Post, error) {
	var post models.Post
	if err := s.db.First(&post, "id = ?", postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to fetch post: %w", err)
	}

	if post.UserID != userID {
		return nil, ErrNotPostOwner
	}
	return &post, nil
}

// Update applies a partial edit. UpdatedAt is refreshed on every call, even
// when the submitted values match the stored ones.
func (s *PostService) Update(userID, postID uuid.UUID, req *dto.UpdatePostRequest) (*models.Post, error) {
	unlock := s.lock(postID)
	defer unlock()

	post, err := s.Get(userID, postID)
	if err != nil {
		return nil, err
	}

	if req.ExpectedVersion != nil && *req.ExpectedVersion != post.Version {
		return nil, ErrVersionConflict
	}

	updates := map[string]interface{}{
		"version": post.Version + 1,
	}
	if req.Content != nil {
		updates["content"] = *req.Content
	}
	if req.Status != nil {
		if !models.ValidStatus(*req.Status) {
			return nil, ErrInvalidStatus
		}
		updates["status"] = *req.Status
	}
	if req.EditorNotes != nil {
		updates["editor_notes"] = *req.EditorNotes
	}

	if err := s.db.Model(post).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	return s.Get(userID, postID)
}

// SubmitForReview advances a draft to ready_for_review. Calling it on a post
// that already left draft is a no-op.
func (s *PostService) SubmitForReview(userID, postID uuid.UUID) (*models.Post, error) {
	unlock := s.lock(postID)
	defer unlock()

	post, err := s.Get(userID, postID)
	if err != nil {
		return nil, err
	}

	if post.Status != models.StatusDraft {
		return post, nil
	}

	updates := map[string]interface{}{
		"status":  models.StatusReadyForReview,
		"version": post.Version + 1,
	}
	if err := s.db.Model(post).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to submit post for review: %w", err)
	}

	return s.Get(userID, postID)
}

// Delete removes the post permanently. No tombstone, no recovery.
func (s *PostService) Delete(userID, postID uuid.UUID) error {
	unlock := s.lock(postID)
	defer unlock()

	post, err := s.Get(userID, postID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(post).Error; err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	s.locks.Delete(postID)
	return nil
}

// List returns all posts owned by userID, newest first.
func (s *PostService) List(userID uuid.UUID) ([]models.Post, error) {
	var posts []models.Post
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch posts: %w", err)
	}
	return posts, nil
}

// Recent returns the newest posts for the dashboard summary.
func (s *PostService) Recent(userID uuid.UUID, limit int) ([]models.Post, error) {
	if limit <= 0 {
		limit = 5
	}
	var posts []models.Post
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch posts: %w", err)
	}
	return posts, nil
}
