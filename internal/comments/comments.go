// Package comments lists and writes product reviews and their replies.
package comments

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/fjod/go_cart/storefront/internal/auth"
	"github.com/fjod/go_cart/storefront/internal/backend"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

const (
	MinLength      = 3
	MaxLength      = 400
	MaxReplyLength = 300
	MinStar        = 1
	MaxStar        = 5

	anonymousName = "کاربر"
)

type Backend interface {
	Comments(ctx context.Context, productID string) ([]backend.CommentRecord, error)
	CreateComment(ctx context.Context, token string, in backend.CommentInput) error
	UpdateComment(ctx context.Context, token, commentID string, in backend.CommentInput) error
	DeleteComment(ctx context.Context, token, commentID string) error
	ReplyComment(ctx context.Context, token, commentID, text string) error
}

// Thread is a product's comments plus the viewer's own top-level comment.
type Thread struct {
	Comments []domain.Comment `json:"comments"`
	Mine     *domain.Comment  `json:"mine,omitempty"`
}

type Service struct {
	backend Backend
}

func NewService(backend Backend) *Service {
	return &Service{backend: backend}
}

// List returns the product's comments. viewerID may be empty.
func (s *Service) List(ctx context.Context, productID, viewerID string) (*Thread, error) {
	records, err := s.backend.Comments(ctx, productID)
	if err != nil {
		return nil, err
	}

	thread := &Thread{Comments: make([]domain.Comment, 0, len(records))}
	for _, r := range records {
		c := toComment(r)
		c.Replies = make([]domain.Comment, 0, len(r.Replies))
		for _, reply := range r.Replies {
			rc := toComment(reply)
			rc.Star = 0
			rc.Replies = []domain.Comment{}
			c.Replies = append(c.Replies, rc)
		}
		thread.Comments = append(thread.Comments, c)
		if viewerID != "" && c.UserID == viewerID {
			mine := c
			thread.Mine = &mine
		}
	}
	return thread, nil
}

// Save writes the viewer's review of a product. A viewer has at most one
// review per product, so an existing one is edited instead of duplicated.
func (s *Service) Save(ctx context.Context, cred auth.Credential, productID, text string, star int) error {
	in, err := validate(productID, text, star)
	if err != nil {
		return err
	}

	thread, err := s.List(ctx, productID, cred.UserID)
	if err != nil {
		return err
	}
	if thread.Mine != nil {
		return s.backend.UpdateComment(ctx, cred.Token, thread.Mine.ID, in)
	}
	return s.backend.CreateComment(ctx, cred.Token, in)
}

func (s *Service) Update(ctx context.Context, cred auth.Credential, commentID, productID, text string, star int) error {
	in, err := validate(productID, text, star)
	if err != nil {
		return err
	}
	return s.backend.UpdateComment(ctx, cred.Token, commentID, in)
}

func (s *Service) Delete(ctx context.Context, cred auth.Credential, commentID string) error {
	return s.backend.DeleteComment(ctx, cred.Token, commentID)
}

func (s *Service) Reply(ctx context.Context, cred auth.Credential, commentID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return &domain.ValidationError{Field: "comment", Message: "reply is empty"}
	}
	if utf8.RuneCountInString(text) > MaxReplyLength {
		return &domain.ValidationError{Field: "comment", Message: "reply is too long"}
	}
	return s.backend.ReplyComment(ctx, cred.Token, commentID, text)
}

func validate(productID, text string, star int) (backend.CommentInput, error) {
	text = strings.TrimSpace(text)
	if productID == "" {
		return backend.CommentInput{}, &domain.ValidationError{Field: "productId", Message: "is required"}
	}
	if n := utf8.RuneCountInString(text); n < MinLength || n > MaxLength {
		return backend.CommentInput{}, &domain.ValidationError{Field: "comment", Message: "must be 3 to 400 characters"}
	}
	if star < MinStar || star > MaxStar {
		return backend.CommentInput{}, &domain.ValidationError{Field: "star", Message: "must be 1 to 5"}
	}
	return backend.CommentInput{ProductID: productID, Comment: text, Star: star}, nil
}

func toComment(r backend.CommentRecord) domain.Comment {
	name := anonymousName
	if r.User != nil && r.User.UserName != "" {
		name = r.User.UserName
	}
	return domain.Comment{
		ID:        r.ID,
		UserID:    r.UserID,
		UserName:  name,
		Text:      r.Comment,
		Star:      r.Star,
		CreatedAt: r.CreatedAt,
	}
}
