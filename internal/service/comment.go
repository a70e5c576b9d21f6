package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/iliyamo/bookstore/internal/model"
	"github.com/iliyamo/bookstore/internal/repository"
)

// CommentService is the comment ledger.
type CommentService struct {
	store *repository.Store
}

func NewCommentService(store *repository.Store) *CommentService { return &CommentService{store: store} }

// CommentInput is what a user submits.  Rating is the raw form or JSON
// value; empty means "no rating".
type CommentInput struct {
	Text   string
	Rating string
}

// CommentPage is one page of the moderation listing.
type CommentPage struct {
	Items    []*repository.CommentRow `json:"items"`
	Total    int64                    `json:"total"`
	Page     int                      `json:"page"`
	PageSize int                      `json:"page_size"`
}

// ParseRating accepts an empty value or an integer in [1,5].
func ParseRating(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || !model.RatingInRange(&n) {
		return nil, invalid("rating", "must be an integer between 1 and 5")
	}
	return &n, nil
}

func (in CommentInput) parse(v *ValidationError) (string, *int) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		v.Add("text", "is required")
	}
	rating, err := ParseRating(in.Rating)
	if err != nil {
		v.Add("rating", "must be an integer between 1 and 5")
	}
	return text, rating
}

// Post adds a comment by the actor on a book.
func (s *CommentService) Post(ctx context.Context, a Actor, bookID uint64, in CommentInput) (*model.Comment, error) {
	if err := a.requireUser(); err != nil {
		return nil, err
	}
	v := &ValidationError{}
	text, rating := in.parse(v)
	var c *model.Comment
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		if _, err := tx.Books.GetByID(ctx, bookID); err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			v.Add("book_id", "book does not exist")
		}
		if err := v.Err(); err != nil {
			return err
		}
		c = &model.Comment{UserID: a.ID, BookID: bookID, Body: text, Rating: rating}
		return tx.Comments.Create(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// EditForm returns the comment for its edit form.  Actors other than the
// owner or an administrador get ErrForbidden.
func (s *CommentService) EditForm(ctx context.Context, a Actor, id uint64) (*model.Comment, error) {
	if err := a.requireUser(); err != nil {
		return nil, err
	}
	c, err := getComment(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if !CanViewOrEdit(a, c) {
		return c, ErrForbidden
	}
	return c, nil
}

// Update overwrites text and rating.
func (s *CommentService) Update(ctx context.Context, a Actor, id uint64, in CommentInput) (*model.Comment, error) {
	if err := a.requireUser(); err != nil {
		return nil, err
	}
	var c *model.Comment
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		var err error
		if c, err = getComment(ctx, tx, id); err != nil {
			return err
		}
		if !CanViewOrEdit(a, c) {
			return ErrForbidden
		}
		v := &ValidationError{}
		text, rating := in.parse(v)
		if err := v.Err(); err != nil {
			return err
		}
		c.Body, c.Rating = text, rating
		return tx.Comments.Update(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes a comment.  It returns the deleted comment so callers can
// redirect back to its book.
func (s *CommentService) Delete(ctx context.Context, a Actor, id uint64) (*model.Comment, error) {
	if err := a.requireUser(); err != nil {
		return nil, err
	}
	var c *model.Comment
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		var err error
		if c, err = getComment(ctx, tx, id); err != nil {
			return err
		}
		if !CanViewOrEdit(a, c) {
			return ErrForbidden
		}
		return tx.Comments.Delete(ctx, c.ID)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// List pages through every comment for moderation.
func (s *CommentService) List(ctx context.Context, a Actor, p repository.Page) (*CommentPage, error) {
	if err := a.requireAdmin(); err != nil {
		return nil, err
	}
	items, total, err := s.store.Comments.List(ctx, p)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*repository.CommentRow{}
	}
	return &CommentPage{Items: items, Total: total, Page: p.Number, PageSize: p.Size}, nil
}

func getComment(ctx context.Context, st *repository.Store, id uint64) (*model.Comment, error) {
	c, err := st.Comments.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("comment")
	}
	return c, err
}
