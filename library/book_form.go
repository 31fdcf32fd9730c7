package library

import (
	"context"
	"fmt"
	"log/slog"
)

// BookFormController backs both the add-book and update-book/:id views.
// Failures are only logged; the draft stays for another attempt.
type BookFormController struct {
	svc BooksService
	nav Navigator
	log *slog.Logger

	id    int
	draft Books
}

func NewBookFormController(svc BooksService, nav Navigator, logger *slog.Logger) *BookFormController {
	if logger == nil {
		logger = slog.Default()
	}
	return &BookFormController{svc: svc, nav: nav, log: logger}
}

// Load fills the draft from the backend so it can be edited.
func (c *BookFormController) Load(ctx context.Context, id int) error {
	b, err := c.svc.GetBookByID(ctx, id)
	if err != nil {
		c.log.Error("load book failed", "book_id", id, "error", err)
		return fmt.Errorf("load book %d: %w", id, err)
	}
	c.id = id
	c.draft = *b
	return nil
}

// Draft is the editable record. Zero ID means Save creates a new book.
func (c *BookFormController) Draft() *Books { return &c.draft }

// Save creates or updates the book, then returns to the book list.
func (c *BookFormController) Save(ctx context.Context) (*Books, error) {
	var (
		saved *Books
		err   error
	)
	if c.id == 0 {
		saved, err = c.svc.AddBook(ctx, c.draft)
	} else {
		saved, err = c.svc.UpdateBook(ctx, c.id, c.draft)
	}
	if err != nil {
		c.log.Error("save book failed", "book_id", c.id, "error", err)
		return nil, fmt.Errorf("save book: %w", err)
	}
	// Later saves on this form update the book just created.
	c.id = saved.BookID
	c.draft = *saved
	c.nav.Navigate(Route{Name: RouteBooks})
	return saved, nil
}
