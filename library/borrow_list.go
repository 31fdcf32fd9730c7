package library

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// BorrowListController lists borrow records, optionally for a single user,
// and re-fetches after every lend or return.
type BorrowListController struct {
	svc BorrowService
	log *slog.Logger

	userID  int
	refresh func(ctx context.Context) error

	mu      sync.Mutex
	borrows []Borrow
}

func NewBorrowListController(svc BorrowService, logger *slog.Logger) *BorrowListController {
	if logger == nil {
		logger = slog.Default()
	}
	c := &BorrowListController{svc: svc, log: logger}
	c.refresh = c.Activate
	return c
}

// ForUser scopes the list to one borrower. Zero means everyone.
func (c *BorrowListController) ForUser(userID int) *BorrowListController {
	c.userID = userID
	return c
}

// Activate replaces local state with the backend's current list.
func (c *BorrowListController) Activate(ctx context.Context) error {
	var (
		list []Borrow
		err  error
	)
	if c.userID != 0 {
		list, err = c.svc.GetBorrowsByUser(ctx, c.userID)
	} else {
		list, err = c.svc.GetBorrowList(ctx)
	}
	if err != nil {
		c.log.Error("fetch borrows failed", "user_id", c.userID, "error", err)
		return fmt.Errorf("fetch borrows: %w", err)
	}
	c.mu.Lock()
	c.borrows = list
	c.mu.Unlock()
	return nil
}

func (c *BorrowListController) Borrows() []Borrow {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Borrow, len(c.borrows))
	copy(out, c.borrows)
	return out
}

// Outstanding returns the records that have not been returned yet.
func (c *BorrowListController) Outstanding() []Borrow {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Borrow
	for _, b := range c.borrows {
		if !b.Returned() {
			out = append(out, b)
		}
	}
	return out
}

// Overdue returns outstanding records whose due day is before now's day.
// Days are compared as calendar dates; now's zone only decides which day it is.
func (c *BorrowListController) Overdue(now time.Time) []Borrow {
	today := calendarDay(now)
	var out []Borrow
	for _, b := range c.Outstanding() {
		if b.DueDate != nil && calendarDay(b.DueDate.Time).Before(today) {
			out = append(out, b)
		}
	}
	return out
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Borrow lends bookID to userID and refreshes. The backend's message is
// returned as is; "out of stock" is a message, not an error.
func (c *BorrowListController) Borrow(ctx context.Context, bookID, userID int) (string, error) {
	msg, err := c.svc.BorrowBook(ctx, bookID, userID)
	if err != nil {
		c.log.Error("borrow failed", "book_id", bookID, "user_id", userID, "error", err)
		return "", fmt.Errorf("borrow book %d: %w", bookID, err)
	}
	return msg, c.refresh(ctx)
}

// Return closes borrowID and refreshes.
func (c *BorrowListController) Return(ctx context.Context, borrowID int) error {
	if _, err := c.svc.ReturnBook(ctx, borrowID); err != nil {
		c.log.Error("return failed", "borrow_id", borrowID, "error", err)
		return fmt.Errorf("return borrow %d: %w", borrowID, err)
	}
	return c.refresh(ctx)
}
