package library

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// BooksListController owns the book list screen: it holds the last fetched
// collection and derives the searched view from it on every access.
type BooksListController struct {
	svc BooksService
	nav Navigator
	log *slog.Logger

	// refresh runs after every successful mutation. Defaults to Activate.
	refresh func(ctx context.Context) error

	mu         sync.Mutex
	books      []Books
	searchTerm string
}

// NewBooksListController wires the controller. A nil logger uses slog.Default().
func NewBooksListController(svc BooksService, nav Navigator, logger *slog.Logger) *BooksListController {
	if logger == nil {
		logger = slog.Default()
	}
	c := &BooksListController{svc: svc, nav: nav, log: logger}
	c.refresh = c.Activate
	return c
}

// Activate fetches the full collection and replaces local state with it.
// On failure the previous state is kept and the error is returned.
func (c *BooksListController) Activate(ctx context.Context) error {
	books, err := c.svc.GetBooksList(ctx)
	if err != nil {
		c.log.Error("fetch books failed", "error", err)
		return fmt.Errorf("fetch books: %w", err)
	}
	c.mu.Lock()
	c.books = books
	c.mu.Unlock()
	return nil
}

// Books returns a copy of the last fetched collection.
func (c *BooksListController) Books() []Books {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Books, len(c.books))
	copy(out, c.books)
	return out
}

func (c *BooksListController) SetSearchTerm(term string) {
	c.mu.Lock()
	c.searchTerm = term
	c.mu.Unlock()
}

func (c *BooksListController) SearchTerm() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.searchTerm
}

// FilteredBooks is Search applied to the current search term.
func (c *BooksListController) FilteredBooks() []Books {
	return c.Search(c.SearchTerm())
}

// Search returns the books whose name, author or genre contains term,
// ignoring case. An empty term matches everything.
func (c *BooksListController) Search(term string) []Books {
	c.mu.Lock()
	defer c.mu.Unlock()
	return FilterBooks(c.books, term)
}

// FilterBooks never modifies books; the result is always a new slice.
func FilterBooks(books []Books, term string) []Books {
	needle := strings.ToLower(term)
	out := make([]Books, 0, len(books))
	for _, b := range books {
		if strings.Contains(strings.ToLower(b.BookName), needle) ||
			strings.Contains(strings.ToLower(b.BookGenre), needle) ||
			strings.Contains(strings.ToLower(b.BookAuthor), needle) {
			out = append(out, b)
		}
	}
	return out
}

// DeleteBook removes the book on the backend and then re-fetches the list.
// The local copy is never edited; on failure it is left as it was.
func (c *BooksListController) DeleteBook(ctx context.Context, id int) error {
	if err := c.svc.DeleteBook(ctx, id); err != nil {
		c.log.Error("delete book failed", "book_id", id, "error", err)
		return fmt.Errorf("delete book %d: %w", id, err)
	}
	return c.refresh(ctx)
}

// UpdateBook opens the edit view for id.
func (c *BooksListController) UpdateBook(id int) {
	c.nav.Navigate(Route{Name: RouteUpdateBook, ID: id})
}

// BookDetails opens the detail view for id.
func (c *BooksListController) BookDetails(id int) {
	c.nav.Navigate(Route{Name: RouteBookDetails, ID: id})
}
