package library

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LibraryManager is a thin façade over the API client and the view
// controllers, keeping CLI code simple.
type LibraryManager struct {
	client   *Client
	nav      Navigator
	notifier Notifier
	log      *slog.Logger
}

// NewLibraryManager builds a client for cfg and remembers how to surface
// navigation and alerts. Nil nav or notifier drop those events.
func NewLibraryManager(cfg Config, nav Navigator, notifier Notifier, logger *slog.Logger) *LibraryManager {
	if logger == nil {
		logger = slog.Default()
	}
	if nav == nil {
		nav = NavigatorFunc(func(Route) {})
	}
	if notifier == nil {
		notifier = NotifierFunc(func(string) {})
	}
	return &LibraryManager{
		client:   NewClient(cfg, logger),
		nav:      nav,
		notifier: notifier,
		log:      logger,
	}
}

func (lm *LibraryManager) Client() *Client { return lm.client }

// ------------------ Views ------------------

func (lm *LibraryManager) BooksList() *BooksListController {
	return NewBooksListController(lm.client, lm.nav, lm.log)
}

func (lm *LibraryManager) BookForm() *BookFormController {
	return NewBookFormController(lm.client, lm.nav, lm.log)
}

func (lm *LibraryManager) Register() *RegisterController {
	return NewRegisterController(lm.client, lm.nav, lm.notifier, lm.log)
}

func (lm *LibraryManager) Borrows(userID int) *BorrowListController {
	return NewBorrowListController(lm.client, lm.log).ForUser(userID)
}

// ------------------ Import ------------------

// ImportResult counts the rows of one bulk import.
type ImportResult struct {
	Imported []Books
	Errors   []error
}

// ImportBooksFromFile reads a CSV catalogue (relative paths resolve from cwd).
func (lm *LibraryManager) ImportBooksFromFile(ctx context.Context, path string) (*ImportResult, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return lm.ImportBooks(ctx, f)
}

// ImportBooks creates one book per CSV row of name,author,genre[,copies].
// A header row starting with "name" is skipped. Bad rows are recorded and
// the import continues.
func (lm *LibraryManager) ImportBooks(ctx context.Context, r io.Reader) (*ImportResult, error) {
	rows, err := parseBooksCSV(r)
	if err != nil {
		return nil, err
	}
	res := &ImportResult{}
	for _, row := range rows {
		if row.err != nil {
			res.Errors = append(res.Errors, row.err)
			continue
		}
		created, err := lm.client.AddBook(ctx, row.book)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d: %w", row.line, err))
			continue
		}
		lm.log.Debug("book imported", "book_id", created.BookID, "name", created.BookName)
		res.Imported = append(res.Imported, *created)
	}
	return res, nil
}

type csvRow struct {
	line int
	book Books
	err  error
}

// parseBooksCSV decodes rows without contacting the backend.
func parseBooksCSV(r io.Reader) ([]csvRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows []csvRow
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if line == 1 && len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "name") {
			continue
		}
		rows = append(rows, parseBookRecord(line, rec))
	}
	return rows, nil
}

func parseBookRecord(line int, rec []string) csvRow {
	if len(rec) < 3 {
		return csvRow{line: line, err: fmt.Errorf("line %d: want at least 3 fields, got %d", line, len(rec))}
	}
	b := Books{
		BookName:   strings.TrimSpace(rec[0]),
		BookAuthor: strings.TrimSpace(rec[1]),
		BookGenre:  strings.TrimSpace(rec[2]),
		NoOfCopies: 1,
	}
	if len(rec) > 3 && strings.TrimSpace(rec[3]) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(rec[3]))
		if err != nil {
			return csvRow{line: line, err: fmt.Errorf("line %d: copies %q: %w", line, rec[3], err)}
		}
		b.NoOfCopies = n
	}
	return csvRow{line: line, book: b}
}

// ------------------ Utilities ------------------

// PrettyBook formats a book for lists.
func PrettyBook(b Books) string {
	return fmt.Sprintf("%-5d %-30s %-25s %-15s %-6d",
		b.BookID, truncateString(b.BookName, 30), truncateString(b.BookAuthor, 25), truncateString(b.BookGenre, 15), b.NoOfCopies)
}

// PrettyBorrow formats a borrow record for lists.
func PrettyBorrow(b Borrow) string {
	title := fmt.Sprintf("#%d", b.BookID)
	if b.Book != nil {
		title = b.Book.BookName
	}
	return fmt.Sprintf("%-6d %-30s %-6d %-11s %-11s %-11s",
		b.BorrowID, truncateString(title, 30), b.UserID, dateOrDash(b.IssueDate), dateOrDash(b.DueDate), dateOrDash(b.ReturnDate))
}

func dateOrDash(d *Date) string {
	if d == nil {
		return "-"
	}
	return d.String()
}

// truncateString counts runes, so multibyte titles are never cut mid-character.
func truncateString(s string, maxLength int) string {
	r := []rune(s)
	if len(r) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(r[:maxLength])
	}
	return string(r[:maxLength-3]) + "..."
}
