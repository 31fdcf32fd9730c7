package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/silpaChalmers/theCityLibrary/library"
)

func newShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session that keeps the book list in memory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := &shell{
				a:    a,
				ctx:  cmd.Context(),
				in:   cmd.InOrStdin(),
				sc:   bufio.NewScanner(cmd.InOrStdin()),
				out:  cmd.OutOrStdout(),
				view: a.manager.BooksList(),
			}
			return s.run()
		},
	}
}

// shell is one interactive session. Its book view is fetched once on start
// and again only after a mutation or an explicit refresh; searches run
// against the copy in memory.
type shell struct {
	a    *app
	ctx  context.Context
	in   io.Reader
	sc   *bufio.Scanner
	out  io.Writer
	view *library.BooksListController
}

func (s *shell) run() error {
	fmt.Fprintln(s.out, "Welcome to the Library Management System!")
	fmt.Fprintln(s.out, "Available commands:")
	fmt.Fprintln(s.out, "  Books: list books, search book, show book, add book, update book, delete book, refresh")
	fmt.Fprintln(s.out, "  Circulation: borrow, return, list borrows")
	fmt.Fprintln(s.out, "  Account: register")
	fmt.Fprintln(s.out, "  System: exit")

	if err := s.view.Activate(s.ctx); err != nil {
		fmt.Fprintf(s.out, "Error loading books: %v\n", err)
	}

	for {
		fmt.Fprint(s.out, "\n> ")
		if !s.sc.Scan() {
			return s.sc.Err()
		}
		switch strings.TrimSpace(s.sc.Text()) {
		case "list books":
			s.listBooks("")
		case "search book":
			s.listBooks(s.prompt("Query: "))
		case "show book":
			s.showBook()
		case "add book":
			s.saveBook(0)
		case "update book":
			if id, ok := s.promptID("Book ID: ", "book"); ok {
				s.saveBook(id)
			}
		case "delete book":
			s.deleteBook()
		case "refresh":
			if err := s.view.Activate(s.ctx); err != nil {
				fmt.Fprintf(s.out, "Error: %v\n", err)
			} else {
				fmt.Fprintf(s.out, "%d book(s) loaded.\n", len(s.view.Books()))
			}
		case "borrow":
			s.borrow()
		case "return":
			s.returnBook()
		case "list borrows":
			s.listBorrows()
		case "register":
			s.register()
		case "exit":
			fmt.Fprintln(s.out, "Goodbye!")
			return nil
		case "":
		default:
			fmt.Fprintln(s.out, "Unknown command. Type one of the available commands listed above.")
		}
	}
}

func (s *shell) prompt(label string) string {
	fmt.Fprint(s.out, label)
	if !s.sc.Scan() {
		return ""
	}
	return strings.TrimSpace(s.sc.Text())
}

// promptPassword masks input on a terminal. Scripted sessions read the
// password as an ordinary line.
func (s *shell) promptPassword(label string) string {
	fd, ok := terminalFd(s.in)
	if !ok {
		return s.prompt(label)
	}
	pw, err := readMasked(fd, s.out, label)
	if err != nil {
		fmt.Fprintf(s.out, "Error reading password: %v\n", err)
		return ""
	}
	return pw
}

func (s *shell) promptID(label, what string) (int, bool) {
	raw := s.prompt(label)
	id, err := parseID(raw, what)
	if err != nil {
		fmt.Fprintln(s.out, err)
		return 0, false
	}
	return id, true
}

func (s *shell) listBooks(term string) {
	s.view.SetSearchTerm(term)
	books := s.view.FilteredBooks()
	if len(books) == 0 {
		fmt.Fprintln(s.out, "No books found.")
		return
	}
	printBooks(s.out, books)
}

func (s *shell) showBook() {
	id, ok := s.promptID("Book ID: ", "book")
	if !ok {
		return
	}
	s.view.BookDetails(id)
	book, err := s.a.manager.Client().GetBookByID(s.ctx, id)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	printBooks(s.out, []library.Books{*book})
}

// saveBook edits an existing book when id is set, otherwise creates one.
// Empty answers keep the current value.
func (s *shell) saveBook(id int) {
	form := s.a.manager.BookForm()
	if id != 0 {
		if err := form.Load(s.ctx, id); err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
			return
		}
	}
	d := form.Draft()
	if v := s.prompt(fmt.Sprintf("Name [%s]: ", d.BookName)); v != "" {
		d.BookName = v
	}
	if v := s.prompt(fmt.Sprintf("Author [%s]: ", d.BookAuthor)); v != "" {
		d.BookAuthor = v
	}
	if v := s.prompt(fmt.Sprintf("Genre [%s]: ", d.BookGenre)); v != "" {
		d.BookGenre = v
	}
	if v := s.prompt(fmt.Sprintf("Copies [%d]: ", d.NoOfCopies)); v != "" {
		if _, err := fmt.Sscanf(v, "%d", &d.NoOfCopies); err != nil {
			fmt.Fprintf(s.out, "Invalid number: %s\n", v)
			return
		}
	}
	saved, err := form.Save(s.ctx)
	if err != nil {
		fmt.Fprintf(s.out, "Error saving book: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Saved book ID %d.\n", saved.BookID)
	if err := s.view.Activate(s.ctx); err != nil {
		fmt.Fprintf(s.out, "Error refreshing books: %v\n", err)
	}
}

func (s *shell) deleteBook() {
	id, ok := s.promptID("Book ID: ", "book")
	if !ok {
		return
	}
	if err := s.view.DeleteBook(s.ctx, id); err != nil {
		fmt.Fprintf(s.out, "Error deleting book: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Deleted book %d. %d book(s) remain.\n", id, len(s.view.Books()))
}

func (s *shell) borrow() {
	bookID, ok := s.promptID("Book ID: ", "book")
	if !ok {
		return
	}
	userID, ok := s.promptID("User ID: ", "user")
	if !ok {
		return
	}
	msg, err := s.a.manager.Borrows(userID).Borrow(s.ctx, bookID, userID)
	if err != nil {
		fmt.Fprintf(s.out, "Error borrowing book: %v\n", err)
		return
	}
	fmt.Fprintln(s.out, msg)
	if err := s.view.Activate(s.ctx); err != nil {
		fmt.Fprintf(s.out, "Error refreshing books: %v\n", err)
	}
}

func (s *shell) returnBook() {
	borrowID, ok := s.promptID("Borrow ID: ", "borrow")
	if !ok {
		return
	}
	if err := s.a.manager.Borrows(0).Return(s.ctx, borrowID); err != nil {
		fmt.Fprintf(s.out, "Error returning book: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Borrow %d returned.\n", borrowID)
	if err := s.view.Activate(s.ctx); err != nil {
		fmt.Fprintf(s.out, "Error refreshing books: %v\n", err)
	}
}

func (s *shell) listBorrows() {
	var userID int
	if raw := s.prompt("User ID (or press Enter for all users): "); raw != "" {
		id, err := parseID(raw, "user")
		if err != nil {
			fmt.Fprintln(s.out, err)
			return
		}
		userID = id
	}
	view := s.a.manager.Borrows(userID)
	if err := view.Activate(s.ctx); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	if len(view.Borrows()) == 0 {
		fmt.Fprintln(s.out, "No borrow records.")
		return
	}
	printBorrows(s.out, view.Borrows())
}

// register keeps the same form across failed attempts so only the fields
// the user wants to change need retyping.
func (s *shell) register() {
	form := s.a.manager.Register()
	for {
		d := form.Draft()
		if v := s.prompt(fmt.Sprintf("Username [%s]: ", d.Username)); v != "" {
			d.Username = v
		}
		if v := s.prompt(fmt.Sprintf("Name [%s]: ", d.Name)); v != "" {
			d.Name = v
		}
		if v := s.promptPassword("Password (Enter keeps the previous one): "); v != "" {
			d.Password = v
		}
		if err := form.Submit(s.ctx); err == nil {
			return
		}
		if !strings.EqualFold(s.prompt("Try again? [y/N]: "), "y") {
			return
		}
	}
}
