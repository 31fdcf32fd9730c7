package devserver

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/silpaChalmers/theCityLibrary/library"
)

func tempDB(t *testing.T) *Database {
	t.Helper()
	dir := t.TempDir()
	db, err := NewDatabase(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func addUser(t *testing.T, db *Database, username string) library.Users {
	t.Helper()
	u, err := db.AddUser(library.Users{
		Username: username,
		Name:     username,
		Password: "pw-" + username,
		Role:     []library.Role{{RoleName: library.DefaultRoleName}},
	})
	if err != nil {
		t.Fatalf("add user %s: %v", username, err)
	}
	return u
}

func TestBookCRUD(t *testing.T) {
	db := tempDB(t)

	b, err := db.AddBook(library.Books{BookName: "Dune", BookAuthor: "Herbert", BookGenre: "SciFi", NoOfCopies: 2})
	if err != nil {
		t.Fatalf("add book: %v", err)
	}
	if b.BookID == 0 {
		t.Fatalf("expected an id")
	}

	updated, err := db.UpdateBook(b.BookID, library.Books{BookName: "Dune Messiah", BookAuthor: "Herbert", BookGenre: "SciFi", NoOfCopies: 4})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := db.GetBook(b.BookID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != updated {
		t.Fatalf("got %+v, want %+v", got, updated)
	}

	if err := db.DeleteBook(b.BookID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.GetBook(b.BookID); !errors.Is(err, ErrBookNotFound) {
		t.Fatalf("want ErrBookNotFound, got %v", err)
	}
	if err := db.DeleteBook(b.BookID); !errors.Is(err, ErrBookNotFound) {
		t.Fatalf("second delete: want ErrBookNotFound, got %v", err)
	}
	if _, err := db.UpdateBook(999, library.Books{}); !errors.Is(err, ErrBookNotFound) {
		t.Fatalf("update missing: want ErrBookNotFound, got %v", err)
	}
}

func TestGetAllBooksOrdered(t *testing.T) {
	db := tempDB(t)
	for _, name := range []string{"C", "A", "B"} {
		if _, err := db.AddBook(library.Books{BookName: name, BookAuthor: "x", BookGenre: "y"}); err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
	}
	books, err := db.GetAllBooks()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(books) != 3 || books[0].BookName != "C" || books[2].BookName != "B" {
		t.Fatalf("unexpected order: %+v", books)
	}
}

func TestUserRolesAndAuth(t *testing.T) {
	db := tempDB(t)
	alice := addUser(t, db, "alice")
	bob := addUser(t, db, "bob")

	if len(alice.Role) != 1 || alice.Role[0].RoleName != "User" || alice.Role[0].RoleID == 0 {
		t.Fatalf("unexpected roles: %+v", alice.Role)
	}
	if bob.Role[0].RoleID != alice.Role[0].RoleID {
		t.Fatalf("role should be shared, got %d and %d", alice.Role[0].RoleID, bob.Role[0].RoleID)
	}
	if alice.Password != "" {
		t.Fatalf("password leaked")
	}

	if _, err := db.AddUser(library.Users{Username: "alice", Password: "x"}); err == nil {
		t.Fatalf("duplicate username accepted")
	}

	got, err := db.AuthenticateUser("alice", "pw-alice")
	if err != nil {
		t.Fatalf("auth: %v", err)
	}
	if got.UserID != alice.UserID || len(got.Role) != 1 {
		t.Fatalf("unexpected user %+v", got)
	}
	if _, err := db.AuthenticateUser("alice", "wrong"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("want ErrBadCredentials, got %v", err)
	}
	if _, err := db.AuthenticateUser("nobody", "x"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("want ErrBadCredentials for unknown user, got %v", err)
	}

	users, err := db.GetAllUsers()
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("want 2 users, got %d", len(users))
	}
	if _, err := db.GetUser(42); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("want ErrUserNotFound, got %v", err)
	}
}

func TestBorrowFlow(t *testing.T) {
	db := tempDB(t)
	issued := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	db.now = func() time.Time { return issued }

	book, _ := db.AddBook(library.Books{BookName: "Emma", BookAuthor: "Austen", BookGenre: "Romance", NoOfCopies: 1})
	alice := addUser(t, db, "alice")
	bob := addUser(t, db, "bob")

	if _, _, err := db.BorrowBook(book.BookID, alice.UserID); err != nil {
		t.Fatalf("borrow: %v", err)
	}
	after, _ := db.GetBook(book.BookID)
	if after.NoOfCopies != 0 {
		t.Fatalf("copies not decremented: %d", after.NoOfCopies)
	}

	_, b, err := db.BorrowBook(book.BookID, bob.UserID)
	if !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("want ErrOutOfStock, got %v", err)
	}
	if b.BookName != "Emma" {
		t.Fatalf("out of stock should still name the book, got %+v", b)
	}

	list, err := db.GetBorrows("user_id", alice.UserID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("want 1 borrow, got %d", len(list))
	}
	loan := list[0]
	if loan.IssueDate.String() != "01-03-2024" || loan.DueDate.String() != "08-03-2024" {
		t.Fatalf("unexpected dates issue=%s due=%s", loan.IssueDate, loan.DueDate)
	}
	if loan.Returned() {
		t.Fatalf("fresh loan marked returned")
	}
	if loan.Book == nil || loan.Book.BookName != "Emma" {
		t.Fatalf("missing book snapshot: %+v", loan.Book)
	}

	returned, err := db.ReturnBook(loan.BorrowID)
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if !returned.Returned() {
		t.Fatalf("return date not set")
	}
	after, _ = db.GetBook(book.BookID)
	if after.NoOfCopies != 1 {
		t.Fatalf("copy not put back: %d", after.NoOfCopies)
	}
	if _, err := db.ReturnBook(loan.BorrowID); !errors.Is(err, ErrAlreadyReturn) {
		t.Fatalf("want ErrAlreadyReturn, got %v", err)
	}
	if _, err := db.ReturnBook(999); !errors.Is(err, ErrBorrowNotFound) {
		t.Fatalf("want ErrBorrowNotFound, got %v", err)
	}
}

func TestBorrowUnknownParties(t *testing.T) {
	db := tempDB(t)
	book, _ := db.AddBook(library.Books{BookName: "B", BookAuthor: "A", BookGenre: "G", NoOfCopies: 1})
	alice := addUser(t, db, "alice")

	if _, _, err := db.BorrowBook(book.BookID, 77); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("want ErrUserNotFound, got %v", err)
	}
	if _, _, err := db.BorrowBook(77, alice.UserID); !errors.Is(err, ErrBookNotFound) {
		t.Fatalf("want ErrBookNotFound, got %v", err)
	}
}

func TestDeleteBookCascadesBorrows(t *testing.T) {
	db := tempDB(t)
	keep, _ := db.AddBook(library.Books{BookName: "Keep", BookAuthor: "A", BookGenre: "G", NoOfCopies: 1})
	gone, _ := db.AddBook(library.Books{BookName: "Gone", BookAuthor: "A", BookGenre: "G", NoOfCopies: 1})
	alice := addUser(t, db, "alice")
	db.BorrowBook(keep.BookID, alice.UserID)
	db.BorrowBook(gone.BookID, alice.UserID)

	if err := db.DeleteBook(gone.BookID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	all, err := db.GetBorrows("", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 || all[0].BookID != keep.BookID {
		t.Fatalf("unexpected borrows after delete: %+v", all)
	}
	byBook, _ := db.GetBorrows("book_id", gone.BookID)
	if len(byBook) != 0 {
		t.Fatalf("borrows of deleted book survived")
	}
	if _, err := db.GetBorrows("title", 1); err == nil {
		t.Fatalf("unknown filter accepted")
	}
}

func TestInMemoryDatabase(t *testing.T) {
	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	defer db.Close()

	if _, err := db.AddBook(library.Books{BookName: "X", BookAuthor: "Y", BookGenre: "Z"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	books, err := db.GetAllBooks()
	if err != nil || len(books) != 1 {
		t.Fatalf("list: %v %d", err, len(books))
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.db")
	db, err := NewDatabase(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	db.AddBook(library.Books{BookName: "Persisted", BookAuthor: "A", BookGenre: "G"})
	db.Close()

	db, err = NewDatabase(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	books, _ := db.GetAllBooks()
	if len(books) != 1 || books[0].BookName != "Persisted" {
		t.Fatalf("data lost across reopen: %+v", books)
	}
}
