// Package devserver is a local stand-in for the LMS backend. It serves the
// same HTTP surface from a SQLite file so the CLI and tests have something to
// talk to. It is not the production backend.
package devserver

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"

	"github.com/silpaChalmers/theCityLibrary/library"
)

// LoanPeriod is how long a borrower may keep a book.
const LoanPeriod = 7 * 24 * time.Hour

var (
	ErrBookNotFound   = errors.New("book not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrBorrowNotFound = errors.New("borrow not found")
	ErrOutOfStock     = errors.New("out of stock")
	ErrAlreadyReturn  = errors.New("borrow already returned")
	ErrBadCredentials = errors.New("invalid credentials")
)

// Database provides high-level helpers around a SQLite connection.
type Database struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewDatabase opens (or creates) the SQLite database at dbPath and applies
// schema migrations. ":memory:" is accepted for throwaway stores.
func NewDatabase(dbPath string) (*Database, error) {
	if dbPath != ":memory:" {
		// Ensure directory exists so first-run succeeds.
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
	}

	// Enable busy_timeout and foreign keys.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Database{db: db, now: time.Now}, nil
}

// Close closes the DB.
func (d *Database) Close() error { return d.db.Close() }

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sqlx.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS books (
            book_id INTEGER PRIMARY KEY AUTOINCREMENT,
            book_name TEXT NOT NULL,
            book_author TEXT NOT NULL,
            book_genre TEXT NOT NULL,
            no_of_copies INTEGER NOT NULL DEFAULT 0
        );`,
		`CREATE TABLE IF NOT EXISTS users (
            user_id INTEGER PRIMARY KEY AUTOINCREMENT,
            username TEXT NOT NULL UNIQUE,
            name TEXT NOT NULL,
            password_hash TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS roles (
            role_id INTEGER PRIMARY KEY AUTOINCREMENT,
            role_name TEXT NOT NULL UNIQUE
        );`,
		`CREATE TABLE IF NOT EXISTS user_roles (
            user_id INTEGER NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
            role_id INTEGER NOT NULL REFERENCES roles(role_id),
            PRIMARY KEY (user_id, role_id)
        );`,
		`CREATE TABLE IF NOT EXISTS borrow (
            borrow_id INTEGER PRIMARY KEY AUTOINCREMENT,
            book_id INTEGER NOT NULL REFERENCES books(book_id) ON DELETE CASCADE,
            user_id INTEGER NOT NULL REFERENCES users(user_id),
            issue_date DATETIME NOT NULL,
            due_date DATETIME NOT NULL,
            return_date DATETIME
        );`,
		`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`,
	}

	for i, stmt := range stmts {
		var args []any
		if i == len(stmts)-1 {
			args = append(args, schemaVersion)
		}
		if _, err := tx.Exec(stmt, args...); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Books
// ---------------------------------------------------------------------------

type bookRow struct {
	BookID     int    `db:"book_id"`
	BookName   string `db:"book_name"`
	BookAuthor string `db:"book_author"`
	BookGenre  string `db:"book_genre"`
	NoOfCopies int    `db:"no_of_copies"`
}

func (r bookRow) model() library.Books {
	return library.Books{
		BookID:     r.BookID,
		BookName:   r.BookName,
		BookAuthor: r.BookAuthor,
		BookGenre:  r.BookGenre,
		NoOfCopies: r.NoOfCopies,
	}
}

const bookColumns = `book_id, book_name, book_author, book_genre, no_of_copies`

func (d *Database) AddBook(b library.Books) (library.Books, error) {
	res, err := d.db.Exec(`INSERT INTO books(book_name,book_author,book_genre,no_of_copies) VALUES(?,?,?,?)`,
		b.BookName, b.BookAuthor, b.BookGenre, b.NoOfCopies)
	if err != nil {
		return library.Books{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return library.Books{}, err
	}
	b.BookID = int(id)
	return b, nil
}

func (d *Database) GetBook(id int) (library.Books, error) {
	var r bookRow
	err := d.db.Get(&r, `SELECT `+bookColumns+` FROM books WHERE book_id=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return library.Books{}, ErrBookNotFound
	}
	if err != nil {
		return library.Books{}, err
	}
	return r.model(), nil
}

// GetAllBooks returns the catalogue ordered by id.
func (d *Database) GetAllBooks() ([]library.Books, error) {
	var rows []bookRow
	if err := d.db.Select(&rows, `SELECT `+bookColumns+` FROM books ORDER BY book_id`); err != nil {
		return nil, err
	}
	books := make([]library.Books, 0, len(rows))
	for _, r := range rows {
		books = append(books, r.model())
	}
	return books, nil
}

// UpdateBook overwrites every descriptive field of book id.
func (d *Database) UpdateBook(id int, b library.Books) (library.Books, error) {
	res, err := d.db.Exec(`UPDATE books SET book_name=?, book_author=?, book_genre=?, no_of_copies=? WHERE book_id=?`,
		b.BookName, b.BookAuthor, b.BookGenre, b.NoOfCopies, id)
	if err != nil {
		return library.Books{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return library.Books{}, err
	} else if n == 0 {
		return library.Books{}, ErrBookNotFound
	}
	b.BookID = id
	return b, nil
}

// DeleteBook removes the book; its borrow records go with it.
func (d *Database) DeleteBook(id int) error {
	res, err := d.db.Exec(`DELETE FROM books WHERE book_id=?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

type userRow struct {
	UserID       int    `db:"user_id"`
	Username     string `db:"username"`
	Name         string `db:"name"`
	PasswordHash string `db:"password_hash"`
}

// AddUser stores u with a bcrypt hash of its password and links its roles,
// creating unknown role names on the fly.
func (d *Database) AddUser(u library.Users) (library.Users, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return library.Users{}, fmt.Errorf("hash password: %w", err)
	}

	tx, err := d.db.Beginx()
	if err != nil {
		return library.Users{}, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO users(username,name,password_hash) VALUES(?,?,?)`, u.Username, u.Name, string(hash))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return library.Users{}, fmt.Errorf("username %q is already taken", u.Username)
		}
		return library.Users{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return library.Users{}, err
	}

	roles := make([]library.Role, 0, len(u.Role))
	for _, r := range u.Role {
		if _, err := tx.Exec(`INSERT INTO roles(role_name) VALUES(?) ON CONFLICT(role_name) DO NOTHING`, r.RoleName); err != nil {
			return library.Users{}, err
		}
		var roleID int
		if err := tx.Get(&roleID, `SELECT role_id FROM roles WHERE role_name=?`, r.RoleName); err != nil {
			return library.Users{}, err
		}
		if _, err := tx.Exec(`INSERT OR IGNORE INTO user_roles(user_id,role_id) VALUES(?,?)`, id, roleID); err != nil {
			return library.Users{}, err
		}
		roles = append(roles, library.Role{RoleID: roleID, RoleName: r.RoleName})
	}
	if err := tx.Commit(); err != nil {
		return library.Users{}, err
	}

	return library.Users{UserID: int(id), Username: u.Username, Name: u.Name, Role: roles}, nil
}

func (d *Database) GetUser(id int) (library.Users, error) {
	var r userRow
	err := d.db.Get(&r, `SELECT user_id, username, name, password_hash FROM users WHERE user_id=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return library.Users{}, ErrUserNotFound
	}
	if err != nil {
		return library.Users{}, err
	}
	return d.withRoles(r)
}

func (d *Database) GetAllUsers() ([]library.Users, error) {
	var rows []userRow
	if err := d.db.Select(&rows, `SELECT user_id, username, name, password_hash FROM users ORDER BY user_id`); err != nil {
		return nil, err
	}
	users := make([]library.Users, 0, len(rows))
	for _, r := range rows {
		u, err := d.withRoles(r)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// AuthenticateUser verifies username and password against the stored hash.
func (d *Database) AuthenticateUser(username, password string) (library.Users, error) {
	var r userRow
	err := d.db.Get(&r, `SELECT user_id, username, name, password_hash FROM users WHERE username=?`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return library.Users{}, ErrBadCredentials
	}
	if err != nil {
		return library.Users{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(r.PasswordHash), []byte(password)); err != nil {
		return library.Users{}, ErrBadCredentials
	}
	return d.withRoles(r)
}

func (d *Database) withRoles(r userRow) (library.Users, error) {
	roles := []library.Role{}
	err := d.db.Select(&roles, `SELECT r.role_id AS roleid, r.role_name AS rolename
        FROM user_roles ur JOIN roles r ON r.role_id = ur.role_id
        WHERE ur.user_id=? ORDER BY r.role_id`, r.UserID)
	if err != nil {
		return library.Users{}, err
	}
	return library.Users{UserID: r.UserID, Username: r.Username, Name: r.Name, Role: roles}, nil
}

// ---------------------------------------------------------------------------
// Circulation
// ---------------------------------------------------------------------------

type borrowRow struct {
	BorrowID   int          `db:"borrow_id"`
	BookID     int          `db:"book_id"`
	UserID     int          `db:"user_id"`
	IssueDate  time.Time    `db:"issue_date"`
	DueDate    time.Time    `db:"due_date"`
	ReturnDate sql.NullTime `db:"return_date"`
	BookName   string       `db:"book_name"`
	BookAuthor string       `db:"book_author"`
	BookGenre  string       `db:"book_genre"`
	NoOfCopies int          `db:"no_of_copies"`
}

func (r borrowRow) model() library.Borrow {
	b := library.Borrow{
		BorrowID:  r.BorrowID,
		BookID:    r.BookID,
		UserID:    r.UserID,
		IssueDate: &library.Date{Time: r.IssueDate},
		DueDate:   &library.Date{Time: r.DueDate},
	}
	if r.ReturnDate.Valid {
		b.ReturnDate = &library.Date{Time: r.ReturnDate.Time}
	}
	b.Book = &library.Books{
		BookID:     r.BookID,
		BookName:   r.BookName,
		BookAuthor: r.BookAuthor,
		BookGenre:  r.BookGenre,
		NoOfCopies: r.NoOfCopies,
	}
	return b
}

const borrowSelect = `SELECT br.borrow_id, br.book_id, br.user_id, br.issue_date, br.due_date, br.return_date,
        b.book_name, b.book_author, b.book_genre, b.no_of_copies
    FROM borrow br JOIN books b ON b.book_id = br.book_id`

// BorrowBook records a loan and takes one copy off the shelf, in one
// transaction. The returned books are the ones as they were before the loan.
func (d *Database) BorrowBook(bookID, userID int) (library.Users, library.Books, error) {
	tx, err := d.db.Beginx()
	if err != nil {
		return library.Users{}, library.Books{}, err
	}
	defer tx.Rollback()

	var user userRow
	if err := tx.Get(&user, `SELECT user_id, username, name, password_hash FROM users WHERE user_id=?`, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return library.Users{}, library.Books{}, ErrUserNotFound
		}
		return library.Users{}, library.Books{}, err
	}
	var book bookRow
	if err := tx.Get(&book, `SELECT `+bookColumns+` FROM books WHERE book_id=?`, bookID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return library.Users{}, library.Books{}, ErrBookNotFound
		}
		return library.Users{}, library.Books{}, err
	}

	u := library.Users{UserID: user.UserID, Username: user.Username, Name: user.Name}
	if book.NoOfCopies <= 0 {
		return u, book.model(), ErrOutOfStock
	}

	issued := d.now()
	if _, err := tx.Exec(`INSERT INTO borrow(book_id,user_id,issue_date,due_date) VALUES(?,?,?,?)`,
		bookID, userID, issued, issued.Add(LoanPeriod)); err != nil {
		return library.Users{}, library.Books{}, err
	}
	if _, err := tx.Exec(`UPDATE books SET no_of_copies = no_of_copies - 1 WHERE book_id=?`, bookID); err != nil {
		return library.Users{}, library.Books{}, err
	}
	return u, book.model(), tx.Commit()
}

// ReturnBook closes the loan and puts the copy back.
func (d *Database) ReturnBook(borrowID int) (library.Borrow, error) {
	tx, err := d.db.Beginx()
	if err != nil {
		return library.Borrow{}, err
	}
	defer tx.Rollback()

	var r borrowRow
	if err := tx.Get(&r, borrowSelect+` WHERE br.borrow_id=?`, borrowID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return library.Borrow{}, ErrBorrowNotFound
		}
		return library.Borrow{}, err
	}
	if r.ReturnDate.Valid {
		return library.Borrow{}, ErrAlreadyReturn
	}

	returned := d.now()
	if _, err := tx.Exec(`UPDATE borrow SET return_date=? WHERE borrow_id=?`, returned, borrowID); err != nil {
		return library.Borrow{}, err
	}
	if _, err := tx.Exec(`UPDATE books SET no_of_copies = no_of_copies + 1 WHERE book_id=?`, r.BookID); err != nil {
		return library.Borrow{}, err
	}
	if err := tx.Commit(); err != nil {
		return library.Borrow{}, err
	}

	r.ReturnDate = sql.NullTime{Time: returned, Valid: true}
	r.NoOfCopies++
	return r.model(), nil
}

// GetBorrows lists loans, optionally filtered by "user_id" or "book_id".
func (d *Database) GetBorrows(column string, id int) ([]library.Borrow, error) {
	query := borrowSelect
	var args []any
	switch column {
	case "":
	case "user_id", "book_id":
		query += ` WHERE br.` + column + `=?`
		args = append(args, id)
	default:
		return nil, fmt.Errorf("unknown borrow filter %q", column)
	}
	query += ` ORDER BY br.borrow_id`

	var rows []borrowRow
	if err := d.db.Select(&rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]library.Borrow, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}
