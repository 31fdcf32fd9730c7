package library

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// DefaultRoleName is the role every self-registered account starts with.
const DefaultRoleName = "User"

// Books is a catalogue entry as returned by the LMS backend.
type Books struct {
	BookID     int    `json:"bookId,omitempty"`
	BookName   string `json:"bookName"`
	BookAuthor string `json:"bookAuthor"`
	BookGenre  string `json:"bookGenre"`
	NoOfCopies int    `json:"noOfCopies"`
}

// Borrow is one lending of a book to a user. Book is only populated when the
// backend embeds a snapshot of the borrowed title.
type Borrow struct {
	BorrowID   int    `json:"borrowId,omitempty"`
	BookID     int    `json:"bookId"`
	UserID     int    `json:"userId"`
	IssueDate  *Date  `json:"issueDate"`
	ReturnDate *Date  `json:"returnDate"`
	DueDate    *Date  `json:"dueDate"`
	Book       *Books `json:"book,omitempty"`
}

// Returned reports whether the borrow has been closed.
func (b Borrow) Returned() bool { return b.ReturnDate != nil }

// Role is a named membership attached to a user.
type Role struct {
	RoleID   int    `json:"roleId,omitempty"`
	RoleName string `json:"roleName"`
}

// Users is a library account. Password is only ever sent, never shown.
type Users struct {
	UserID   int    `json:"userId,omitempty"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Password string `json:"password,omitempty"`
	Role     []Role `json:"role"`
}

// AuthRequest is the credential pair accepted by /authenticate.
type AuthRequest struct {
	UserName     string `json:"userName"`
	UserPassword string `json:"userPassword"`
}

// AuthResponse carries the issued bearer token.
type AuthResponse struct {
	User     Users  `json:"user"`
	JwtToken string `json:"jwtToken"`
}

// borrowRequest is the body of POST /borrow.
type borrowRequest struct {
	BookID int `json:"bookId"`
	UserID int `json:"userId"`
}

// DateLayout is the day-first wire format used for borrow dates.
const DateLayout = "02-01-2006"

// Date is a calendar day serialized as dd-MM-yyyy.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day.
func NewDate(t time.Time) *Date {
	y, m, d := t.Date()
	return &Date{time.Date(y, m, d, 0, 0, 0, 0, t.Location())}
}

func (d Date) String() string { return d.Format(DateLayout) }

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	s := strings.Trim(string(data), `"`)
	if s == "" {
		return nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", s, err)
	}
	d.Time = t
	return nil
}
