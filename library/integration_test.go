package library_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silpaChalmers/theCityLibrary/devserver"
	"github.com/silpaChalmers/theCityLibrary/library"
)

type harness struct {
	mgr    *library.LibraryManager
	db     *devserver.Database
	routes []library.Route
	alerts []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := devserver.NewDatabase(filepath.Join(t.TempDir(), "lms.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	srv := httptest.NewServer(devserver.NewServer(db, devserver.Options{}))
	t.Cleanup(srv.Close)

	h := &harness{db: db}
	h.mgr = library.NewLibraryManager(
		library.Config{BaseURL: srv.URL},
		library.NavigatorFunc(func(r library.Route) { h.routes = append(h.routes, r) }),
		library.NotifierFunc(func(msg string) { h.alerts = append(h.alerts, msg) }),
		nil,
	)
	return h
}

func (h *harness) seedBooks(t *testing.T, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		_, err := h.db.AddBook(library.Books{BookName: "Book " + string(rune('A'+i-1)), BookAuthor: "Author", BookGenre: "Genre", NoOfCopies: 1})
		require.NoError(t, err)
	}
}

func TestDeleteThenListExcludesBook(t *testing.T) {
	h := newHarness(t)
	h.seedBooks(t, 5)
	ctx := context.Background()
	view := h.mgr.BooksList()
	require.NoError(t, view.Activate(ctx))
	require.Len(t, view.Books(), 5)

	require.NoError(t, view.DeleteBook(ctx, 5))

	for _, b := range view.Books() {
		assert.NotEqual(t, 5, b.BookID)
	}
	assert.Len(t, view.Books(), 4)
}

func TestDeleteMissingBookSurfacesNotFound(t *testing.T) {
	h := newHarness(t)
	h.seedBooks(t, 1)
	view := h.mgr.BooksList()
	require.NoError(t, view.Activate(context.Background()))

	err := view.DeleteBook(context.Background(), 42)

	assert.ErrorIs(t, err, library.ErrNotFound)
	assert.Len(t, view.Books(), 1)
}

func TestRegisterAgainstBackend(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	form := h.mgr.Register()
	d := form.Draft()
	d.Username = "alice"
	d.Name = "Alice"
	d.Password = "secret"

	require.NoError(t, form.Submit(ctx))

	assert.Equal(t, []library.Route{{Name: library.RouteLogin}}, h.routes)
	users, err := h.mgr.Client().GetUsersList(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)
	require.Len(t, users[0].Role, 1)
	assert.Equal(t, library.DefaultRoleName, users[0].Role[0].RoleName)

	auth, err := h.mgr.Client().Authenticate(ctx, "alice", "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, auth.JwtToken)
}

func TestRegisterDuplicateKeepsDraft(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.db.AddUser(library.Users{Username: "alice", Name: "Alice", Password: "x"})
	require.NoError(t, err)

	form := h.mgr.Register()
	form.Draft().Username = "alice"
	form.Draft().Password = "other"

	require.Error(t, form.Submit(ctx))

	assert.Empty(t, h.routes)
	assert.Equal(t, []string{"Registration failed. Please try again later."}, h.alerts)
	assert.Equal(t, "alice", form.Draft().Username)
	assert.Equal(t, library.StateEditing, form.State())
}

func TestBookFormAddAndUpdate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	add := h.mgr.BookForm()
	*add.Draft() = library.Books{BookName: "Dune", BookAuthor: "Herbert", BookGenre: "SciFi", NoOfCopies: 2}
	created, err := add.Save(ctx)
	require.NoError(t, err)
	require.NotZero(t, created.BookID)

	edit := h.mgr.BookForm()
	require.NoError(t, edit.Load(ctx, created.BookID))
	edit.Draft().NoOfCopies = 5
	_, err = edit.Save(ctx)
	require.NoError(t, err)

	got, err := h.db.GetBook(created.BookID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.NoOfCopies)
	assert.Equal(t, "Dune", got.BookName)
	assert.Equal(t, []library.Route{{Name: library.RouteBooks}, {Name: library.RouteBooks}}, h.routes)

	missing := h.mgr.BookForm()
	assert.ErrorIs(t, missing.Load(ctx, 404), library.ErrNotFound)
}

func TestBorrowCycleThroughController(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedBooks(t, 1)
	u, err := h.db.AddUser(library.Users{Username: "bob", Name: "Bob", Password: "pw"})
	require.NoError(t, err)

	loans := h.mgr.Borrows(u.UserID)
	msg, err := loans.Borrow(ctx, 1, u.UserID)
	require.NoError(t, err)
	assert.Equal(t, `Bob has borrowed one copy of "Book A"!`, msg)
	require.Len(t, loans.Outstanding(), 1)

	msg, err = loans.Borrow(ctx, 1, u.UserID)
	require.NoError(t, err)
	assert.Equal(t, `The book "Book A" is out of stock!`, msg)

	require.NoError(t, loans.Return(ctx, loans.Borrows()[0].BorrowID))
	assert.Empty(t, loans.Outstanding())
	assert.Len(t, loans.Borrows(), 1)
}

func TestImportBooks(t *testing.T) {
	h := newHarness(t)
	csv := strings.Join([]string{
		"name,author,genre,copies",
		"Dune,Frank Herbert,SciFi,3",
		"Emma,Jane Austen,Romance",
		"Broken,Row",
		"Ulysses,James Joyce,Modernist,lots",
	}, "\n")

	res, err := h.mgr.ImportBooks(context.Background(), strings.NewReader(csv))

	require.NoError(t, err)
	require.Len(t, res.Imported, 2)
	assert.Equal(t, 3, res.Imported[0].NoOfCopies)
	assert.Equal(t, 1, res.Imported[1].NoOfCopies)
	assert.Len(t, res.Errors, 2)

	books, err := h.db.GetAllBooks()
	require.NoError(t, err)
	assert.Len(t, books, 2)
}
