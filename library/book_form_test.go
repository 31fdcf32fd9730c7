package library

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookFormAddFailureKeepsDraft(t *testing.T) {
	svc := newFakeBooks()
	svc.saveErr = errors.New("connection refused")
	nav := &recordingNav{}
	form := NewBookFormController(svc, nav, nil)
	*form.Draft() = Books{BookName: "Dune", BookAuthor: "Herbert", BookGenre: "SciFi", NoOfCopies: 2}

	saved, err := form.Save(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, svc.saveErr)
	assert.Nil(t, saved)
	assert.Empty(t, nav.routes, "no navigation on failure")
	assert.Equal(t, Books{BookName: "Dune", BookAuthor: "Herbert", BookGenre: "SciFi", NoOfCopies: 2}, *form.Draft())
	assert.Empty(t, svc.books)
}

func TestBookFormUpdateFailureKeepsDraft(t *testing.T) {
	svc := newFakeBooks(sampleBooks()...)
	nav := &recordingNav{}
	form := NewBookFormController(svc, nav, nil)
	require.NoError(t, form.Load(context.Background(), 1))
	form.Draft().NoOfCopies = 9
	svc.saveErr = &APIError{Method: "PUT", Path: "/admin/books/1", StatusCode: 500}

	_, err := form.Save(context.Background())

	require.Error(t, err)
	assert.Empty(t, nav.routes)
	assert.Equal(t, 9, form.Draft().NoOfCopies)
	assert.Equal(t, 2, svc.books[0].NoOfCopies, "backend record untouched")

	// The retained draft goes through once the backend recovers.
	svc.saveErr = nil
	_, err = form.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9, svc.books[0].NoOfCopies)
	assert.Equal(t, []Route{{Name: RouteBooks}}, nav.routes)
}

func TestBookFormSecondSaveUpdatesCreatedBook(t *testing.T) {
	svc := newFakeBooks()
	form := NewBookFormController(svc, &recordingNav{}, nil)
	*form.Draft() = Books{BookName: "Dune", BookAuthor: "Herbert", BookGenre: "SciFi", NoOfCopies: 1}

	first, err := form.Save(context.Background())
	require.NoError(t, err)
	form.Draft().NoOfCopies = 4
	second, err := form.Save(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.BookID, second.BookID)
	require.Len(t, svc.books, 1, "no duplicate book")
	assert.Equal(t, 4, svc.books[0].NoOfCopies)
}
