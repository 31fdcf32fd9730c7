package devserver

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"

	"github.com/silpaChalmers/theCityLibrary/library"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Options tunes the stand-in backend.
type Options struct {
	// RequireAuth rejects /admin and /borrow calls without a token issued by
	// /authenticate.
	RequireAuth bool
	Logger      *slog.Logger
}

// Server serves the LMS HTTP surface from a Database.
type Server struct {
	db     *Database
	opts   Options
	log    *slog.Logger
	router *mux.Router

	mu     sync.Mutex
	tokens map[string]int
}

func NewServer(db *Database, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{db: db, opts: opts, log: logger, tokens: make(map[string]int)}
	s.router = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/user/adduser", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/authenticate", s.handleAuthenticate).Methods(http.MethodPost)

	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(s.requireToken)
	admin.HandleFunc("/books", s.handleListBooks).Methods(http.MethodGet)
	admin.HandleFunc("/books", s.handleAddBook).Methods(http.MethodPost)
	admin.HandleFunc("/books/{id:[0-9]+}", s.handleGetBook).Methods(http.MethodGet)
	admin.HandleFunc("/books/{id:[0-9]+}", s.handleUpdateBook).Methods(http.MethodPut)
	admin.HandleFunc("/books/{id:[0-9]+}", s.handleDeleteBook).Methods(http.MethodDelete)
	admin.HandleFunc("/users", s.handleListUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users", s.handleRegister).Methods(http.MethodPost)
	admin.HandleFunc("/users/{id:[0-9]+}", s.handleGetUser).Methods(http.MethodGet)

	borrow := r.PathPrefix("/borrow").Subrouter()
	borrow.Use(s.requireToken)
	borrow.HandleFunc("", s.handleListBorrows).Methods(http.MethodGet)
	borrow.HandleFunc("", s.handleBorrow).Methods(http.MethodPost)
	borrow.HandleFunc("", s.handleReturn).Methods(http.MethodPut)
	borrow.HandleFunc("/user/{id:[0-9]+}", s.handleBorrowsBy("user_id")).Methods(http.MethodGet)
	borrow.HandleFunc("/book/{id:[0-9]+}", s.handleBorrowsBy("book_id")).Methods(http.MethodGet)
	return r
}

// ------------------ Middleware ------------------

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.Debug("request", "method", r.Method, "path", r.URL.Path, "request_id", r.Header.Get("X-Request-ID"))
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.RequireAuth {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			s.mu.Lock()
			_, known := s.tokens[token]
			s.mu.Unlock()
			if !ok || !known {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------ Books ------------------

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.db.GetAllBooks()
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, books)
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	book, err := s.db.GetBook(id)
	if errors.Is(err, ErrBookNotFound) {
		bookNotFound(w, id)
		return
	}
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (s *Server) handleAddBook(w http.ResponseWriter, r *http.Request) {
	var in library.Books
	if !readJSON(w, r, &in) {
		return
	}
	book, err := s.db.AddBook(in)
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	var in library.Books
	if !readJSON(w, r, &in) {
		return
	}
	book, err := s.db.UpdateBook(id, in)
	if errors.Is(err, ErrBookNotFound) {
		bookNotFound(w, id)
		return
	}
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	err := s.db.DeleteBook(id)
	if errors.Is(err, ErrBookNotFound) {
		bookNotFound(w, id)
		return
	}
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// ------------------ Users ------------------

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in library.Users
	if !readJSON(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Username) == "" || in.Password == "" {
		http.Error(w, "username and password are required", http.StatusBadRequest)
		return
	}
	user, err := s.db.AddUser(in)
	if err != nil {
		if strings.Contains(err.Error(), "already taken") {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.db.GetAllUsers()
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	user, err := s.db.GetUser(id)
	if errors.Is(err, ErrUserNotFound) {
		http.Error(w, fmt.Sprintf("User with id %d does not exist.", id), http.StatusNotFound)
		return
	}
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	var in library.AuthRequest
	if !readJSON(w, r, &in) {
		return
	}
	user, err := s.db.AuthenticateUser(in.UserName, in.UserPassword)
	if errors.Is(err, ErrBadCredentials) {
		http.Error(w, "INVALID_CREDENTIALS", http.StatusUnauthorized)
		return
	}
	if err != nil {
		s.internalError(w, err)
		return
	}
	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = user.UserID
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, library.AuthResponse{User: user, JwtToken: token})
}

// ------------------ Borrow ------------------

func (s *Server) handleBorrow(w http.ResponseWriter, r *http.Request) {
	var in library.Borrow
	if !readJSON(w, r, &in) {
		return
	}
	user, book, err := s.db.BorrowBook(in.BookID, in.UserID)
	switch {
	case errors.Is(err, ErrOutOfStock):
		writeText(w, fmt.Sprintf("The book %q is out of stock!", book.BookName))
	case errors.Is(err, ErrBookNotFound):
		bookNotFound(w, in.BookID)
	case errors.Is(err, ErrUserNotFound):
		http.Error(w, fmt.Sprintf("User with id %d does not exist.", in.UserID), http.StatusNotFound)
	case err != nil:
		s.internalError(w, err)
	default:
		writeText(w, fmt.Sprintf("%s has borrowed one copy of %q!", user.Name, book.BookName))
	}
}

func (s *Server) handleReturn(w http.ResponseWriter, r *http.Request) {
	var in library.Borrow
	if !readJSON(w, r, &in) {
		return
	}
	b, err := s.db.ReturnBook(in.BorrowID)
	switch {
	case errors.Is(err, ErrBorrowNotFound):
		http.Error(w, fmt.Sprintf("Borrow with id %d does not exist.", in.BorrowID), http.StatusNotFound)
	case errors.Is(err, ErrAlreadyReturn):
		http.Error(w, fmt.Sprintf("Borrow with id %d is already returned.", in.BorrowID), http.StatusConflict)
	case err != nil:
		s.internalError(w, err)
	default:
		writeJSON(w, http.StatusOK, b)
	}
}

func (s *Server) handleListBorrows(w http.ResponseWriter, r *http.Request) {
	s.writeBorrows(w, "", 0)
}

func (s *Server) handleBorrowsBy(column string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeBorrows(w, column, pathID(r))
	}
}

func (s *Server) writeBorrows(w http.ResponseWriter, column string, id int) {
	list, err := s.db.GetBorrows(column, id)
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ------------------ Helpers ------------------

// pathID is safe to ignore errors on: the route pattern only admits digits.
func pathID(r *http.Request) int {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	return id
}

func bookNotFound(w http.ResponseWriter, id int) {
	http.Error(w, fmt.Sprintf("Book with id %d does not exist.", id), http.StatusNotFound)
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.log.Error("request failed", "error", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	data, err := io.ReadAll(r.Body)
	if err == nil {
		err = json.Unmarshal(data, dst)
	}
	if err != nil {
		http.Error(w, "malformed JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeText(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, msg)
}
