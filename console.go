package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/silpaChalmers/theCityLibrary/library"
)

// consoleNotifier prints alerts where a browser would pop a dialog.
type consoleNotifier struct {
	out io.Writer
}

func (n consoleNotifier) Alert(message string) {
	fmt.Fprintf(n.out, "*** %s ***\n", message)
}

// consoleNavigator has no views to switch to, so it tells the user which
// command shows the target.
type consoleNavigator struct {
	out  io.Writer
	last library.Route
}

func (n *consoleNavigator) Navigate(r library.Route) {
	n.last = r
	if hint := commandFor(r); hint != "" {
		fmt.Fprintf(n.out, "Next: %s\n", hint)
	}
}

func commandFor(r library.Route) string {
	id := strconv.Itoa(r.ID)
	switch r.Name {
	case library.RouteLogin:
		return "lms login"
	case library.RouteBooks:
		return "lms books list"
	case library.RouteUpdateBook:
		return "lms books update " + id
	case library.RouteBookDetails:
		return "lms books show " + id
	}
	return r.Path()
}

// readPassword securely reads a password with masking. Piped input is read
// as a plain line so scripts can register users.
func readPassword(prompt string) (string, error) {
	fd, ok := terminalFd(os.Stdin)
	if !ok {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}
	return readMasked(fd, os.Stdout, prompt)
}

// terminalFd returns r's descriptor when r is an interactive terminal.
func terminalFd(r io.Reader) (int, bool) {
	f, ok := r.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}

func readMasked(fd int, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	bytePassword, err := term.ReadPassword(fd)
	if err != nil {
		return "", err
	}
	fmt.Fprintln(out) // Add newline after password input
	return strings.TrimSpace(string(bytePassword)), nil
}

func parseID(s, what string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s ID: %s", what, s)
	}
	return id, nil
}

func printBooks(w io.Writer, books []library.Books) {
	fmt.Fprintf(w, "%-5s %-30s %-25s %-15s %-6s\n", "ID", "Name", "Author", "Genre", "Copies")
	fmt.Fprintln(w, strings.Repeat("-", 85))
	for _, b := range books {
		fmt.Fprintln(w, library.PrettyBook(b))
	}
}

func printBorrows(w io.Writer, borrows []library.Borrow) {
	fmt.Fprintf(w, "%-6s %-30s %-6s %-11s %-11s %-11s\n", "ID", "Book", "User", "Issued", "Due", "Returned")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, b := range borrows {
		fmt.Fprintln(w, library.PrettyBorrow(b))
	}
}
