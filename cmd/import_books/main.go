package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/silpaChalmers/theCityLibrary/library"
)

// Usage: import_books [catalogue.csv]
//
// Rows are name,author,genre[,copies]. The backend is taken from LMS_SERVER
// and LMS_TOKEN.
func main() {
	path := "books.csv"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	cfg, err := library.ConfigFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
		os.Exit(1)
	}
	manager := library.NewLibraryManager(cfg, nil, nil, nil)
	ctx := context.Background()

	fmt.Printf("Importing books from %s into %s...\n", path, cfg.BaseURL)
	res, err := manager.ImportBooksFromFile(ctx, path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error importing books: %v\n", err)
		os.Exit(1)
	}

	for _, b := range res.Imported {
		fmt.Printf("Imported: %s by %s (ID: %d)\n", b.BookName, b.BookAuthor, b.BookID)
	}
	for _, e := range res.Errors {
		fmt.Printf("ERROR - %v\n", e)
	}

	fmt.Printf("\nImport complete!\n")
	fmt.Printf("Successfully imported: %d books\n", len(res.Imported))
	fmt.Printf("Errors: %d\n", len(res.Errors))

	if len(res.Imported) == 0 {
		return
	}

	fmt.Println("\nCatalogue now holds:")
	books, err := manager.Client().GetBooksList(ctx)
	if err != nil {
		fmt.Printf("Error retrieving books: %v\n", err)
		return
	}
	fmt.Printf("%-5s %-30s %-25s %-15s %-6s\n", "ID", "Name", "Author", "Genre", "Copies")
	fmt.Println(strings.Repeat("-", 85))
	for _, b := range books {
		fmt.Println(library.PrettyBook(b))
	}
}
