package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/silpaChalmers/theCityLibrary/library"
)

func newBooksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "List, search and edit the catalogue",
	}
	cmd.AddCommand(
		newBooksListCmd(a),
		newBooksShowCmd(a),
		newBooksAddCmd(a),
		newBooksUpdateCmd(a),
		newBooksDeleteCmd(a),
		newBooksImportCmd(a),
	)
	return cmd
}

func newBooksListCmd(a *app) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books, optionally filtered by name, author or genre",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view := a.manager.BooksList()
			if err := view.Activate(cmd.Context()); err != nil {
				return err
			}
			view.SetSearchTerm(search)
			books := view.FilteredBooks()
			out := cmd.OutOrStdout()
			if len(books) == 0 {
				if search != "" {
					fmt.Fprintf(out, "No books found matching '%s'.\n", search)
				} else {
					fmt.Fprintln(out, "No books in library.")
				}
				return nil
			}
			if search != "" {
				fmt.Fprintf(out, "Found %d book(s) matching '%s':\n", len(books), search)
			}
			printBooks(out, books)
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "case-insensitive substring to match")
	return cmd
}

func newBooksShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show BOOK_ID",
		Short: "Show one book and who has it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "book")
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			client := a.manager.Client()
			book, err := client.GetBookByID(ctx, id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:      %d\nName:    %s\nAuthor:  %s\nGenre:   %s\nCopies:  %d\n",
				book.BookID, book.BookName, book.BookAuthor, book.BookGenre, book.NoOfCopies)

			borrows, err := client.GetBorrowsByBook(ctx, id)
			if err != nil {
				a.log.Warn("could not load borrow history", "book_id", id, "error", err)
				return nil
			}
			if len(borrows) > 0 {
				fmt.Fprintln(out, "\nBorrow history:")
				printBorrows(out, borrows)
			}
			return nil
		},
	}
}

type bookFields struct {
	name, author, genre string
	copies              int
}

func (f *bookFields) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "book name")
	cmd.Flags().StringVar(&f.author, "author", "", "book author")
	cmd.Flags().StringVar(&f.genre, "genre", "", "book genre")
	cmd.Flags().IntVar(&f.copies, "copies", 1, "number of copies on the shelf")
}

// apply copies only the flags the user actually set.
func (f *bookFields) apply(cmd *cobra.Command, b *library.Books) {
	flags := cmd.Flags()
	if flags.Changed("name") {
		b.BookName = f.name
	}
	if flags.Changed("author") {
		b.BookAuthor = f.author
	}
	if flags.Changed("genre") {
		b.BookGenre = f.genre
	}
	if flags.Changed("copies") {
		b.NoOfCopies = f.copies
	}
}

func newBooksAddCmd(a *app) *cobra.Command {
	var f bookFields
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book to the catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			form := a.manager.BookForm()
			draft := form.Draft()
			draft.NoOfCopies = f.copies
			f.apply(cmd, draft)
			saved, err := form.Save(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added book ID %d.\n", saved.BookID)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newBooksUpdateCmd(a *app) *cobra.Command {
	var f bookFields
	cmd := &cobra.Command{
		Use:   "update BOOK_ID",
		Short: "Change a book's fields; unset flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "book")
			if err != nil {
				return err
			}
			form := a.manager.BookForm()
			if err := form.Load(cmd.Context(), id); err != nil {
				return err
			}
			f.apply(cmd, form.Draft())
			saved, err := form.Save(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated book '%s'.\n", saved.BookName)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newBooksDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete BOOK_ID",
		Short: "Delete a book and show the refreshed list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "book")
			if err != nil {
				return err
			}
			view := a.manager.BooksList()
			if err := view.DeleteBook(cmd.Context(), id); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Deleted book %d.\n", id)
			printBooks(out, view.Books())
			return nil
		},
	}
}

func newBooksImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE.csv",
		Short: "Create books from name,author,genre[,copies] rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.manager.ImportBooksFromFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range res.Errors {
				fmt.Fprintf(out, "ERROR - %v\n", e)
			}
			fmt.Fprintf(out, "Successfully imported: %d books\nErrors: %d\n", len(res.Imported), len(res.Errors))
			return nil
		},
	}
}
