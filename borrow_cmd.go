package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newBorrowCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "borrow",
		Short: "Lend and return books",
	}

	var (
		userID      int
		outstanding bool
		overdue     bool
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List borrow records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view := a.manager.Borrows(userID)
			if err := view.Activate(cmd.Context()); err != nil {
				return err
			}
			borrows := view.Borrows()
			switch {
			case overdue:
				borrows = view.Overdue(time.Now())
			case outstanding:
				borrows = view.Outstanding()
			}
			out := cmd.OutOrStdout()
			if len(borrows) == 0 {
				fmt.Fprintln(out, "No borrow records.")
				return nil
			}
			printBorrows(out, borrows)
			return nil
		},
	}
	list.Flags().IntVar(&userID, "user", 0, "only this user's records")
	list.Flags().BoolVar(&outstanding, "outstanding", false, "only records not yet returned")
	list.Flags().BoolVar(&overdue, "overdue", false, "only records past their due date")

	lend := &cobra.Command{
		Use:   "book BOOK_ID USER_ID",
		Short: "Lend one copy of a book to a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, err := parseID(args[0], "book")
			if err != nil {
				return err
			}
			uid, err := parseID(args[1], "user")
			if err != nil {
				return err
			}
			view := a.manager.Borrows(uid)
			msg, err := view.Borrow(cmd.Context(), bookID, uid)
			if msg != "" {
				fmt.Fprintln(cmd.OutOrStdout(), msg)
			}
			return err
		},
	}

	ret := &cobra.Command{
		Use:   "return BORROW_ID",
		Short: "Return a borrowed book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			borrowID, err := parseID(args[0], "borrow")
			if err != nil {
				return err
			}
			view := a.manager.Borrows(0)
			if err := view.Return(cmd.Context(), borrowID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Borrow %d returned. %d record(s) still outstanding.\n", borrowID, len(view.Outstanding()))
			return nil
		},
	}

	cmd.AddCommand(list, lend, ret)
	return cmd
}
