package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/silpaChalmers/theCityLibrary/library"
)

func newRegisterCmd(a *app) *cobra.Command {
	var (
		username string
		name     string
		password string
		roles    []string
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new library account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			form := a.manager.Register()
			draft := form.Draft()
			draft.Username = username
			draft.Name = name
			if cmd.Flags().Changed("role") {
				draft.Role = draft.Role[:0]
				for _, r := range roles {
					draft.Role = append(draft.Role, library.Role{RoleName: r})
				}
			}

			draft.Password = password
			if !cmd.Flags().Changed("password") {
				pw, err := readPassword(fmt.Sprintf("Enter password for %s: ", username))
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				draft.Password = pw
			}
			return form.Submit(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "login name")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	cmd.Flags().StringSliceVar(&roles, "role", nil, "override the default role list")
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Exchange credentials for a bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword("Enter your password: ")
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			resp, err := a.manager.Client().Authenticate(cmd.Context(), username, password)
			if err != nil {
				return fmt.Errorf("authentication failed: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Logged in as %s (ID: %d)\n", resp.User.Username, resp.User.UserID)
			fmt.Fprintf(out, "export LMS_TOKEN=%s\n", resp.JwtToken)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "login name")
	return cmd
}

func newUsersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Inspect registered accounts",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List all accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := a.manager.Client().GetUsersList(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(users) == 0 {
				fmt.Fprintln(out, "No members registered.")
				return nil
			}
			fmt.Fprintf(out, "%-5s %-20s %-30s %s\n", "ID", "Username", "Name", "Roles")
			fmt.Fprintln(out, strings.Repeat("-", 75))
			for _, u := range users {
				fmt.Fprintf(out, "%-5d %-20s %-30s %s\n", u.UserID, u.Username, u.Name, roleNames(u.Role))
			}
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show USER_ID",
		Short: "Show one account and its borrows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			u, err := a.manager.Client().GetUserByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:       %d\nUsername: %s\nName:     %s\nRoles:    %s\n", u.UserID, u.Username, u.Name, roleNames(u.Role))

			view := a.manager.Borrows(id)
			if err := view.Activate(cmd.Context()); err != nil {
				a.log.Warn("could not load borrows", "user_id", id, "error", err)
				return nil
			}
			if borrows := view.Borrows(); len(borrows) > 0 {
				fmt.Fprintln(out, "\nBorrows:")
				printBorrows(out, borrows)
			}
			return nil
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}

func roleNames(roles []library.Role) string {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.RoleName)
	}
	return strings.Join(names, ", ")
}
