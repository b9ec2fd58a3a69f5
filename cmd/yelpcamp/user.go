package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/go-while/go-yelpcamp/internal/database"
	"github.com/go-while/go-yelpcamp/internal/models"
	"github.com/go-while/go-yelpcamp/internal/web"
)

func newUserCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(
		newUserCreateCmd(a),
		newUserListCmd(a),
		newUserDeleteCmd(a),
		newUserPasswdCmd(a),
	)
	return cmd
}

func newUserCreateCmd(a *app) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := strings.TrimSpace(args[0])
			email = strings.ToLower(strings.TrimSpace(email))
			// validate everything but the password before prompting for it
			if err := web.ValidateRegistration(username, email, "placeholder"); err != nil {
				return err
			}

			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Shutdown()

			if _, err := db.GetUserByUsername(username); err == nil {
				return fmt.Errorf("user '%s' already exists", username)
			} else if !errors.Is(err, database.ErrNotFound) {
				return err
			}

			password, err := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()).newPassword()
			if err != nil {
				return err
			}
			hash, err := web.HashPassword(password)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}

			user := &models.User{Username: username, Email: email, PasswordHash: hash}
			if err := db.InsertUser(user); err != nil {
				if errors.Is(err, database.ErrUserExists) {
					return fmt.Errorf("username or email already registered")
				}
				return err
			}
			a.log.Info("User created", zap.String("username", user.Username), zap.String("id", user.ID.Hex()))
			fmt.Fprintf(cmd.OutOrStdout(), "✅ User '%s' created successfully\n", user.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newUserListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Shutdown()

			users, err := db.GetAllUsers()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(users) == 0 {
				fmt.Fprintln(out, "No users found.")
				return nil
			}
			fmt.Fprintf(out, "%-24s %-20s %-30s %s\n", "ID", "Username", "Email", "Created")
			fmt.Fprintln(out, strings.Repeat("-", 96))
			for _, u := range users {
				fmt.Fprintf(out, "%-24s %-20s %-30s %s\n",
					u.ID.Hex(), u.Username, u.Email, u.CreatedAt.Format("2006-01-02 15:04"))
			}
			fmt.Fprintf(out, "\nTotal users: %d\n", len(users))
			return nil
		},
	}
}

func newUserDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete a user; their campgrounds and reviews stay without an author",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Shutdown()

			user, err := lookupUser(db, args[0])
			if err != nil {
				return err
			}
			if !yes {
				ok, err := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()).
					confirm(fmt.Sprintf("Delete user '%s' (%s)?", user.Username, user.Email))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}
			if err := db.DeleteUser(user.ID); err != nil {
				return err
			}
			a.log.Info("User deleted", zap.String("username", user.Username))
			fmt.Fprintf(cmd.OutOrStdout(), "✅ User '%s' deleted\n", user.Username)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newUserPasswdCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "passwd <username>",
		Short: "Set a new password and sign the user out everywhere",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Shutdown()

			user, err := lookupUser(db, args[0])
			if err != nil {
				return err
			}
			password, err := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()).newPassword()
			if err != nil {
				return err
			}
			hash, err := web.HashPassword(password)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			if err := db.UpdateUserPassword(user.ID, hash); err != nil {
				return err
			}
			if err := db.ResetLoginAttempts(user.ID); err != nil {
				return err
			}
			n, err := db.DeleteUserSessions(user.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Password updated for '%s' (%d sessions closed)\n", user.Username, n)
			return nil
		},
	}
}

func lookupUser(db *database.Database, username string) (*models.User, error) {
	user, err := db.GetUserByUsername(username)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("user '%s' not found", username)
	}
	return user, err
}
