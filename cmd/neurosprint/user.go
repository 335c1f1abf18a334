package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ayusman/neurosprint/internal/store"
	"github.com/ayusman/neurosprint/internal/tui"
)

var (
	userAge    int
	userGender string
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage trainee profiles",
	}

	create := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a user and log in as them",
		Args:  cobra.ExactArgs(1),
		RunE:  runUserCreate,
	}
	addProfileFlags(create)

	profile := &cobra.Command{
		Use:   "profile <username>",
		Short: "Set age and gender",
		Args:  cobra.ExactArgs(1),
		RunE:  runUserProfile,
	}
	addProfileFlags(profile)

	cmd.AddCommand(
		create,
		profile,
		&cobra.Command{
			Use:   "rename <username> <new-username>",
			Short: "Rename a user",
			Args:  cobra.ExactArgs(2),
			RunE:  runUserRename,
		},
		&cobra.Command{
			Use:   "delete <username>",
			Short: "Delete a user and all of their sessions",
			Args:  cobra.ExactArgs(1),
			RunE:  runUserDelete,
		},
		&cobra.Command{
			Use:   "login <username>",
			Short: "Make a user the active trainee",
			Args:  cobra.ExactArgs(1),
			RunE:  runUserLogin,
		},
		&cobra.Command{
			Use:   "logout",
			Short: "Train as guest until the next login",
			Args:  cobra.NoArgs,
			RunE:  runUserLogout,
		},
		&cobra.Command{
			Use:   "list",
			Short: "List users",
			Args:  cobra.NoArgs,
			RunE:  runUserList,
		},
	)
	return cmd
}

func addProfileFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&userAge, "age", 0, "age in years")
	cmd.Flags().StringVar(&userGender, "gender", "", "gender")
}

func profileFromFlags(cmd *cobra.Command) (*int, string, error) {
	var age *int
	if cmd.Flags().Changed("age") {
		if userAge <= 0 || userAge > 150 {
			return nil, "", fmt.Errorf("--age must be between 1 and 150")
		}
		v := userAge
		age = &v
	}
	return age, strings.TrimSpace(userGender), nil
}

// withUser opens the store and looks up username before calling fn.
func withUser(cmd *cobra.Command, username string, fn func(ctx context.Context, st *store.Store, u *store.User) error) error {
	st, closeStore, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := cmd.Context()
	u, err := st.Users().GetByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("user %q does not exist", username)
	}
	if err != nil {
		return err
	}
	return fn(ctx, st, u)
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	age, gender, err := profileFromFlags(cmd)
	if err != nil {
		return err
	}
	st, closeStore, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := cmd.Context()
	u := &store.User{Username: args[0], Age: age, Gender: gender}
	if err := st.Users().Create(ctx, u); err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			return fmt.Errorf("username %q is already taken", u.Username)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	if err := st.Users().SetActive(ctx, u.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s and logged in.\n", u.Username)
	return nil
}

func runUserProfile(cmd *cobra.Command, args []string) error {
	age, gender, err := profileFromFlags(cmd)
	if err != nil {
		return err
	}
	return withUser(cmd, args[0], func(ctx context.Context, st *store.Store, u *store.User) error {
		if !cmd.Flags().Changed("age") {
			age = u.Age
		}
		if !cmd.Flags().Changed("gender") {
			gender = u.Gender
		}
		if err := st.Users().UpdateProfile(ctx, u.ID, age, gender); err != nil {
			return fmt.Errorf("failed to update profile: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s.\n", u.Username)
		return nil
	})
}

func runUserRename(cmd *cobra.Command, args []string) error {
	return withUser(cmd, args[0], func(ctx context.Context, st *store.Store, u *store.User) error {
		if err := st.Users().Rename(ctx, u.ID, args[1]); err != nil {
			if errors.Is(err, store.ErrUsernameTaken) {
				return fmt.Errorf("username %q is already taken", args[1])
			}
			return fmt.Errorf("failed to rename user: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s.\n", u.Username, strings.TrimSpace(args[1]))
		return nil
	})
}

func runUserDelete(cmd *cobra.Command, args []string) error {
	return withUser(cmd, args[0], func(ctx context.Context, st *store.Store, u *store.User) error {
		if err := st.Users().Delete(ctx, u.ID); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s and their sessions.\n", u.Username)
		return nil
	})
}

func runUserLogin(cmd *cobra.Command, args []string) error {
	return withUser(cmd, args[0], func(ctx context.Context, st *store.Store, u *store.User) error {
		if err := st.Users().SetActive(ctx, u.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s.\n", u.Username)
		return nil
	})
}

func runUserLogout(cmd *cobra.Command, _ []string) error {
	st, closeStore, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := st.Users().ClearActive(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Logged out. Sessions run as guest until the next login.")
	return nil
}

func runUserList(cmd *cobra.Command, _ []string) error {
	st, closeStore, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := cmd.Context()
	users, err := st.Users().List(ctx)
	if err != nil {
		return err
	}
	activeID := ""
	if active, err := st.Users().Active(ctx); err == nil {
		activeID = active.ID
	}
	fmt.Fprintln(cmd.OutOrStdout(), tui.RenderUsers(users, activeID))
	return nil
}
