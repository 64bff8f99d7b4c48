package main

import (
	"fmt"

	"hbnb/internal/facade"
	"hbnb/internal/notifications"
	"hbnb/internal/service"

	"github.com/spf13/cobra"
)

func (c *cli) adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Grant, revoke and list administrator rights",
	}
	cmd.AddCommand(
		c.setAdminCmd("promote", "Grant admin rights to a user", true),
		c.setAdminCmd("demote", "Revoke admin rights from a user", false),
		c.listAdminsCmd(),
	)
	return cmd
}

// users builds the user service on a facade from openFacade. Change events
// are published on the Redis connection it opened, if any.
func (c *cli) users(f *facade.Facade) *service.UserService {
	var events service.Publisher
	if c.rdb != nil {
		events = notifications.NewNotifier(c.rdb)
	}
	return service.NewUserService(f, events)
}

func (c *cli) setAdminCmd(use, short string, isAdmin bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <user-id|email>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, closeDB, err := c.openFacade(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			users := c.users(f)
			user, err := users.FindUser(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("find user %q: %w", args[0], err)
			}
			if user.IsAdmin == isAdmin {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) is unchanged, is_admin=%t\n", user.Email, user.ID, isAdmin)
				return nil
			}
			if _, err := users.SetAdmin(cmd.Context(), user.ID, isAdmin); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) is_admin=%t\n", user.Email, user.ID, isAdmin)
			return nil
		},
	}
}

func (c *cli) listAdminsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List administrators",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, closeDB, err := c.openFacade(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			admins, err := c.users(f).Admins(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(admins) == 0 {
				fmt.Fprintln(out, "no admins")
				return nil
			}
			for _, u := range admins {
				fmt.Fprintf(out, "%s\t%s\t%s %s\n", u.ID, u.Email, u.FirstName, u.LastName)
			}
			return nil
		},
	}
}
