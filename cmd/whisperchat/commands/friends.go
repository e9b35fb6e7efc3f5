package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"whisperchat/internal/domain"
)

// friends: list, add, request and respond subcommands.
func friendsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "friends",
		Short: "Manage your friends list",
	}
	cmd.AddCommand(friendsListCmd(), friendsAddCmd(), friendsRequestCmd(), friendsRespondCmd())
	return cmd
}

func friendsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List friends",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(); err != nil {
				return err
			}
			list, err := wire.Relay.ListFriends(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Println("no friends yet")
				return nil
			}
			for _, f := range list {
				fmt.Printf("%s  %s\n", f.UID, f.DisplayName)
			}
			return nil
		},
	}
}

func friendsAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <uid>",
		Short: "Add a user to your friends list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(); err != nil {
				return err
			}
			if err := wire.Relay.AddFriend(cmd.Context(), domain.UID(args[0])); err != nil {
				return err
			}
			fmt.Println("added")
			return nil
		},
	}
}

func friendsRequestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "request <uid>",
		Short: "Send a friend request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(); err != nil {
				return err
			}
			if err := wire.Relay.SendFriendRequest(cmd.Context(), domain.UID(args[0])); err != nil {
				return err
			}
			fmt.Println("requested")
			return nil
		},
	}
}

func friendsRespondCmd() *cobra.Command {
	var decline bool
	cmd := &cobra.Command{
		Use:   "respond <uid>",
		Short: "Accept (or decline) a pending friend request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(); err != nil {
				return err
			}
			if err := wire.Relay.RespondFriendRequest(cmd.Context(), domain.UID(args[0]), !decline); err != nil {
				return err
			}
			if decline {
				fmt.Println("declined")
			} else {
				fmt.Println("accepted")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&decline, "decline", false, "decline instead of accepting")
	return cmd
}
