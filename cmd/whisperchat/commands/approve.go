package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"whisperchat/internal/domain"
)

// approve <conv-id>: set your approval flag on a pending conversation.
func approveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <conv-id>",
		Short: "Approve a pending conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(); err != nil {
				return err
			}
			if err := wire.Relay.ApproveConversation(cmd.Context(), domain.ConversationID(args[0])); err != nil {
				return err
			}
			fmt.Println("approved")
			return nil
		},
	}
}
