package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"whisperchat/internal/domain"
)

// send <conv-id> <message>: seal and send a message.
func sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <conv-id> <message>",
		Short: "Encrypt and send a message",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(); err != nil {
				return err
			}
			if err := requirePassphrase(); err != nil {
				return err
			}
			defer wire.Keys.Lock()

			msg, err := wire.Stream().Send(cmd.Context(), domain.ConversationID(args[0]), args[1])
			if err != nil {
				return err
			}
			fmt.Printf("sent %s\n", msg.ID)
			return nil
		},
	}
}
