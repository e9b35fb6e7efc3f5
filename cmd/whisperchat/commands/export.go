package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"whisperchat/internal/keyring"
)

// export <file>: wrap the locked key blob under a transport passphrase for
// manual transfer to another device.
func exportCmd() *cobra.Command {
	var transport string
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export the key as a passphrase-protected bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if transport == "" {
				return fmt.Errorf("transport passphrase required (--transport-pass)")
			}
			locked, err := wire.Keystore.LoadLockedKey()
			if err != nil {
				return err
			}
			blob, err := keyring.Export(locked, transport)
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[0], blob, 0o600); err != nil {
				return err
			}
			fmt.Printf("Exported to %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&transport, "transport-pass", "", "passphrase protecting the bundle in transit")
	return cmd
}

// import <file>: install a key bundle exported elsewhere. The key keeps its
// original passphrase.
func importCmd() *cobra.Command {
	var transport string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a key bundle exported on another device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if transport == "" {
				return fmt.Errorf("transport passphrase required (--transport-pass)")
			}
			blob, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			locked, err := keyring.Import(blob, transport)
			if err != nil {
				return err
			}
			if err := wire.Keystore.SaveLockedKey(locked); err != nil {
				return err
			}
			fmt.Println("Key imported. Unlock it with your key passphrase.")
			return nil
		},
	}
	cmd.Flags().StringVar(&transport, "transport-pass", "", "passphrase protecting the bundle in transit")
	return cmd
}
