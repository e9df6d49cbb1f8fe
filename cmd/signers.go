package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/lockbox/internal/signers"
)

var signersCmd = &cobra.Command{
	Use:   "signers",
	Short: "Inspect signer lists",
}

var signersListCmd = &cobra.Command{
	Use:   "list [dir]",
	Short: "Print the signers of a list with their key fingerprints",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := Config.SignersPath()
		if len(args) == 1 {
			dir = args[0]
		}
		Logger.Debugf("Opening signer list %s", dir)
		list, err := signers.Open(dir)
		if err != nil {
			return err
		}
		for name, key := range list.All() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, key.Fingerprint())
		}
		Logger.Infof("%d signer(s) in %s", list.Len(), dir)
		return nil
	},
}

func init() {
	signersCmd.AddCommand(signersListCmd)
}
