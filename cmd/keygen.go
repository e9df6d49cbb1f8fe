package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
	"github.com/PolarWolf314/lockbox/internal/keys"
	"github.com/PolarWolf314/lockbox/internal/persist"
	"github.com/PolarWolf314/lockbox/internal/ui"
	"github.com/PolarWolf314/lockbox/internal/utils"
)

var (
	keygenBits     int
	keygenOut      string
	keygenPublic   string
	keygenPassword bool
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a private key",
	Long: `Generates a private key and writes it to --out. With --public the matching
public key is written as well. With --password the private key is protected
by a password read from the terminal.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		bits := keygenBits
		if bits == 0 {
			bits = Config.Keys.DefaultBits
		}
		for _, path := range []string{keygenOut, keygenPublic} {
			if path == "" {
				continue
			}
			if _, err := os.Lstat(path); err == nil {
				return fmt.Errorf("%w: %s", kerrors.ErrDestinationExists, path)
			} else if !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("%w: %v", kerrors.ErrIO, err)
			}
		}

		var password []byte
		if keygenPassword {
			var err error
			password, err = askNewPassword(newPromptConsole())
			if err != nil {
				return err
			}
			defer utils.Wipe(password)
		}

		Logger.Infof("Generating a %d-bit key", bits)
		stop := startSpinner(fmt.Sprintf("Generating a %d-bit key...", bits))
		k, err := keys.NewPrivateKey(bits)
		stop()
		if err != nil {
			return err
		}

		if err := persist.SaveFile(keygenOut, k, password); err != nil {
			return err
		}
		Logger.Debugf("Saved private key to %s", keygenOut)
		if keygenPublic != "" {
			if err := persist.SaveFile(keygenPublic, k.PublicKey(), nil); err != nil {
				return err
			}
			Logger.Debugf("Saved public key to %s", keygenPublic)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s Created private key %s at %s\n",
			ui.Success.Sprint("✓"), ui.Highlight.Sprint(k.PublicKey().Fingerprint()), ui.Path.Sprint(keygenOut))
		return nil
	},
}

func init() {
	keygenCmd.Flags().IntVar(&keygenBits, "bits", 0, "key size in bits (default from the configuration)")
	keygenCmd.Flags().StringVarP(&keygenOut, "out", "o", "", "where to write the private key")
	keygenCmd.Flags().StringVar(&keygenPublic, "public", "", "where to write the public key")
	keygenCmd.Flags().BoolVar(&keygenPassword, "password", false, "protect the private key with a password")
	_ = keygenCmd.MarkFlagRequired("out")
}
