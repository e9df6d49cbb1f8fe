package cmd

import (
	"fmt"

	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
	"github.com/PolarWolf314/lockbox/internal/menu"
	"github.com/PolarWolf314/lockbox/internal/signers"
	"github.com/PolarWolf314/lockbox/internal/ui"
)

func signersMenu(con Console) error {
	list, err := openSigners(con)
	if err != nil {
		report(err)
		return nil
	}
	if list == nil {
		return nil
	}

	for {
		c, err := choose(con, menu.SignersMenu)
		if err != nil {
			return err
		}
		switch c {
		case menu.SignersAdd:
			report(addSigner(con, list))
		case menu.SignersList:
			printSigners(list)
		case menu.SignersDelete:
			report(deleteSigner(con, list))
		case menu.SignersExtract:
			name, err := pickSigner(con, list, "Signer to extract")
			if err != nil {
				report(err)
				continue
			}
			key, err := list.Key(name)
			if err != nil {
				report(err)
				continue
			}
			if err := keyMenu(con, rsaPublicKeyView(key)); err != nil {
				return err
			}
		case menu.SignersExit:
			return nil
		}
	}
}

// openSigners returns nil without an error when the operator leaves.
func openSigners(con Console) (*signers.List, error) {
	c, err := choose(con, menu.SignersOpenMenu)
	if err != nil {
		return nil, err
	}
	def := ""
	if Config != nil {
		def = Config.SignersPath()
	}
	switch c {
	case menu.OpenCreate:
		dir, err := askOutputPath(con, "New signer list directory", def)
		if err != nil {
			return nil, err
		}
		return signers.Create(dir)
	case menu.OpenExisting:
		dir, err := askOutputPath(con, "Signer list directory", def)
		if err != nil {
			return nil, err
		}
		return signers.Open(dir)
	default:
		return nil, nil
	}
}

func addSigner(con Console, list *signers.List) error {
	name, err := con.Input("Signer name", "", list.ValidateName)
	if err != nil {
		return err
	}
	key, err := askRsaPublicKey(con)
	if err != nil {
		return err
	}
	if err := list.Add(name, key); err != nil {
		return err
	}
	fmt.Fprintf(output(), "%s Added signer %s\n", ui.Success.Sprint("✓"), ui.Highlight.Sprint(name))
	return nil
}

func printSigners(list *signers.List) {
	if list.Len() == 0 {
		fmt.Fprintln(output(), ui.Muted.Sprint("no signers"))
		return
	}
	for name, key := range list.All() {
		fmt.Fprintf(output(), "%s %s\n", ui.Highlight.Sprint(name), ui.Muted.Sprint(key.Fingerprint()))
	}
}

func pickSigner(con Console, list *signers.List, label string) (string, error) {
	names := list.Names()
	if len(names) == 0 {
		return "", fmt.Errorf("%w: the list is empty", kerrors.ErrSignerNotFound)
	}
	i, err := con.Search(label, names)
	if err != nil {
		return "", err
	}
	return names[i], nil
}

func deleteSigner(con Console, list *signers.List) error {
	name, err := pickSigner(con, list, "Signer to delete")
	if err != nil {
		return err
	}
	ok, err := con.Confirm(fmt.Sprintf("Delete signer %s?", name), false)
	if err != nil {
		return err
	}
	if !ok {
		return kerrors.ErrUserAbort
	}
	if err := list.Delete(name); err != nil {
		return err
	}
	fmt.Fprintf(output(), "%s Deleted signer %s\n", ui.Success.Sprint("✓"), ui.Highlight.Sprint(name))
	return nil
}
