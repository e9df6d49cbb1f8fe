package cmd

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/PolarWolf314/lockbox/internal/archive"
	"github.com/PolarWolf314/lockbox/internal/batch"
	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
	"github.com/PolarWolf314/lockbox/internal/keys"
	"github.com/PolarWolf314/lockbox/internal/menu"
	"github.com/PolarWolf314/lockbox/internal/outcome"
	"github.com/PolarWolf314/lockbox/internal/session"
	"github.com/PolarWolf314/lockbox/internal/signers"
	"github.com/PolarWolf314/lockbox/internal/tree"
	"github.com/PolarWolf314/lockbox/internal/ui"
	"github.com/PolarWolf314/lockbox/internal/utils"
)

func containerMenu(con Console) error {
	s, err := openContainer(con)
	if err != nil {
		report(err)
		return nil
	}
	if s == nil {
		return nil
	}
	defer s.Close()

	if Config != nil {
		if opts, err := Config.StorageOptions(); err == nil {
			if err := s.SetStorageProfile(opts); err != nil {
				Logger.Warnf("Ignoring configured storage profile: %v", err)
			}
		}
	}

	for {
		c, err := choose(con, menu.ContainerMenu)
		if err != nil {
			return err
		}
		switch c {
		case menu.ContainerAddFile:
			err = addFile(con, s)
		case menu.ContainerAddDirectory:
			err = addDirectory(con, s)
		case menu.ContainerDecryptFile:
			err = decryptFile(con, s)
		case menu.ContainerDecryptDirectory:
			err = decryptDirectory(con, s)
		case menu.ContainerList:
			err = listContent(s)
		case menu.ContainerDelete:
			err = deletePaths(con, s)
		case menu.ContainerClone:
			err = cloneExcluding(con, s)
		case menu.ContainerStorage:
			err = storageOptions(con, s)
		case menu.ContainerExit:
			return nil
		}
		report(err)
	}
}

// openContainer returns nil without an error when the operator leaves.
func openContainer(con Console) (*session.Session, error) {
	c, err := choose(con, menu.ContainerOpenMenu)
	if err != nil {
		return nil, err
	}
	switch c {
	case menu.OpenCreate:
		path, err := askOutputPath(con, "New container path", "")
		if err != nil {
			return nil, err
		}
		if err := prepareDestination(con, path); err != nil {
			return nil, err
		}
		return session.Create(path, Logger, trail())
	case menu.OpenExisting:
		path, err := askExistingFile(con, "Container path")
		if err != nil {
			return nil, err
		}
		return session.Open(path, Logger, trail())
	default:
		return nil, nil
	}
}

// askSigner returns nil when the operator chooses not to sign.
func askSigner(con Console) (*keys.RsaPrivateKey, error) {
	c, err := choose(con, menu.SigningMenu)
	if err != nil {
		return nil, err
	}
	switch c {
	case menu.SigningNone:
		return nil, nil
	case menu.SigningWithKey:
		return askRsaPrivateKey(con)
	default:
		return nil, kerrors.ErrUserAbort
	}
}

func askMode(con Console) (outcome.Mode, error) {
	c, err := choose(con, menu.DecryptModeMenu)
	if err != nil {
		return nil, err
	}
	switch c {
	case menu.DecryptPlain:
		return outcome.Plain{}, nil
	case menu.DecryptVerify:
		k, err := askRsaPublicKey(con)
		if err != nil {
			return nil, err
		}
		return outcome.Verify{Signer: k}, nil
	case menu.DecryptFindSigner:
		def := ""
		if Config != nil {
			def = Config.SignersPath()
		}
		dir, err := askOutputPath(con, "Signer list directory", def)
		if err != nil {
			return nil, err
		}
		list, err := signers.Open(dir)
		if err != nil {
			return nil, err
		}
		return outcome.FindSigner{Signers: list}, nil
	default:
		return nil, kerrors.ErrUserAbort
	}
}

func addFile(con Console, s *session.Session) error {
	src, err := askExistingFile(con, "File to add")
	if err != nil {
		return err
	}
	dest, err := askContainerPath(con, "Path in container", filepath.Base(src), false)
	if err != nil {
		return err
	}
	recipient, err := askPublicKey(con)
	if err != nil {
		return err
	}
	signer, err := askSigner(con)
	if err != nil {
		return err
	}

	stop := startSpinner("Encrypting " + src)
	err = s.AddFileFromPath(src, dest, recipient, signer)
	stop()
	if err != nil {
		return err
	}
	fmt.Fprintf(output(), "%s Added %s as %s\n", ui.Success.Sprint("✓"), ui.Path.Sprint(src), ui.Path.Sprint(dest))
	return nil
}

func addDirectory(con Console, s *session.Session) error {
	src, err := askExistingDirectory(con, "Directory to add")
	if err != nil {
		return err
	}
	dest, err := askContainerPath(con, "Path in container (empty for root)", "", true)
	if err != nil {
		return err
	}
	recipient, err := askPublicKey(con)
	if err != nil {
		return err
	}
	signer, err := askSigner(con)
	if err != nil {
		return err
	}

	p := newProgress[string](output(), newSpinner(output(), "Encrypting"), "Encrypted", nil)
	summarize(batch.Observe(s.AddDirectory(src, dest, recipient, signer), p))
	return nil
}

// askStoredFile offers the container's files for selection.
func askStoredFile(con Console, s *session.Session) (string, error) {
	content, err := s.ListContent()
	if err != nil {
		return "", err
	}
	paths := slices.Collect(content.Paths())
	if len(paths) == 0 {
		return "", fmt.Errorf("%w: container is empty", kerrors.ErrPathNotFound)
	}
	i, err := con.Search("File to decrypt", paths)
	if err != nil {
		return "", err
	}
	return paths[i], nil
}

func decryptFile(con Console, s *session.Session) error {
	path, err := askStoredFile(con, s)
	if err != nil {
		return err
	}
	out, err := askOutputPath(con, "Decrypt to", tree.Base(path))
	if err != nil {
		return err
	}
	if err := prepareDestination(con, out); err != nil {
		return err
	}
	priv, err := readKey[keys.PrivateKey](con, "Private key path")
	if err != nil {
		return err
	}
	mode, err := askMode(con)
	if err != nil {
		return err
	}

	stop := startSpinner("Decrypting " + path)
	res := s.DecryptFileToPath(path, out, priv, mode, true)
	stop()
	fmt.Fprintf(output(), "%s %s\n", ui.Path.Sprint(path), renderOutcome(res))
	return nil
}

func decryptDirectory(con Console, s *session.Session) error {
	src, err := askContainerPath(con, "Directory in container (empty for root)", "", true)
	if err != nil {
		return err
	}
	dest, err := askOutputPath(con, "Decrypt to directory", "")
	if err != nil {
		return err
	}
	if err := prepareDestination(con, dest); err != nil {
		return err
	}
	priv, err := readKey[keys.PrivateKey](con, "Private key path")
	if err != nil {
		return err
	}
	mode, err := askMode(con)
	if err != nil {
		return err
	}

	p := newProgress(output(), newSpinner(output(), "Decrypting"), "Decrypted", renderOutcome)
	summarize(batch.Observe(s.DecryptDirectory(src, dest, priv, mode, false), p))
	return nil
}

func listContent(s *session.Session) error {
	content, err := s.ListContent()
	if err != nil {
		return err
	}
	fmt.Fprintln(output(), ui.Info.Sprint(s.Path()))
	return tree.Render(output(), content)
}

// askSelection reads glob patterns and returns the container files they match.
func askSelection(con Console, s *session.Session, label string) ([]string, error) {
	answer, err := con.Input(label, "", nil)
	if err != nil {
		return nil, err
	}
	paths, err := s.Select(utils.ParseList(answer))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: nothing matches %q", kerrors.ErrPathNotFound, answer)
	}
	fmt.Fprintf(output(), "Selected:%s", utils.FormatPaths(paths))
	return paths, nil
}

func deletePaths(con Console, s *session.Session) error {
	paths, err := askSelection(con, s, "Paths to delete (globs, comma separated)")
	if err != nil {
		return err
	}
	ok, err := con.Confirm(fmt.Sprintf("Delete %d file(s)?", len(paths)), false)
	if err != nil {
		return err
	}
	if !ok {
		return kerrors.ErrUserAbort
	}
	stop := startSpinner("Deleting")
	err = s.Delete(paths)
	stop()
	if err != nil {
		return err
	}
	fmt.Fprintf(output(), "%s Deleted %d file(s)\n", ui.Success.Sprint("✓"), len(paths))
	return nil
}

func cloneExcluding(con Console, s *session.Session) error {
	paths, err := askSelection(con, s, "Paths to leave out (globs, comma separated)")
	if err != nil {
		return err
	}
	out, err := askOutputPath(con, "Clone to", "")
	if err != nil {
		return err
	}
	if isSameFile(out, s.Path()) {
		return fmt.Errorf("%w: %s is the open container", kerrors.ErrInvalidPath, out)
	}
	if err := prepareDestination(con, out); err != nil {
		return err
	}
	stop := startSpinner("Cloning")
	err = s.CloneExcludingToPath(out, paths, true)
	stop()
	if err != nil {
		return err
	}
	fmt.Fprintf(output(), "%s Cloned to %s\n", ui.Success.Sprint("✓"), ui.Path.Sprint(out))
	return nil
}

func storageOptions(con Console, s *session.Session) error {
	current := s.StorageProfile()
	fmt.Fprintf(output(), "Current storage profile: %s\n", ui.Highlight.Sprint(current))

	labels := make([]string, len(archive.Methods))
	for i, m := range archive.Methods {
		labels[i] = m.String()
	}
	i, err := con.Select("Compression method", labels)
	if err != nil {
		return err
	}
	opts := archive.FileOptions{Method: archive.Methods[i]}

	if lo, hi, ok := opts.Method.LevelRange(); ok {
		def := max(lo, 0)
		if current.Method == opts.Method && current.Level != nil {
			def = *current.Level
		}
		level, err := askNumber(con, "Compression level", def, lo, hi)
		if err != nil {
			return err
		}
		opts.Level = &level
	}

	large, err := con.Confirm(fmt.Sprintf("Allow files of %s or more?", utils.HumanSize(archive.LargeFileThreshold)), current.LargeFile)
	if err != nil {
		return err
	}
	opts.LargeFile = large

	if err := s.SetStorageProfile(opts); err != nil {
		return err
	}
	fmt.Fprintf(output(), "%s Storage profile set to %s\n", ui.Success.Sprint("✓"), ui.Highlight.Sprint(opts))
	return nil
}
