package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
	"github.com/PolarWolf314/lockbox/internal/menu"
	"github.com/PolarWolf314/lockbox/internal/persist"
	"github.com/PolarWolf314/lockbox/internal/tree"
	"github.com/PolarWolf314/lockbox/internal/ui"
	"github.com/PolarWolf314/lockbox/internal/utils"
)

// choose shows m and returns the picked command. An interrupted prompt picks
// the menu's exit command.
func choose[C menu.Command](con Console, m menu.Menu[C]) (C, error) {
	i, err := con.Select(m.Title, m.Labels())
	if errors.Is(err, kerrors.ErrUserAbort) {
		return m.Exit(), nil
	}
	if err != nil {
		var zero C
		return zero, err
	}
	return m.At(i)
}

func askNumber(con Console, label string, def, lo, hi int) (int, error) {
	answer, err := con.Input(fmt.Sprintf("%s [%d-%d]", label, lo, hi), strconv.Itoa(def), func(s string) error {
		_, err := parseNumber(s, lo, hi)
		return err
	})
	if err != nil {
		return 0, err
	}
	return parseNumber(answer, lo, hi)
}

func parseNumber(s string, lo, hi int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", kerrors.ErrOutOfRange, s)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%w: %d is not between %d and %d", kerrors.ErrOutOfRange, n, lo, hi)
	}
	return n, nil
}

func askExistingFile(con Console, label string) (string, error) {
	return con.Input(label, "", func(s string) error {
		info, err := os.Stat(s)
		if err != nil {
			return fmt.Errorf("%w: %s", kerrors.ErrPathNotFound, s)
		}
		if !info.Mode().IsRegular() {
			return fmt.Errorf("%w: %s", kerrors.ErrNotAFile, s)
		}
		return nil
	})
}

func askExistingDirectory(con Console, label string) (string, error) {
	return con.Input(label, "", func(s string) error {
		info, err := os.Stat(s)
		if err != nil {
			return fmt.Errorf("%w: %s", kerrors.ErrPathNotFound, s)
		}
		if !info.IsDir() {
			return fmt.Errorf("%w: %s", kerrors.ErrNotADirectory, s)
		}
		return nil
	})
}

func askOutputPath(con Console, label, def string) (string, error) {
	return con.Input(label, def, func(s string) error {
		if s == "" {
			return fmt.Errorf("%w: empty path", kerrors.ErrInvalidPath)
		}
		return nil
	})
}

// askContainerPath reads a path inside the container. The root is accepted
// only when allowRoot is set.
func askContainerPath(con Console, label, def string, allowRoot bool) (string, error) {
	clean := func(s string) (string, error) {
		p, err := tree.CleanPath(s)
		if err == nil && p == "" && !allowRoot {
			return "", fmt.Errorf("%w: the root is not a file", kerrors.ErrInvalidPath)
		}
		return p, err
	}
	answer, err := con.Input(label, def, func(s string) error {
		_, err := clean(s)
		return err
	})
	if err != nil {
		return "", err
	}
	return clean(answer)
}

// prepareDestination makes sure nothing is in the way at path. An existing
// file or directory is deleted once the operator agrees.
func prepareDestination(con Console, path string) error {
	if _, err := os.Lstat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrIO, err)
	}
	ok, err := con.Confirm(fmt.Sprintf("Path %s already exists. Delete it?", path), false)
	if err != nil {
		return err
	}
	if !ok {
		return kerrors.ErrUserAbort
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrIO, err)
	}
	return nil
}

// isSameFile reports whether a and b name the same existing file.
func isSameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

// askNewPassword returns nil when the operator does not want one.
func askNewPassword(con Console) ([]byte, error) {
	protect, err := con.Confirm("Protect with a password?", true)
	if err != nil || !protect {
		return nil, err
	}
	for {
		pw, err := con.Password("Password")
		if err != nil {
			return nil, err
		}
		repeat, err := con.Password("Repeat password")
		if err != nil {
			utils.Wipe(pw)
			return nil, err
		}
		same := bytes.Equal(pw, repeat)
		utils.Wipe(repeat)
		if same && len(pw) > 0 {
			return pw, nil
		}
		utils.Wipe(pw)
		fmt.Fprintln(output(), ui.Warning.Sprint("Passwords are empty or do not match."))
		retry, err := con.Confirm("Try again?", true)
		if err != nil {
			return nil, err
		}
		if !retry {
			return nil, kerrors.ErrUserAbort
		}
	}
}

func loader(con Console) persist.Loader {
	l := persist.Loader{Prompter: con}
	if Config != nil {
		l.MaxAttempts = Config.Loader.MaxPasswordAttempts
	}
	return l
}

// readKey asks for a key file and loads it, prompting for its password if
// it has one.
func readKey[T any, PT interface {
	*T
	persist.Unmarshaler
}](con Console, label string) (PT, error) {
	path, err := askExistingFile(con, label)
	if err != nil {
		return nil, err
	}
	return persist.LoadFile[T, PT](loader(con), path)
}

// saveObject writes v to a path the operator picks.
func saveObject(con Console, v persist.Marshaler) error {
	path, err := askOutputPath(con, "Save to", "")
	if err != nil {
		return err
	}
	if err := prepareDestination(con, path); err != nil {
		return err
	}
	pw, err := askNewPassword(con)
	if err != nil {
		return err
	}
	defer utils.Wipe(pw)
	if err := persist.SaveFile(path, v, pw); err != nil {
		return err
	}
	fmt.Fprintf(output(), "%s Saved to %s\n", ui.Success.Sprint("✓"), ui.Path.Sprint(path))
	return nil
}

// report prints a failed operation. Aborts are silent.
func report(err error) {
	if err == nil || errors.Is(err, kerrors.ErrUserAbort) {
		return
	}
	printError(err)
}

func printError(err error) {
	fmt.Fprintf(errOutput(), "%s %v\n", ui.Error.Sprint("✗"), err)
}

func output() io.Writer    { return RootCmd.OutOrStdout() }
func errOutput() io.Writer { return RootCmd.ErrOrStderr() }
