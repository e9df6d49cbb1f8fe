package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"

	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
	"github.com/PolarWolf314/lockbox/internal/utils"
)

// Console is everything the interactive menus ask of the operator.
// Interrupting any prompt is reported as ErrUserAbort.
type Console interface {
	// Select returns the zero-based index of the chosen item.
	Select(label string, items []string) (int, error)

	// Search is Select with type-to-filter, for long lists such as signer names.
	Search(label string, items []string) (int, error)

	// Input reads a line. validate runs on every keystroke and the answer is
	// accepted only once it returns nil.
	Input(label, def string, validate func(string) error) (string, error)

	Password(label string) ([]byte, error)
	Confirm(label string, def bool) (bool, error)
}

type promptConsole struct{}

func newPromptConsole() Console { return promptConsole{} }

func (promptConsole) Select(label string, items []string) (int, error) {
	p := promptui.Select{Label: label, Items: items, Size: len(items)}
	i, _, err := p.Run()
	return i, promptError(err)
}

func (promptConsole) Search(label string, items []string) (int, error) {
	p := promptui.Select{
		Label: label,
		Items: items,
		Size:  min(len(items), 10),
		Searcher: func(input string, index int) bool {
			return strings.Contains(strings.ToLower(items[index]), strings.ToLower(input))
		},
		StartInSearchMode: true,
	}
	i, _, err := p.Run()
	return i, promptError(err)
}

func (promptConsole) Input(label, def string, validate func(string) error) (string, error) {
	p := promptui.Prompt{Label: label, Default: def, AllowEdit: def != "", Validate: validate}
	answer, err := p.Run()
	return strings.TrimSpace(answer), promptError(err)
}

func (promptConsole) Password(label string) ([]byte, error) {
	pw, err := utils.ReadPassphrase(label + ": ")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrIO, err)
	}
	return pw, nil
}

func (promptConsole) Confirm(label string, def bool) (bool, error) {
	p := promptui.Prompt{Label: label, IsConfirm: true}
	if def {
		p.Default = "y"
	}
	_, err := p.Run()
	if errors.Is(err, promptui.ErrAbort) {
		return false, nil
	}
	if err != nil {
		return false, promptError(err)
	}
	return true, nil
}

func promptError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, promptui.ErrInterrupt), errors.Is(err, promptui.ErrEOF), errors.Is(err, promptui.ErrAbort):
		return kerrors.ErrUserAbort
	default:
		return fmt.Errorf("%w: %v", kerrors.ErrIO, err)
	}
}
