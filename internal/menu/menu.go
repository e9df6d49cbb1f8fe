// Package menu enumerates the commands offered by every interactive menu.
//
// Each menu is a closed set of commands of its own type. The presentation
// layer renders Labels, reads a zero-based index and turns it back into a
// command with At. The last command of every menu leaves it.
package menu

import (
	"fmt"

	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
)

// Command is one entry of a menu.
type Command interface {
	~int
	fmt.Stringer
}

// Menu is an ordered list of commands under a title.
type Menu[C Command] struct {
	Title    string
	Commands []C
}

// Labels returns the display text of every command, in order.
func (m Menu[C]) Labels() []string {
	labels := make([]string, len(m.Commands))
	for i, c := range m.Commands {
		labels[i] = c.String()
	}
	return labels
}

// At returns the command at a zero-based index.
func (m Menu[C]) At(i int) (C, error) {
	if i < 0 || i >= len(m.Commands) {
		var zero C
		return zero, fmt.Errorf("%w: choice %d of %d", kerrors.ErrOutOfRange, i, len(m.Commands))
	}
	return m.Commands[i], nil
}

// Exit returns the command that leaves the menu.
func (m Menu[C]) Exit() C {
	return m.Commands[len(m.Commands)-1]
}

func label(labels []string, i int) string {
	if i < 0 || i >= len(labels) {
		return fmt.Sprintf("command(%d)", i)
	}
	return labels[i]
}
