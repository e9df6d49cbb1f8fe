package cmd

import (
	"github.com/common-nighthawk/go-figure"

	"github.com/PolarWolf314/lockbox/internal/menu"
	"github.com/PolarWolf314/lockbox/internal/utils"
)

// runInteractive drives the nested menus until the operator exits.
func runInteractive(con Console) error {
	if utils.IsTerminal() {
		utils.ClearScreen()
		figure.NewColorFigure("lockbox", "alligator2", "green", true).Print()
	}
	for {
		c, err := choose(con, menu.MainMenu)
		if err != nil {
			return err
		}
		switch c {
		case menu.MainEncryptedFile:
			err = containerMenu(con)
		case menu.MainKeys:
			err = keysMenu(con)
		case menu.MainSigners:
			err = signersMenu(con)
		case menu.MainExit:
			return nil
		}
		if err != nil {
			return err
		}
	}
}
