package menu

import (
	"errors"
	"slices"
	"testing"

	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
)

func TestMainMenu(t *testing.T) {
	want := []string{"Encrypted File Manipulation", "Key Manipulation", "Signer List Manipulation", "Exit"}
	if got := MainMenu.Labels(); !slices.Equal(got, want) {
		t.Errorf("Labels = %v", got)
	}
	for i, c := range MainMenu.Commands {
		got, err := MainMenu.At(i)
		if err != nil || got != c {
			t.Errorf("At(%d) = %v, %v", i, got, err)
		}
	}
	for _, i := range []int{-1, len(MainMenu.Commands)} {
		if _, err := MainMenu.At(i); !errors.Is(err, kerrors.ErrOutOfRange) {
			t.Errorf("At(%d): expected ErrOutOfRange, got %v", i, err)
		}
	}
}

// exitLast checks that a menu ends with its exit command.
func exitLast[C Command](t *testing.T, m Menu[C]) {
	t.Helper()
	if len(m.Commands) < 2 {
		t.Fatalf("%s: menu too short", m.Title)
	}
	if got := m.Exit().String(); got != "Exit" {
		t.Errorf("%s: last command is %q", m.Title, got)
	}
	labels := m.Labels()
	for i, l := range labels[:len(labels)-1] {
		if l == "Exit" {
			t.Errorf("%s: Exit at position %d", m.Title, i)
		}
	}
}

func TestEveryMenuEndsWithExit(t *testing.T) {
	exitLast(t, MainMenu)
	exitLast(t, ContainerOpenMenu)
	exitLast(t, SignersOpenMenu)
	exitLast(t, ContainerMenu)
	exitLast(t, DecryptModeMenu)
	exitLast(t, SigningMenu)
	exitLast(t, KeysMenu)
	exitLast(t, PrivateKeyMenu)
	exitLast(t, PublicKeyMenu)
	exitLast(t, RsaPrivateKeyMenu)
	exitLast(t, RsaPublicKeyMenu)
	exitLast(t, PublicKeySourceMenu)
	exitLast(t, RsaPrivateKeySourceMenu)
	exitLast(t, RsaPublicKeySourceMenu)
	exitLast(t, SignersMenu)
}

func TestDerivationMenusFollowKeyHierarchy(t *testing.T) {
	if slices.Contains(PublicKeyMenu.Commands, KeyRsaPrivate) {
		t.Errorf("a public key cannot yield a private RSA key")
	}
	if slices.Contains(RsaPublicKeyMenu.Commands, KeyRsaPublic) || slices.Contains(RsaPublicKeyMenu.Commands, KeyPublic) {
		t.Errorf("a public RSA key derives nothing")
	}
	if !slices.Contains(RsaPrivateKeyMenu.Commands, KeyRsaPublic) {
		t.Errorf("a private RSA key yields its public half")
	}
}

func TestUnknownCommandString(t *testing.T) {
	if got := Main(42).String(); got != "command(42)" {
		t.Errorf("String = %q", got)
	}
}
