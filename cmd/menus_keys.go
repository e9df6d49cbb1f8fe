package cmd

import (
	"fmt"

	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
	"github.com/PolarWolf314/lockbox/internal/keys"
	"github.com/PolarWolf314/lockbox/internal/menu"
	"github.com/PolarWolf314/lockbox/internal/persist"
	"github.com/PolarWolf314/lockbox/internal/ui"
)

// keyView is one opened key together with the keys derivable from it.
// A derivation is nil when the key does not offer it.
type keyView struct {
	menu  menu.Menu[menu.KeyAction]
	value persist.Marshaler
	bits  int

	fingerprint string

	public     func() *keys.PublicKey
	rsaPrivate func() *keys.RsaPrivateKey
	rsaPublic  func() *keys.RsaPublicKey
}

func privateKeyView(k *keys.PrivateKey) keyView {
	return keyView{
		menu:        menu.PrivateKeyMenu,
		value:       k,
		bits:        k.Bits(),
		fingerprint: k.PublicKey().Fingerprint(),
		public:      k.PublicKey,
		rsaPrivate:  k.RsaPrivateKey,
		rsaPublic:   k.RsaPublicKey,
	}
}

func publicKeyView(k *keys.PublicKey) keyView {
	return keyView{
		menu:        menu.PublicKeyMenu,
		value:       k,
		bits:        k.Bits(),
		fingerprint: k.Fingerprint(),
		public:      func() *keys.PublicKey { return k },
		rsaPublic:   k.RsaPublicKey,
	}
}

func rsaPrivateKeyView(k *keys.RsaPrivateKey) keyView {
	return keyView{
		menu:        menu.RsaPrivateKeyMenu,
		value:       k,
		bits:        k.Bits(),
		fingerprint: k.PublicKey().Fingerprint(),
		rsaPrivate:  func() *keys.RsaPrivateKey { return k },
		rsaPublic:   k.PublicKey,
	}
}

func rsaPublicKeyView(k *keys.RsaPublicKey) keyView {
	return keyView{
		menu:        menu.RsaPublicKeyMenu,
		value:       k,
		bits:        k.Bits(),
		fingerprint: k.Fingerprint(),
		rsaPublic:   func() *keys.RsaPublicKey { return k },
	}
}

func keysMenu(con Console) error {
	for {
		c, err := choose(con, menu.KeysMenu)
		if err != nil {
			return err
		}
		if c == menu.KeysExit {
			return nil
		}

		var v keyView
		if c == menu.KeysCreate {
			var k *keys.PrivateKey
			k, err = createPrivateKey(con)
			if err == nil {
				v = privateKeyView(k)
			}
		} else {
			v, err = openKey(con, keysMenuSource[c])
		}
		if err != nil {
			report(err)
			continue
		}
		if err := keyMenu(con, v); err != nil {
			return err
		}
	}
}

var keysMenuSource = map[menu.Keys]menu.KeySource{
	menu.KeysOpenPrivate:    menu.FromPrivateKey,
	menu.KeysOpenPublic:     menu.FromPublicKey,
	menu.KeysOpenRsaPrivate: menu.FromRsaPrivateKey,
	menu.KeysOpenRsaPublic:  menu.FromRsaPublicKey,
}

func createPrivateKey(con Console) (*keys.PrivateKey, error) {
	def := keys.DefaultKeySize
	if Config != nil {
		def = Config.Keys.DefaultBits
	}
	bits, err := askNumber(con, "Key size in bits", def, keys.MinKeySize, 16384)
	if err != nil {
		return nil, err
	}
	stop := startSpinner(fmt.Sprintf("Generating a %d-bit key...", bits))
	k, err := keys.NewPrivateKey(bits)
	stop()
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(output(), "%s Created private key %s\n", ui.Success.Sprint("✓"), ui.Highlight.Sprint(k.PublicKey().Fingerprint()))
	return k, nil
}

// openKey loads a key of the kind src names.
func openKey(con Console, src menu.KeySource) (keyView, error) {
	switch src {
	case menu.FromPrivateKey:
		k, err := readKey[keys.PrivateKey](con, "Private key path")
		if err != nil {
			return keyView{}, err
		}
		return privateKeyView(k), nil
	case menu.FromPublicKey:
		k, err := readKey[keys.PublicKey](con, "Public key path")
		if err != nil {
			return keyView{}, err
		}
		return publicKeyView(k), nil
	case menu.FromRsaPrivateKey:
		k, err := readKey[keys.RsaPrivateKey](con, "Private RSA key path")
		if err != nil {
			return keyView{}, err
		}
		return rsaPrivateKeyView(k), nil
	case menu.FromRsaPublicKey:
		k, err := readKey[keys.RsaPublicKey](con, "Public RSA key path")
		if err != nil {
			return keyView{}, err
		}
		return rsaPublicKeyView(k), nil
	default:
		return keyView{}, kerrors.ErrUserAbort
	}
}

// askKey lets the operator pick one of the sources m offers and opens it.
func askKey(con Console, m menu.Menu[menu.KeySource]) (keyView, error) {
	src, err := choose(con, m)
	if err != nil {
		return keyView{}, err
	}
	return openKey(con, src)
}

func askPublicKey(con Console) (*keys.PublicKey, error) {
	v, err := askKey(con, menu.PublicKeySourceMenu)
	if err != nil {
		return nil, err
	}
	return v.public(), nil
}

func askRsaPrivateKey(con Console) (*keys.RsaPrivateKey, error) {
	v, err := askKey(con, menu.RsaPrivateKeySourceMenu)
	if err != nil {
		return nil, err
	}
	return v.rsaPrivate(), nil
}

func askRsaPublicKey(con Console) (*keys.RsaPublicKey, error) {
	v, err := askKey(con, menu.RsaPublicKeySourceMenu)
	if err != nil {
		return nil, err
	}
	return v.rsaPublic(), nil
}

// keyMenu runs the actions of one opened key until the operator leaves.
func keyMenu(con Console, v keyView) error {
	for {
		c, err := choose(con, v.menu)
		if err != nil {
			return err
		}
		switch c {
		case menu.KeySave:
			report(saveObject(con, v.value))
		case menu.KeyPublic:
			err = keyMenu(con, publicKeyView(v.public()))
		case menu.KeyRsaPrivate:
			err = keyMenu(con, rsaPrivateKeyView(v.rsaPrivate()))
		case menu.KeyRsaPublic:
			err = keyMenu(con, rsaPublicKeyView(v.rsaPublic()))
		case menu.KeyInfo:
			fmt.Fprintf(output(), "%s: %d bits, fingerprint %s\n", v.menu.Title, v.bits, ui.Highlight.Sprint(v.fingerprint))
		case menu.KeyExit:
			return nil
		}
		if err != nil {
			return err
		}
	}
}
