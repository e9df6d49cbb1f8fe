package persist

import (
	"errors"
	"fmt"
	"os"

	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
)

// Prompter asks the operator for passwords and yes/no answers.
type Prompter interface {
	Password(label string) ([]byte, error)
	Confirm(label string, def bool) (bool, error)
}

// Loader restores persisted objects, prompting for a password when needed.
type Loader struct {
	Prompter Prompter

	// MaxAttempts bounds the number of password attempts. Zero means the
	// operator may retry for as long as they answer yes.
	MaxAttempts int
}

// Load decodes data into a new T.
//
// Empty data fails with ErrDataIsEmpty. Unprotected data is decoded directly
// and any failure is final. For protected data the operator is asked for a
// password; after a wrong password they are asked whether to try again and a
// "no" ends the load with ErrUserAbort (wrapping ErrWrongPassword). Any other
// decode failure is final on its first occurrence.
func Load[T any, PT interface {
	*T
	Unmarshaler
}](l Loader, data []byte) (PT, error) {
	var zero PT
	v := PT(new(T))

	protected, err := IsEncrypted(data)
	if err != nil {
		return zero, err
	}
	if !protected {
		if err := Unmarshal(data, v); err != nil {
			return zero, err
		}
		return v, nil
	}

	for attempt := 1; ; attempt++ {
		password, err := l.Prompter.Password("Password")
		if err != nil {
			return zero, err
		}
		err = UnmarshalWithPassword(data, password, v)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, kerrors.ErrWrongPassword) {
			return zero, err
		}
		if l.MaxAttempts > 0 && attempt >= l.MaxAttempts {
			return zero, err
		}
		retry, err := l.Prompter.Confirm("Wrong password. Try again?", true)
		if err != nil {
			return zero, err
		}
		if !retry {
			return zero, fmt.Errorf("%w: %w", kerrors.ErrUserAbort, kerrors.ErrWrongPassword)
		}
	}
}

// LoadFile reads path and decodes it with Load. The path must be an existing
// regular file.
func LoadFile[T any, PT interface {
	*T
	Unmarshaler
}](l Loader, path string) (PT, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrPathNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrIO, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrNotAFile, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrIO, err)
	}
	return Load[T, PT](l, data)
}

// SaveFile writes v to path, protected by password when it is non-empty.
func SaveFile(path string, v Marshaler, password []byte) error {
	var (
		data []byte
		err  error
	)
	if len(password) > 0 {
		data, err = MarshalWithPassword(v, password)
	} else {
		data, err = Marshal(v)
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("%w: couldn't save data to file: %v", kerrors.ErrIO, err)
	}
	return nil
}
