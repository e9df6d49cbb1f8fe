package menu

// Main is the top-level menu.
type Main int

const (
	MainEncryptedFile Main = iota
	MainKeys
	MainSigners
	MainExit
)

var mainLabels = []string{"Encrypted File Manipulation", "Key Manipulation", "Signer List Manipulation", "Exit"}

func (c Main) String() string { return label(mainLabels, int(c)) }

var MainMenu = Menu[Main]{"lockbox", []Main{MainEncryptedFile, MainKeys, MainSigners, MainExit}}

// Open chooses between creating and opening a stored object.
type Open int

const (
	OpenCreate Open = iota
	OpenExisting
	OpenExit
)

var openLabels = []string{"Create new", "Open", "Exit"}

func (c Open) String() string { return label(openLabels, int(c)) }

var (
	ContainerOpenMenu = Menu[Open]{"Encrypted file", []Open{OpenCreate, OpenExisting, OpenExit}}
	SignersOpenMenu   = Menu[Open]{"Signer list", []Open{OpenCreate, OpenExisting, OpenExit}}
)

// Container operates on an opened container.
type Container int

const (
	ContainerAddFile Container = iota
	ContainerAddDirectory
	ContainerDecryptFile
	ContainerDecryptDirectory
	ContainerList
	ContainerDelete
	ContainerClone
	ContainerStorage
	ContainerExit
)

var containerLabels = []string{
	"Add file",
	"Add directory",
	"Decrypt file",
	"Decrypt directory",
	"List content",
	"Delete paths",
	"Clone excluding paths",
	"Storage options",
	"Exit",
}

func (c Container) String() string { return label(containerLabels, int(c)) }

var ContainerMenu = Menu[Container]{"Container", []Container{
	ContainerAddFile, ContainerAddDirectory,
	ContainerDecryptFile, ContainerDecryptDirectory,
	ContainerList, ContainerDelete, ContainerClone,
	ContainerStorage, ContainerExit,
}}

// DecryptMode picks how decrypted files are checked.
type DecryptMode int

const (
	DecryptPlain DecryptMode = iota
	DecryptVerify
	DecryptFindSigner
	DecryptExit
)

var decryptLabels = []string{"Check digest only", "Verify signature", "Find signer", "Exit"}

func (c DecryptMode) String() string { return label(decryptLabels, int(c)) }

var DecryptModeMenu = Menu[DecryptMode]{"Verification", []DecryptMode{DecryptPlain, DecryptVerify, DecryptFindSigner, DecryptExit}}

// Signing chooses whether additions are signed.
type Signing int

const (
	SigningNone Signing = iota
	SigningWithKey
	SigningExit
)

var signingLabels = []string{"Do not sign", "Sign with a private RSA key", "Exit"}

func (c Signing) String() string { return label(signingLabels, int(c)) }

var SigningMenu = Menu[Signing]{"Signing", []Signing{SigningNone, SigningWithKey, SigningExit}}

// Keys is the key manipulation entry menu.
type Keys int

const (
	KeysCreate Keys = iota
	KeysOpenPrivate
	KeysOpenPublic
	KeysOpenRsaPrivate
	KeysOpenRsaPublic
	KeysExit
)

var keysLabels = []string{
	"Create new private key",
	"Open existing private key",
	"Open existing public key",
	"Open existing private RSA key",
	"Open existing public RSA key",
	"Exit",
}

func (c Keys) String() string { return label(keysLabels, int(c)) }

var KeysMenu = Menu[Keys]{"Keys", []Keys{KeysCreate, KeysOpenPrivate, KeysOpenPublic, KeysOpenRsaPrivate, KeysOpenRsaPublic, KeysExit}}

// KeyAction is an operation on one opened key. Not every key offers every action.
type KeyAction int

const (
	KeySave KeyAction = iota
	KeyPublic
	KeyRsaPrivate
	KeyRsaPublic
	KeyInfo
	KeyExit
)

var keyActionLabels = []string{"Save to", "Get public key", "Get private RSA key", "Get public RSA key", "Show fingerprint", "Exit"}

func (c KeyAction) String() string { return label(keyActionLabels, int(c)) }

var (
	PrivateKeyMenu    = Menu[KeyAction]{"Private key", []KeyAction{KeySave, KeyPublic, KeyRsaPrivate, KeyRsaPublic, KeyInfo, KeyExit}}
	PublicKeyMenu     = Menu[KeyAction]{"Public key", []KeyAction{KeySave, KeyRsaPublic, KeyInfo, KeyExit}}
	RsaPrivateKeyMenu = Menu[KeyAction]{"Private RSA key", []KeyAction{KeySave, KeyRsaPublic, KeyInfo, KeyExit}}
	RsaPublicKeyMenu  = Menu[KeyAction]{"Public RSA key", []KeyAction{KeySave, KeyInfo, KeyExit}}
)

// KeySource names where a key is read from.
type KeySource int

const (
	FromPrivateKey KeySource = iota
	FromPublicKey
	FromRsaPrivateKey
	FromRsaPublicKey
	FromExit
)

var keySourceLabels = []string{"From private key", "From public key", "From RSA private key", "From RSA public key", "Exit"}

func (c KeySource) String() string { return label(keySourceLabels, int(c)) }

var (
	PublicKeySourceMenu     = Menu[KeySource]{"Public key source", []KeySource{FromPublicKey, FromPrivateKey, FromExit}}
	RsaPrivateKeySourceMenu = Menu[KeySource]{"Private RSA key source", []KeySource{FromRsaPrivateKey, FromPrivateKey, FromExit}}
	RsaPublicKeySourceMenu  = Menu[KeySource]{"Public RSA key source", []KeySource{FromRsaPublicKey, FromRsaPrivateKey, FromPrivateKey, FromPublicKey, FromExit}}
)

// Signers operates on an opened signer list.
type Signers int

const (
	SignersAdd Signers = iota
	SignersList
	SignersDelete
	SignersExtract
	SignersExit
)

var signersLabels = []string{"Add signer", "List signers", "Delete", "Extract signer public key", "Exit"}

func (c Signers) String() string { return label(signersLabels, int(c)) }

var SignersMenu = Menu[Signers]{"Signers", []Signers{SignersAdd, SignersList, SignersDelete, SignersExtract, SignersExit}}
