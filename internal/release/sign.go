package release

import (
	"errors"
	"fmt"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/google/renameio/v2"
)

// EnvSignPassphrase holds the passphrase for an encrypted signing key.
const EnvSignPassphrase = "PWVKPNO_SIGN_PASSPHRASE"

// LoadSigner reads the first private key from an armored key file and
// decrypts it with the passphrase from EnvSignPassphrase when needed.
func LoadSigner(keyPath string) (*openpgp.Entity, error) {
	//nolint:gosec // G304: key path is operator supplied
	f, err := os.Open(keyPath)
	if err != nil {
		return nil, fmt.Errorf("open signing key: %w", err)
	}
	defer func() { _ = f.Close() }()

	ring, err := openpgp.ReadArmoredKeyRing(f)
	if err != nil {
		return nil, fmt.Errorf("read signing key: %w", err)
	}
	for _, e := range ring {
		if e.PrivateKey == nil {
			continue
		}
		if err := decryptEntity(e, os.Getenv(EnvSignPassphrase)); err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, errors.New("signing key file contains no private key")
}

func decryptEntity(e *openpgp.Entity, passphrase string) error {
	if e.PrivateKey.Encrypted {
		if passphrase == "" {
			return fmt.Errorf("signing key is encrypted; set %s", EnvSignPassphrase)
		}
		if err := e.PrivateKey.Decrypt([]byte(passphrase)); err != nil {
			return fmt.Errorf("decrypt signing key: %w", err)
		}
	}
	for _, sk := range e.Subkeys {
		if sk.PrivateKey != nil && sk.PrivateKey.Encrypted {
			if err := sk.PrivateKey.Decrypt([]byte(passphrase)); err != nil {
				return fmt.Errorf("decrypt signing subkey: %w", err)
			}
		}
	}
	return nil
}

// SignArtifacts writes an armored detached signature (<artifact>.asc) for
// every artifact and records its path on the artifact.
func SignArtifacts(keyPath string, arts []Artifact) error {
	signer, err := LoadSigner(keyPath)
	if err != nil {
		return err
	}
	for i := range arts {
		sigPath, err := signFile(signer, arts[i].Path)
		if err != nil {
			return err
		}
		arts[i].Signature = sigPath
	}
	return nil
}

func signFile(signer *openpgp.Entity, path string) (string, error) {
	//nolint:gosec // G304: path comes from listing the dist directory
	in, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = in.Close() }()

	sigPath := path + ".asc"
	out, err := renameio.NewPendingFile(sigPath, renameio.WithPermissions(0o644))
	if err != nil {
		return "", fmt.Errorf("create signature: %w", err)
	}
	defer func() { _ = out.Cleanup() }()

	if err := openpgp.ArmoredDetachSign(out, signer, in, nil); err != nil {
		return "", fmt.Errorf("sign %s: %w", path, err)
	}
	if err := out.CloseAtomicallyReplace(); err != nil {
		return "", fmt.Errorf("write signature: %w", err)
	}
	return sigPath, nil
}
