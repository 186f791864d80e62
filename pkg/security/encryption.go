package security

import (
	"bitwise74/docs-api/internal/apperr"
	"bitwise74/docs-api/pkg/util"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"filippo.io/age"
)

// Encrypter encrypts blobs at rest with the key of the user owning them. It
// never looks at who is asking, callers always pass the owner's key
type Encrypter struct {
	// Directory DecryptFile materializes plaintext in
	tempDir string
}

func NewEncrypter(tempDir string) *Encrypter {
	if tempDir == "" {
		tempDir = os.TempDir()
	}

	return &Encrypter{tempDir: tempDir}
}

// GenerateKey returns a new private key to be stored with a user
func GenerateKey() (string, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return "", fmt.Errorf("failed to generate user key, %w", err)
	}

	return identity.String(), nil
}

func parseKey(ownerKey string) (*age.X25519Identity, error) {
	if ownerKey == "" {
		return nil, fmt.Errorf("missing owner key: %w", apperr.ErrTransient)
	}

	identity, err := age.ParseX25519Identity(ownerKey)
	if err != nil {
		return nil, fmt.Errorf("invalid owner key, %w: %w", apperr.ErrTransient, err)
	}

	return identity, nil
}

// Encrypt writes plain encrypted to dest. Ciphertext is staged next to dest
// and renamed into place only once everything was written, a failed call
// leaves nothing behind
func (e *Encrypter) Encrypt(plain io.Reader, ownerKey, dest string) (err error) {
	identity, err := parseKey(ownerKey)
	if err != nil {
		return err
	}

	staging := filepath.Join(filepath.Dir(dest), "."+filepath.Base(dest)+"."+util.RandStr(8)+".staging")

	f, err := os.OpenFile(staging, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create staging file, %w: %w", apperr.ErrTransient, err)
	}

	defer func() {
		if err != nil {
			f.Close()
			os.Remove(staging)
		}
	}()

	w, err := age.Encrypt(f, identity.Recipient())
	if err != nil {
		return fmt.Errorf("failed to start encryption, %w: %w", apperr.ErrTransient, err)
	}

	if _, err = io.Copy(w, plain); err != nil {
		return fmt.Errorf("failed to encrypt data, %w: %w", apperr.ErrTransient, err)
	}

	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to finish encryption, %w: %w", apperr.ErrTransient, err)
	}

	if err = f.Sync(); err != nil {
		return fmt.Errorf("failed to flush ciphertext, %w: %w", apperr.ErrTransient, err)
	}

	if err = f.Close(); err != nil {
		return fmt.Errorf("failed to close ciphertext, %w: %w", apperr.ErrTransient, err)
	}

	if err = os.Rename(staging, dest); err != nil {
		return fmt.Errorf("failed to move ciphertext into place, %w: %w", apperr.ErrTransient, err)
	}

	return nil
}

// EncryptFile encrypts the file at plainPath to dest
func (e *Encrypter) EncryptFile(plainPath, ownerKey, dest string) error {
	f, err := os.Open(plainPath)
	if err != nil {
		return fmt.Errorf("failed to open plaintext, %w: %w", apperr.ErrTransient, err)
	}
	defer f.Close()

	return e.Encrypt(f, ownerKey, dest)
}

type decryptingReader struct {
	io.Reader
	io.Closer
}

// DecryptStream wraps stored with a lazy decrypting reader. Closing the
// result closes stored. stored is closed as well if an error is returned
func (e *Encrypter) DecryptStream(stored io.ReadCloser, ownerKey string) (io.ReadCloser, error) {
	identity, err := parseKey(ownerKey)
	if err != nil {
		stored.Close()
		return nil, err
	}

	r, err := age.Decrypt(stored, identity)
	if err != nil {
		stored.Close()
		return nil, fmt.Errorf("failed to decrypt, %w: %w", apperr.ErrTransient, err)
	}

	return decryptingReader{Reader: r, Closer: stored}, nil
}

// OpenStream opens a stored blob and returns its plaintext stream
func (e *Encrypter) OpenStream(storedPath, ownerKey string) (io.ReadCloser, error) {
	f, err := os.Open(storedPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("blob missing, %w: %w", apperr.ErrTransient, err)
		}
		return nil, fmt.Errorf("failed to open blob, %w: %w", apperr.ErrTransient, err)
	}

	return e.DecryptStream(f, ownerKey)
}

// DecryptFile writes the plaintext of a stored blob to a new temp file and
// returns its path. The caller owns the file and has to remove it
func (e *Encrypter) DecryptFile(storedPath, ownerKey string) (p string, err error) {
	r, err := e.OpenStream(storedPath, ownerKey)
	if err != nil {
		return "", err
	}
	defer r.Close()

	out, err := os.CreateTemp(e.tempDir, "plain-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file, %w: %w", apperr.ErrTransient, err)
	}

	defer func() {
		out.Close()
		if err != nil {
			os.Remove(out.Name())
		}
	}()

	if _, err = io.Copy(out, r); err != nil {
		return "", fmt.Errorf("failed to decrypt, %w: %w", apperr.ErrTransient, err)
	}

	return out.Name(), nil
}
