package keystore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/ssvlabs/validator-keysync/errs"
	"github.com/ssvlabs/validator-keysync/logging"
	"github.com/ssvlabs/validator-keysync/logging/fields"
	"github.com/ssvlabs/validator-keysync/utils/ethaddress"
)

// KeystorePattern matches keystore files produced by the staking deposit CLI.
const KeystorePattern = "keystore*.json"

// Ingestor collects and decrypts the keystores of a key directory.
//
// Keystores directly inside the root have no fee recipient. Keystores inside a
// first-level subdirectory named after an execution layer address use that
// address as fee recipient. Nothing deeper is visited.
type Ingestor struct {
	logger    *zap.Logger
	passwords PasswordProvider
	decrypter Decrypter
}

type Option func(*Ingestor)

// WithDecrypter replaces the EIP-2335 decrypter.
func WithDecrypter(d Decrypter) Option {
	return func(i *Ingestor) {
		i.decrypter = d
	}
}

func NewIngestor(logger *zap.Logger, passwords PasswordProvider, opts ...Option) *Ingestor {
	i := &Ingestor{
		logger:    logger.Named(logging.NameKeyIngestor),
		passwords: passwords,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.decrypter == nil {
		i.decrypter = NewDecrypter()
	}
	return i
}

// KeyDir is one directory of keystores sharing a password and fee recipient.
type KeyDir struct {
	Path         string
	FeeRecipient *common.Address
	Files        []string
}

// Scan lists the keystore directories under root in a reproducible order: the
// root first, then address subdirectories by name, files sorted by name.
func (i *Ingestor) Scan(root string) ([]KeyDir, error) {
	rootFiles, err := keystoreFiles(root)
	if err != nil {
		return nil, errs.NewConfigurationError("private keys dir", "%v", err)
	}

	dirs := []KeyDir{{Path: root, Files: rootFiles}}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errs.NewConfigurationError("private keys dir", "%v", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "0x") {
			continue
		}

		path := filepath.Join(root, name)
		if !isDir(path, entry) {
			continue
		}

		addr, err := ethaddress.Parse(name)
		if err != nil {
			i.logger.Debug("skipping directory that is not a fee recipient address", fields.Directory(path), zap.Error(err))
			continue
		}

		files, err := keystoreFiles(path)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", path, err)
		}

		dirs = append(dirs, KeyDir{Path: path, FeeRecipient: &addr, Files: files})
	}

	return dirs, nil
}

// Ingest decrypts every keystore under root. It either returns the complete
// key set or an error; a single undecryptable file aborts the whole run.
func (i *Ingestor) Ingest(ctx context.Context, root string) (*KeySet, error) {
	start := time.Now()

	dirs, err := i.Scan(root)
	if err != nil {
		return nil, err
	}

	keys := NewKeySet()
	for _, dir := range dirs {
		if len(dir.Files) == 0 {
			continue
		}

		logger := i.logger.With(fields.Directory(dir.Path), fields.FeeRecipient(dir.FeeRecipient))

		password, err := i.passwords.Password(ctx, dir.Path)
		if err != nil {
			return nil, fmt.Errorf("get password for %s: %w", dir.Path, err)
		}

		logger.Info("decrypting private keys", fields.Count(len(dir.Files)))

		for _, file := range dir.Files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			if err := i.ingestFile(logger, keys, file, password, dir.FeeRecipient); err != nil {
				return nil, err
			}
		}
	}

	i.logger.Info("decrypted private keys", fields.Count(keys.Len()), fields.Took(time.Since(start)))

	return keys, nil
}

func (i *Ingestor) ingestFile(logger *zap.Logger, keys *KeySet, file, password string, feeRecipient *common.Address) error {
	ks, err := LoadKeystore(file)
	if err != nil {
		return err
	}

	secret, pubKey, err := i.decrypter.Decrypt(ks, password)
	if err != nil {
		var decErr errs.DecryptionError
		if errors.As(err, &decErr) {
			return err
		}
		return errs.DecryptionError{Source: file, Err: err}
	}

	info := KeyInfo{
		PrivateKey:   new(uint256.Int).SetBytes(secret),
		FeeRecipient: feeRecipient,
	}
	if keys.Set(pubKey, info) {
		logger.Warn("duplicate public key, the last keystore wins", fields.PubKey(pubKey), fields.Path(file))
	}

	return nil
}

func keystoreFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ok, err := filepath.Match(KeystorePattern, entry.Name())
		if err != nil {
			return nil, err
		}
		if ok {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)

	return files, nil
}

func isDir(path string, entry os.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
