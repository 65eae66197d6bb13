// Package distribution selects the keys each signer replica serves and keeps
// the replica's validator client configuration in sync with the key store.
package distribution

//go:generate mockgen -package=distribution -destination=./mocks.go -source=./coordinator.go

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/moby/sys/atomicwriter"
	"go.uber.org/zap"

	"github.com/ssvlabs/validator-keysync/errs"
	"github.com/ssvlabs/validator-keysync/logging"
	"github.com/ssvlabs/validator-keysync/logging/fields"
	"github.com/ssvlabs/validator-keysync/storage/keys"
)

const (
	outputDirPerm = 0o755
	artifactPerm  = 0o644
)

// KeyReader is the read side of the key store.
type KeyReader interface {
	FetchPublicKeys(ctx context.Context) ([]keys.PublicKeyWithRecipient, error)
	FetchByShard(ctx context.Context, shardID string) ([]keys.PublicKeyWithRecipient, error)
}

type Config struct {
	OutputDir        string
	Web3SignerURL    string
	DefaultRecipient common.Address
	TotalReplicas    int
	ReplicaIndex     int
	// ByShard serves the keys stored under validator_index == ReplicaIndex
	// instead of a computed range of all keys.
	ByShard bool
}

func (c Config) validate() error {
	if c.OutputDir == "" {
		return errs.NewConfigurationError("output dir", "must not be empty")
	}
	if err := ValidateWeb3SignerURL(c.Web3SignerURL); err != nil {
		return err
	}
	if c.TotalReplicas < 1 {
		return errs.NewConfigurationError("total validators", "must be at least 1, got %d", c.TotalReplicas)
	}
	if c.ReplicaIndex < 0 || c.ReplicaIndex >= c.TotalReplicas {
		return errs.NewConfigurationError("validator index", "%d is outside [0, %d)", c.ReplicaIndex, c.TotalReplicas)
	}
	return nil
}

// Result describes what a sync did.
type Result struct {
	Changed  bool
	KeyCount int
}

type fileWriter func(filename string, data []byte, perm os.FileMode) error

type Coordinator struct {
	logger    *zap.Logger
	reader    KeyReader
	config    Config
	writeFile fileWriter
}

type Option func(*Coordinator)

// WithFileWriter replaces the atomic file writer.
func WithFileWriter(w func(filename string, data []byte, perm os.FileMode) error) Option {
	return func(c *Coordinator) {
		c.writeFile = w
	}
}

func NewCoordinator(logger *zap.Logger, reader KeyReader, config Config, opts ...Option) (*Coordinator, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	c := &Coordinator{
		logger: logger.Named(logging.NameSyncCoordinator).With(
			fields.ReplicaIndex(config.ReplicaIndex),
			fields.TotalReplicas(config.TotalReplicas)),
		reader:    reader,
		config:    config,
		writeFile: atomicwriter.WriteFile,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Sync fetches this replica's keys and rewrites the configuration files when
// the set of keys differs from the one currently on disk. An unchanged set
// results in no writes at all.
func (c *Coordinator) Sync(ctx context.Context) (*Result, error) {
	start := time.Now()

	selected, err := c.selectKeys(ctx)
	if err != nil {
		return nil, err
	}

	wanted := make([]string, 0, len(selected))
	for _, k := range selected {
		wanted = append(wanted, k.PublicKey)
	}

	current, err := c.currentKeys()
	if err != nil {
		return nil, err
	}

	if KeysEqual(wanted, current) {
		c.logger.Info("keys already synced to the last version", fields.Count(len(wanted)))
		return &Result{Changed: false, KeyCount: len(wanted)}, nil
	}

	artifacts, err := RenderArtifacts(selected, c.config.Web3SignerURL, c.config.DefaultRecipient)
	if err != nil {
		return nil, err
	}

	if err := c.writeArtifacts(artifacts); err != nil {
		return nil, err
	}

	c.logger.Info("validator configuration updated",
		fields.Count(len(wanted)),
		fields.Directory(c.config.OutputDir),
		fields.Took(time.Since(start)))

	return &Result{Changed: true, KeyCount: len(wanted)}, nil
}

func (c *Coordinator) selectKeys(ctx context.Context) ([]keys.PublicKeyWithRecipient, error) {
	if c.config.ByShard {
		shardKeys, err := c.reader.FetchByShard(ctx, strconv.Itoa(c.config.ReplicaIndex))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch shard keys: %w", err)
		}
		if len(shardKeys) == 0 {
			return nil, errs.NewConfigurationError("validator index", "shard %d holds no keys", c.config.ReplicaIndex)
		}
		return shardKeys, nil
	}

	all, err := c.reader.FetchPublicKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch public keys: %w", err)
	}

	start, end, err := SelectRange(len(all), c.config.ReplicaIndex, c.config.TotalReplicas)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("selected key range", fields.Range(start, end), fields.Count(len(all)))

	return all[start:end], nil
}

// currentKeys reads the keys of the validator definitions on disk. A missing
// or unparsable file counts as no keys.
func (c *Coordinator) currentKeys() ([]string, error) {
	data, err := os.ReadFile(filepath.Join(c.config.OutputDir, ValidatorDefinitionsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read current validator definitions: %w", err)
	}
	return ParseValidatorDefinitions(data), nil
}

// writeArtifacts replaces each file atomically. The validator definitions go
// last: they are what the next run compares against, so a run interrupted
// before them is retried in full.
func (c *Coordinator) writeArtifacts(a *Artifacts) error {
	if err := os.MkdirAll(c.config.OutputDir, outputDirPerm); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	files := []struct {
		name string
		data []byte
	}{
		{SignerKeysFile, a.SignerKeys},
		{ProposerConfigFile, a.ProposerConfig},
		{ValidatorDefinitionsFile, a.ValidatorDefinitions},
	}
	for _, f := range files {
		path := filepath.Join(c.config.OutputDir, f.name)
		if err := c.writeFile(path, f.data, artifactPerm); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.name, err)
		}
		c.logger.Debug("wrote artifact", fields.Path(path))
	}

	return nil
}
