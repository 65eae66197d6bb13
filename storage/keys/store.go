package keys

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ssvlabs/validator-keysync/errs"
	"github.com/ssvlabs/validator-keysync/logging"
	"github.com/ssvlabs/validator-keysync/logging/fields"
)

const (
	columnCount        = 5
	feeRecipientColumn = "fee_recipient"
)

// Store persists encrypted validator keys in a single PostgreSQL table.
//
// The table name is configuration, but it is still quoted as an identifier in
// every statement and passed as a bind parameter wherever SQL allows it.
type Store struct {
	logger    *zap.Logger
	db        *sql.DB
	table     string
	quoted    string
	batchSize int
}

type Option func(*Store)

func WithTableName(name string) Option {
	return func(s *Store) {
		s.table = name
	}
}

func WithInsertBatchSize(size int) Option {
	return func(s *Store) {
		s.batchSize = size
	}
}

func New(logger *zap.Logger, db *sql.DB, opts ...Option) (*Store, error) {
	s := &Store{
		logger:    logger.Named(logging.NameKeyStorage),
		db:        db,
		table:     DefaultTableName,
		batchSize: DefaultInsertBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := validateTableName(s.table); err != nil {
		return nil, err
	}
	if err := validateBatchSize(s.batchSize); err != nil {
		return nil, err
	}

	s.quoted = pq.QuoteIdentifier(s.table)
	s.logger = s.logger.With(fields.Table(s.table))

	return s, nil
}

// Open connects to the database described by options and verifies the
// connection before returning.
func Open(ctx context.Context, logger *zap.Logger, options Options) (*Store, error) {
	if err := ValidateURL(options.URL); err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", options.URL)
	if err != nil {
		return nil, errs.StorageError{Op: "open", Err: err}
	}

	var opts []Option
	if options.TableName != "" {
		opts = append(opts, WithTableName(options.TableName))
	}
	if options.InsertBatchSize != 0 {
		opts = append(opts, WithInsertBatchSize(options.InsertBatchSize))
	}

	s, err := New(logger, db, opts...)
	if err != nil {
		return nil, multierr.Append(err, db.Close())
	}

	if err := s.Ping(ctx); err != nil {
		return nil, multierr.Append(err, db.Close())
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) TableName() string {
	return s.table
}

// Ping checks that the server accepts queries.
func (s *Store) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return errs.StorageError{Op: "connect", Err: fmt.Errorf("failed to connect to the database server: %w", err)}
	}
	return nil
}

// ReplaceAll drops and recreates the table and inserts records, all in one
// transaction. Readers see either the previous complete set or the new one.
func (s *Store) ReplaceAll(ctx context.Context, records []Record) (err error) {
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.StorageError{Op: "begin", Err: err}
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = multierr.Append(err, errs.StorageError{Op: "rollback", Err: rbErr})
		}
	}()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+s.quoted); err != nil {
		return errs.StorageError{Op: "drop table", Err: err}
	}

	if _, err := tx.ExecContext(ctx, s.createTableQuery()); err != nil {
		return errs.StorageError{Op: "create table", Err: err}
	}

	for offset := 0; offset < len(records); offset += s.batchSize {
		end := min(offset+s.batchSize, len(records))
		batch := records[offset:end]

		query, args := s.insertQuery(batch)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return errs.StorageError{Op: "insert", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return errs.StorageError{Op: "commit", Err: err}
	}

	s.logger.Info("replaced validator keys", fields.Count(len(records)), fields.Took(time.Since(start)))

	return nil
}

// FetchAll returns every record. Row order carries no meaning.
func (s *Store) FetchAll(ctx context.Context) ([]Record, error) {
	recipient, err := s.feeRecipientSelector(ctx)
	if err != nil {
		return nil, err
	}

	// #nosec G202 identifier is quoted
	query := "SELECT public_key, private_key, nonce, validator_index, " + recipient + " FROM " + s.quoted
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errs.StorageError{Op: "fetch all", Err: err}
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.PublicKey, &r.PrivateKey, &r.Nonce, &r.ValidatorIndex, &r.FeeRecipient); err != nil {
			return nil, errs.StorageError{Op: "fetch all", Err: err}
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.StorageError{Op: "fetch all", Err: err}
	}

	return records, nil
}

// FetchByShard returns the keys assigned to one validator_index. Tables created
// before fee recipients existed yield keys without a recipient.
func (s *Store) FetchByShard(ctx context.Context, shardID string) ([]PublicKeyWithRecipient, error) {
	recipient, err := s.feeRecipientSelector(ctx)
	if err != nil {
		return nil, err
	}

	// #nosec G202 identifier is quoted
	query := "SELECT public_key, " + recipient + " FROM " + s.quoted + " WHERE validator_index = $1 ORDER BY public_key"
	return s.queryPublicKeys(ctx, "fetch by shard", query, shardID)
}

// FetchPublicKeys returns all keys ordered by shard and public key, an order
// every replica reproduces independently.
func (s *Store) FetchPublicKeys(ctx context.Context) ([]PublicKeyWithRecipient, error) {
	recipient, err := s.feeRecipientSelector(ctx)
	if err != nil {
		return nil, err
	}

	// #nosec G202 identifier is quoted
	query := "SELECT public_key, " + recipient + " FROM " + s.quoted + " ORDER BY validator_index::bigint, public_key"
	return s.queryPublicKeys(ctx, "fetch public keys", query)
}

func (s *Store) queryPublicKeys(ctx context.Context, op, query string, args ...any) ([]PublicKeyWithRecipient, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.StorageError{Op: op, Err: err}
	}
	defer rows.Close()

	var keys []PublicKeyWithRecipient
	for rows.Next() {
		var k PublicKeyWithRecipient
		if err := rows.Scan(&k.PublicKey, &k.FeeRecipient); err != nil {
			return nil, errs.StorageError{Op: op, Err: err}
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.StorageError{Op: op, Err: err}
	}

	return keys, nil
}

// HasFeeRecipientColumn reports whether the table has the fee_recipient column.
// The table is resolved through search_path, like every other query of the store.
func (s *Store) HasFeeRecipientColumn(ctx context.Context) (bool, error) {
	const query = `SELECT EXISTS (
		SELECT 1 FROM pg_catalog.pg_attribute
		WHERE attrelid = to_regclass($1) AND attname = $2 AND attnum > 0 AND NOT attisdropped
	)`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, s.quoted, feeRecipientColumn).Scan(&exists); err != nil {
		return false, errs.StorageError{Op: "inspect schema", Err: err}
	}
	return exists, nil
}

func (s *Store) feeRecipientSelector(ctx context.Context) (string, error) {
	exists, err := s.HasFeeRecipientColumn(ctx)
	if err != nil {
		return "", err
	}
	if !exists {
		s.logger.Debug("table has no fee_recipient column, reporting keys without recipient")
		return "NULL::text AS " + feeRecipientColumn, nil
	}
	return feeRecipientColumn, nil
}

func (s *Store) createTableQuery() string {
	return "CREATE TABLE " + s.quoted + ` (
		public_key TEXT UNIQUE NOT NULL,
		private_key TEXT UNIQUE NOT NULL,
		nonce TEXT NOT NULL,
		validator_index TEXT NOT NULL,
		fee_recipient TEXT
	)`
}

func (s *Store) insertQuery(batch []Record) (string, []any) {
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(s.quoted)
	sb.WriteString(" (public_key, private_key, nonce, validator_index, fee_recipient) VALUES ")

	args := make([]any, 0, len(batch)*columnCount)
	for i, r := range batch {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for c := 0; c < columnCount; c++ {
			if c > 0 {
				sb.WriteString(", ")
			}
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(i*columnCount + c + 1))
		}
		sb.WriteByte(')')

		args = append(args, r.PublicKey, r.PrivateKey, r.Nonce, r.ValidatorIndex, r.FeeRecipient)
	}

	return sb.String(), args
}
