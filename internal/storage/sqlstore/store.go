// Package sqlstore persists identities and characters in a SQL database.
// SQLite, PostgreSQL and MySQL share one implementation; dialect differences
// are limited to placeholders, id generation and constraint error codes.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/mcoot/charsheets/internal/model"
	"github.com/mcoot/charsheets/internal/storage"
	"github.com/mcoot/charsheets/internal/storage/sqlstore/migrations"
)

// goose keeps its base FS and dialect in package globals
var migrateMu sync.Mutex

// Store is a SQL implementation of the storage interface
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// Ensure Store implements the interface
var _ storage.Storage = (*Store)(nil)

// Open connects to the database and verifies the connection.
// Call Migrate before first use.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("database dsn is required")
	}
	db, err := sql.Open(dialect.driverName(), dialect.dsn(dsn))
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", dialect, err)
	}

	if dialect == DialectSQLite {
		// one writer at a time; also keeps ":memory:" on a single connection
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s db: %w", dialect, err)
	}
	return NewWithDB(db, dialect), nil
}

// NewWithDB wraps an existing connection pool (useful for testing)
func NewWithDB(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// Migrate applies the embedded schema migrations for the store's dialect
func (s *Store) Migrate(ctx context.Context) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(s.dialect.gooseDialect()); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, s.db, s.dialect.migrationsDir()); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// insertID runs an INSERT and returns the generated id
func (s *Store) insertID(ctx context.Context, q querier, query string, args ...any) (int64, error) {
	if s.dialect.supportsReturning() {
		var id int64
		err := q.QueryRowContext(ctx, s.dialect.rebind(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}
	res, err := q.ExecContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Identity operations

const identityColumns = `id, username, password_hash, is_master, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row rowScanner) (*model.Identity, error) {
	var (
		identity  model.Identity
		createdAt int64
	)
	if err := row.Scan(&identity.ID, &identity.Username, &identity.PasswordHash, &identity.IsMaster, &createdAt); err != nil {
		return nil, err
	}
	identity.CreatedAt = fromMillis(createdAt)
	return &identity, nil
}

func (s *Store) SaveIdentity(ctx context.Context, identity *model.Identity) (model.IdentityID, error) {
	createdAt := identity.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	id, err := s.insertID(ctx, s.db,
		`INSERT INTO identities (username, password_hash, is_master, created_at) VALUES (?, ?, ?, ?)`,
		identity.Username, identity.PasswordHash, identity.IsMaster, toMillis(createdAt),
	)
	if err != nil {
		if s.dialect.isUniqueViolation(err) {
			return 0, model.ErrUsernameExists
		}
		return 0, fmt.Errorf("save identity: %w", err)
	}
	return model.IdentityID(id), nil
}

func (s *Store) GetIdentity(ctx context.Context, id model.IdentityID) (*model.Identity, error) {
	row := s.db.QueryRowContext(ctx,
		s.dialect.rebind(`SELECT `+identityColumns+` FROM identities WHERE id = ?`), int64(id))
	identity, err := scanIdentity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("get identity: %w", err)
	}
	return identity, nil
}

func (s *Store) ListIdentities(ctx context.Context) ([]*model.Identity, error) {
	return s.queryIdentities(ctx, `SELECT `+identityColumns+` FROM identities ORDER BY id`)
}

func (s *Store) GetMasterIdentity(ctx context.Context) (*model.Identity, error) {
	masters, err := s.queryIdentities(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE is_master ORDER BY id LIMIT 2`)
	if err != nil {
		return nil, err
	}
	switch len(masters) {
	case 0:
		return nil, model.ErrMasterNotConfigured
	case 1:
		return masters[0], nil
	default:
		return nil, model.ErrMultipleMasters
	}
}

func (s *Store) queryIdentities(ctx context.Context, query string, args ...any) ([]*model.Identity, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query identities: %w", err)
	}
	defer rows.Close()

	result := make([]*model.Identity, 0)
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		result = append(result, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return result, nil
}

// Character operations

const characterColumns = `id, name, owner_id, portrait, sheet, created_at`

func scanCharacter(row rowScanner) (*model.Character, error) {
	var (
		character model.Character
		sheet     string
		createdAt int64
	)
	if err := row.Scan(&character.ID, &character.Name, &character.OwnerID, &character.Portrait, &sheet, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(sheet), &character.Sheet); err != nil {
		return nil, fmt.Errorf("decode sheet for character %d: %w", character.ID, err)
	}
	if character.Sheet.Items == nil {
		character.Sheet.Items = []string{}
	}
	if character.Sheet.Skills == nil {
		character.Sheet.Skills = model.Skills{}
	}
	character.CreatedAt = fromMillis(createdAt)
	return &character, nil
}

func (s *Store) CreateCharacter(ctx context.Context, character *model.Character) (model.CharacterID, error) {
	sheet, err := json.Marshal(character.Sheet)
	if err != nil {
		return 0, fmt.Errorf("encode sheet: %w", err)
	}
	createdAt := character.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx,
		s.dialect.rebind(`SELECT 1 FROM identities WHERE id = ?`), int64(character.OwnerID)).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, model.ErrIdentityNotFound
		}
		return 0, fmt.Errorf("check owner: %w", err)
	}

	id, err := s.insertID(ctx, tx,
		`INSERT INTO characters (name, owner_id, portrait, sheet, created_at) VALUES (?, ?, ?, ?, ?)`,
		character.Name, int64(character.OwnerID), character.Portrait, string(sheet), toMillis(createdAt),
	)
	if err != nil {
		return 0, fmt.Errorf("insert character: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit character: %w", err)
	}
	return model.CharacterID(id), nil
}

func (s *Store) GetCharacter(ctx context.Context, id model.CharacterID) (*model.Character, error) {
	row := s.db.QueryRowContext(ctx,
		s.dialect.rebind(`SELECT `+characterColumns+` FROM characters WHERE id = ?`), int64(id))
	character, err := scanCharacter(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrCharacterNotFound
		}
		return nil, fmt.Errorf("get character: %w", err)
	}
	return character, nil
}

func (s *Store) ListCharacters(ctx context.Context) ([]*model.Character, error) {
	return s.queryCharacters(ctx, `SELECT `+characterColumns+` FROM characters ORDER BY id`)
}

func (s *Store) ListCharactersByOwner(ctx context.Context, owner model.IdentityID) ([]*model.Character, error) {
	return s.queryCharacters(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE owner_id = ? ORDER BY id`, int64(owner))
}

func (s *Store) queryCharacters(ctx context.Context, query string, args ...any) ([]*model.Character, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query characters: %w", err)
	}
	defer rows.Close()

	result := make([]*model.Character, 0)
	for rows.Next() {
		character, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan character: %w", err)
		}
		result = append(result, character)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate characters: %w", err)
	}
	return result, nil
}

func (s *Store) DeleteCharacter(ctx context.Context, id model.CharacterID) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.dialect.rebind(`DELETE FROM characters WHERE id = ?`), int64(id))
	if err != nil {
		return false, fmt.Errorf("delete character: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete character: %w", err)
	}
	return n > 0, nil
}
