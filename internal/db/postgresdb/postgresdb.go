// Package postgresdb provides the PostgreSQL implementation of the
// storage interface: user directory, owner-scoped photo registry and
// the revoked token set. Schema is managed with embedded goose migrations.
package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/patric-chuzhbe/cloudalbum/internal/db/postgresdb/migrations"
	"github.com/patric-chuzhbe/cloudalbum/internal/db/storage"
	"github.com/patric-chuzhbe/cloudalbum/internal/photo"
	"github.com/patric-chuzhbe/cloudalbum/internal/user"
)

const pgUniqueViolationCode = "23505"

// PostgresDB is a PostgreSQL-backed implementation of the storage interface.
type PostgresDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

// New establishes a connection to the PostgreSQL database,
// runs schema migrations, and returns a configured PostgresDB instance.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
) (*PostgresDB, error) {
	database, err := sql.Open("pgx", databaseDSN)
	if err != nil {
		return nil, err
	}

	result := newFromDB(database, connectionTimeout)

	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("error while `goose.SetDialect()` calling: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)

	if err := goose.UpContext(ctx, result.database, "."); err != nil {
		return nil, fmt.Errorf("error while `goose.UpContext()` calling: %w", err)
	}

	return result, nil
}

func newFromDB(database *sql.DB, connectionTimeout time.Duration) *PostgresDB {
	return &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode
}

// CreateUser inserts a new user record. A fresh UUID is assigned when
// the caller left the ID empty. Duplicate emails map to
// storage.ErrEmailAlreadyExists.
func (db *PostgresDB) CreateUser(ctx context.Context, usr *user.User) (string, error) {
	if usr.ID == "" {
		usr.ID = uuid.New().String()
	}

	_, err := db.database.ExecContext(
		ctx,
		`INSERT INTO users (id, email, username, password_hash) VALUES ($1, $2, $3, $4)`,
		usr.ID,
		usr.Email,
		usr.Username,
		usr.PasswordHash,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return "", storage.ErrEmailAlreadyExists
		}
		return "", fmt.Errorf("db error: %w", err)
	}

	return usr.ID, nil
}

func (db *PostgresDB) scanUser(row *sql.Row) (*user.User, error) {
	usr := &user.User{}
	err := row.Scan(&usr.ID, &usr.Email, &usr.Username, &usr.PasswordHash, &usr.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return usr, nil
}

// GetUserByID fetches a user by their UUID.
func (db *PostgresDB) GetUserByID(ctx context.Context, userID string) (*user.User, error) {
	return db.scanUser(db.database.QueryRowContext(
		ctx,
		`SELECT id, email, username, password_hash, created_at FROM users WHERE id = $1`,
		userID,
	))
}

// GetUserByEmail fetches a user by their unique email.
func (db *PostgresDB) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	return db.scanUser(db.database.QueryRowContext(
		ctx,
		`SELECT id, email, username, password_hash, created_at FROM users WHERE email = $1`,
		email,
	))
}

// GetUsers returns all registered users ordered by registration time.
func (db *PostgresDB) GetUsers(ctx context.Context) ([]*user.User, error) {
	rows, err := db.database.QueryContext(
		ctx,
		`SELECT id, email, username, password_hash, created_at FROM users ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*user.User
	for rows.Next() {
		usr := &user.User{}
		err = rows.Scan(&usr.ID, &usr.Email, &usr.Username, &usr.PasswordHash, &usr.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, usr)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

// PutPhoto inserts or replaces a photo keyed by (owner, id). An id
// already registered to a different owner yields storage.ErrPhotoConflict:
// the conditional upsert updates nothing for a foreign row, so no row
// comes back.
func (db *PostgresDB) PutPhoto(ctx context.Context, ownerID string, pht *photo.Photo) error {
	var takenDate sql.NullTime
	if !pht.TakenDate.IsZero() {
		takenDate = sql.NullTime{Time: pht.TakenDate, Valid: true}
	}

	row := db.database.QueryRowContext(
		ctx,
		`
			INSERT INTO photos (
				id, owner_id, filename, filesize, tags, description,
				geotag_lat, geotag_lng, taken_date,
				make, model, width, height, city, nation, address
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			ON CONFLICT (id) DO UPDATE
				SET filename = EXCLUDED.filename,
					filesize = EXCLUDED.filesize,
					tags = EXCLUDED.tags,
					description = EXCLUDED.description,
					geotag_lat = EXCLUDED.geotag_lat,
					geotag_lng = EXCLUDED.geotag_lng,
					taken_date = EXCLUDED.taken_date,
					make = EXCLUDED.make,
					model = EXCLUDED.model,
					width = EXCLUDED.width,
					height = EXCLUDED.height,
					city = EXCLUDED.city,
					nation = EXCLUDED.nation,
					address = EXCLUDED.address
				WHERE photos.owner_id = EXCLUDED.owner_id
			RETURNING created_at
		`,
		pht.ID,
		ownerID,
		pht.Filename,
		pht.FileSize,
		pht.Tags,
		pht.Desc,
		pht.GeotagLat,
		pht.GeotagLng,
		takenDate,
		pht.Make,
		pht.Model,
		pht.Width,
		pht.Height,
		pht.City,
		pht.Nation,
		pht.Address,
	)

	err := row.Scan(&pht.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrPhotoConflict
		}
		return fmt.Errorf("db error: %w", err)
	}

	pht.OwnerID = ownerID

	return nil
}

func scanPhoto(scan func(dest ...any) error) (*photo.Photo, error) {
	pht := &photo.Photo{}
	var takenDate sql.NullTime
	err := scan(
		&pht.ID,
		&pht.OwnerID,
		&pht.Filename,
		&pht.FileSize,
		&pht.Tags,
		&pht.Desc,
		&pht.GeotagLat,
		&pht.GeotagLng,
		&takenDate,
		&pht.Make,
		&pht.Model,
		&pht.Width,
		&pht.Height,
		&pht.City,
		&pht.Nation,
		&pht.Address,
		&pht.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if takenDate.Valid {
		pht.TakenDate = takenDate.Time
	}

	return pht, nil
}

const photoColumns = `id, owner_id, filename, filesize, tags, description,
	geotag_lat, geotag_lng, taken_date,
	make, model, width, height, city, nation, address, created_at`

// GetUserPhotos returns the owner's photos in insertion order.
func (db *PostgresDB) GetUserPhotos(ctx context.Context, ownerID string) ([]*photo.Photo, error) {
	rows, err := db.database.QueryContext(
		ctx,
		`SELECT `+photoColumns+` FROM photos WHERE owner_id = $1 ORDER BY created_at, id`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*photo.Photo
	for rows.Next() {
		pht, err := scanPhoto(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, pht)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

// GetPhoto returns the photo or storage.ErrPhotoNotFound when it is
// absent or owned by a different user.
func (db *PostgresDB) GetPhoto(ctx context.Context, ownerID, photoID string) (*photo.Photo, error) {
	row := db.database.QueryRowContext(
		ctx,
		`SELECT `+photoColumns+` FROM photos WHERE owner_id = $1 AND id = $2`,
		ownerID,
		photoID,
	)

	pht, err := scanPhoto(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrPhotoNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return pht, nil
}

// DeletePhoto removes the registry entry. A repeated delete reports
// storage.ErrPhotoNotFound, same as deleting a foreign photo.
func (db *PostgresDB) DeletePhoto(ctx context.Context, ownerID, photoID string) error {
	result, err := db.database.ExecContext(
		ctx,
		`DELETE FROM photos WHERE owner_id = $1 AND id = $2`,
		ownerID,
		photoID,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if affected == 0 {
		return storage.ErrPhotoNotFound
	}

	return nil
}

// RevokeToken records a signed-out token id until its expiry.
func (db *PostgresDB) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	_, err := db.database.ExecContext(
		ctx,
		`
			INSERT INTO revoked_tokens (token_id, expires_at)
				VALUES ($1, $2)
				ON CONFLICT (token_id) DO NOTHING
		`,
		tokenID,
		expiresAt,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

// IsTokenRevoked reports whether the token id was signed out.
// Expired rows are ignored so the table can be vacuumed lazily.
func (db *PostgresDB) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	row := db.database.QueryRowContext(
		ctx,
		`SELECT count(*) FROM revoked_tokens WHERE token_id = $1 AND expires_at > now()`,
		tokenID,
	)

	var count int
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return count > 0, nil
}

// Ping verifies the database connection.
func (db *PostgresDB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.database.PingContext(ctx)
}

// Close closes the underlying database handle.
func (db *PostgresDB) Close() error {
	return db.database.Close()
}
