// Package postgresstore provides the PostgreSQL implementation of the
// storage contract. Unlike the file-backed store it indexes records by their
// unique keys (phone for users, id for requests), so lookups and duplicate
// detection do not scan the collections. Schema management is done with
// goose migrations at startup.
package postgresstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/venkatnanaji21/Life-line-blood/internal/models"
)

// PostgresStore is a PostgreSQL-backed implementation of the storage
// contract. The client session lives in a single-row table.
type PostgresStore struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

type initOptions struct {
	DBPreReset bool
}

// InitOption defines a functional option for configuring store initialization.
type InitOption func(*initOptions)

// WithDBPreReset drops every table in the public schema before running
// migrations. Test setups only.
func WithDBPreReset(value bool) InitOption {
	return func(options *initOptions) {
		options.DBPreReset = value
	}
}

// New connects to PostgreSQL, runs migrations, and returns a ready store.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	migrationsDir string,
	optionsProto ...InitOption,
) (*PostgresStore, error) {
	options := &initOptions{
		DBPreReset: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	database, err := sql.Open("pgx", databaseDSN)
	if err != nil {
		return nil, err
	}

	result := &PostgresStore{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	if options.DBPreReset {
		if err := result.resetDB(ctx); err != nil {
			return nil, fmt.Errorf("error while resetting the database: %w", err)
		}
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("error while `goose.SetDialect()` calling: %w", err)
	}

	if err := goose.Up(result.database, migrationsDir); err != nil {
		return nil, fmt.Errorf("error while `goose.Up()` calling: %w", err)
	}

	return result, nil
}

// CreateUser inserts a new user record. The unique index on phone backs up
// the duplicate check the service performs before inserting.
func (store *PostgresStore) CreateUser(ctx context.Context, usr *models.User) error {
	_, err := store.database.ExecContext(
		ctx,
		`
			INSERT INTO users (id, name, phone, blood_group, role, created_at)
				VALUES ($1, $2, $3, $4, $5, $6)
		`,
		usr.ID,
		usr.Name,
		usr.Phone,
		string(usr.BloodGroup),
		string(usr.Role),
		usr.CreatedAt,
	)

	return err
}

func scanUser(row *sql.Row) (*models.User, bool, error) {
	var usr models.User
	var bloodGroup, role string
	err := row.Scan(&usr.ID, &usr.Name, &usr.Phone, &bloodGroup, &role, &usr.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	usr.BloodGroup = models.BloodGroup(bloodGroup)
	usr.Role = models.Role(role)

	return &usr, true, nil
}

// FindUserByPhone fetches the user carrying the given phone number.
func (store *PostgresStore) FindUserByPhone(ctx context.Context, phone string) (*models.User, bool, error) {
	row := store.database.QueryRowContext(
		ctx,
		`SELECT id, name, phone, blood_group, role, created_at FROM users WHERE phone = $1`,
		phone,
	)

	return scanUser(row)
}

// FindUserByID fetches the user carrying the given id.
func (store *PostgresStore) FindUserByID(ctx context.Context, id string) (*models.User, bool, error) {
	row := store.database.QueryRowContext(
		ctx,
		`SELECT id, name, phone, blood_group, role, created_at FROM users WHERE id = $1`,
		id,
	)

	return scanUser(row)
}

// UpdateUser overwrites the stored user matched by id.
func (store *PostgresStore) UpdateUser(ctx context.Context, usr *models.User) (bool, error) {
	result, err := store.database.ExecContext(
		ctx,
		`
			UPDATE users
				SET name = $2, phone = $3, blood_group = $4, role = $5
				WHERE id = $1
		`,
		usr.ID,
		usr.Name,
		usr.Phone,
		string(usr.BloodGroup),
		string(usr.Role),
	)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

// CountUsers returns the total number of registered users.
func (store *PostgresStore) CountUsers(ctx context.Context) (int64, error) {
	row := store.database.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`)
	var count int64
	err := row.Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// CountDonorsByBloodGroup counts donors carrying the given blood group.
func (store *PostgresStore) CountDonorsByBloodGroup(
	ctx context.Context,
	bloodGroup models.BloodGroup,
) (int64, error) {
	row := store.database.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM users WHERE role = 'donor' AND blood_group = $1`,
		string(bloodGroup),
	)
	var count int64
	err := row.Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// SaveSession upserts the single session row with the given user's id.
func (store *PostgresStore) SaveSession(ctx context.Context, usr *models.User) error {
	_, err := store.database.ExecContext(
		ctx,
		`
			INSERT INTO client_session (id, user_id)
				VALUES (1, $1)
				ON CONFLICT (id) DO UPDATE SET user_id = EXCLUDED.user_id
		`,
		usr.ID,
	)

	return err
}

// GetSession returns the session user, or found == false when the session
// row is absent.
func (store *PostgresStore) GetSession(ctx context.Context) (*models.User, bool, error) {
	row := store.database.QueryRowContext(
		ctx,
		`
			SELECT users.id, users.name, users.phone, users.blood_group, users.role, users.created_at
				FROM users
					JOIN client_session ON client_session.user_id = users.id
				WHERE client_session.id = 1
		`,
	)

	return scanUser(row)
}

// ClearSession deletes the session row. User records remain.
func (store *PostgresStore) ClearSession(ctx context.Context) error {
	_, err := store.database.ExecContext(ctx, `DELETE FROM client_session WHERE id = 1`)

	return err
}

// InsertRequest appends a new emergency request. Insertion order is kept by
// the seq column.
func (store *PostgresStore) InsertRequest(ctx context.Context, req *models.Request) error {
	_, err := store.database.ExecContext(
		ctx,
		`
			INSERT INTO requests
				(id, seeker_name, seeker_phone, blood_group, hospital, units, location, status, donor_id, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`,
		req.ID,
		req.SeekerName,
		req.SeekerPhone,
		string(req.BloodGroup),
		req.Hospital,
		req.Units,
		req.Location,
		string(req.Status),
		req.DonorID,
		req.Timestamp,
	)

	return err
}

func scanRequest(row *sql.Row) (*models.Request, bool, error) {
	var req models.Request
	var bloodGroup, status string
	err := row.Scan(
		&req.ID,
		&req.SeekerName,
		&req.SeekerPhone,
		&bloodGroup,
		&req.Hospital,
		&req.Units,
		&req.Location,
		&status,
		&req.DonorID,
		&req.Timestamp,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	req.BloodGroup = models.BloodGroup(bloodGroup)
	req.Status = models.RequestStatus(status)

	return &req, true, nil
}

// FindRequestByID fetches the request carrying the given id.
func (store *PostgresStore) FindRequestByID(ctx context.Context, id string) (*models.Request, bool, error) {
	row := store.database.QueryRowContext(
		ctx,
		`
			SELECT id, seeker_name, seeker_phone, blood_group, hospital, units, location, status, donor_id, created_at
				FROM requests
				WHERE id = $1
		`,
		id,
	)

	return scanRequest(row)
}

// UpdateRequest overwrites the stored request matched by id.
func (store *PostgresStore) UpdateRequest(ctx context.Context, req *models.Request) (bool, error) {
	result, err := store.database.ExecContext(
		ctx,
		`
			UPDATE requests
				SET status = $2, donor_id = $3
				WHERE id = $1
		`,
		req.ID,
		string(req.Status),
		req.DonorID,
	)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

// ListRequests returns all requests in insertion order.
func (store *PostgresStore) ListRequests(ctx context.Context) ([]models.Request, error) {
	rows, err := store.database.QueryContext(
		ctx,
		`
			SELECT id, seeker_name, seeker_phone, blood_group, hospital, units, location, status, donor_id, created_at
				FROM requests
				ORDER BY seq
		`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.Request{}
	for rows.Next() {
		var req models.Request
		var bloodGroup, status string
		err = rows.Scan(
			&req.ID,
			&req.SeekerName,
			&req.SeekerPhone,
			&bloodGroup,
			&req.Hospital,
			&req.Units,
			&req.Location,
			&status,
			&req.DonorID,
			&req.Timestamp,
		)
		if err != nil {
			return nil, err
		}
		req.BloodGroup = models.BloodGroup(bloodGroup)
		req.Status = models.RequestStatus(status)

		result = append(result, req)
	}

	err = rows.Err()
	if err != nil {
		return nil, err
	}

	return result, nil
}

// CountRequests returns the total number of stored requests.
func (store *PostgresStore) CountRequests(ctx context.Context) (int64, error) {
	row := store.database.QueryRowContext(ctx, `SELECT COUNT(*) FROM requests`)
	var count int64
	err := row.Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Ping verifies connectivity within the configured timeout.
func (store *PostgresStore) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, store.connectionTimeout)
	defer cancel()

	return store.database.PingContext(ctxWithTimeout)
}

// Close closes the database connection.
func (store *PostgresStore) Close() error {
	return store.database.Close()
}

func (store *PostgresStore) resetDB(ctx context.Context) error {
	_, err := store.database.ExecContext(
		ctx,
		`
			DO $$
			DECLARE
				r RECORD;
			BEGIN
				FOR r IN (SELECT tablename FROM pg_tables WHERE schemaname = 'public') LOOP
					EXECUTE 'DROP TABLE IF EXISTS ' || quote_ident(r.tablename) || ' CASCADE';
				END LOOP;
			END $$;
		`,
	)
	if err != nil {
		return fmt.Errorf("error while `store.database.ExecContext()` calling: %w", err)
	}

	return nil
}
