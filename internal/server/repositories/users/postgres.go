package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/readease/readease/internal/common"
	"github.com/readease/readease/internal/dbx"
	"github.com/readease/readease/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CountByEmail(ctx context.Context, email string) (int64, error) {
	query :=
		`SELECT COUNT(*) FROM users
		 WHERE email = $1
		 `

	var n int64
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (email, password_hash, role_id)
		 VALUES ($1, $2, $3)
		 RETURNING id, avatar, last_access, created_at
		 `

	err := r.db.QueryRowContext(ctx, query, user.Email, user.PasswordHash, user.RoleID).
		Scan(&user.ID, &user.Avatar, &user.LastAccess, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT id, email, password_hash, role_id, avatar, last_access,
		        total_reading_time, last_reading_document_id, created_at
		 FROM users
		 WHERE email = $1
		 `

	user := &models.User{}
	var lastDoc sql.NullString
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.RoleID, &user.Avatar, &user.LastAccess,
		&user.TotalReadingSeconds, &lastDoc, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if lastDoc.Valid {
		user.LastReadingDocumentID = &lastDoc.String
	}

	return user, nil
}

func (r *PostgresRepository) UpdatePasswordByEmail(ctx context.Context, email string, passwordHash string) error {
	query :=
		`UPDATE users SET password_hash = $2
		 WHERE email = $1
		 `

	return r.execOne(ctx, query, email, passwordHash)
}

func (r *PostgresRepository) UpdateLastAccessByEmail(ctx context.Context, email string, at time.Time, elapsedSeconds int64) error {
	query :=
		`UPDATE users SET last_access = $2, total_reading_time = total_reading_time + $3
		 WHERE email = $1
		 `

	return r.execOne(ctx, query, email, at, elapsedSeconds)
}

func (r *PostgresRepository) GetLibrary(ctx context.Context, userID string) (*models.Library, error) {
	docsQuery :=
		`SELECT id, name, url, thumbnail, last_read_at FROM documents
		 WHERE user_id = $1
		 `

	rows, err := r.db.QueryContext(ctx, docsQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	lib := &models.Library{Documents: []*models.Document{}, Collections: []*models.Collection{}}

	for rows.Next() {
		d := &models.Document{}
		var lastRead sql.NullTime
		if err := rows.Scan(&d.ID, &d.Name, &d.URL, &d.Thumbnail, &lastRead); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if lastRead.Valid {
			d.LastReadAt = &lastRead.Time
		}
		lib.Documents = append(lib.Documents, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	collectionsQuery :=
		`SELECT id, name FROM collections
		 WHERE user_id = $1
		 ORDER BY name
		 `

	crows, err := r.db.QueryContext(ctx, collectionsQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer crows.Close()

	for crows.Next() {
		c := &models.Collection{}
		if err := crows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		lib.Collections = append(lib.Collections, c)
	}
	if err := crows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return lib, nil
}

// execOne runs an UPDATE that must touch exactly one user row.
func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
