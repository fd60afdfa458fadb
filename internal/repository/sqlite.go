package repository

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/TheIgorMC/mysite/internal/models"
)

// Repository provides data access methods backed by SQLite.
type Repository struct {
	db *sql.DB
}

// New creates a new Repository and runs migrations.
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	// SQLite works best with a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		return nil, err
	}
	return repo, nil
}

// NewWithDB wraps an existing database handle, used by tests.
func NewWithDB(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// DB returns the underlying database connection (for transactions)
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Close closes the database connection
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// migrate runs database migrations
func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			email TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			first_name TEXT,
			last_name TEXT,
			is_admin BOOLEAN DEFAULT 0,
			is_club_member BOOLEAN DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS authorized_athletes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			tessera TEXT NOT NULL,
			nome TEXT,
			cognome TEXT,
			categoria TEXT,
			classe TEXT,
			added_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
			UNIQUE(user_id, tessera)
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_authorized_athletes_tessera
			ON authorized_athletes(tessera)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return err
		}
	}
	return nil
}

// isUniqueViolation detects SQLite unique constraint failures without
// depending on driver-specific error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// CreateUser inserts a new account and returns its id.
func (r *Repository) CreateUser(ctx context.Context, username, email, passwordHash, firstName, lastName string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, first_name, last_name) VALUES (?, ?, ?, ?, ?)`,
		username, email, passwordHash, firstName, lastName)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	return result.LastInsertId()
}

// GetUserByID returns one account, or ErrNotFound.
func (r *Repository) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	var u models.User
	var firstName, lastName sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, email, first_name, last_name, is_admin, is_club_member FROM users WHERE id = ?`,
		id).Scan(&u.ID, &u.Username, &u.Email, &firstName, &lastName, &u.IsAdmin, &u.IsClubMember)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.FirstName = firstName.String
	u.LastName = lastName.String
	return &u, nil
}

// GetUserByUsername returns one account plus its password hash, for the
// login flow. Returns ErrNotFound for unknown usernames.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*models.User, string, error) {
	var u models.User
	var hash string
	var firstName, lastName sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, first_name, last_name, is_admin, is_club_member FROM users WHERE username = ?`,
		username).Scan(&u.ID, &u.Username, &u.Email, &hash, &firstName, &lastName, &u.IsAdmin, &u.IsClubMember)
	if err == sql.ErrNoRows {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}
	u.FirstName = firstName.String
	u.LastName = lastName.String
	return &u, hash, nil
}

// ListUsers returns every account ordered by username.
func (r *Repository) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, username, email, first_name, last_name, is_admin, is_club_member FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		var firstName, lastName sql.NullString
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &firstName, &lastName, &u.IsAdmin, &u.IsClubMember); err != nil {
			return nil, err
		}
		u.FirstName = firstName.String
		u.LastName = lastName.String
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUserFlags sets the admin and club-member flags of an account.
func (r *Repository) UpdateUserFlags(ctx context.Context, id int, isAdmin, isClubMember bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_admin = ?, is_club_member = ? WHERE id = ?`,
		isAdmin, isClubMember, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// UpdateUserEmail changes the notification address of an account.
func (r *Repository) UpdateUserEmail(ctx context.Context, id int, email string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET email = ? WHERE id = ?`, email, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// DeleteUser removes an account. Athlete assignments cascade.
func (r *Repository) DeleteUser(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// AddAuthorizedAthlete assigns an athlete to a user and returns the
// assignment id. ErrDuplicate when the pair already exists.
func (r *Repository) AddAuthorizedAthlete(ctx context.Context, a models.AuthorizedAthlete) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO authorized_athletes (user_id, tessera, nome, cognome, categoria, classe) VALUES (?, ?, ?, ?, ?, ?)`,
		a.UserID, a.Tessera, a.Nome, a.Cognome, a.Categoria, a.Classe)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	return result.LastInsertId()
}

// ListAthletesForUser returns the athletes one user manages.
func (r *Repository) ListAthletesForUser(ctx context.Context, userID int) ([]models.AuthorizedAthlete, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, tessera, nome, cognome, categoria, classe, added_at FROM authorized_athletes WHERE user_id = ? ORDER BY cognome, nome`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAthletes(rows)
}

// ListAuthorizedAthletes returns every assignment, for the admin view.
func (r *Repository) ListAuthorizedAthletes(ctx context.Context) ([]models.AuthorizedAthlete, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, tessera, nome, cognome, categoria, classe, added_at FROM authorized_athletes ORDER BY tessera`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAthletes(rows)
}

// UpdateAthleteDetails changes the default division and class stored for
// an assignment, used to prefill competition subscriptions.
func (r *Repository) UpdateAthleteDetails(ctx context.Context, id int, categoria, classe string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE authorized_athletes SET categoria = ?, classe = ? WHERE id = ?`,
		categoria, classe, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// RemoveAuthorizedAthlete deletes an assignment.
func (r *Repository) RemoveAuthorizedAthlete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM authorized_athletes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// EmailsForAthlete returns the distinct account emails authorized to
// manage an athlete. Notification fan-out is built on this query.
func (r *Repository) EmailsForAthlete(ctx context.Context, tessera string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT u.email FROM users u
		 JOIN authorized_athletes a ON a.user_id = u.id
		 WHERE a.tessera = ? AND u.email != ''
		 ORDER BY u.email`,
		tessera)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

// UserManagesAthlete reports whether an assignment exists for the pair.
func (r *Repository) UserManagesAthlete(ctx context.Context, userID int, tessera string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM authorized_athletes WHERE user_id = ? AND tessera = ?`,
		userID, tessera).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetSetting returns one site setting, or ErrNotFound.
func (r *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetSetting inserts or replaces one site setting.
func (r *Repository) SetSetting(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	return err
}

func scanAthletes(rows *sql.Rows) ([]models.AuthorizedAthlete, error) {
	var athletes []models.AuthorizedAthlete
	for rows.Next() {
		var a models.AuthorizedAthlete
		var categoria, classe, addedAt sql.NullString
		if err := rows.Scan(&a.ID, &a.UserID, &a.Tessera, &a.Nome, &a.Cognome, &categoria, &classe, &addedAt); err != nil {
			return nil, err
		}
		a.Categoria = categoria.String
		a.Classe = classe.String
		a.AddedAt = addedAt.String
		athletes = append(athletes, a)
	}
	return athletes, rows.Err()
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Ensure Repository implements Store.
var _ Store = (*Repository)(nil)
