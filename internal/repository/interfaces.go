package repository

import (
	"context"

	"github.com/TheIgorMC/mysite/internal/models"
)

// UserRepository defines account data operations
type UserRepository interface {
	CreateUser(ctx context.Context, username, email, passwordHash, firstName, lastName string) (int64, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, string, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUserFlags(ctx context.Context, id int, isAdmin, isClubMember bool) error
	UpdateUserEmail(ctx context.Context, id int, email string) error
	DeleteUser(ctx context.Context, id int) error
}

// AthleteRepository defines the user-to-athlete assignment operations
type AthleteRepository interface {
	AddAuthorizedAthlete(ctx context.Context, a models.AuthorizedAthlete) (int64, error)
	ListAthletesForUser(ctx context.Context, userID int) ([]models.AuthorizedAthlete, error)
	ListAuthorizedAthletes(ctx context.Context) ([]models.AuthorizedAthlete, error)
	UpdateAthleteDetails(ctx context.Context, id int, categoria, classe string) error
	RemoveAuthorizedAthlete(ctx context.Context, id int) error
	EmailsForAthlete(ctx context.Context, tessera string) ([]string, error)
	UserManagesAthlete(ctx context.Context, userID int, tessera string) (bool, error)
}

// SettingsRepository defines key/value site settings operations
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// Store combines all repository interfaces
type Store interface {
	UserRepository
	AthleteRepository
	SettingsRepository
	Ping(ctx context.Context) error
	Close() error
}
