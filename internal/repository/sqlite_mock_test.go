package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

// TestListUsers_QueryError tests database failure propagation
func TestListUsers_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	repo := NewWithDB(db)
	mock.ExpectQuery("SELECT (.+) FROM users").WillReturnError(errors.New("disk I/O error"))

	if _, err := repo.ListUsers(context.Background()); err == nil {
		t.Error("expected error from failing query, got nil")
	}
}

// TestListUsers_ScanError tests row scanning error
func TestListUsers_ScanError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	repo := NewWithDB(db)

	// id should be an int, not a string
	rows := sqlmock.NewRows([]string{"id", "username", "email", "first_name", "last_name", "is_admin", "is_club_member"}).
		AddRow("bad-id", "mario", "m@example.com", nil, nil, false, false)
	mock.ExpectQuery("SELECT (.+) FROM users").WillReturnRows(rows)

	if _, err := repo.ListUsers(context.Background()); err == nil {
		t.Error("expected error from scan failure, got nil")
	}
}

// TestEmailsForAthlete_QueryError tests database failure propagation
func TestEmailsForAthlete_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	repo := NewWithDB(db)
	mock.ExpectQuery("SELECT DISTINCT (.+)").WillReturnError(errors.New("database is locked"))

	if _, err := repo.EmailsForAthlete(context.Background(), "93471"); err == nil {
		t.Error("expected error from failing query, got nil")
	}
}

// TestUpdateAthleteDetails_ExecError tests database failure propagation
func TestUpdateAthleteDetails_ExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	repo := NewWithDB(db)
	mock.ExpectExec("UPDATE authorized_athletes").WillReturnError(errors.New("database is locked"))

	if err := repo.UpdateAthleteDetails(context.Background(), 1, "Arco Nudo", "SM"); err == nil {
		t.Error("expected error from failing exec, got nil")
	}
}

// TestSetSetting_ExecError tests database failure propagation
func TestSetSetting_ExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	repo := NewWithDB(db)
	mock.ExpectExec("INSERT INTO settings").WillReturnError(errors.New("disk I/O error"))

	if err := repo.SetSetting(context.Background(), "k", "v"); err == nil {
		t.Error("expected error from failing exec, got nil")
	}
}
