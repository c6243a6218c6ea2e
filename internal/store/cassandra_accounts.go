package store

import (
	"context"
	"time"

	"example.com/placefeed/internal/models"
	"github.com/gocql/gocql"
)

const accountColumns = `account_id, username, email, password_hash, bio, profile_image, created_at, updated_at`

// --- Account operations ---

// CreateAccount reserves the email with a lightweight transaction before
// writing the account row, so two signups cannot share an email.
func (s *Store) CreateAccount(ctx context.Context, a *models.Account) error {
	applied, err := casApplied(s.Session.Query(`
		INSERT INTO accounts_by_email (email, account_id)
		VALUES (?, ?) IF NOT EXISTS`,
		a.Email, a.ID,
	).WithContext(ctx))
	if err != nil {
		logg.Error("store", "Failed to reserve email", err)
		return err
	}
	if !applied {
		return ErrDuplicate
	}

	err = s.Session.Query(`
		INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Username, a.Email, a.PasswordHash, a.Bio, a.ProfileImage, a.CreatedAt, a.UpdatedAt,
	).WithContext(ctx).Exec()
	if err != nil {
		logg.Error("store", "Failed to create account in main table", err)
		// release the reservation so the email can be used again
		if delErr := s.Session.Query(`DELETE FROM accounts_by_email WHERE email = ?`, a.Email).
			WithContext(ctx).Exec(); delErr != nil {
			logg.Error("store", "Failed to release email reservation", delErr)
		}
		return err
	}

	logg.Info("store", "Account created successfully (email anonymized)")
	return nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	var a models.Account
	err := s.Session.Query(
		`SELECT `+accountColumns+` FROM accounts WHERE account_id = ?`, id,
	).WithContext(ctx).Scan(
		&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.Bio, &a.ProfileImage, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, ErrNotFound
		}
		logg.Error("store", "Failed to query account", err)
		return nil, err
	}
	return &a, nil
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var id string
	err := s.Session.Query(
		`SELECT account_id FROM accounts_by_email WHERE email = ?`, email,
	).WithContext(ctx).Scan(&id)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, ErrNotFound
		}
		logg.Error("store", "Failed to query account by email", err)
		return nil, err
	}
	return s.GetAccount(ctx, id)
}

func (s *Store) GetAccountSummaries(ctx context.Context, ids []string) (map[string]models.AccountSummary, error) {
	res := make(map[string]models.AccountSummary, len(ids))
	if len(ids) == 0 {
		return res, nil
	}

	iter := s.Session.Query(
		`SELECT account_id, username, profile_image FROM accounts WHERE account_id IN ?`, ids,
	).WithContext(ctx).Iter()

	var sum models.AccountSummary
	for iter.Scan(&sum.ID, &sum.Username, &sum.ProfileImage) {
		res[sum.ID] = sum
	}
	if err := iter.Close(); err != nil {
		logg.Error("store", "Failed to load account summaries", err)
		return nil, err
	}
	return res, nil
}

func (s *Store) UpdateProfile(ctx context.Context, id, username, bio, profileImage string, updatedAt time.Time) error {
	applied, err := casApplied(s.Session.Query(`
		UPDATE accounts SET username = ?, bio = ?, profile_image = ?, updated_at = ?
		WHERE account_id = ? IF EXISTS`,
		username, bio, profileImage, updatedAt, id,
	).WithContext(ctx))
	if err != nil {
		logg.Error("store", "Failed to update profile", err)
		return err
	}
	if !applied {
		return ErrNotFound
	}
	return nil
}

// casApplied runs a conditional statement and reports whether it was applied.
func casApplied(q *gocql.Query) (bool, error) {
	return q.MapScanCAS(make(map[string]interface{}))
}
