package service

import (
	"context"
	"errors"
	"time"

	appkafka "example.com/placefeed/internal/broker"
	"example.com/placefeed/internal/apperr"
	"example.com/placefeed/internal/models"
	"example.com/placefeed/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// ProfileCache is the read-through cache in front of GetProfile.
type ProfileCache interface {
	Get(ctx context.Context, id string) (*models.Profile, bool)
	Set(ctx context.Context, id string, p *models.Profile)
	Delete(ctx context.Context, id string)
}

// TokenIssuer signs session tokens handed out at login.
type TokenIssuer interface {
	IssueToken(userID string) (string, time.Time, error)
}

type AccountService struct {
	store      store.AccountStore
	publisher  appkafka.Publisher
	tokens     TokenIssuer
	cache      ProfileCache
	bcryptCost int
	now        func() time.Time
}

// NewAccountService wires the account operations. tokens and cache may be nil.
func NewAccountService(st store.AccountStore, pub appkafka.Publisher, tokens TokenIssuer, cache ProfileCache, bcryptCost int) *AccountService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AccountService{
		store:      st,
		publisher:  orNop(pub),
		tokens:     tokens,
		cache:      cache,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

type SignupInput struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type SignupResult struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (s *AccountService) Signup(ctx context.Context, in SignupInput) (*SignupResult, error) {
	if err := validateInput(in); err != nil {
		return nil, apperr.Validation("Email, Username, and Password are required")
	}

	if _, err := s.store.GetAccountByEmail(ctx, in.Email); err == nil {
		return nil, apperr.Conflict("Email already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Internal("Server error", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, apperr.Validation("Password must be at most 72 bytes")
		}
		return nil, apperr.Internal("Server error", err)
	}

	now := s.now().UTC()
	acc := &models.Account{
		ID:           newID(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateAccount(ctx, acc); err != nil {
		// lost a race with a concurrent signup for the same email
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("Email already exists")
		}
		return nil, apperr.Internal("Server error", err)
	}

	logg.Info("service/accounts", "Account registered with user_id="+acc.ID)
	return &SignupResult{UserID: acc.ID, Username: acc.Username, Email: acc.Email}, nil
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	UserID    string    `json:"userId"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

func (s *AccountService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if err := validateInput(in); err != nil {
		return nil, apperr.Validation("Email and Password are required")
	}

	acc, err := s.store.GetAccountByEmail(ctx, in.Email)
	if err != nil {
		return nil, storeErr(err, "User not found", "Server error")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(in.Password)); err != nil {
		logg.Info("service/accounts", "Rejected login for user_id="+acc.ID)
		return nil, apperr.InvalidCredentials("Invalid credentials")
	}

	res := &LoginResult{UserID: acc.ID}
	if s.tokens != nil {
		token, exp, err := s.tokens.IssueToken(acc.ID)
		if err != nil {
			return nil, apperr.Internal("Server error", err)
		}
		res.Token, res.ExpiresAt = token, exp
	}
	return res, nil
}

func (s *AccountService) GetProfile(ctx context.Context, accountID string) (*models.Profile, error) {
	if accountID == "" {
		return nil, apperr.Validation("userId is required")
	}
	if !validID(accountID) {
		return nil, apperr.NotFound("User not found")
	}

	if s.cache != nil {
		if p, ok := s.cache.Get(ctx, accountID); ok {
			return p, nil
		}
	}

	acc, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, storeErr(err, "User not found", "Server error")
	}

	profile := acc.Profile()
	if s.cache != nil {
		s.cache.Set(ctx, accountID, profile)
	}
	return profile, nil
}

type UpdateProfileInput struct {
	AccountID    string `json:"userId"`
	Username     string `json:"username"`
	Bio          string `json:"bio"`
	ProfileImage string `json:"profileImage"`
}

// UpdateProfile overwrites all three profile fields; absent ones become empty.
func (s *AccountService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.Profile, error) {
	if in.AccountID == "" {
		return nil, apperr.Validation("userId is required")
	}
	if !validID(in.AccountID) {
		return nil, apperr.NotFound("User not found")
	}

	if err := s.store.UpdateProfile(ctx, in.AccountID, in.Username, in.Bio, in.ProfileImage, s.now().UTC()); err != nil {
		return nil, storeErr(err, "User not found", "Server error")
	}

	acc, err := s.store.GetAccount(ctx, in.AccountID)
	if err != nil {
		return nil, storeErr(err, "User not found", "Server error")
	}

	profile := acc.Profile()
	if s.cache != nil {
		s.cache.Set(ctx, in.AccountID, profile)
	}
	publish(ctx, s.publisher, appkafka.Event{Type: appkafka.ProfileUpdated, AccountID: in.AccountID}, "service/accounts")
	return profile, nil
}
