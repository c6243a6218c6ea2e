package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	appkafka "example.com/placefeed/internal/broker"
	"example.com/placefeed/internal/apperr"
	"example.com/placefeed/internal/models"
	"example.com/placefeed/internal/store"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// fakeCache is an in-memory ProfileCache.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]models.Profile
	hits    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]models.Profile)}
}

func (c *fakeCache) Get(_ context.Context, id string) (*models.Profile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	c.hits++
	return &p, true
}

func (c *fakeCache) Set(_ context.Context, id string, p *models.Profile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = *p
}

func (c *fakeCache) Delete(_ context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

type fakeTokens struct{ fail bool }

func (f fakeTokens) IssueToken(userID string) (string, time.Time, error) {
	if f.fail {
		return "", time.Time{}, errors.New("signing failed")
	}
	return "token-" + userID, time.Now().Add(time.Hour), nil
}

func newAccounts(st store.AccountStore) (*AccountService, *appkafka.MockKafka) {
	mk := &appkafka.MockKafka{}
	return NewAccountService(st, appkafka.NewPublisher(mk), fakeTokens{}, nil, bcrypt.MinCost), mk
}

func mustSignup(t *testing.T, svc *AccountService, username, email, password string) string {
	t.Helper()
	res, err := svc.Signup(context.Background(), SignupInput{Username: username, Email: email, Password: password})
	if err != nil {
		t.Fatalf("signup %s failed: %v", email, err)
	}
	return res.UserID
}

func TestSignup_StoresHashedPassword(t *testing.T) {
	st := store.NewMock()
	svc, _ := newAccounts(st)

	res, err := svc.Signup(context.Background(), SignupInput{Username: "ana", Email: "a@x.io", Password: "pw1"})
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	if res.Username != "ana" || res.Email != "a@x.io" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if _, err := uuid.Parse(res.UserID); err != nil {
		t.Fatalf("userId should be a uuid, got %q", res.UserID)
	}

	acc := st.Accounts[res.UserID]
	if acc.PasswordHash == "pw1" || acc.PasswordHash == "" {
		t.Fatalf("password must be stored hashed, got %q", acc.PasswordHash)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte("pw1")); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
}

func TestSignup_MissingFields(t *testing.T) {
	svc, _ := newAccounts(store.NewMock())
	cases := []SignupInput{
		{Email: "a@x.io", Password: "pw"},
		{Username: "ana", Password: "pw"},
		{Username: "ana", Email: "a@x.io"},
	}
	for _, in := range cases {
		_, err := svc.Signup(context.Background(), in)
		if !apperr.Is(err, apperr.KindValidation) {
			t.Errorf("%+v: expected validation error, got %v", in, err)
		}
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	st := store.NewMock()
	svc, _ := newAccounts(st)
	mustSignup(t, svc, "ana", "a@x.io", "pw1")

	_, err := svc.Signup(context.Background(), SignupInput{Username: "other", Email: "a@x.io", Password: "pw2"})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if apperr.MessageOf(err) != "Email already exists" {
		t.Fatalf("unexpected message %q", apperr.MessageOf(err))
	}
	if len(st.Accounts) != 1 {
		t.Fatalf("expected one account, got %d", len(st.Accounts))
	}
}

func TestSignup_PasswordTooLong(t *testing.T) {
	svc, _ := newAccounts(store.NewMock())
	_, err := svc.Signup(context.Background(), SignupInput{
		Username: "ana", Email: "a@x.io", Password: strings.Repeat("p", 100),
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSignup_StoreFailure(t *testing.T) {
	svc, _ := newAccounts(&store.MockStoreFail{})
	_, err := svc.Signup(context.Background(), SignupInput{Username: "ana", Email: "a@x.io", Password: "pw"})
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newAccounts(store.NewMock())
	id := mustSignup(t, svc, "ana", "a@x.io", "pw1")

	res, err := svc.Login(context.Background(), LoginInput{Email: "a@x.io", Password: "pw1"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.UserID != id || res.Token != "token-"+id {
		t.Fatalf("unexpected login result: %+v", res)
	}

	_, err = svc.Login(context.Background(), LoginInput{Email: "a@x.io", Password: "wrong"})
	if !apperr.Is(err, apperr.KindInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}

	_, err = svc.Login(context.Background(), LoginInput{Email: "nobody@x.io", Password: "pw1"})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	_, err = svc.Login(context.Background(), LoginInput{Email: "a@x.io"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLogin_WithoutIssuer(t *testing.T) {
	st := store.NewMock()
	signer, _ := newAccounts(st)
	mustSignup(t, signer, "ana", "a@x.io", "pw1")

	svc := NewAccountService(st, nil, nil, nil, bcrypt.MinCost)
	res, err := svc.Login(context.Background(), LoginInput{Email: "a@x.io", Password: "pw1"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.Token != "" {
		t.Fatalf("expected no token, got %q", res.Token)
	}
}

func TestLogin_IssuerFailure(t *testing.T) {
	st := store.NewMock()
	signer, _ := newAccounts(st)
	mustSignup(t, signer, "ana", "a@x.io", "pw1")

	svc := NewAccountService(st, nil, fakeTokens{fail: true}, nil, bcrypt.MinCost)
	_, err := svc.Login(context.Background(), LoginInput{Email: "a@x.io", Password: "pw1"})
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestGetProfile(t *testing.T) {
	svc, _ := newAccounts(store.NewMock())
	id := mustSignup(t, svc, "ana", "a@x.io", "pw1")

	p, err := svc.GetProfile(context.Background(), id)
	if err != nil {
		t.Fatalf("get profile failed: %v", err)
	}
	if p.ID != id || p.Username != "ana" || p.Email != "a@x.io" {
		t.Fatalf("unexpected profile: %+v", p)
	}

	if _, err := svc.GetProfile(context.Background(), uuid.NewString()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for unknown id, got %v", err)
	}
	if _, err := svc.GetProfile(context.Background(), "not-a-uuid"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for malformed id, got %v", err)
	}
	if _, err := svc.GetProfile(context.Background(), ""); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for empty id, got %v", err)
	}
}

func TestGetProfile_UsesCache(t *testing.T) {
	st := store.NewMock()
	cache := newFakeCache()
	svc := NewAccountService(st, nil, nil, cache, bcrypt.MinCost)
	id := mustSignup(t, svc, "ana", "a@x.io", "pw1")

	if _, err := svc.GetProfile(context.Background(), id); err != nil {
		t.Fatalf("first read failed: %v", err)
	}
	if _, ok := cache.entries[id]; !ok {
		t.Fatal("profile should be cached after a miss")
	}

	st.FailOn["GetAccount"] = true
	p, err := svc.GetProfile(context.Background(), id)
	if err != nil {
		t.Fatalf("cached read should not touch the store: %v", err)
	}
	if p.Username != "ana" || cache.hits != 1 {
		t.Fatalf("expected a cache hit, got %+v hits=%d", p, cache.hits)
	}
}

func TestUpdateProfile(t *testing.T) {
	st := store.NewMock()
	cache := newFakeCache()
	mk := &appkafka.MockKafka{}
	svc := NewAccountService(st, appkafka.NewPublisher(mk), nil, cache, bcrypt.MinCost)
	id := mustSignup(t, svc, "ana", "a@x.io", "pw1")
	if _, err := svc.GetProfile(context.Background(), id); err != nil {
		t.Fatal(err)
	}

	p, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
		AccountID: id, Username: "ana2", Bio: "hi", ProfileImage: "img.png",
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if p.Username != "ana2" || p.Bio != "hi" || p.ProfileImage != "img.png" {
		t.Fatalf("unexpected profile: %+v", p)
	}

	got, _ := svc.GetProfile(context.Background(), id)
	if got.Username != "ana2" {
		t.Fatalf("cache should reflect the update, got %+v", got)
	}

	evs := mk.Events()
	if len(evs) != 1 || evs[0].Type != appkafka.ProfileUpdated || evs[0].AccountID != id {
		t.Fatalf("expected one profile.updated event, got %+v", evs)
	}
}

func TestUpdateProfile_OverwritesAbsentFields(t *testing.T) {
	svc, _ := newAccounts(store.NewMock())
	id := mustSignup(t, svc, "ana", "a@x.io", "pw1")
	svc.UpdateProfile(context.Background(), UpdateProfileInput{AccountID: id, Username: "ana", Bio: "old bio"})

	p, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{AccountID: id, Username: "ana"})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if p.Bio != "" {
		t.Fatalf("absent bio should be cleared, got %q", p.Bio)
	}
}

func TestUpdateProfile_UnknownAccount(t *testing.T) {
	svc, _ := newAccounts(store.NewMock())
	_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{AccountID: uuid.NewString(), Username: "x"})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateProfile_PublishFailureIsIgnored(t *testing.T) {
	st := store.NewMock()
	svc := NewAccountService(st, appkafka.NewPublisher(&appkafka.MockKafkaFail{}), nil, nil, bcrypt.MinCost)
	id := mustSignup(t, svc, "ana", "a@x.io", "pw1")

	if _, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{AccountID: id, Username: "b"}); err != nil {
		t.Fatalf("publish failure must not fail the update: %v", err)
	}
}
