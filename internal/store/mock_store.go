package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"example.com/placefeed/internal/models"
)

// MockStore simulates the document store in memory for testing.
type MockStore struct {
	mu       sync.Mutex
	Accounts map[string]models.Account
	Posts    map[string]models.Post
	Comments map[string]models.Comment
	// FailOn makes the named operation (e.g. "AppendCommentRef") return an error.
	FailOn map[string]bool
}

// NewMock initializes a new mock store
func NewMock() *MockStore {
	return &MockStore{
		Accounts: make(map[string]models.Account),
		Posts:    make(map[string]models.Post),
		Comments: make(map[string]models.Comment),
		FailOn:   make(map[string]bool),
	}
}

func (m *MockStore) Close() {}

func (m *MockStore) fail(op string) error {
	if m.FailOn[op] {
		return errors.New("mock: " + op + " failed")
	}
	return nil
}

// --- Accounts ---

func (m *MockStore) CreateAccount(_ context.Context, a *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateAccount"); err != nil {
		return err
	}
	for _, existing := range m.Accounts {
		if existing.Email == a.Email {
			return ErrDuplicate
		}
	}
	m.Accounts[a.ID] = *a
	return nil
}

func (m *MockStore) GetAccount(_ context.Context, id string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("GetAccount"); err != nil {
		return nil, err
	}
	a, ok := m.Accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (m *MockStore) GetAccountByEmail(_ context.Context, email string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("GetAccountByEmail"); err != nil {
		return nil, err
	}
	for _, a := range m.Accounts {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MockStore) GetAccountSummaries(_ context.Context, ids []string) (map[string]models.AccountSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("GetAccountSummaries"); err != nil {
		return nil, err
	}
	res := make(map[string]models.AccountSummary, len(ids))
	for _, id := range ids {
		if a, ok := m.Accounts[id]; ok {
			res[id] = a.Summary()
		}
	}
	return res, nil
}

func (m *MockStore) UpdateProfile(_ context.Context, id, username, bio, profileImage string, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdateProfile"); err != nil {
		return err
	}
	a, ok := m.Accounts[id]
	if !ok {
		return ErrNotFound
	}
	a.Username, a.Bio, a.ProfileImage, a.UpdatedAt = username, bio, profileImage, updatedAt
	m.Accounts[id] = a
	return nil
}

// --- Posts ---

func (m *MockStore) CreatePost(_ context.Context, p *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreatePost"); err != nil {
		return err
	}
	cp := clonePost(*p)
	normalizePost(&cp)
	m.Posts[p.ID] = cp
	return nil
}

func (m *MockStore) GetPost(_ context.Context, id string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("GetPost"); err != nil {
		return nil, err
	}
	p, ok := m.Posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := clonePost(p)
	return &cp, nil
}

func (m *MockStore) ListPosts(_ context.Context) ([]models.Post, error) {
	return m.listPosts(func(models.Post) bool { return true })
}

func (m *MockStore) ListPostsByOwner(_ context.Context, ownerID string) ([]models.Post, error) {
	return m.listPosts(func(p models.Post) bool { return p.OwnerID == ownerID })
}

func (m *MockStore) listPosts(keep func(models.Post) bool) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListPosts"); err != nil {
		return nil, err
	}
	res := []models.Post{}
	for _, p := range m.Posts {
		if keep(p) {
			res = append(res, clonePost(p))
		}
	}
	sortNewestFirst(res)
	return res, nil
}

func (m *MockStore) AddLike(_ context.Context, postID, accountID string) error {
	return m.mutatePost("AddLike", postID, func(p *models.Post) {
		if !p.LikedBy(accountID) {
			p.Likes = append(p.Likes, accountID)
		}
	})
}

func (m *MockStore) RemoveLike(_ context.Context, postID, accountID string) error {
	return m.mutatePost("RemoveLike", postID, func(p *models.Post) {
		p.Likes = without(p.Likes, accountID)
	})
}

func (m *MockStore) AppendCommentRef(_ context.Context, postID, commentID string) error {
	return m.mutatePost("AppendCommentRef", postID, func(p *models.Post) {
		p.Comments = append(p.Comments, commentID)
	})
}

func (m *MockStore) RemoveCommentRef(_ context.Context, postID, commentID string) error {
	return m.mutatePost("RemoveCommentRef", postID, func(p *models.Post) {
		p.Comments = without(p.Comments, commentID)
	})
}

func (m *MockStore) mutatePost(op, postID string, fn func(p *models.Post)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(op); err != nil {
		return err
	}
	p, ok := m.Posts[postID]
	if !ok {
		return ErrNotFound
	}
	fn(&p)
	p.UpdatedAt = time.Now().UTC()
	m.Posts[postID] = p
	return nil
}

// --- Comments ---

func (m *MockStore) CreateComment(_ context.Context, c *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateComment"); err != nil {
		return err
	}
	m.Comments[c.ID] = *c
	return nil
}

func (m *MockStore) GetComment(_ context.Context, id string) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("GetComment"); err != nil {
		return nil, err
	}
	c, ok := m.Comments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *MockStore) GetComments(_ context.Context, ids []string) ([]models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("GetComments"); err != nil {
		return nil, err
	}
	return orderByIDs(ids, m.Comments), nil
}

func (m *MockStore) UpdateCommentText(_ context.Context, id, text string, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdateCommentText"); err != nil {
		return err
	}
	c, ok := m.Comments[id]
	if !ok {
		return ErrNotFound
	}
	c.Text, c.IsEdited, c.UpdatedAt = text, true, updatedAt
	m.Comments[id] = c
	return nil
}

func (m *MockStore) DeleteComment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeleteComment"); err != nil {
		return err
	}
	delete(m.Comments, id)
	return nil
}

func clonePost(p models.Post) models.Post {
	p.Likes = append([]string{}, p.Likes...)
	p.Comments = append([]string{}, p.Comments...)
	return p
}

func without(ids []string, drop string) []string {
	res := ids[:0:0]
	for _, id := range ids {
		if id != drop {
			res = append(res, id)
		}
	}
	return res
}

// ---------------------------------------------
// MockStoreFail always returns errors for negative tests
type MockStoreFail struct{}

var errMockFail = errors.New("mock store failed")

func (m *MockStoreFail) Close() {}

func (m *MockStoreFail) CreateAccount(context.Context, *models.Account) error { return errMockFail }
func (m *MockStoreFail) GetAccount(context.Context, string) (*models.Account, error) {
	return nil, errMockFail
}
func (m *MockStoreFail) GetAccountByEmail(context.Context, string) (*models.Account, error) {
	return nil, errMockFail
}
func (m *MockStoreFail) GetAccountSummaries(context.Context, []string) (map[string]models.AccountSummary, error) {
	return nil, errMockFail
}
func (m *MockStoreFail) UpdateProfile(context.Context, string, string, string, string, time.Time) error {
	return errMockFail
}
func (m *MockStoreFail) CreatePost(context.Context, *models.Post) error { return errMockFail }
func (m *MockStoreFail) GetPost(context.Context, string) (*models.Post, error) {
	return nil, errMockFail
}
func (m *MockStoreFail) ListPosts(context.Context) ([]models.Post, error) { return nil, errMockFail }
func (m *MockStoreFail) ListPostsByOwner(context.Context, string) ([]models.Post, error) {
	return nil, errMockFail
}
func (m *MockStoreFail) AddLike(context.Context, string, string) error          { return errMockFail }
func (m *MockStoreFail) RemoveLike(context.Context, string, string) error       { return errMockFail }
func (m *MockStoreFail) AppendCommentRef(context.Context, string, string) error { return errMockFail }
func (m *MockStoreFail) RemoveCommentRef(context.Context, string, string) error { return errMockFail }
func (m *MockStoreFail) CreateComment(context.Context, *models.Comment) error   { return errMockFail }
func (m *MockStoreFail) GetComment(context.Context, string) (*models.Comment, error) {
	return nil, errMockFail
}
func (m *MockStoreFail) GetComments(context.Context, []string) ([]models.Comment, error) {
	return nil, errMockFail
}
func (m *MockStoreFail) UpdateCommentText(context.Context, string, string, time.Time) error {
	return errMockFail
}
func (m *MockStoreFail) DeleteComment(context.Context, string) error { return errMockFail }
