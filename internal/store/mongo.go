package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	config "example.com/placefeed/internal/init"
	"example.com/placefeed/internal/models"
	_ "github.com/golang-migrate/migrate/v4/database/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps accounts, posts and comments as documents in three
// collections. Likes and comment references are updated with $addToSet/$pull.
type MongoStore struct {
	client   *mongo.Client
	accounts *mongo.Collection
	posts    *mongo.Collection
	comments *mongo.Collection
}

// NewMongo connects, applies index migrations and returns the store.
func NewMongo(ctx context.Context, cfg *config.Config) (*MongoStore, error) {
	if err := runMongoMigrations(cfg); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI).SetTimeout(cfg.MongoTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.MongoTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(cfg.MongoDatabase)
	logg.Info("store", "Connected to MongoDB (host anonymized)")
	return &MongoStore{
		client:   client,
		accounts: db.Collection("accounts"),
		posts:    db.Collection("posts"),
		comments: db.Collection("comments"),
	}, nil
}

func runMongoMigrations(cfg *config.Config) error {
	dbURL, err := mongoMigrateURL(cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return err
	}
	sourceURL := fmt.Sprintf("file://%s", filepath.Join(cfg.MigrationsDir, "mongodb"))
	return applyMigrations(sourceURL, dbURL)
}

// mongoMigrateURL puts the database name into the URI path, where the
// migrate driver expects it.
func mongoMigrateURL(uri, database string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid MONGO_URI: %w", err)
	}
	if strings.Trim(u.Path, "/") == "" {
		u.Path = "/" + database
	}
	return u.String(), nil
}

func (m *MongoStore) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.client.Disconnect(ctx); err != nil {
		logg.Error("store", "Error disconnecting MongoDB", err)
		return
	}
	logg.Info("store", "MongoDB client disconnected")
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter bson.M) (*T, error) {
	var v T
	if err := coll.FindOne(ctx, filter).Decode(&v); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

// --- Account operations ---

func (m *MongoStore) CreateAccount(ctx context.Context, a *models.Account) error {
	if _, err := m.accounts.InsertOne(ctx, a); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		logg.Error("store", "Failed to create account", err)
		return err
	}
	logg.Info("store", "Account created successfully (email anonymized)")
	return nil
}

func (m *MongoStore) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	return findOne[models.Account](ctx, m.accounts, bson.M{"_id": id})
}

func (m *MongoStore) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	return findOne[models.Account](ctx, m.accounts, bson.M{"email": email})
}

func (m *MongoStore) GetAccountSummaries(ctx context.Context, ids []string) (map[string]models.AccountSummary, error) {
	res := make(map[string]models.AccountSummary, len(ids))
	if len(ids) == 0 {
		return res, nil
	}

	opts := options.Find().SetProjection(bson.M{"username": 1, "profileImage": 1})
	cur, err := m.accounts.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		logg.Error("store", "Failed to load account summaries", err)
		return nil, err
	}
	var accounts []models.Account
	if err := cur.All(ctx, &accounts); err != nil {
		return nil, err
	}
	for i := range accounts {
		res[accounts[i].ID] = accounts[i].Summary()
	}
	return res, nil
}

func (m *MongoStore) UpdateProfile(ctx context.Context, id, username, bio, profileImage string, updatedAt time.Time) error {
	res, err := m.accounts.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"username":     username,
		"bio":          bio,
		"profileImage": profileImage,
		"updatedAt":    updatedAt,
	}})
	if err != nil {
		logg.Error("store", "Failed to update profile", err)
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Post operations ---

func (m *MongoStore) CreatePost(ctx context.Context, p *models.Post) error {
	normalizePost(p)
	if _, err := m.posts.InsertOne(ctx, p); err != nil {
		logg.Error("store", "Failed to add post", err)
		return err
	}
	logg.Info("store", "Post added to posts collection (post content anonymized)")
	return nil
}

func (m *MongoStore) GetPost(ctx context.Context, id string) (*models.Post, error) {
	p, err := findOne[models.Post](ctx, m.posts, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	normalizePost(p)
	return p, nil
}

func (m *MongoStore) ListPosts(ctx context.Context) ([]models.Post, error) {
	return m.findPosts(ctx, bson.M{})
}

func (m *MongoStore) ListPostsByOwner(ctx context.Context, ownerID string) ([]models.Post, error) {
	return m.findPosts(ctx, bson.M{"user": ownerID})
}

func (m *MongoStore) findPosts(ctx context.Context, filter bson.M) ([]models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := m.posts.Find(ctx, filter, opts)
	if err != nil {
		logg.Error("store", "Failed to list posts", err)
		return nil, err
	}
	res := []models.Post{}
	if err := cur.All(ctx, &res); err != nil {
		logg.Error("store", "Failed to decode posts", err)
		return nil, err
	}
	for i := range res {
		normalizePost(&res[i])
	}
	return res, nil
}

func (m *MongoStore) AddLike(ctx context.Context, postID, accountID string) error {
	return m.updatePost(ctx, postID, "$addToSet", "likes", accountID)
}

func (m *MongoStore) RemoveLike(ctx context.Context, postID, accountID string) error {
	return m.updatePost(ctx, postID, "$pull", "likes", accountID)
}

// AppendCommentRef uses $addToSet so a replayed append cannot duplicate the id.
func (m *MongoStore) AppendCommentRef(ctx context.Context, postID, commentID string) error {
	return m.updatePost(ctx, postID, "$addToSet", "comments", commentID)
}

func (m *MongoStore) RemoveCommentRef(ctx context.Context, postID, commentID string) error {
	return m.updatePost(ctx, postID, "$pull", "comments", commentID)
}

func (m *MongoStore) updatePost(ctx context.Context, postID, op, field, value string) error {
	res, err := m.posts.UpdateOne(ctx, bson.M{"_id": postID}, bson.M{
		op:     bson.M{field: value},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		logg.Error("store", "Failed to update post "+field, err)
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Comment operations ---

func (m *MongoStore) CreateComment(ctx context.Context, c *models.Comment) error {
	if _, err := m.comments.InsertOne(ctx, c); err != nil {
		logg.Error("store", "Failed to add comment", err)
		return err
	}
	return nil
}

func (m *MongoStore) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	return findOne[models.Comment](ctx, m.comments, bson.M{"_id": id})
}

func (m *MongoStore) GetComments(ctx context.Context, ids []string) ([]models.Comment, error) {
	if len(ids) == 0 {
		return []models.Comment{}, nil
	}
	cur, err := m.comments.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		logg.Error("store", "Failed to load comments", err)
		return nil, err
	}
	var list []models.Comment
	if err := cur.All(ctx, &list); err != nil {
		return nil, err
	}
	found := make(map[string]models.Comment, len(list))
	for _, c := range list {
		found[c.ID] = c
	}
	return orderByIDs(ids, found), nil
}

func (m *MongoStore) UpdateCommentText(ctx context.Context, id, text string, updatedAt time.Time) error {
	res, err := m.comments.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"text":      text,
		"isEdited":  true,
		"updatedAt": updatedAt,
	}})
	if err != nil {
		logg.Error("store", "Failed to edit comment", err)
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoStore) DeleteComment(ctx context.Context, id string) error {
	if _, err := m.comments.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		logg.Error("store", "Failed to delete comment", err)
		return err
	}
	return nil
}
