package store

import (
	"context"
	"time"

	"example.com/placefeed/internal/models"
	"github.com/gocql/gocql"
)

const postColumns = `post_id, owner_id, caption, description, place_name, place_address,
	loc_accuracy, loc_longitude, loc_latitude, loc_altitude, loc_heading, loc_altitude_accuracy, loc_speed,
	media, likes, comments, status, created_at, updated_at`

func scanPostDest(p *models.Post) []interface{} {
	return []interface{}{
		&p.ID, &p.OwnerID, &p.Caption, &p.Description, &p.PlaceName, &p.PlaceAddress,
		&p.PlaceLocation.Accuracy, &p.PlaceLocation.Longitude, &p.PlaceLocation.Latitude,
		&p.PlaceLocation.Altitude, &p.PlaceLocation.Heading, &p.PlaceLocation.AltitudeAccuracy,
		&p.PlaceLocation.Speed,
		&p.Media, &p.Likes, &p.Comments, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	}
}

// --- Post operations ---

// CreatePost writes the post and its owner index entry in one logged batch.
func (s *Store) CreatePost(ctx context.Context, p *models.Post) error {
	loc := p.PlaceLocation
	batch := s.Session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(`
		INSERT INTO posts (`+postColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.OwnerID, p.Caption, p.Description, p.PlaceName, p.PlaceAddress,
		loc.Accuracy, loc.Longitude, loc.Latitude, loc.Altitude, loc.Heading, loc.AltitudeAccuracy, loc.Speed,
		p.Media, p.Likes, p.Comments, string(p.Status), p.CreatedAt, p.UpdatedAt,
	)
	batch.Query(`INSERT INTO posts_by_owner (owner_id, created_at, post_id) VALUES (?, ?, ?)`,
		p.OwnerID, p.CreatedAt, p.ID)

	if err := s.Session.ExecuteBatch(batch); err != nil {
		logg.Error("store", "Failed to add post", err)
		return err
	}

	logg.Info("store", "Post added to posts table (post content anonymized)")
	return nil
}

func (s *Store) GetPost(ctx context.Context, id string) (*models.Post, error) {
	var p models.Post
	err := s.Session.Query(`SELECT `+postColumns+` FROM posts WHERE post_id = ?`, id).
		WithContext(ctx).Scan(scanPostDest(&p)...)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, ErrNotFound
		}
		logg.Error("store", "Failed to query post", err)
		return nil, err
	}
	normalizePost(&p)
	return &p, nil
}

// ListPosts scans the whole posts table; Cassandra cannot order across
// partitions so sorting happens here.
func (s *Store) ListPosts(ctx context.Context) ([]models.Post, error) {
	iter := s.Session.Query(`SELECT ` + postColumns + ` FROM posts`).WithContext(ctx).Iter()

	res := []models.Post{}
	for {
		var p models.Post
		if !iter.Scan(scanPostDest(&p)...) {
			break
		}
		normalizePost(&p)
		res = append(res, p)
	}
	if err := iter.Close(); err != nil {
		logg.Error("store", "Failed to list posts", err)
		return nil, err
	}

	sortNewestFirst(res)
	return res, nil
}

func (s *Store) ListPostsByOwner(ctx context.Context, ownerID string) ([]models.Post, error) {
	iter := s.Session.Query(
		`SELECT post_id FROM posts_by_owner WHERE owner_id = ?`, ownerID,
	).WithContext(ctx).Iter()

	var ids []string
	var id string
	for iter.Scan(&id) {
		ids = append(ids, id)
	}
	if err := iter.Close(); err != nil {
		logg.Error("store", "Failed to list posts by owner", err)
		return nil, err
	}

	res := make([]models.Post, 0, len(ids))
	for _, pid := range ids {
		p, err := s.GetPost(ctx, pid)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		res = append(res, *p)
	}
	return res, nil
}

// AddLike relies on set semantics: adding a present id is a no-op.
func (s *Store) AddLike(ctx context.Context, postID, accountID string) error {
	return s.updatePostCollection(ctx,
		`UPDATE posts SET likes = likes + ?, updated_at = ? WHERE post_id = ? IF EXISTS`,
		[]string{accountID}, postID)
}

func (s *Store) RemoveLike(ctx context.Context, postID, accountID string) error {
	return s.updatePostCollection(ctx,
		`UPDATE posts SET likes = likes - ?, updated_at = ? WHERE post_id = ? IF EXISTS`,
		[]string{accountID}, postID)
}

func (s *Store) AppendCommentRef(ctx context.Context, postID, commentID string) error {
	return s.updatePostCollection(ctx,
		`UPDATE posts SET comments = comments + ?, updated_at = ? WHERE post_id = ? IF EXISTS`,
		[]string{commentID}, postID)
}

// RemoveCommentRef drops every occurrence of commentID from the list.
func (s *Store) RemoveCommentRef(ctx context.Context, postID, commentID string) error {
	return s.updatePostCollection(ctx,
		`UPDATE posts SET comments = comments - ?, updated_at = ? WHERE post_id = ? IF EXISTS`,
		[]string{commentID}, postID)
}

// updatePostCollection applies a server-side collection update; IF EXISTS keeps
// the upsert semantics of UPDATE from resurrecting unknown posts.
func (s *Store) updatePostCollection(ctx context.Context, stmt string, elems []string, postID string) error {
	applied, err := casApplied(s.Session.Query(stmt, elems, time.Now().UTC(), postID).WithContext(ctx))
	if err != nil {
		logg.Error("store", "Failed to update post collection", err)
		return err
	}
	if !applied {
		return ErrNotFound
	}
	return nil
}

// --- Comment operations ---

const commentColumns = `comment_id, owner_id, post_id, text, is_edited, created_at, updated_at`

func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	if err := s.Session.Query(`
		INSERT INTO comments (`+commentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.OwnerID, c.PostID, c.Text, c.IsEdited, c.CreatedAt, c.UpdatedAt,
	).WithContext(ctx).Exec(); err != nil {
		logg.Error("store", "Failed to add comment", err)
		return err
	}
	return nil
}

func (s *Store) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	var c models.Comment
	err := s.Session.Query(`SELECT `+commentColumns+` FROM comments WHERE comment_id = ?`, id).
		WithContext(ctx).Scan(&c.ID, &c.OwnerID, &c.PostID, &c.Text, &c.IsEdited, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, ErrNotFound
		}
		logg.Error("store", "Failed to query comment", err)
		return nil, err
	}
	return &c, nil
}

func (s *Store) GetComments(ctx context.Context, ids []string) ([]models.Comment, error) {
	if len(ids) == 0 {
		return []models.Comment{}, nil
	}

	iter := s.Session.Query(`SELECT `+commentColumns+` FROM comments WHERE comment_id IN ?`, ids).
		WithContext(ctx).Iter()

	found := make(map[string]models.Comment, len(ids))
	var c models.Comment
	for iter.Scan(&c.ID, &c.OwnerID, &c.PostID, &c.Text, &c.IsEdited, &c.CreatedAt, &c.UpdatedAt) {
		found[c.ID] = c
	}
	if err := iter.Close(); err != nil {
		logg.Error("store", "Failed to load comments", err)
		return nil, err
	}
	return orderByIDs(ids, found), nil
}

func (s *Store) UpdateCommentText(ctx context.Context, id, text string, updatedAt time.Time) error {
	applied, err := casApplied(s.Session.Query(`
		UPDATE comments SET text = ?, is_edited = true, updated_at = ?
		WHERE comment_id = ? IF EXISTS`,
		text, updatedAt, id,
	).WithContext(ctx))
	if err != nil {
		logg.Error("store", "Failed to edit comment", err)
		return err
	}
	if !applied {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteComment(ctx context.Context, id string) error {
	if err := s.Session.Query(`DELETE FROM comments WHERE comment_id = ?`, id).
		WithContext(ctx).Exec(); err != nil {
		logg.Error("store", "Failed to delete comment", err)
		return err
	}
	return nil
}
