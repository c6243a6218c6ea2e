package service

import (
	"context"
	"time"

	appkafka "example.com/placefeed/internal/broker"
	"example.com/placefeed/internal/apperr"
	"example.com/placefeed/internal/models"
	"example.com/placefeed/internal/store"
)

// FeedStore is the slice of the store the post and comment operations need.
type FeedStore interface {
	store.AccountStore
	store.PostStore
	store.CommentStore
}

type PostService struct {
	store     FeedStore
	publisher appkafka.Publisher
	now       func() time.Time
}

func NewPostService(st FeedStore, pub appkafka.Publisher) *PostService {
	return &PostService{store: st, publisher: orNop(pub), now: time.Now}
}

// PlaceLocationInput uses pointers so that a zero coordinate still counts as present.
type PlaceLocationInput struct {
	Accuracy         *float64 `json:"accuracy" validate:"required"`
	Longitude        *float64 `json:"longitude" validate:"required"`
	Latitude         *float64 `json:"latitude" validate:"required"`
	Altitude         *float64 `json:"altitude" validate:"required"`
	Heading          *float64 `json:"heading" validate:"required"`
	AltitudeAccuracy *float64 `json:"altitudeAccuracy" validate:"required"`
	Speed            *float64 `json:"speed" validate:"required"`
}

func (l *PlaceLocationInput) toModel() models.PlaceLocation {
	return models.PlaceLocation{
		Accuracy:         *l.Accuracy,
		Longitude:        *l.Longitude,
		Latitude:         *l.Latitude,
		Altitude:         *l.Altitude,
		Heading:          *l.Heading,
		AltitudeAccuracy: *l.AltitudeAccuracy,
		Speed:            *l.Speed,
	}
}

type AddPostInput struct {
	OwnerID       string              `json:"userId" validate:"required"`
	Caption       string              `json:"caption" validate:"required"`
	Description   string              `json:"description"`
	PlaceName     string              `json:"placeName" validate:"required"`
	PlaceAddress  string              `json:"placeAddress" validate:"required"`
	PlaceLocation *PlaceLocationInput `json:"placeLocation" validate:"required"`
	Media         string              `json:"media"`
}

func (s *PostService) AddPost(ctx context.Context, in AddPostInput) (*models.Post, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if !validID(in.OwnerID) {
		return nil, apperr.NotFound("User not found")
	}

	if _, err := s.store.GetAccount(ctx, in.OwnerID); err != nil {
		return nil, storeErr(err, "User not found", "Server error")
	}

	now := s.now().UTC()
	post := &models.Post{
		ID:            newID(),
		OwnerID:       in.OwnerID,
		Caption:       in.Caption,
		Description:   in.Description,
		PlaceName:     in.PlaceName,
		PlaceAddress:  in.PlaceAddress,
		PlaceLocation: in.PlaceLocation.toModel(),
		Media:         in.Media,
		Likes:         []string{},
		Comments:      []string{},
		Status:        models.StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreatePost(ctx, post); err != nil {
		return nil, apperr.Internal("Server error", err)
	}

	publish(ctx, s.publisher, appkafka.Event{Type: appkafka.PostCreated, PostID: post.ID, AccountID: post.OwnerID}, "service/posts")
	return post, nil
}

// GetPosts returns every post, newest first, with owner and comments expanded.
func (s *PostService) GetPosts(ctx context.Context) ([]models.PostView, error) {
	posts, err := s.store.ListPosts(ctx)
	if err != nil {
		return nil, apperr.Internal("Error fetching posts", err)
	}
	views, err := s.expand(ctx, posts)
	if err != nil {
		return nil, apperr.Internal("Error fetching posts", err)
	}
	return views, nil
}

func (s *PostService) GetPostsByUser(ctx context.Context, ownerID string) ([]models.PostView, error) {
	if ownerID == "" {
		return nil, apperr.Validation("userId is required")
	}
	if !validID(ownerID) {
		return []models.PostView{}, nil
	}

	posts, err := s.store.ListPostsByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Internal("Error fetching user's posts", err)
	}
	views, err := s.expand(ctx, posts)
	if err != nil {
		return nil, apperr.Internal("Error fetching user's posts", err)
	}
	return views, nil
}

type PostDetail struct {
	Post              models.PostView `json:"post"`
	IsCurrentUserPost bool            `json:"isCurrentUserPost"`
}

// GetPostByID expands one post. requesterID may be empty, in which case the
// post is never reported as the requester's own.
func (s *PostService) GetPostByID(ctx context.Context, postID, requesterID string) (*PostDetail, error) {
	if !validID(postID) {
		return nil, apperr.NotFound("Post not found")
	}

	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, storeErr(err, "Post not found", "Error fetching post")
	}

	views, err := s.expand(ctx, []models.Post{*post})
	if err != nil {
		return nil, apperr.Internal("Error fetching post", err)
	}

	return &PostDetail{
		Post:              views[0],
		IsCurrentUserPost: requesterID != "" && post.OwnerID == requesterID,
	}, nil
}

type LikeResult struct {
	IsLiked bool         `json:"isLiked"`
	Post    *models.Post `json:"post"`
}

// ToggleLike flips accountID's membership in the post's like set. The store
// applies set semantics, so concurrent toggles never leave a duplicate entry.
func (s *PostService) ToggleLike(ctx context.Context, postID, accountID string) (*LikeResult, error) {
	if accountID == "" {
		return nil, apperr.Validation("userId is required")
	}
	if !validID(accountID) {
		return nil, apperr.Validation("userId is invalid")
	}
	if !validID(postID) {
		return nil, apperr.NotFound("Post not found")
	}

	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, storeErr(err, "Post not found", "Error liking/disliking post")
	}

	liked := !post.LikedBy(accountID)
	evType := appkafka.PostLiked
	if liked {
		err = s.store.AddLike(ctx, postID, accountID)
	} else {
		evType = appkafka.PostUnliked
		err = s.store.RemoveLike(ctx, postID, accountID)
	}
	if err != nil {
		return nil, storeErr(err, "Post not found", "Error liking/disliking post")
	}

	updated, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, storeErr(err, "Post not found", "Error liking/disliking post")
	}

	publish(ctx, s.publisher, appkafka.Event{Type: evType, PostID: postID, AccountID: accountID}, "service/posts")
	return &LikeResult{IsLiked: liked, Post: updated}, nil
}

func (s *PostService) CheckLikeStatus(ctx context.Context, postID, accountID string) (bool, error) {
	if !validID(postID) {
		return false, apperr.NotFound("Post not found")
	}
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return false, storeErr(err, "Post not found", "Error checking like status")
	}
	return post.LikedBy(accountID), nil
}

// expand resolves owners and comments for posts with one summary lookup and
// one comment lookup. Comment refs whose document is gone are skipped.
func (s *PostService) expand(ctx context.Context, posts []models.Post) ([]models.PostView, error) {
	views := make([]models.PostView, 0, len(posts))
	if len(posts) == 0 {
		return views, nil
	}

	var commentIDs []string
	for _, p := range posts {
		commentIDs = append(commentIDs, p.Comments...)
	}
	comments, err := s.store.GetComments(ctx, commentIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Comment, len(comments))
	for _, c := range comments {
		byID[c.ID] = c
	}

	ownerSet := make(map[string]struct{})
	for _, p := range posts {
		ownerSet[p.OwnerID] = struct{}{}
	}
	for _, c := range comments {
		ownerSet[c.OwnerID] = struct{}{}
	}
	ownerIDs := make([]string, 0, len(ownerSet))
	for id := range ownerSet {
		ownerIDs = append(ownerIDs, id)
	}
	summaries, err := s.store.GetAccountSummaries(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}
	summary := func(id string) models.AccountSummary {
		if sum, ok := summaries[id]; ok {
			return sum
		}
		return models.AccountSummary{ID: id}
	}

	for _, p := range posts {
		cv := make([]models.CommentView, 0, len(p.Comments))
		for _, id := range p.Comments {
			c, ok := byID[id]
			if !ok {
				continue
			}
			cv = append(cv, models.CommentView{
				ID:        c.ID,
				User:      summary(c.OwnerID),
				PostID:    c.PostID,
				Text:      c.Text,
				IsEdited:  c.IsEdited,
				CreatedAt: c.CreatedAt,
				UpdatedAt: c.UpdatedAt,
			})
		}
		likes := p.Likes
		if likes == nil {
			likes = []string{}
		}
		views = append(views, models.PostView{
			ID:            p.ID,
			User:          summary(p.OwnerID),
			Caption:       p.Caption,
			Description:   p.Description,
			PlaceName:     p.PlaceName,
			PlaceAddress:  p.PlaceAddress,
			PlaceLocation: p.PlaceLocation,
			Media:         p.Media,
			Likes:         likes,
			Comments:      cv,
			Status:        p.Status,
			CreatedAt:     p.CreatedAt,
			UpdatedAt:     p.UpdatedAt,
		})
	}
	return views, nil
}
