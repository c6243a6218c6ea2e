package models

import "time"

// PostStatus is declarative only; nothing transitions it yet.
type PostStatus string

const (
	StatusActive   PostStatus = "active"
	StatusArchived PostStatus = "archived"
	StatusDeleted  PostStatus = "deleted"
)

type Account struct {
	ID           string    `json:"_id" bson:"_id"`
	Username     string    `json:"username" bson:"username"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password"`
	Bio          string    `json:"bio" bson:"bio"`
	ProfileImage string    `json:"profileImage" bson:"profileImage"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Profile is the public projection of an Account.
type Profile struct {
	ID           string    `json:"_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Bio          string    `json:"bio"`
	ProfileImage string    `json:"profileImage"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (a *Account) Profile() *Profile {
	return &Profile{
		ID:           a.ID,
		Username:     a.Username,
		Email:        a.Email,
		Bio:          a.Bio,
		ProfileImage: a.ProfileImage,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

// AccountSummary is what posts and comments expose about their owner.
type AccountSummary struct {
	ID           string `json:"_id"`
	Username     string `json:"username"`
	ProfileImage string `json:"profileImage"`
}

func (a *Account) Summary() AccountSummary {
	return AccountSummary{ID: a.ID, Username: a.Username, ProfileImage: a.ProfileImage}
}

type PlaceLocation struct {
	Accuracy         float64 `json:"accuracy" bson:"accuracy"`
	Longitude        float64 `json:"longitude" bson:"longitude"`
	Latitude         float64 `json:"latitude" bson:"latitude"`
	Altitude         float64 `json:"altitude" bson:"altitude"`
	Heading          float64 `json:"heading" bson:"heading"`
	AltitudeAccuracy float64 `json:"altitudeAccuracy" bson:"altitudeAccuracy"`
	Speed            float64 `json:"speed" bson:"speed"`
}

type Post struct {
	ID            string        `json:"_id" bson:"_id"`
	OwnerID       string        `json:"user" bson:"user"`
	Caption       string        `json:"caption" bson:"caption"`
	Description   string        `json:"description" bson:"description"`
	PlaceName     string        `json:"placeName" bson:"placeName"`
	PlaceAddress  string        `json:"placeAddress" bson:"placeAddress"`
	PlaceLocation PlaceLocation `json:"placeLocation" bson:"placeLocation"`
	Media         string        `json:"media" bson:"media"`
	Likes         []string      `json:"likes" bson:"likes"`
	Comments      []string      `json:"comments" bson:"comments"`
	Status        PostStatus    `json:"status" bson:"status"`
	CreatedAt     time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// LikedBy reports whether accountID is in the post's like set.
func (p *Post) LikedBy(accountID string) bool {
	for _, id := range p.Likes {
		if id == accountID {
			return true
		}
	}
	return false
}

// HasComment reports whether commentID is referenced by the post.
func (p *Post) HasComment(commentID string) bool {
	for _, id := range p.Comments {
		if id == commentID {
			return true
		}
	}
	return false
}

type Comment struct {
	ID        string    `json:"_id" bson:"_id"`
	OwnerID   string    `json:"user" bson:"user"`
	PostID    string    `json:"post" bson:"post"`
	Text      string    `json:"text" bson:"text"`
	IsEdited  bool      `json:"isEdited" bson:"isEdited"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

type CommentView struct {
	ID        string         `json:"_id"`
	User      AccountSummary `json:"user"`
	PostID    string         `json:"post"`
	Text      string         `json:"text"`
	IsEdited  bool           `json:"isEdited"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// PostView is a post with its owner and comments expanded.
type PostView struct {
	ID            string         `json:"_id"`
	User          AccountSummary `json:"user"`
	Caption       string         `json:"caption"`
	Description   string         `json:"description"`
	PlaceName     string         `json:"placeName"`
	PlaceAddress  string         `json:"placeAddress"`
	PlaceLocation PlaceLocation  `json:"placeLocation"`
	Media         string         `json:"media"`
	Likes         []string       `json:"likes"`
	Comments      []CommentView  `json:"comments"`
	Status        PostStatus     `json:"status"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}
