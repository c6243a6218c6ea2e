package service

import (
	"context"
	"errors"

	appkafka "example.com/placefeed/internal/broker"
	"example.com/placefeed/internal/apperr"
	"example.com/placefeed/internal/models"
	"example.com/placefeed/internal/store"
)

type CommentResult struct {
	Comment *models.Comment `json:"comment"`
	Post    *models.Post    `json:"post"`
}

// AddComment creates the comment and then appends its id to the post. The two
// writes are not atomic: if the append fails the comment is deleted again, and
// if that also fails the comment.added event lets the reconciler converge.
func (s *PostService) AddComment(ctx context.Context, postID, accountID, text string) (*CommentResult, error) {
	if accountID == "" {
		return nil, apperr.Validation("userId is required")
	}
	if text == "" {
		return nil, apperr.Validation("comment is required")
	}
	if !validID(postID) {
		return nil, apperr.NotFound("Post not found")
	}
	if !validID(accountID) {
		return nil, apperr.NotFound("User not found")
	}

	if _, err := s.store.GetPost(ctx, postID); err != nil {
		return nil, storeErr(err, "Post not found", "Error adding comment")
	}
	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		return nil, storeErr(err, "User not found", "Error adding comment")
	}

	now := s.now().UTC()
	comment := &models.Comment{
		ID:        newID(),
		OwnerID:   accountID,
		PostID:    postID,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateComment(ctx, comment); err != nil {
		return nil, apperr.Internal("Error adding comment", err)
	}

	if err := s.store.AppendCommentRef(ctx, postID, comment.ID); err != nil {
		if derr := s.store.DeleteComment(ctx, comment.ID); derr != nil {
			logg.Error("service/comments", "Failed to roll back comment_id="+comment.ID, derr)
			publish(ctx, s.publisher, commentEvent(appkafka.CommentAdded, comment), "service/comments")
		}
		return nil, storeErr(err, "Post not found", "Error adding comment")
	}

	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, storeErr(err, "Post not found", "Error adding comment")
	}

	publish(ctx, s.publisher, commentEvent(appkafka.CommentAdded, comment), "service/comments")
	return &CommentResult{Comment: comment, Post: post}, nil
}

// RemoveComment deletes the comment and drops its id from the post. Only the
// comment's author may remove it.
func (s *PostService) RemoveComment(ctx context.Context, postID, accountID, commentID string) error {
	comment, err := s.ownedComment(ctx, postID, accountID, commentID, "Error removing comment")
	if err != nil {
		return err
	}

	if err := s.store.DeleteComment(ctx, comment.ID); err != nil {
		return apperr.Internal("Error removing comment", err)
	}
	// the comment is gone either way; the event lets the reconciler drop a stale ref
	publish(ctx, s.publisher, commentEvent(appkafka.CommentRemoved, comment), "service/comments")

	if err := s.store.RemoveCommentRef(ctx, postID, comment.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return apperr.Internal("Error removing comment", err)
	}
	return nil
}

// EditComment replaces the comment text and marks it edited.
func (s *PostService) EditComment(ctx context.Context, postID, accountID, commentID, newText string) (*CommentResult, error) {
	if newText == "" {
		return nil, apperr.Validation("newComment is required")
	}
	comment, err := s.ownedComment(ctx, postID, accountID, commentID, "Error editing comment")
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateCommentText(ctx, comment.ID, newText, s.now().UTC()); err != nil {
		return nil, storeErr(err, "Comment not found", "Error editing comment")
	}

	updated, err := s.store.GetComment(ctx, comment.ID)
	if err != nil {
		return nil, storeErr(err, "Comment not found", "Error editing comment")
	}
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, storeErr(err, "Post not found", "Error editing comment")
	}

	publish(ctx, s.publisher, commentEvent(appkafka.CommentEdited, updated), "service/comments")
	return &CommentResult{Comment: updated, Post: post}, nil
}

// ownedComment resolves the post and comment and checks accountID authored it.
// A comment that belongs to a different post is reported as not found.
func (s *PostService) ownedComment(ctx context.Context, postID, accountID, commentID, internalMsg string) (*models.Comment, error) {
	if accountID == "" {
		return nil, apperr.Validation("userId is required")
	}
	if !validID(postID) {
		return nil, apperr.NotFound("Post not found")
	}
	if !validID(commentID) {
		return nil, apperr.NotFound("Comment not found")
	}

	if _, err := s.store.GetPost(ctx, postID); err != nil {
		return nil, storeErr(err, "Post not found", internalMsg)
	}
	comment, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return nil, storeErr(err, "Comment not found", internalMsg)
	}
	if comment.PostID != postID {
		return nil, apperr.NotFound("Comment not found")
	}
	if comment.OwnerID != accountID {
		return nil, apperr.Authorization("Unauthorized")
	}
	return comment, nil
}

func commentEvent(t appkafka.EventType, c *models.Comment) appkafka.Event {
	return appkafka.Event{Type: t, PostID: c.PostID, CommentID: c.ID, AccountID: c.OwnerID}
}
