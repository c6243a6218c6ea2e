package service

import (
	"context"
	"errors"

	"example.com/placefeed/internal/store"
)

// ReconcileComment makes the post's comment list agree with the comment
// document: an existing comment is referenced, a missing one is not. It is idempotent, so replayed events are harmless.
func (s *PostService) ReconcileComment(ctx context.Context, postID, commentID string) error {
	post, err := s.store.GetPost(ctx, postID)
	if errors.Is(err, store.ErrNotFound) {
		// nothing left to point at the comment
		return nil
	}
	if err != nil {
		return err
	}

	comment, err := s.store.GetComment(ctx, commentID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if post.HasComment(commentID) {
			logg.Info("service/reconcile", "Dropping stale comment ref from post_id="+postID)
			return s.store.RemoveCommentRef(ctx, postID, commentID)
		}
		return nil
	case err != nil:
		return err
	}

	if comment.PostID != postID {
		return nil
	}
	if !post.HasComment(commentID) {
		logg.Info("service/reconcile", "Restoring missing comment ref on post_id="+postID)
		return s.store.AppendCommentRef(ctx, postID, commentID)
	}
	return nil
}
