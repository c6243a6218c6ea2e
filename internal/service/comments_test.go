package service

import (
	"context"
	"testing"

	appkafka "example.com/placefeed/internal/broker"
	"example.com/placefeed/internal/apperr"
	"example.com/placefeed/internal/store"
	"github.com/google/uuid"
)

func TestAddComment(t *testing.T) {
	st := store.NewMock()
	svc, mk := newPosts(st)
	ana := seedAccount(st, "ana")
	bo := seedAccount(st, "bo")
	p := mustAddPost(t, svc, ana, "x")

	res, err := svc.AddComment(context.Background(), p.ID, bo, "Great spot!")
	if err != nil {
		t.Fatalf("add comment failed: %v", err)
	}
	if res.Comment.OwnerID != bo || res.Comment.PostID != p.ID || res.Comment.Text != "Great spot!" || res.Comment.IsEdited {
		t.Fatalf("unexpected comment: %+v", res.Comment)
	}
	if len(res.Post.Comments) != 1 || res.Post.Comments[0] != res.Comment.ID {
		t.Fatalf("post should reference the comment, got %+v", res.Post.Comments)
	}

	evs := mk.Events()
	last := evs[len(evs)-1]
	if last.Type != appkafka.CommentAdded || last.CommentID != res.Comment.ID || last.PostID != p.ID {
		t.Fatalf("expected comment.added event, got %+v", last)
	}
}

func TestAddComment_Errors(t *testing.T) {
	st := store.NewMock()
	svc, _ := newPosts(st)
	ana := seedAccount(st, "ana")
	p := mustAddPost(t, svc, ana, "x")

	cases := map[string]struct {
		postID, accountID, text string
		kind                    apperr.Kind
	}{
		"unknown post":    {uuid.NewString(), ana, "hi", apperr.KindNotFound},
		"malformed post":  {"bogus", ana, "hi", apperr.KindNotFound},
		"unknown account": {p.ID, uuid.NewString(), "hi", apperr.KindNotFound},
		"missing account": {p.ID, "", "hi", apperr.KindValidation},
		"empty text":      {p.ID, ana, "", apperr.KindValidation},
	}
	for name, tc := range cases {
		_, err := svc.AddComment(context.Background(), tc.postID, tc.accountID, tc.text)
		if !apperr.Is(err, tc.kind) {
			t.Errorf("%s: expected %s, got %v", name, tc.kind, err)
		}
	}
	if len(st.Comments) != 0 {
		t.Fatalf("no comment should be stored, got %d", len(st.Comments))
	}
}

func TestAddComment_AppendFailureRollsBack(t *testing.T) {
	st := store.NewMock()
	svc, mk := newPosts(st)
	ana := seedAccount(st, "ana")
	p := mustAddPost(t, svc, ana, "x")
	st.FailOn["AppendCommentRef"] = true

	_, err := svc.AddComment(context.Background(), p.ID, ana, "hi")
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if len(st.Comments) != 0 {
		t.Fatalf("orphan comment left behind: %+v", st.Comments)
	}
	for _, ev := range mk.Events() {
		if ev.Type == appkafka.CommentAdded {
			t.Fatal("rolled back comment must not be announced")
		}
	}
}

func TestAddComment_FailedRollbackIsAnnounced(t *testing.T) {
	st := store.NewMock()
	svc, mk := newPosts(st)
	ana := seedAccount(st, "ana")
	p := mustAddPost(t, svc, ana, "x")
	st.FailOn["AppendCommentRef"] = true
	st.FailOn["DeleteComment"] = true

	if _, err := svc.AddComment(context.Background(), p.ID, ana, "hi"); err == nil {
		t.Fatal("expected error")
	}
	if len(st.Comments) != 1 {
		t.Fatalf("expected the unreferenced comment to remain, got %d", len(st.Comments))
	}
	evs := mk.Events()
	if last := evs[len(evs)-1]; last.Type != appkafka.CommentAdded {
		t.Fatalf("expected comment.added for reconciliation, got %+v", last)
	}
}

func TestRemoveComment(t *testing.T) {
	st := store.NewMock()
	svc, mk := newPosts(st)
	ana := seedAccount(st, "ana")
	p := mustAddPost(t, svc, ana, "x")
	res, _ := svc.AddComment(context.Background(), p.ID, ana, "hi")

	if err := svc.RemoveComment(context.Background(), p.ID, ana, res.Comment.ID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, ok := st.Comments[res.Comment.ID]; ok {
		t.Fatal("comment should be deleted")
	}
	post, _ := st.GetPost(context.Background(), p.ID)
	if post.HasComment(res.Comment.ID) {
		t.Fatal("post should no longer reference the comment")
	}

	evs := mk.Events()
	if last := evs[len(evs)-1]; last.Type != appkafka.CommentRemoved || last.CommentID != res.Comment.ID {
		t.Fatalf("expected comment.removed, got %+v", last)
	}

	if err := svc.RemoveComment(context.Background(), p.ID, ana, res.Comment.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("second removal should be not found, got %v", err)
	}
}

func TestRemoveComment_NotAuthor(t *testing.T) {
	st := store.NewMock()
	svc, _ := newPosts(st)
	ana := seedAccount(st, "ana")
	bo := seedAccount(st, "bo")
	p := mustAddPost(t, svc, ana, "x")
	res, _ := svc.AddComment(context.Background(), p.ID, ana, "hi")

	err := svc.RemoveComment(context.Background(), p.ID, bo, res.Comment.ID)
	if !apperr.Is(err, apperr.KindAuthorization) {
		t.Fatalf("expected authorization error, got %v", err)
	}
	if _, ok := st.Comments[res.Comment.ID]; !ok {
		t.Fatal("comment must survive an unauthorized removal")
	}
}

func TestRemoveComment_WrongPost(t *testing.T) {
	st := store.NewMock()
	svc, _ := newPosts(st)
	ana := seedAccount(st, "ana")
	p1 := mustAddPost(t, svc, ana, "one")
	p2 := mustAddPost(t, svc, ana, "two")
	res, _ := svc.AddComment(context.Background(), p1.ID, ana, "hi")

	err := svc.RemoveComment(context.Background(), p2.ID, ana, res.Comment.ID)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, ok := st.Comments[res.Comment.ID]; !ok {
		t.Fatal("comment must survive")
	}
}

func TestRemoveComment_RefFailureStillAnnounced(t *testing.T) {
	st := store.NewMock()
	svc, mk := newPosts(st)
	ana := seedAccount(st, "ana")
	p := mustAddPost(t, svc, ana, "x")
	res, _ := svc.AddComment(context.Background(), p.ID, ana, "hi")
	st.FailOn["RemoveCommentRef"] = true

	if err := svc.RemoveComment(context.Background(), p.ID, ana, res.Comment.ID); !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	evs := mk.Events()
	if last := evs[len(evs)-1]; last.Type != appkafka.CommentRemoved {
		t.Fatalf("expected comment.removed for reconciliation, got %+v", last)
	}
}

func TestEditComment(t *testing.T) {
	st := store.NewMock()
	svc, mk := newPosts(st)
	ana := seedAccount(st, "ana")
	p := mustAddPost(t, svc, ana, "x")
	added, _ := svc.AddComment(context.Background(), p.ID, ana, "first")

	res, err := svc.EditComment(context.Background(), p.ID, ana, added.Comment.ID, "second")
	if err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	if res.Comment.Text != "second" || !res.Comment.IsEdited {
		t.Fatalf("unexpected comment: %+v", res.Comment)
	}
	if !res.Comment.UpdatedAt.After(added.Comment.UpdatedAt) {
		t.Fatalf("updatedAt should advance: %s vs %s", res.Comment.UpdatedAt, added.Comment.UpdatedAt)
	}
	if res.Post.ID != p.ID {
		t.Fatalf("expected the post in the result, got %+v", res.Post)
	}

	evs := mk.Events()
	if last := evs[len(evs)-1]; last.Type != appkafka.CommentEdited {
		t.Fatalf("expected comment.edited, got %+v", last)
	}
}

func TestEditComment_Errors(t *testing.T) {
	st := store.NewMock()
	svc, _ := newPosts(st)
	ana := seedAccount(st, "ana")
	bo := seedAccount(st, "bo")
	p := mustAddPost(t, svc, ana, "x")
	added, _ := svc.AddComment(context.Background(), p.ID, ana, "first")

	if _, err := svc.EditComment(context.Background(), p.ID, bo, added.Comment.ID, "hijack"); !apperr.Is(err, apperr.KindAuthorization) {
		t.Fatalf("expected authorization error, got %v", err)
	}
	if _, err := svc.EditComment(context.Background(), p.ID, ana, uuid.NewString(), "x"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.EditComment(context.Background(), uuid.NewString(), ana, added.Comment.ID, "x"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for unknown post, got %v", err)
	}
	if _, err := svc.EditComment(context.Background(), p.ID, ana, added.Comment.ID, ""); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	if c := st.Comments[added.Comment.ID]; c.Text != "first" || c.IsEdited {
		t.Fatalf("comment should be untouched, got %+v", c)
	}
}
