package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{Conflict("dup"), http.StatusBadRequest},
		{InvalidCredentials("nope"), http.StatusBadRequest},
		{NotFound("missing"), http.StatusNotFound},
		{Authorization("not yours"), http.StatusForbidden},
		{Internal("boom", errors.New("db down")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := HTTPStatus(c.err); got != c.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("remove comment: %w", Authorization("Unauthorized"))
	if !Is(err, KindAuthorization) {
		t.Fatalf("expected authorization kind, got %v", KindOf(err))
	}
	if MessageOf(err) != "Unauthorized" {
		t.Fatalf("unexpected message %q", MessageOf(err))
	}
}

func TestInternalDetail(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal("Error adding comment", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be unwrappable")
	}
	if Detail(err) != "connection refused" {
		t.Fatalf("unexpected detail %q", Detail(err))
	}
	if Detail(NotFound("Post not found")) != "Post not found" {
		t.Fatal("detail of a cause-less error should be its message")
	}
}
