package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"example.com/placefeed/internal/apperr"
	"example.com/placefeed/internal/middleware"
	"example.com/placefeed/internal/service"
)

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError renders err as {"message", "error"} with the status its kind maps to.
func writeError(w http.ResponseWriter, module string, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logg.Error(module, apperr.MessageOf(err), err)
	} else {
		logg.Info(module, "Request rejected: "+apperr.MessageOf(err))
	}
	writeJSON(w, status, map[string]string{
		"message": apperr.MessageOf(err),
		"error":   apperr.Detail(err),
	})
}

// decodeBody reads a JSON body into dst. An empty body leaves dst zeroed.
func decodeBody(w http.ResponseWriter, r *http.Request, module string, dst any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		logg.Error(module, "Invalid request body", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
		return false
	}
	return true
}

// actor is the acting account: the token's user when one was verified, else the body's userId.
func actor(r *http.Request, bodyUserID string) string {
	if id, ok := middleware.UserIDFromContext(r.Context()); ok {
		return id
	}
	return bodyUserID
}

// --- Auth ---

// signupHandler registers an account.
// Expects JSON body: {"username", "email", "password"}
func (s *Server) signupHandler(w http.ResponseWriter, r *http.Request) {
	var body service.SignupInput
	if !decodeBody(w, r, "http/signup", &body) {
		return
	}

	res, err := s.accounts.Signup(r.Context(), body)
	if err != nil {
		writeError(w, "http/signup", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "User registered successfully",
		"userId":   res.UserID,
		"username": res.Username,
		"email":    res.Email,
	})
}

// loginHandler verifies credentials and returns a bearer token.
// Expects JSON body: {"email", "password"}
func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var body service.LoginInput
	if !decodeBody(w, r, "http/login", &body) {
		return
	}

	res, err := s.accounts.Login(r.Context(), body)
	if err != nil {
		writeError(w, "http/login", err)
		return
	}

	resp := map[string]any{
		"message": "Login successful",
		"userId":  res.UserID,
	}
	if res.Token != "" {
		resp["token"] = res.Token
		resp["expiresAt"] = res.ExpiresAt
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Profile ---

type userRequest struct {
	UserID string `json:"userId"`
}

func (s *Server) getProfileHandler(w http.ResponseWriter, r *http.Request) {
	var body userRequest
	if !decodeBody(w, r, "http/profile", &body) {
		return
	}

	profile, err := s.accounts.GetProfile(r.Context(), actor(r, body.UserID))
	if err != nil {
		writeError(w, "http/profile", err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// updateProfileHandler overwrites username, bio and profileImage.
func (s *Server) updateProfileHandler(w http.ResponseWriter, r *http.Request) {
	var body service.UpdateProfileInput
	if !decodeBody(w, r, "http/profile", &body) {
		return
	}
	body.AccountID = actor(r, body.AccountID)

	profile, err := s.accounts.UpdateProfile(r.Context(), body)
	if err != nil {
		writeError(w, "http/profile", err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// --- Posts ---

func (s *Server) addPostHandler(w http.ResponseWriter, r *http.Request) {
	var body service.AddPostInput
	if !decodeBody(w, r, "http/posts", &body) {
		return
	}
	body.OwnerID = actor(r, body.OwnerID)

	post, err := s.posts.AddPost(r.Context(), body)
	if err != nil {
		writeError(w, "http/posts", err)
		return
	}

	logg.Info("http/posts", "Post created with post_id="+post.ID)
	writeJSON(w, http.StatusCreated, post)
}

func (s *Server) getPostsHandler(w http.ResponseWriter, r *http.Request) {
	posts, err := s.posts.GetPosts(r.Context())
	if err != nil {
		writeError(w, "http/posts", err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) getPostsByUserHandler(w http.ResponseWriter, r *http.Request) {
	posts, err := s.posts.GetPostsByUser(r.Context(), r.PathValue("userId"))
	if err != nil {
		writeError(w, "http/posts", err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// getPostByIDHandler returns one post; body {"userId"} identifies the requester.
func (s *Server) getPostByIDHandler(w http.ResponseWriter, r *http.Request) {
	var body userRequest
	if !decodeBody(w, r, "http/posts", &body) {
		return
	}

	detail, err := s.posts.GetPostByID(r.Context(), r.PathValue("postId"), actor(r, body.UserID))
	if err != nil {
		writeError(w, "http/posts", err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// --- Likes ---

type likeRequest struct {
	PostID string `json:"postId"`
	UserID string `json:"userId"`
}

func (s *Server) toggleLikeHandler(w http.ResponseWriter, r *http.Request) {
	var body likeRequest
	if !decodeBody(w, r, "http/like", &body) {
		return
	}

	res, err := s.posts.ToggleLike(r.Context(), body.PostID, actor(r, body.UserID))
	if err != nil {
		writeError(w, "http/like", err)
		return
	}

	msg := "Post liked"
	if !res.IsLiked {
		msg = "Post disliked"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"isLiked": res.IsLiked,
		"message": msg,
		"post":    res.Post,
	})
}

func (s *Server) checkLikeStatusHandler(w http.ResponseWriter, r *http.Request) {
	var body likeRequest
	if !decodeBody(w, r, "http/like", &body) {
		return
	}

	liked, err := s.posts.CheckLikeStatus(r.Context(), body.PostID, actor(r, body.UserID))
	if err != nil {
		writeError(w, "http/like", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"isLiked": liked})
}

// --- Comments ---

type commentRequest struct {
	PostID     string `json:"postId"`
	UserID     string `json:"userId"`
	CommentID  string `json:"commentId"`
	Comment    string `json:"comment"`
	NewComment string `json:"newComment"`
}

// addCommentHandler expects JSON body: {"postId", "userId", "comment"}
func (s *Server) addCommentHandler(w http.ResponseWriter, r *http.Request) {
	var body commentRequest
	if !decodeBody(w, r, "http/comments", &body) {
		return
	}

	res, err := s.posts.AddComment(r.Context(), body.PostID, actor(r, body.UserID), body.Comment)
	if err != nil {
		writeError(w, "http/comments", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Comment added successfully",
		"post":    res.Post,
		"comment": res.Comment,
	})
}

// removeCommentHandler expects JSON body: {"postId", "userId", "commentId"}
func (s *Server) removeCommentHandler(w http.ResponseWriter, r *http.Request) {
	var body commentRequest
	if !decodeBody(w, r, "http/comments", &body) {
		return
	}

	if err := s.posts.RemoveComment(r.Context(), body.PostID, actor(r, body.UserID), body.CommentID); err != nil {
		writeError(w, "http/comments", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Comment removed successfully"})
}

// editCommentHandler expects JSON body: {"postId", "userId", "commentId", "newComment"}
func (s *Server) editCommentHandler(w http.ResponseWriter, r *http.Request) {
	var body commentRequest
	if !decodeBody(w, r, "http/comments", &body) {
		return
	}

	res, err := s.posts.EditComment(r.Context(), body.PostID, actor(r, body.UserID), body.CommentID, body.NewComment)
	if err != nil {
		writeError(w, "http/comments", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Comment edited successfully",
		"post":    res.Post,
		"comment": res.Comment,
	})
}
