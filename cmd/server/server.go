package server

import (
	"context"
	"net/http"
	"time"

	"example.com/placefeed/internal/logger"
	"example.com/placefeed/internal/middleware"
	"example.com/placefeed/internal/service"
)

type Server struct {
	accounts *service.AccountService
	posts    *service.PostService
	auth     *middleware.Auth
}

var logg = logger.New()

func New(accounts *service.AccountService, posts *service.PostService, auth *middleware.Auth) *Server {
	return &Server{accounts: accounts, posts: posts, auth: auth}
}

// Options controls how Run listens. TLS is used only when both files are set.
type Options struct {
	Addr     string
	CertFile string
	KeyFile  string
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// identity may come from the body or, when a bearer token is sent, from the token
	withAuth := func(h http.HandlerFunc) http.Handler {
		if s.auth == nil {
			return h
		}
		return s.auth.JWTAuth(h)
	}

	// Public endpoints
	mux.HandleFunc("POST /api/auth/signup", s.signupHandler)
	mux.HandleFunc("POST /api/auth/login", s.loginHandler)
	mux.HandleFunc("GET /api/post/posts", s.getPostsHandler)
	mux.HandleFunc("GET /api/post/posts/user/{userId}", s.getPostsByUserHandler)

	mux.Handle("POST /api/user/get-profile", withAuth(s.getProfileHandler))
	mux.Handle("POST /api/user/update-profile", withAuth(s.updateProfileHandler))
	mux.Handle("POST /api/user/add-post", withAuth(s.addPostHandler))

	mux.Handle("POST /api/post/add-post", withAuth(s.addPostHandler))
	mux.Handle("POST /api/post/post/{postId}", withAuth(s.getPostByIDHandler))
	mux.Handle("POST /api/post/like", withAuth(s.toggleLikeHandler))
	mux.Handle("POST /api/post/check-like-status", withAuth(s.checkLikeStatusHandler))
	mux.Handle("POST /api/post/add-comment", withAuth(s.addCommentHandler))
	mux.Handle("POST /api/post/remove-comment", withAuth(s.removeCommentHandler))
	mux.Handle("POST /api/post/edit-comment", withAuth(s.editCommentHandler))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Hello World!"))
	})

	return middleware.CORS(mux)
}

// Run starts the HTTP(S) server and shuts it down gracefully when ctx is done.
func Run(ctx context.Context, s *Server, opts Options) {
	srv := &http.Server{
		Addr:         opts.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second, // prevent slowloris attacks
		WriteTimeout: 10 * time.Second,
	}

	// --- Start server in a goroutine ---
	go func() {
		var err error
		if opts.CertFile != "" && opts.KeyFile != "" {
			logg.Info("server", "Starting HTTPS server on "+opts.Addr)
			err = srv.ListenAndServeTLS(opts.CertFile, opts.KeyFile)
		} else {
			logg.Info("server", "Starting HTTP server on "+opts.Addr)
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			logg.Error("server", "Server stopped unexpectedly", err)
		}
	}()

	// --- Graceful shutdown ---
	<-ctx.Done()
	logg.Info("server", "Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("server", "Error during server shutdown", err)
	} else {
		logg.Info("server", "Server stopped gracefully")
	}
}
