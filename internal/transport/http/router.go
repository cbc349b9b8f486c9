package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/sladmit/RPA2/internal/application/auth"
	"github.com/sladmit/RPA2/internal/application/vote"
	"github.com/sladmit/RPA2/internal/config"
	"github.com/sladmit/RPA2/internal/transport/http/handler"
	appmiddleware "github.com/sladmit/RPA2/internal/transport/http/middleware"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10, applied to the code-sending endpoints
	// so a single client cannot pump the login provider.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	voteSvc := vote.NewService(vote.Deps{
		Sessions:         deps.Sessions,
		Votes:            deps.Votes,
		LeaderboardLimit: cfg.LeaderboardLimit,
	})

	// A nil *mirror.Sink must stay a nil interface so delivery is skipped.
	var sink auth.MirrorSink
	if deps.Mirror != nil {
		sink = deps.Mirror
	}
	authSvc := auth.NewService(auth.Deps{
		Verifier:        deps.Verifier,
		Auths:           deps.Auths,
		Sessions:        deps.Sessions,
		Votes:           voteSvc,
		Mirror:          sink,
		MaxCodeAttempts: cfg.MaxCodeAttempts,
	})

	healthH := handler.NewHealthHandler(deps.Store)
	authH := handler.NewAuthHandler(authSvc)
	voteH := handler.NewVoteHandler(voteSvc)

	r.Get("/health", healthH.Ping)

	r.Route("/api", func(r chi.Router) {
		r.With(sensitiveRL.Limit).Post("/auth/send-code", authH.SendCode)
		r.With(sensitiveRL.Limit).Post("/auth/verify-code", authH.VerifyCode)
		r.Post("/auth/verify-2fa", authH.VerifySecondFactor)

		r.Post("/vote", voteH.Register)
		r.Post("/check-vote", voteH.CheckVote)
		r.Get("/votes/{workID}", voteH.Count)
		r.Get("/leaderboard", voteH.Leaderboard)
	})

	r.Get("/admin/stats", voteH.Stats)

	return r
}
