package http

import (
	"github.com/sladmit/RPA2/internal/infrastructure/mirror"
	"github.com/sladmit/RPA2/internal/infrastructure/redisstore"
	"github.com/sladmit/RPA2/internal/infrastructure/telegram"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	Store    *redisstore.Store
	Auths    *redisstore.PendingAuthRepo
	Sessions *redisstore.SessionRepo
	Votes    *redisstore.VoteRepo
	Verifier *telegram.Verifier
	Mirror   *mirror.Sink
}
