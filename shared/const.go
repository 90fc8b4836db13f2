package shared

const (
	// Service container ids resolved from more than one package.
	JWTServiceID       = "jwt_svc"
	RateLimitServiceID = "rate_limit_svc"

	AdminSubject  = "admin"
	AdminIssuer   = "staszek-backend"
	AdminAudience = "staszek-admin"

	CounterViews    = "staszek-views"
	CounterVisitors = "staszek-visitors"
	CounterVote     = "staszek-vote"

	ForumRootKey = "staszek-forum"
	ContactKey   = "pv-mesege-staszek"

	// Vote declarations are hidden from the public API below this value,
	// mirroring the UI which hides small/early counts.
	MinPublicVoteCount = 20

	// Non-admin comments need at least this moderation score to be published.
	CommentMinPublishScore = 5
)
