package constants

// Environment variable keys
const (
	EnvConfigPath = "ARENA_CONFIG"
	EnvPrefix     = "ARENA_"
	EnvHealthURL  = "ARENA_HEALTH_URL"

	DefaultConfigPath = "./arena_config.yaml"
	DefaultDBPath     = "./data/arena.db"
	DefaultHealthURL  = "http://127.0.0.1:8080/healthz"
)

// HTTP headers and auth
const (
	HeaderAuthorization = "Authorization"
	BearerPrefix        = "Bearer "

	// Context keys set by the auth middleware.
	CtxActorID = "actorID"
	CtxRole    = "role"

	RoleAdmin = "admin"
)

// Routes used by the backend router
const (
	RouteAPIPrefix     = "/api"
	RouteHealth        = "/healthz"
	RouteVersion       = "/version"
	RouteFights        = "/fights"
	RouteFightByID     = "/fights/:fightID"
	RouteFightAccept   = "/fights/:fightID/accept"
	RouteFightMove     = "/fights/:fightID/move"
	RouteFightForfeit  = "/fights/:fightID/forfeit"
	RouteFightReplay   = "/fights/:fightID/replay"
	RouteAdminExpire   = "/admin/fights/:fightID/expire"
	RouteMe            = "/actors/me"
	RouteMyFight       = "/actors/me/fight"
	RouteActorByID     = "/actors/:actorID"
	RouteActorFights   = "/actors/:actorID/fights"
	ParamFightID       = "fightID"
	ParamActorID       = "actorID"
	QueryLimit         = "limit"
	DefaultHistorySize = 20
	MaxHistorySize     = 100
)

// Common JSON response keys
const (
	JSONKeyError   = "error"
	JSONKeyCode    = "code"
	JSONKeyMessage = "message"
	JSONKeyStatus  = "status"
)

// Fight response keys rewritten per viewer
const (
	JSONKeyP1PendingMove = "p1_pending_move"
	JSONKeyP2PendingMove = "p2_pending_move"
	JSONKeyP1Submitted   = "p1_move_submitted"
	JSONKeyP2Submitted   = "p2_move_submitted"
)

// Common error messages used across API handlers
const (
	ErrInvalidRequest    = "Invalid request"
	ErrAuthRequired      = "Authentication required"
	ErrInvalidSession    = "Invalid session"
	ErrAdminRequired     = "Admin role required"
	ErrInternal          = "Internal error"
	ErrAccountRestricted = "Account is not allowed to fight"
)

// Logging field names
const (
	LogFieldFightID  = "fight_id"
	LogFieldActorID  = "actor_id"
	LogFieldTargetID = "target_id"
	LogFieldRound    = "round"
	LogFieldStatus   = "status"
	LogFieldWinnerID = "winner_id"
	LogFieldMove     = "move"
	LogFieldCode     = "code"
	LogFieldAddr     = "addr"
	LogFieldCount    = "count"
	LogFieldVersion  = "version"
)
