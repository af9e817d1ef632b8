package auth

// Allowlist is the fixed set of Telegram user IDs the bot responds to.
// It is built once at process start from configuration and never mutated,
// so lookups are safe from any goroutine without locking.
type Allowlist struct {
	users map[int64]struct{}
}

// NewAllowlist builds an Allowlist from the configured user IDs.
// Duplicate IDs are tolerated.
func NewAllowlist(userIDs []int64) *Allowlist {
	users := make(map[int64]struct{}, len(userIDs))
	for _, id := range userIDs {
		users[id] = struct{}{}
	}
	return &Allowlist{users: users}
}

// IsAuthorized reports whether the given user may interact with the bot.
// Pure membership check: no I/O, no side effects. Callers are responsible
// for the silent-drop behavior on a false result; absence of authorization
// produces absence of response, never an error reply.
func (a *Allowlist) IsAuthorized(userID int64) bool {
	_, ok := a.users[userID]
	return ok
}

// Size returns the number of distinct authorized users.
func (a *Allowlist) Size() int {
	return len(a.users)
}
