package config

import "time"

// Session store backends.
const (
	SessionMemory = "memory"
	SessionRedis  = "redis"
	SessionMySQL  = "mysql"
)

// SessionConfig selects the session backend and cookie attributes.  The
// backend is chosen once at startup; see session.NewStore.
type SessionConfig struct {
	Store      string        // memory | redis | mysql
	CookieName string        // name of the session cookie
	TTL        time.Duration // cookie max-age and server-side expiry
	Prefix     string        // Redis key prefix
	Secure     bool          // Secure + SameSite=None cookies
}

// LoadSessionConfig reads SESSION_* variables.  Secure cookies default to
// on in production.
func LoadSessionConfig(prod bool) SessionConfig {
	return SessionConfig{
		Store:      envStr("SESSION_STORE", SessionMemory),
		CookieName: envStr("SESSION_COOKIE", "caffeine.sid"),
		TTL:        envDur("SESSION_TTL", 24*time.Hour),
		Prefix:     envStr("SESSION_PREFIX", "caffeine:sess:"),
		Secure:     envBool("SESSION_SECURE", prod),
	}
}
