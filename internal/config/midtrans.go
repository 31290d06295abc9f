package config

// MidtransConfig holds the payment gateway credentials.  An empty
// ServerKey disables notification signature verification, which is only
// acceptable in local development.
type MidtransConfig struct {
	ServerKey    string
	ClientKey    string
	IsProduction bool
	// failures before the gateway circuit opens, and how long it stays open
	BreakerMaxFailures int
	BreakerResetSec    int
}

func LoadMidtransConfig() MidtransConfig {
	return MidtransConfig{
		ServerKey:          envStr("MIDTRANS_SERVER_KEY", ""),
		ClientKey:          envStr("MIDTRANS_CLIENT_KEY", ""),
		IsProduction:       envBool("MIDTRANS_IS_PRODUCTION", false),
		BreakerMaxFailures: envInt("MIDTRANS_BREAKER_MAX_FAILURES", 5),
		BreakerResetSec:    envInt("MIDTRANS_BREAKER_RESET_SEC", 30),
	}
}
