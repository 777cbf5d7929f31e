package oauth

import (
	"fmt"
	"strings"
	"time"

	"github.com/gobeaver/beaver-social/config"
)

// State strategies accepted by Config.StateStrategy.
const (
	StateStrategyStateless = "stateless"
	StateStrategyStore     = "store"
)

// Config holds provider credentials and flow settings.
type Config struct {
	HuaweiID     string `env:"HUAWEI_ID"`
	HuaweiSecret string `env:"HUAWEI_SECRET"`

	QQID     string `env:"QQ_ID"`
	QQSecret string `env:"QQ_SECRET"`

	TwitterID     string `env:"TWITTER_ID"`
	TwitterSecret string `env:"TWITTER_SECRET"`

	// StateStrategy is "stateless" (state param carries everything) or
	// "store" (state param is a key into the state store).
	StateStrategy string        `env:"OAUTH_STATE_STRATEGY,default:stateless"`
	StateTTL      time.Duration `env:"OAUTH_STATE_TTL,default:10m"`

	// HTTPTimeout bounds each token or profile call.
	HTTPTimeout time.Duration `env:"OAUTH_HTTP_TIMEOUT,default:30s"`

	// ServerUserAgent marks requests coming from the comment server itself.
	ServerUserAgent string `env:"OAUTH_SERVER_USER_AGENT,default:@waline"`

	// CallbackBaseURL fixes the public base URL for callbacks, e.g.
	// https://comments.example.com/api/oauth. Derived per request when empty.
	CallbackBaseURL string `env:"OAUTH_CALLBACK_BASE_URL"`
}

// GetConfig returns config loaded from environment with optional LoadOptions
func GetConfig(opts ...config.LoadOptions) (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg, opts...); err != nil {
		return nil, fmt.Errorf("failed to load oauth config: %w", err)
	}
	cfg.StateStrategy = strings.ToLower(cfg.StateStrategy)
	return cfg, nil
}

// Providers builds every known provider from the credentials. Callers keep
// only those whose Check passes.
func (c Config) Providers() []Provider {
	return []Provider{
		NewHuawei(ProviderConfig{ClientID: c.HuaweiID, ClientSecret: c.HuaweiSecret}),
		NewQQ(ProviderConfig{ClientID: c.QQID, ClientSecret: c.QQSecret}),
		NewTwitter(ProviderConfig{ClientID: c.TwitterID, ClientSecret: c.TwitterSecret}),
	}
}

// StateManager returns the manager for StateStrategy. store is required for
// the "store" strategy and ignored otherwise.
func (c Config) StateManager(store StateStore) (StateManager, error) {
	switch c.StateStrategy {
	case "", StateStrategyStateless:
		return StatelessStates{}, nil
	case StateStrategyStore:
		if store == nil {
			return nil, &Error{Kind: KindConfigMissing, Message: "state strategy \"store\" needs a state store"}
		}
		return StoredStates{Store: store, TTL: c.StateTTL}, nil
	default:
		return nil, &Error{Kind: KindConfigMissing, Message: fmt.Sprintf("unknown state strategy %q", c.StateStrategy)}
	}
}
