package oauth_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gobeaver/beaver-social/config"
	"github.com/gobeaver/beaver-social/oauth"
)

func setProviderEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for _, k := range []string{
		"HUAWEI_ID", "HUAWEI_SECRET",
		"QQ_ID", "QQ_SECRET",
		"TWITTER_ID", "TWITTER_SECRET",
		"OAUTH_STATE_STRATEGY", "OAUTH_STATE_TTL",
	} {
		t.Setenv(k, env[k])
	}
}

func TestRegistryFromEnv(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want []string
	}{
		{
			name: "nothing configured",
			want: []string{},
		},
		{
			name: "secret without id",
			env:  map[string]string{"HUAWEI_SECRET": "s"},
			want: []string{},
		},
		{
			name: "qq and twitter",
			env: map[string]string{
				"QQ_ID":          "q",
				"QQ_SECRET":      "qs",
				"TWITTER_ID":     "t",
				"TWITTER_SECRET": "ts",
				"HUAWEI_ID":      "h",
			},
			want: []string{"qq", "twitter"},
		},
		{
			name: "all",
			env: map[string]string{
				"HUAWEI_ID":      "h",
				"HUAWEI_SECRET":  "hs",
				"QQ_ID":          "q",
				"QQ_SECRET":      "qs",
				"TWITTER_ID":     "t",
				"TWITTER_SECRET": "ts",
			},
			want: []string{"huawei", "qq", "twitter"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setProviderEnv(t, tt.env)

			cfg, err := oauth.GetConfig(config.LoadOptions{EnvFile: []string{"does-not-exist.env"}})
			if err != nil {
				t.Fatalf("GetConfig() error = %v", err)
			}
			r := oauth.NewRegistry(*cfg, oauth.WithLogger(quietLogger()))

			got := r.Names()
			if len(got) != len(tt.want) {
				t.Fatalf("Names() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Names() = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestGetConfigDefaults(t *testing.T) {
	setProviderEnv(t, map[string]string{"OAUTH_STATE_STRATEGY": "STORE"})

	cfg, err := oauth.GetConfig(config.LoadOptions{EnvFile: []string{"does-not-exist.env"}})
	if err != nil {
		t.Fatalf("GetConfig() error = %v", err)
	}
	if cfg.StateStrategy != oauth.StateStrategyStore {
		t.Errorf("StateStrategy = %q, want store", cfg.StateStrategy)
	}
	if cfg.StateTTL != 10*time.Minute {
		t.Errorf("StateTTL = %v, want 10m", cfg.StateTTL)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("HTTPTimeout = %v, want 30s", cfg.HTTPTimeout)
	}
	if cfg.ServerUserAgent != oauth.DefaultServerUserAgent {
		t.Errorf("ServerUserAgent = %q", cfg.ServerUserAgent)
	}
}

func TestRegistryLookup(t *testing.T) {
	srv := newFakeProvider(t)
	r := oauth.NewEmptyRegistry(oauth.WithHTTPClient(srv.Client()), oauth.WithLogger(quietLogger()))

	if !r.Register(srv.Provider(oauth.ProviderTwitter)) {
		t.Fatal("Register(twitter) = false")
	}
	if r.Register(oauth.NewHuawei(oauth.ProviderConfig{ClientID: "only-id"})) {
		t.Error("Register(huawei without secret) = true")
	}

	f, err := r.Flow(oauth.ProviderTwitter)
	if err != nil {
		t.Fatalf("Flow(twitter) error = %v", err)
	}
	if f.Provider().Name() != oauth.ProviderTwitter {
		t.Errorf("Flow(twitter).Provider() = %q", f.Provider().Name())
	}

	_, err = r.Flow(oauth.ProviderHuawei)
	if !errors.Is(err, oauth.ErrConfigMissing) {
		t.Fatalf("Flow(huawei) error = %v, want ErrConfigMissing", err)
	}
	var oe *oauth.Error
	if !errors.As(err, &oe) || oe.HTTPStatus() != http.StatusNotFound {
		t.Errorf("Flow(huawei) error = %#v, want 404", err)
	}
}

func TestRegistryInfos(t *testing.T) {
	cfg := oauth.Config{
		HuaweiID:      "h",
		HuaweiSecret:  "hs",
		QQID:          "q",
		QQSecret:      "qs",
		TwitterID:     "t",
		TwitterSecret: "ts",
	}
	r := oauth.NewRegistry(cfg, oauth.WithLogger(quietLogger()))

	want := map[string]string{
		"huawei":  "oauth-login.cloud.huawei.com",
		"qq":      "graph.qq.com",
		"twitter": "x.com",
	}
	infos := r.Infos()
	if len(infos) != len(want) {
		t.Fatalf("Infos() = %v", infos)
	}
	for name, origin := range want {
		if infos[name].Origin != origin {
			t.Errorf("Infos()[%s].Origin = %q, want %q", name, infos[name].Origin, origin)
		}
	}
}

func TestConfigStateManager(t *testing.T) {
	store := newMemoryStore(t)

	tests := []struct {
		name     string
		strategy string
		store    oauth.StateStore
		wantErr  bool
		stored   bool
	}{
		{name: "default", strategy: ""},
		{name: "stateless", strategy: "stateless"},
		{name: "store", strategy: "store", store: store, stored: true},
		{name: "store without backend", strategy: "store", wantErr: true},
		{name: "unknown", strategy: "cookie", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := oauth.Config{StateStrategy: tt.strategy, StateTTL: time.Minute}
			m, err := cfg.StateManager(tt.store)
			if tt.wantErr {
				if !errors.Is(err, oauth.ErrConfigMissing) {
					t.Errorf("StateManager() error = %v, want ErrConfigMissing", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("StateManager() error = %v", err)
			}

			s, ok := m.(oauth.StoredStates)
			if ok != tt.stored {
				t.Fatalf("StateManager() = %T", m)
			}
			if ok && s.TTL != time.Minute {
				t.Errorf("TTL = %v, want 1m", s.TTL)
			}
		})
	}
}
