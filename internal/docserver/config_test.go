package docserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/statesync/internal/core/domain"
)

func TestLoadConfig(t *testing.T) {
	env := map[string]string{
		EnvAddr:      ":9000",
		EnvDBPath:    "/tmp/d.db",
		EnvKeys:      "p1=k1, p2 = k2",
		EnvRateLimit: "5",
		EnvBurst:     "10",
	}
	cfg, err := LoadConfig(func(k string) string { return env[k] })
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "/tmp/d.db", cfg.DBPath)
	assert.Equal(t, map[string]string{"p1": "k1", "p2": "k2"}, cfg.Keys)
	assert.Equal(t, 5.0, cfg.RateLimit)
	assert.Equal(t, 10, cfg.Burst)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(func(string) string { return "" })
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"bad keys":  {EnvKeys: "nokey"},
		"bad rps":   {EnvRateLimit: "fast"},
		"bad burst": {EnvBurst: "0"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(func(k string) string { return env[k] })
			assert.Error(t, err)
		})
	}
}

func TestHub_OfferKeepsLatest(t *testing.T) {
	l := &listener{send: make(chan *domain.RemoteDocument, 1)}
	l.offer(&domain.RemoteDocument{AccountID: "1"})
	l.offer(&domain.RemoteDocument{AccountID: "2"})

	got := <-l.send
	assert.Equal(t, "2", got.AccountID)
}
