package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s")
	t.Setenv("CSRF_SECRET", "c")
	t.Setenv("API_BASE_URL", "http://api.local:4200")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.OrderStopHour)
	assert.Equal(t, "0 3 * * *", cfg.OrderRolloverCron)
	assert.Equal(t, "http://api.local:4200", cfg.APIBaseURL)
	assert.False(t, cfg.IsProduction())
}

func TestValidate(t *testing.T) {
	valid := Config{SessionSecret: "s", CSRFSecret: "c", APIBaseURL: "http://api", OrderStopHour: 8}
	require.NoError(t, valid.Validate())

	cases := map[string]func(*Config){
		"no session secret": func(c *Config) { c.SessionSecret = "" },
		"no csrf secret":    func(c *Config) { c.CSRFSecret = "" },
		"no api":            func(c *Config) { c.APIBaseURL = "" },
		"stop hour":         func(c *Config) { c.OrderStopHour = 24 },
		"midnight stop":     func(c *Config) { c.OrderStopHour = 0 },
		"negative ttl":      func(c *Config) { c.FeedbackTTL = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
