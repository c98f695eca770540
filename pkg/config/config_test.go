package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 2*time.Minute, cfg.Workflow.SummaryCacheTTL)
	assert.False(t, cfg.Workflow.ProfileAutoApply)
	assert.Equal(t, 2, cfg.Events.Workers)
	assert.Equal(t, "approval", cfg.RabbitMQ.RoutingKey)
	assert.False(t, cfg.RabbitMQ.Enabled)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("ALLOWED_ORIGINS", "https://portal.example.com, ,https://admin.example.com")
	v.Set("SUMMARY_CACHE_TTL", "not-a-duration")
	v.Set("PROFILE_AUTO_APPLY", true)
	v.Set("JWT_EXPIRATION", "30m")

	cfg := fromViper(v)

	assert.Equal(t, []string{"https://portal.example.com", "https://admin.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 2*time.Minute, cfg.Workflow.SummaryCacheTTL)
	assert.True(t, cfg.Workflow.ProfileAutoApply)
	assert.Equal(t, 30*time.Minute, cfg.JWT.Expiration)
}
