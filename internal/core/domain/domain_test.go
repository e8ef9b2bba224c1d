package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/press/internal/core/domain"
)

func TestParseEnvironment(t *testing.T) {
	tests := []struct {
		tag  string
		want domain.Environment
	}{
		{"production", domain.Production},
		{"development", domain.Development},
		{"prod", domain.Development},
		{"serve", domain.Development},
		{"", domain.Development},
		{"Production", domain.Development},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.ParseEnvironment(tt.tag))
		})
	}
}

func TestSiteProfiles_ConfigFor(t *testing.T) {
	p := domain.SiteProfiles{Development: "_config.yml", Production: "_config.build.yml"}
	assert.Equal(t, "_config.build.yml", p.ConfigFor(domain.Production))
	assert.Equal(t, "_config.yml", p.ConfigFor(domain.Development))
	assert.Equal(t, "_config.yml", p.ConfigFor(""))
}

func TestTaskStatus_IsTerminal(t *testing.T) {
	assert.False(t, domain.TaskStatusPending.IsTerminal())
	assert.False(t, domain.TaskStatusRunning.IsTerminal())
	assert.True(t, domain.TaskStatusCompleted.IsTerminal())
	assert.True(t, domain.TaskStatusFailed.IsTerminal())
	assert.True(t, domain.TaskStatusSkipped.IsTerminal())
}

func TestServerState_String(t *testing.T) {
	assert.Equal(t, "idle", domain.StateIdle.String())
	assert.Equal(t, "serving", domain.StateServing.String())
	assert.Equal(t, "rebuilding", domain.StateRebuilding.String())
}
