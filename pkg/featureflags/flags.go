// ABOUTME: Feature flag management for optional pipeline tiers and API surfaces
// ABOUTME: Provides interface-based feature toggling backed by env vars or static maps

package featureflags

import (
	"context"
	"os"
	"strings"
	"sync"
)

// FeatureFlag represents a single feature flag
type FeatureFlag string

// Defined feature flags
const (
	// ReadabilityTier inserts the readability extractor between the
	// heuristic and model tiers
	ReadabilityTier FeatureFlag = "readability_tier"

	// ModelCacheEnabled caches successful model extractions
	ModelCacheEnabled FeatureFlag = "model_cache_enabled"

	// MetricsEnabled enables the metrics endpoint
	MetricsEnabled FeatureFlag = "metrics_enabled"

	// RateLimitEnabled enables rate limiting
	RateLimitEnabled FeatureFlag = "rate_limit_enabled"
)

// All lists every defined flag
var All = []FeatureFlag{ReadabilityTier, ModelCacheEnabled, MetricsEnabled, RateLimitEnabled}

// Defaults is the state of each flag when nothing configures it
func Defaults() map[FeatureFlag]bool {
	return map[FeatureFlag]bool{
		ReadabilityTier:   false,
		ModelCacheEnabled: true,
		MetricsEnabled:    true,
		RateLimitEnabled:  true,
	}
}

// Manager defines the interface for feature flag management
type Manager interface {
	// IsEnabled checks if a feature flag is enabled
	IsEnabled(ctx context.Context, flag FeatureFlag) bool

	// SetEnabled sets a feature flag's state (for testing)
	SetEnabled(flag FeatureFlag, enabled bool)

	// GetAllFlags returns the state of all flags
	GetAllFlags() map[FeatureFlag]bool
}

// EnvManager implements Manager using environment variables
type EnvManager struct {
	mu        sync.RWMutex
	overrides map[FeatureFlag]bool
	defaults  map[FeatureFlag]bool
	prefix    string
}

// NewEnvManager creates a new environment-based feature flag manager.
// Flags without an env var take their value from Defaults.
func NewEnvManager(prefix string) *EnvManager {
	if prefix == "" {
		prefix = "FEATURE_"
	}
	return &EnvManager{
		overrides: make(map[FeatureFlag]bool),
		defaults:  Defaults(),
		prefix:    prefix,
	}
}

// IsEnabled checks if a feature flag is enabled
func (m *EnvManager) IsEnabled(ctx context.Context, flag FeatureFlag) bool {
	m.mu.RLock()
	if enabled, ok := m.overrides[flag]; ok {
		m.mu.RUnlock()
		return enabled
	}
	m.mu.RUnlock()

	envKey := m.prefix + strings.ToUpper(string(flag))
	value, ok := os.LookupEnv(envKey)
	if !ok || value == "" {
		return m.defaults[flag]
	}

	value = strings.ToLower(value)
	return value == "true" || value == "1" || value == "enabled"
}

// SetEnabled sets a feature flag's state (mainly for testing)
func (m *EnvManager) SetEnabled(flag FeatureFlag, enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[flag] = enabled
}

// GetAllFlags returns the state of all defined flags
func (m *EnvManager) GetAllFlags() map[FeatureFlag]bool {
	ctx := context.Background()
	flags := make(map[FeatureFlag]bool, len(All))
	for _, flag := range All {
		flags[flag] = m.IsEnabled(ctx, flag)
	}
	return flags
}

// StaticManager implements Manager with static configuration
type StaticManager struct {
	flags map[FeatureFlag]bool
	mu    sync.RWMutex
}

// NewStaticManager creates a manager with predefined flag states
func NewStaticManager(flags map[FeatureFlag]bool) *StaticManager {
	if flags == nil {
		flags = make(map[FeatureFlag]bool)
	}
	return &StaticManager{
		flags: flags,
	}
}

// IsEnabled checks if a feature flag is enabled
func (m *StaticManager) IsEnabled(ctx context.Context, flag FeatureFlag) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flags[flag]
}

// SetEnabled sets a feature flag's state
func (m *StaticManager) SetEnabled(flag FeatureFlag, enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags[flag] = enabled
}

// GetAllFlags returns all flag states
func (m *StaticManager) GetAllFlags() map[FeatureFlag]bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[FeatureFlag]bool)
	for k, v := range m.flags {
		result[k] = v
	}
	return result
}
