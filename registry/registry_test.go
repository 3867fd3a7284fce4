package registry

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildKey(t *testing.T) {
	assert.Equal(t, "/ffplan/planner/ffplan/host-1-abcd", buildKey("ffplan", "ffplan", "host-1-abcd"))
	assert.Equal(t, "/prod/planner/hanoi/", servicePrefix("prod", "hanoi"))
}

func TestWithDefaults(t *testing.T) {
	cfg := withDefaults(Config{Endpoints: []string{"localhost:2379"}})
	assert.Equal(t, "ffplan", cfg.Namespace)
	assert.Equal(t, 30*time.Second, cfg.TTL)
	assert.Equal(t, 5*time.Second, cfg.DialTimeout)

	cfg = withDefaults(Config{Namespace: "prod", TTL: 10 * time.Second, DialTimeout: time.Second})
	assert.Equal(t, "prod", cfg.Namespace)
	assert.Equal(t, 10*time.Second, cfg.TTL)
	assert.Equal(t, time.Second, cfg.DialTimeout)

	// Leases are granted in whole seconds.
	cfg = withDefaults(Config{TTL: 100 * time.Millisecond})
	assert.Equal(t, 30*time.Second, cfg.TTL)
}

func TestNewClient_NoEndpoints(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoints cannot be empty")
}

func TestClientTLS(t *testing.T) {
	cfg, err := clientTLS(nil)
	require.NoError(t, err)
	assert.Nil(t, cfg)

	tests := []struct {
		name    string
		cfg     TLSConfig
		wantErr string
	}{
		{"missing cert", TLSConfig{KeyFile: "k", CAFile: "ca"}, "cert file is required"},
		{"missing key", TLSConfig{CertFile: "c", CAFile: "ca"}, "key file is required"},
		{"missing ca", TLSConfig{CertFile: "c", KeyFile: "k"}, "CA file is required"},
		{"unreadable pair", TLSConfig{CertFile: "/nonexistent/c", KeyFile: "/nonexistent/k", CAFile: "ca"}, "failed to load client certificate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := clientTLS(&tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDecodeInstances_SkipsBadEntries(t *testing.T) {
	good, err := json.Marshal(ServiceInfo{
		Name:       "ffplan",
		InstanceID: "w1",
		Queue:      "ffplan:requests",
		Metadata:   map[string]string{"mode": "0"},
		StartedAt:  time.Unix(1700000000, 0).UTC(),
	})
	require.NoError(t, err)

	got := decodeInstances([][]byte{good, []byte("{not json")})
	require.Len(t, got, 1)
	assert.Equal(t, "w1", got[0].InstanceID)
	assert.Equal(t, "ffplan:requests", got[0].Queue)
	assert.Equal(t, "0", got[0].Metadata["mode"])
}

func TestServiceInfo_JSONFieldNames(t *testing.T) {
	data, err := json.Marshal(ServiceInfo{Name: "ffplan", InstanceID: "w1", Queue: "q"})
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Contains(t, fields, "instance_id")
	assert.Contains(t, fields, "started_at")
	assert.NotContains(t, fields, "endpoint")
}
