package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sharewatch-cli/internal/core/domain"
)

// mockConfigStore is an in-memory config store.
type mockConfigStore struct {
	data   map[string]any
	setErr error
}

func newMockConfigStore() *mockConfigStore {
	return &mockConfigStore{data: make(map[string]any)}
}

func (m *mockConfigStore) Get(key string) (any, bool) {
	v, ok := m.data[key]
	return v, ok
}

func (m *mockConfigStore) GetString(key string) string {
	if v, ok := m.data[key].(string); ok {
		return v
	}
	return ""
}

func (m *mockConfigStore) GetInt(key string) int {
	switch v := m.data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}

func (m *mockConfigStore) GetBool(key string) bool {
	v, _ := m.data[key].(bool)
	return v
}

func (m *mockConfigStore) GetStringSlice(key string) []string {
	v, _ := m.data[key].([]string)
	return v
}

func (m *mockConfigStore) Set(key string, value any) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func (m *mockConfigStore) Load() error { return nil }

func (m *mockConfigStore) Path() string { return "/tmp/config.toml" }

func TestSettingsDefaults(t *testing.T) {
	svc := NewSettingsService(newMockConfigStore())

	settings, err := svc.Get()
	require.NoError(t, err)

	assert.Empty(t, settings.Graph.TenantID)
	assert.Equal(t, 100*time.Millisecond, settings.Graph.Delay)
	assert.Equal(t, 7*24*time.Hour, settings.Scan.FullScanInterval)
	assert.Equal(t, 24*time.Hour, settings.Scan.ScheduleInterval)
	assert.Equal(t, "./reports", settings.Report.OutputDir)
	assert.Equal(t, ":8000", settings.Dashboard.ListenAddr)
	assert.False(t, settings.Scan.SkipSites)
}

func TestSettingsReadsStore(t *testing.T) {
	store := newMockConfigStore()
	store.data[keyTenantID] = "tenant-1"
	store.data[keyDelayMS] = int64(250)
	store.data[keyFullScanDays] = int64(14)
	store.data[keyScheduleHours] = int64(6)
	store.data[keyScanAccounts] = []string{"anna@contoso.com"}
	store.data[keySkipSites] = true

	settings, err := NewSettingsService(store).Get()
	require.NoError(t, err)

	assert.Equal(t, "tenant-1", settings.Graph.TenantID)
	assert.Equal(t, 250*time.Millisecond, settings.Graph.Delay)
	assert.Equal(t, 14*24*time.Hour, settings.Scan.FullScanInterval)
	assert.Equal(t, 6*time.Hour, settings.Scan.ScheduleInterval)
	assert.Equal(t, []string{"anna@contoso.com"}, settings.Scan.Accounts)
	assert.True(t, settings.Scan.SkipSites)
}

func TestSettingsEnvOverridesStore(t *testing.T) {
	store := newMockConfigStore()
	store.data[keyTenantID] = "from-file"
	t.Setenv(envTenantID, "from-env")
	t.Setenv(envAccounts, "anna@contoso.com, bob@contoso.com")
	t.Setenv(envSkipSites, "true")

	settings, err := NewSettingsService(store).Get()
	require.NoError(t, err)

	assert.Equal(t, "from-env", settings.Graph.TenantID)
	assert.Equal(t, []string{"anna@contoso.com", "bob@contoso.com"}, settings.Scan.Accounts)
	assert.True(t, settings.Scan.SkipSites)
}

func TestSettingsSaveRoundTrip(t *testing.T) {
	store := newMockConfigStore()
	svc := NewSettingsService(store)

	in := domain.DefaultAppSettings()
	in.Graph.TenantID = "tenant-1"
	in.Graph.ClientID = "client-1"
	in.Graph.ClientSecret = "s3cret"
	in.Scan.Accounts = []string{"anna@contoso.com"}
	require.NoError(t, svc.Save(in))

	out, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, "tenant-1", out.Graph.TenantID)
	assert.Equal(t, "s3cret", out.Graph.ClientSecret)
	assert.Equal(t, []string{"anna@contoso.com"}, out.Scan.Accounts)
}

func TestSettingsSaveKeepsStoredSecret(t *testing.T) {
	store := newMockConfigStore()
	store.data[keyClientSecret] = "existing"
	svc := NewSettingsService(store)

	in := domain.DefaultAppSettings()
	in.Graph.TenantID = "tenant-1"
	require.NoError(t, svc.Save(in))

	assert.Equal(t, "existing", store.data[keyClientSecret])
}

func TestSettingsSetSecret(t *testing.T) {
	store := newMockConfigStore()
	svc := NewSettingsService(store)

	require.NoError(t, svc.SetSecret("s3cret"))
	assert.Equal(t, "s3cret", store.data[keyClientSecret])

	assert.Error(t, svc.SetSecret(""))
}
