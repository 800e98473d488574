package config

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obsidianstack/hostwatch/internal/waittime"
)

const validYAML = `
general:
  device_name: build-01
  disks: ["/", "/data"]
  log_level: debug
thresholds:
  disk: 10
  cpu: 90
  ram: 85
  gpu: 95
  gpu_memory: 80
  gpu_temp: 83
time:
  check_frequency: 120
  email_retry_delay: 30s
  alert_cooldown_time: 10m
email:
  smtp_server: smtp.example.com
  smtp_port: 2525
  smtp_username: alerts@example.com
  smtp_password: hunter2
  recipient: ops@example.com
  alert_subject_template: "{{device_name}}: {{resource_name}}"
  alert_body_template: "{{resource_name}} over {{threshold}}"
`

func TestLoad_Valid(t *testing.T) {
	cfg := loadFromString(t, validYAML)

	assert.Equal(t, "build-01", cfg.General.DeviceName)
	assert.Equal(t, []string{"/", "/data"}, cfg.General.Disks)
	assert.Equal(t, "debug", cfg.General.LogLevel)
	require.NotNil(t, cfg.Thresholds.Disk)
	assert.Equal(t, 10.0, *cfg.Thresholds.Disk)
	assert.Equal(t, 83.0, *cfg.Thresholds.GPUTemp)
	assert.Equal(t, 120*time.Second, cfg.Time.CheckFrequency.Duration)
	assert.Equal(t, 30*time.Second, cfg.Time.EmailRetryDelay.Duration)
	assert.Equal(t, 10*time.Minute, cfg.Time.AlertCooldownTime.Duration)
	assert.Equal(t, 2525, cfg.Email.SMTPPort)
	assert.Equal(t, "hunter2", cfg.Email.Password())
}

func TestLoad_Defaults(t *testing.T) {
	yaml := `
general:
  disks: ["/"]
thresholds: {disk: 5, cpu: 90, ram: 90, gpu: 90, gpu_memory: 90, gpu_temp: 85}
email:
  smtp_server: smtp.example.com
  smtp_username: alerts@example.com
  smtp_password_env: HOSTWATCH_TEST_PASSWORD
  recipient: ops@example.com
`
	cfg := loadFromString(t, yaml)

	assert.Equal(t, DefaultCheckFrequency, cfg.Time.CheckFrequency.Duration)
	assert.Equal(t, DefaultRetryDelay, cfg.Time.EmailRetryDelay.Duration)
	assert.Equal(t, DefaultAlertCooldown, cfg.Time.AlertCooldownTime.Duration)
	assert.Equal(t, DefaultSMTPPort, cfg.Email.SMTPPort)
	assert.Equal(t, DefaultSubjectTemplate, cfg.Email.AlertSubjectTemplate)
	assert.Equal(t, DefaultProbeAddress, cfg.Network.ProbeAddress)
	assert.Equal(t, DefaultLogLevel, cfg.General.LogLevel)
}

func TestLoad_MissingOptions(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "missing recipient",
			yaml: `
general: {disks: ["/"]}
thresholds: {disk: 5, cpu: 90, ram: 90, gpu: 90, gpu_memory: 90, gpu_temp: 85}
email: {smtp_server: s, smtp_username: u, smtp_password: p}
`,
			wantErr: "option 'recipient' is missing in section 'email'",
		},
		{
			name: "missing cpu threshold",
			yaml: `
general: {disks: ["/"]}
thresholds: {disk: 5, ram: 90, gpu: 90, gpu_memory: 90, gpu_temp: 85}
email: {smtp_server: s, smtp_username: u, smtp_password: p, recipient: ops@example.com}
`,
			wantErr: "option 'cpu' is missing in section 'thresholds'",
		},
		{
			name: "no disks",
			yaml: `
thresholds: {disk: 5, cpu: 90, ram: 90, gpu: 90, gpu_memory: 90, gpu_temp: 85}
email: {smtp_server: s, smtp_username: u, smtp_password: p, recipient: ops@example.com}
`,
			wantErr: "option 'disks' is missing in section 'general'",
		},
		{
			name: "no password",
			yaml: `
general: {disks: ["/"]}
thresholds: {disk: 5, cpu: 90, ram: 90, gpu: 90, gpu_memory: 90, gpu_temp: 85}
email: {smtp_server: s, smtp_username: u, recipient: ops@example.com}
`,
			wantErr: "'smtp_password' or 'smtp_password_env'",
		},
		{
			name: "invalid recipient",
			yaml: `
general: {disks: ["/"]}
thresholds: {disk: 5, cpu: 90, ram: 90, gpu: 90, gpu_memory: 90, gpu_temp: 85}
email: {smtp_server: s, smtp_username: u, smtp_password: p, recipient: not-an-address}
`,
			wantErr: "not a valid email address",
		},
		{
			name: "threshold out of range",
			yaml: `
general: {disks: ["/"]}
thresholds: {disk: 5, cpu: 190, ram: 90, gpu: 90, gpu_memory: 90, gpu_temp: 85}
email: {smtp_server: s, smtp_username: u, smtp_password: p, recipient: ops@example.com}
`,
			wantErr: "option 'cpu' in section 'thresholds' must satisfy lte=100",
		},
		{
			name: "bad template",
			yaml: `
general: {disks: ["/"]}
thresholds: {disk: 5, cpu: 90, ram: 90, gpu: 90, gpu_memory: 90, gpu_temp: 85}
email: {smtp_server: s, smtp_username: u, smtp_password: p, recipient: ops@example.com, alert_body_template: "{{#if}}"}
`,
			wantErr: "alert_body_template",
		},
		{
			name: "zero check frequency",
			yaml: `
general: {disks: ["/"]}
thresholds: {disk: 5, cpu: 90, ram: 90, gpu: 90, gpu_memory: 90, gpu_temp: 85}
time: {check_frequency: 0}
email: {smtp_server: s, smtp_username: u, smtp_password: p, recipient: ops@example.com}
`,
			wantErr: "check_frequency must be positive",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := loadStringErr(t, tc.yaml)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	_, err := loadStringErr(t, `
general: {disks: ["/"]}
time: {check_frequency: soon}
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestLoad_LargeRetryDelaySeconds(t *testing.T) {
	tests := []struct {
		name    string
		seconds string
	}{
		{"far beyond int64 nanoseconds", "18446744074"},
		{"one past the largest duration", "9223372037"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			yml := strings.Replace(validYAML, "email_retry_delay: 30s", "email_retry_delay: "+tc.seconds, 1)
			cfg := loadFromString(t, yml)

			assert.Equal(t, time.Duration(math.MaxInt64), cfg.Time.EmailRetryDelay.Duration)
			assert.Equal(t, time.Hour, waittime.EnforceMaxDuration(cfg.Time.EmailRetryDelay.Duration))
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestEmailConfig_PasswordFromEnv(t *testing.T) {
	t.Setenv("HOSTWATCH_TEST_PASSWORD", "from-env")
	e := EmailConfig{SMTPPassword: "literal", SMTPPasswordEnv: "HOSTWATCH_TEST_PASSWORD"}
	assert.Equal(t, "from-env", e.Password())

	e.SMTPPasswordEnv = "HOSTWATCH_TEST_UNSET_VARIABLE"
	assert.Equal(t, "literal", e.Password())
}

func TestHolder(t *testing.T) {
	first := &Config{General: GeneralConfig{DeviceName: "a"}}
	h := NewHolder(first)
	assert.Same(t, first, h.Load())

	second := &Config{General: GeneralConfig{DeviceName: "b"}}
	h.Store(second)
	assert.Same(t, second, h.Load())
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validYAML), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, path, func(c *Config) { reloaded <- c }) }()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	updated := []byte(validYAML + "\nmetrics:\n  textfile_path: /tmp/hostwatch.prom\n")
	require.NoError(t, os.WriteFile(path, updated, 0o600))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "/tmp/hostwatch.prom", cfg.Metrics.TextfilePath)
	case <-time.After(3 * time.Second):
		t.Fatal("Watch did not report the rewritten config")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancellation")
	}
}

// loadFromString writes yaml to a temp file and calls Load, failing on error.
func loadFromString(t *testing.T, content string) *Config {
	t.Helper()
	cfg, err := loadStringErr(t, content)
	require.NoError(t, err)
	return cfg
}

// loadStringErr writes yaml to a temp file and calls Load, returning any error.
func loadStringErr(t *testing.T, content string) (*Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return Load(path)
}
