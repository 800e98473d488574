// Package config loads and watches the hostwatch configuration file (config.yaml).
//
// Top-level types:
//   - Config{General, Thresholds, Time, Email, Network, Metrics}
//   - GeneralConfig: device_name, disks [], log_level, log_file
//   - ThresholdsConfig: disk (min % free), cpu, ram, gpu, gpu_memory (max % used),
//     gpu_temp (max °C)
//   - TimeConfig: check_frequency, email_retry_delay, alert_cooldown_time; each
//     accepts a duration string or integer seconds
//   - EmailConfig: SMTP server/port/credentials, recipient, handlebars templates
//
// Load(path) reads the YAML file, applies defaults (60s checks, 60s retry
// delay, 5m cooldown, port 587), then validates with go-playground/validator.
// Validation failures read like "option 'recipient' is missing in section 'email'".
//
// Watch(ctx, path, onChange) uses fsnotify to hot-reload the file; Holder
// publishes the active snapshot to the check loop.
package config
