package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/aymerick/raymond"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultCheckFrequency  = 60 * time.Second
	DefaultRetryDelay      = 60 * time.Second
	DefaultAlertCooldown   = 5 * time.Minute
	DefaultSMTPPort        = 587
	DefaultSMTPTimeout     = 30 * time.Second
	DefaultProbeAddress    = "www.google.com:80"
	DefaultProbeTimeout    = 5 * time.Second
	DefaultLogLevel        = "info"
	DefaultSubjectTemplate = "{{device_name}}: {{resource_name}} threshold crossed"
	DefaultBodyTemplate    = "{{resource_name}} on {{device_name}} crossed the configured threshold of {{threshold}}."
)

// Config is the full hostwatch configuration tree.
// Fields map 1:1 to config.example.yaml.
type Config struct {
	General    GeneralConfig    `yaml:"general"`
	Thresholds ThresholdsConfig `yaml:"thresholds"`
	Time       TimeConfig       `yaml:"time"`
	Email      EmailConfig      `yaml:"email"`
	Network    NetworkConfig    `yaml:"network"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// GeneralConfig holds host identity, monitored disks and logging.
type GeneralConfig struct {
	// DeviceName overrides the host name used in alerts and cooldown keys.
	DeviceName string `yaml:"device_name"`

	// Disks lists the mount points (directories) to check for free space.
	Disks []string `yaml:"disks" validate:"required,min=1,dive,required"`

	// LogLevel is one of: debug | info | warn | error.
	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// LogFile, when set, receives a copy of every log record.
	LogFile string `yaml:"log_file"`
}

// ThresholdsConfig holds one limit per monitored resource.
// Disk is a minimum percentage of free space; the others are maximum usage
// percentages, except GPUTemp which is in degrees Celsius.
type ThresholdsConfig struct {
	Disk      *float64 `yaml:"disk" validate:"required,gte=0,lte=100"`
	CPU       *float64 `yaml:"cpu" validate:"required,gte=0,lte=100"`
	RAM       *float64 `yaml:"ram" validate:"required,gte=0,lte=100"`
	GPU       *float64 `yaml:"gpu" validate:"required,gte=0,lte=100"`
	GPUMemory *float64 `yaml:"gpu_memory" validate:"required,gte=0,lte=100"`
	GPUTemp   *float64 `yaml:"gpu_temp" validate:"required,gte=0"`
}

// TimeConfig holds the polling cadence, email retry delay and alert cooldown.
type TimeConfig struct {
	CheckFrequency    Duration `yaml:"check_frequency"`
	EmailRetryDelay   Duration `yaml:"email_retry_delay"`
	AlertCooldownTime Duration `yaml:"alert_cooldown_time"`
}

// EmailConfig holds SMTP transport settings and alert templates.
type EmailConfig struct {
	SMTPServer   string `yaml:"smtp_server" validate:"required"`
	SMTPPort     int    `yaml:"smtp_port" validate:"required,min=1,max=65535"`
	SMTPUsername string `yaml:"smtp_username" validate:"required"`

	// SMTPPassword is the literal password. Prefer SMTPPasswordEnv.
	SMTPPassword string `yaml:"smtp_password"`
	// SMTPPasswordEnv names the environment variable holding the password.
	SMTPPasswordEnv string `yaml:"smtp_password_env"`

	Recipient string `yaml:"recipient" validate:"required,email"`

	// Templates are handlebars sources with device_name, resource_name and
	// threshold placeholders.
	AlertSubjectTemplate string `yaml:"alert_subject_template" validate:"required"`
	AlertBodyTemplate    string `yaml:"alert_body_template" validate:"required"`

	// SendRatePerMinute caps outgoing alert emails. Zero disables the cap.
	SendRatePerMinute int `yaml:"send_rate_per_minute" validate:"gte=0"`

	// Timeout bounds one SMTP session.
	Timeout Duration `yaml:"timeout"`
}

// Password returns the SMTP password, resolved from SMTPPasswordEnv when set.
func (e EmailConfig) Password() string {
	if e.SMTPPasswordEnv != "" {
		if v, ok := os.LookupEnv(e.SMTPPasswordEnv); ok {
			return v
		}
	}
	return e.SMTPPassword
}

// NetworkConfig configures the reachability probe run between email retries.
type NetworkConfig struct {
	ProbeAddress string   `yaml:"probe_address" validate:"omitempty,hostname_port"`
	ProbeTimeout Duration `yaml:"probe_timeout"`
}

// MetricsConfig configures Prometheus exposition.
type MetricsConfig struct {
	// ListenAddress serves /metrics and /api/v1/* when non-empty (e.g. ":9877").
	ListenAddress string `yaml:"listen_address"`

	// TextfilePath is rewritten after every check cycle for node_exporter's
	// textfile collector when non-empty.
	TextfilePath string `yaml:"textfile_path"`
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML document.
func Parse(data []byte) (*Config, error) {
	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel: DefaultLogLevel,
		},
		Time: TimeConfig{
			CheckFrequency:    Duration{DefaultCheckFrequency},
			EmailRetryDelay:   Duration{DefaultRetryDelay},
			AlertCooldownTime: Duration{DefaultAlertCooldown},
		},
		Email: EmailConfig{
			SMTPPort:             DefaultSMTPPort,
			AlertSubjectTemplate: DefaultSubjectTemplate,
			AlertBodyTemplate:    DefaultBodyTemplate,
			Timeout:              Duration{DefaultSMTPTimeout},
		},
		Network: NetworkConfig{
			ProbeAddress: DefaultProbeAddress,
			ProbeTimeout: Duration{DefaultProbeTimeout},
		},
	}
}

var structValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if err := structValidator.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return errors.New(describe(verrs[0]))
		}
		return err
	}

	if cfg.Time.CheckFrequency.Duration <= 0 {
		return fmt.Errorf("time.check_frequency must be positive")
	}
	if cfg.Time.EmailRetryDelay.Duration < 0 {
		return fmt.Errorf("time.email_retry_delay must not be negative")
	}
	if cfg.Time.AlertCooldownTime.Duration < 0 {
		return fmt.Errorf("time.alert_cooldown_time must not be negative")
	}
	if cfg.Email.SMTPPassword == "" && cfg.Email.SMTPPasswordEnv == "" {
		return fmt.Errorf("option 'smtp_password' or 'smtp_password_env' is missing in section 'email'")
	}
	if _, err := raymond.Parse(cfg.Email.AlertSubjectTemplate); err != nil {
		return fmt.Errorf("email.alert_subject_template: %w", err)
	}
	if _, err := raymond.Parse(cfg.Email.AlertBodyTemplate); err != nil {
		return fmt.Errorf("email.alert_body_template: %w", err)
	}
	return nil
}

// describe renders a validator failure as "option 'x' ... section 'y'".
func describe(fe validator.FieldError) string {
	path := strings.TrimPrefix(fe.Namespace(), "Config.")
	section, option, ok := strings.Cut(path, ".")
	if !ok {
		section, option = "", path
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("option '%s' is missing in section '%s'", option, section)
	case "email":
		return fmt.Sprintf("option '%s' in section '%s' is not a valid email address: %v", option, section, fe.Value())
	case "min", "max", "gte", "lte":
		return fmt.Sprintf("option '%s' in section '%s' must satisfy %s=%s", option, section, fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("option '%s' in section '%s' is invalid (%s)", option, section, fe.Tag())
	}
}
