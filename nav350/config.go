package nav350

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"
	"gopkg.in/yaml.v3"

	"go.viam.com/sicknav/sector"
	"go.viam.com/sicknav/transport"
)

// Defaults applied to a Config.
const (
	DefaultConnectTimeoutMs = 1000
	DefaultReplyTimeoutMs   = 5000
	DefaultPollIntervalMs   = 100
	DefaultAngleStep        = 0.25
	// DefaultAccessLevel is the authorized client level.
	DefaultAccessLevel = 3
	// DefaultAccessPassword is the factory password of the authorized client level.
	DefaultAccessPassword = "F4724744"
)

// Config describes how to reach a NAV350 and, optionally, the scan configuration to apply.
type Config struct {
	Host       string `json:"host,omitempty" yaml:"host,omitempty"`
	Port       int    `json:"port,omitempty" yaml:"port,omitempty"`
	SerialPath string `json:"serial_path,omitempty" yaml:"serial_path,omitempty"`
	BaudRate   int    `json:"baud_rate,omitempty" yaml:"baud_rate,omitempty"`

	ConnectTimeoutMs int `json:"connect_timeout_ms,omitempty" yaml:"connect_timeout_ms,omitempty"`
	ReplyTimeoutMs   int `json:"reply_timeout_ms,omitempty" yaml:"reply_timeout_ms,omitempty"`
	PollIntervalMs   int `json:"poll_interval_ms,omitempty" yaml:"poll_interval_ms,omitempty"`

	AccessLevel    int    `json:"access_level,omitempty" yaml:"access_level,omitempty"`
	AccessPassword string `json:"access_password,omitempty" yaml:"access_password,omitempty"`

	Global    *sector.GlobalConfig  `json:"global,omitempty" yaml:"global,omitempty"`
	Sectors   []sector.ActiveSector `json:"sectors,omitempty" yaml:"sectors,omitempty"`
	AngleStep float64               `json:"angle_step_deg,omitempty" yaml:"angle_step_deg,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) ([]string, error) {
	if cfg.Host == "" && cfg.SerialPath == "" {
		return nil, goutils.NewConfigValidationFieldRequiredError(path, "host")
	}
	if cfg.Host != "" && cfg.SerialPath != "" {
		return nil, goutils.NewConfigValidationError(path, errors.New("only one of host and serial_path may be set"))
	}
	if err := cfg.validateValues(); err != nil {
		return nil, goutils.NewConfigValidationError(path, err)
	}
	return nil, nil
}

func (cfg *Config) populateDefaults() {
	if cfg.Port == 0 {
		cfg.Port = transport.DefaultTCPPort
	}
	if cfg.BaudRate == 0 {
		cfg.BaudRate = transport.DefaultSerialOptions.BaudRate
	}
	if cfg.ConnectTimeoutMs == 0 {
		cfg.ConnectTimeoutMs = DefaultConnectTimeoutMs
	}
	if cfg.ReplyTimeoutMs == 0 {
		cfg.ReplyTimeoutMs = DefaultReplyTimeoutMs
	}
	if cfg.PollIntervalMs == 0 {
		cfg.PollIntervalMs = DefaultPollIntervalMs
	}
	if cfg.AccessLevel == 0 {
		cfg.AccessLevel = DefaultAccessLevel
	}
	if cfg.AccessPassword == "" {
		cfg.AccessPassword = DefaultAccessPassword
	}
	if cfg.AngleStep == 0 {
		if cfg.Global != nil {
			cfg.AngleStep = cfg.Global.AngleStep
		} else {
			cfg.AngleStep = DefaultAngleStep
		}
	}
}

func (cfg *Config) validateValues() error {
	errs := make([]string, 0)
	if cfg.Port < 0 || cfg.Port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d", cfg.Port))
	}
	if cfg.ConnectTimeoutMs < 0 || cfg.ReplyTimeoutMs < 0 || cfg.PollIntervalMs < 0 {
		errs = append(errs, "timeouts must not be negative")
	}
	if cfg.AccessLevel < 0 || cfg.AccessLevel > 0xFF {
		errs = append(errs, fmt.Sprintf("invalid access_level %d", cfg.AccessLevel))
	}
	if strings.ContainsAny(cfg.AccessPassword, " \x02\x03") {
		errs = append(errs, "access_password must be a single token")
	}
	if cfg.Global != nil {
		if err := sector.ValidateGlobalConfig(*cfg.Global); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(cfg.Sectors) > 0 {
		step := cfg.AngleStep
		if step == 0 && cfg.Global != nil {
			step = cfg.Global.AngleStep
		}
		if step == 0 {
			step = DefaultAngleStep
		}
		if _, err := sector.GenerateTable(cfg.Sectors, step); err != nil {
			errs = append(errs, err.Error())
		} else if err := sector.ValidatePulseFrequency(cfg.motorSpeed(), step, cfg.Sectors); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return errors.Errorf("error validating nav350 config: %s", strings.Join(errs, "\r\n"))
	}
	return nil
}

func (cfg *Config) motorSpeed() int {
	if cfg.Global != nil {
		return cfg.Global.MotorSpeed
	}
	return sector.MaxMotorSpeed
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (Config, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "reading nav350 config")
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parsing nav350 config %s", path)
	}
	return cfg, nil
}

// ApplyConfig pushes the global and scan area configuration of the device's Config, if any, after
// switching to the configured access level.
func (d *Device) ApplyConfig(ctx context.Context) error {
	if d.cfg.Global == nil && len(d.cfg.Sectors) == 0 {
		return nil
	}
	if err := d.SetAccessMode(ctx, d.cfg.AccessLevel, d.cfg.AccessPassword); err != nil {
		return err
	}
	if d.cfg.Global != nil {
		if _, err := d.SetGlobalConfig(ctx, *d.cfg.Global); err != nil {
			return err
		}
	}
	if len(d.cfg.Sectors) > 0 {
		if _, err := d.SetScanAreas(ctx, d.cfg.Sectors, d.cfg.AngleStep); err != nil {
			return err
		}
	}
	return nil
}
