// Package config loads meetcap configuration from YAML, .env-populated
// environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root application configuration.
type Config struct {
	// DataDir holds the run history database.
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`
	// SchedulesFile is the JSON list of pending sessions.
	SchedulesFile string `mapstructure:"schedules_file" yaml:"schedules_file"`
	// DBPath is the sqlite run history; defaults under DataDir.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`

	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	OBS       OBSConfig       `mapstructure:"obs" yaml:"obs"`
	Detection DetectionConfig `mapstructure:"detection" yaml:"detection"`
	Finalize  FinalizeConfig  `mapstructure:"finalize" yaml:"finalize"`
	Queue     QueueConfig     `mapstructure:"queue" yaml:"queue"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level" yaml:"level"`
	// Format: console or json
	Format string `mapstructure:"format" yaml:"format"`
	// Outputs: stdout, stderr, or file paths
	Outputs     []string       `mapstructure:"outputs" yaml:"outputs"`
	Rotation    RotationConfig `mapstructure:"rotation" yaml:"rotation"`
	Development bool           `mapstructure:"development" yaml:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
	Enable     bool `mapstructure:"enable" yaml:"enable"`
	MaxSizeMB  int  `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool `mapstructure:"compress" yaml:"compress"`
}

// OBSConfig addresses the recording control service.
type OBSConfig struct {
	URL              string        `mapstructure:"url" yaml:"url"`
	RPCVersion       int           `mapstructure:"rpc_version" yaml:"rpc_version"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout" yaml:"handshake_timeout"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

// DetectionConfig tunes join and end-of-meeting detection.
type DetectionConfig struct {
	LaunchSettle  time.Duration `mapstructure:"launch_settle" yaml:"launch_settle"`
	JoinTimeout   time.Duration `mapstructure:"join_timeout" yaml:"join_timeout"`
	JoinPoll      time.Duration `mapstructure:"join_poll" yaml:"join_poll"`
	ClosePoll     time.Duration `mapstructure:"close_poll" yaml:"close_poll"`
	ProcessPoll   time.Duration `mapstructure:"process_poll" yaml:"process_poll"`
	ProcessName   string        `mapstructure:"process_name" yaml:"process_name"`
	TitlePatterns []string      `mapstructure:"title_patterns" yaml:"title_patterns"`
}

// FinalizeConfig tunes the output file stability wait.
type FinalizeConfig struct {
	Poll    time.Duration `mapstructure:"poll" yaml:"poll"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// QueueConfig locates the downstream task queue and destination layout.
type QueueConfig struct {
	TasksFile     string   `mapstructure:"tasks_file" yaml:"tasks_file"`
	WorkspaceRoot string   `mapstructure:"workspace_root" yaml:"workspace_root"`
	UnitKeys      []string `mapstructure:"unit_keys" yaml:"unit_keys"`
	GroupKeys     []string `mapstructure:"group_keys" yaml:"group_keys"`
}

// Default returns a Config populated with the reference values.
func Default() Config {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return Config{
		DataDir:       ".meetcap",
		SchedulesFile: "zoom_schedules.json",
		Log: LogConfig{
			Level:   "info",
			Format:  "console",
			Outputs: []string{"stderr"},
			Rotation: RotationConfig{
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   true,
			},
		},
		OBS: OBSConfig{
			URL:              "ws://localhost:4455",
			RPCVersion:       1,
			HandshakeTimeout: 10 * time.Second,
			RequestTimeout:   30 * time.Second,
		},
		Detection: DetectionConfig{
			LaunchSettle:  10 * time.Second,
			JoinTimeout:   60 * time.Second,
			JoinPoll:      time.Second,
			ClosePoll:     2 * time.Second,
			ProcessPoll:   5 * time.Second,
			ProcessName:   defaultProcessName(),
			TitlePatterns: []string{`(?i)zoom meeting`, `(?i)zoom$`},
		},
		Finalize: FinalizeConfig{
			Poll:    time.Second,
			Timeout: 30 * time.Second,
		},
		Queue: QueueConfig{
			TasksFile:     "audio_schedules.json",
			WorkspaceRoot: filepath.Join(cwd, "Diploma", "Workspace"),
			UnitKeys:      []string{"faculty", "unit"},
			GroupKeys:     []string{"classText", "group"},
		},
	}
}

// Load reads configuration from path when non-empty, otherwise from
// meetcap.yaml in the working directory or the user config dir when present.
// Environment variables use the prefix MEETCAP with `.` replaced by `_`,
// e.g. MEETCAP_OBS_URL. The legacy OBS_HOST/OBS_PORT pair is honoured when
// MEETCAP_OBS_URL is unset.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("MEETCAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	seedDefaults(v, Default())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("meetcap")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "meetcap"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	// defaults are all seeded above; a zero value keeps lists from merging
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	applyLegacyEnv(&cfg)
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "meetcap.db")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the orchestrator cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.OBS.URL) == "" {
		return fmt.Errorf("obs.url is required")
	}
	if strings.TrimSpace(c.SchedulesFile) == "" || strings.TrimSpace(c.Queue.TasksFile) == "" {
		return fmt.Errorf("schedules_file and queue.tasks_file are required")
	}
	positive := map[string]time.Duration{
		"obs.handshake_timeout":  c.OBS.HandshakeTimeout,
		"obs.request_timeout":    c.OBS.RequestTimeout,
		"detection.join_timeout": c.Detection.JoinTimeout,
		"detection.join_poll":    c.Detection.JoinPoll,
		"detection.close_poll":   c.Detection.ClosePoll,
		"detection.process_poll": c.Detection.ProcessPoll,
		"finalize.poll":          c.Finalize.Poll,
		"finalize.timeout":       c.Finalize.Timeout,
	}
	for key, d := range positive {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", key, d)
		}
	}
	if c.Detection.LaunchSettle < 0 {
		return fmt.Errorf("detection.launch_settle must not be negative")
	}
	return nil
}

func seedDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("schedules_file", cfg.SchedulesFile)
	v.SetDefault("db_path", cfg.DBPath)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.development", cfg.Log.Development)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)
	v.SetDefault("obs.url", cfg.OBS.URL)
	v.SetDefault("obs.rpc_version", cfg.OBS.RPCVersion)
	v.SetDefault("obs.handshake_timeout", cfg.OBS.HandshakeTimeout)
	v.SetDefault("obs.request_timeout", cfg.OBS.RequestTimeout)
	v.SetDefault("detection.launch_settle", cfg.Detection.LaunchSettle)
	v.SetDefault("detection.join_timeout", cfg.Detection.JoinTimeout)
	v.SetDefault("detection.join_poll", cfg.Detection.JoinPoll)
	v.SetDefault("detection.close_poll", cfg.Detection.ClosePoll)
	v.SetDefault("detection.process_poll", cfg.Detection.ProcessPoll)
	v.SetDefault("detection.process_name", cfg.Detection.ProcessName)
	v.SetDefault("detection.title_patterns", cfg.Detection.TitlePatterns)
	v.SetDefault("finalize.poll", cfg.Finalize.Poll)
	v.SetDefault("finalize.timeout", cfg.Finalize.Timeout)
	v.SetDefault("queue.tasks_file", cfg.Queue.TasksFile)
	v.SetDefault("queue.workspace_root", cfg.Queue.WorkspaceRoot)
	v.SetDefault("queue.unit_keys", cfg.Queue.UnitKeys)
	v.SetDefault("queue.group_keys", cfg.Queue.GroupKeys)
}

func applyLegacyEnv(cfg *Config) {
	if os.Getenv("MEETCAP_OBS_URL") != "" {
		return
	}
	host, port := os.Getenv("OBS_HOST"), os.Getenv("OBS_PORT")
	if host == "" && port == "" {
		return
	}
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "4455"
	}
	cfg.OBS.URL = fmt.Sprintf("ws://%s:%s", host, port)
}

func defaultProcessName() string {
	switch runtime.GOOS {
	case "windows":
		return "Zoom.exe"
	case "darwin":
		return "zoom.us"
	default:
		return "zoom"
	}
}
