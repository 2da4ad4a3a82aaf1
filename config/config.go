package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Console    ConsoleConfig    `yaml:"console"`
	Listen     ListenConfig     `yaml:"listen"`
	Transcribe TranscribeConfig `yaml:"transcribe"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Hub        HubConfig        `yaml:"hub"`
	Timer      TimerConfig      `yaml:"timer"`
	Pushover   PushoverConfig   `yaml:"pushover"`
	Log        LogConfig        `yaml:"log"`
}

type ConsoleConfig struct {
	WakeWord        string `yaml:"wake_word"`
	AwaitTimeout    string `yaml:"await_timeout"`
	RestartCooldown string `yaml:"restart_cooldown"`
	PropagationWait string `yaml:"propagation_wait"`
	RoutinesFile    string `yaml:"routines_file"`
	VoiceOutput     bool   `yaml:"voice_output"`
}

type ListenConfig struct {
	Source     string `yaml:"source"`
	HTTPAddr   string `yaml:"http_addr"`
	AuthToken  string `yaml:"auth_token"`
	FileDir    string `yaml:"file_dir"`
	SampleRate int    `yaml:"sample_rate"`
}

type TranscribeConfig struct {
	URL      string `yaml:"url"`
	APIKey   string `yaml:"api_key"`
	Language string `yaml:"language"`
}

type ClassifierConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

type HubConfig struct {
	URL          string `yaml:"url"`
	Token        string `yaml:"token"`
	SyncInterval string `yaml:"sync_interval"`
	FreshTTL     string `yaml:"fresh_ttl"`
}

type TimerConfig struct {
	URL string `yaml:"url"`
}

type PushoverConfig struct {
	Token   string `yaml:"token"`
	UserKey string `yaml:"user_key"`
	Enabled bool   `yaml:"enabled"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Console.WakeWord == "" {
		c.Console.WakeWord = "jarvis"
	}
	if c.Console.AwaitTimeout == "" {
		c.Console.AwaitTimeout = "5s"
	}
	if c.Console.RestartCooldown == "" {
		c.Console.RestartCooldown = "300ms"
	}
	if c.Console.PropagationWait == "" {
		c.Console.PropagationWait = "300ms"
	}
	if c.Console.RoutinesFile == "" {
		c.Console.RoutinesFile = "routines.yaml"
	}
	if c.Listen.Source == "" {
		c.Listen.Source = "http"
	}
	if c.Listen.HTTPAddr == "" {
		c.Listen.HTTPAddr = ":8080"
	}
	if c.Listen.FileDir == "" {
		c.Listen.FileDir = "./transcripts"
	}
	if c.Listen.SampleRate == 0 {
		c.Listen.SampleRate = 16000
	}
	if c.Hub.SyncInterval == "" {
		c.Hub.SyncInterval = "5m"
	}
	if c.Hub.FreshTTL == "" {
		c.Hub.FreshTTL = "5s"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}
