package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.dialog/config.toml.
type Config struct {
	DefaultProfile string          `toml:"default_profile"`
	Chat           ChatConfig      `toml:"chat"`
	Delivery       DeliveryConfig  `toml:"delivery"`
	Simulator      SimulatorConfig `toml:"simulator"`
}

// ChatConfig selects the transport and names the conversation.
// An empty WSURL selects the local simulator transport.
type ChatConfig struct {
	WSURL             string `toml:"ws_url"`
	ConversationID    string `toml:"conversation_id"`
	ConversationTitle string `toml:"conversation_title"`
}

// DeliveryConfig holds the fixed delays between delivery status stages
// for outgoing messages.
type DeliveryConfig struct {
	SentAfter      Duration `toml:"sent_after"`
	DeliveredAfter Duration `toml:"delivered_after"`
	ReadAfter      Duration `toml:"read_after"`
}

// SimulatorConfig holds the simulator transport timings.
type SimulatorConfig struct {
	IdlePeriod Duration `toml:"idle_period"`
	TypingTime Duration `toml:"typing_time"`
	ReplyDelay Duration `toml:"reply_delay"`
}

// Duration is a time.Duration that round-trips through TOML as a string
// like "600ms" or "6s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the built-in configuration: simulator transport,
// a single conversation, and the stock delivery/simulator timings.
func Default() *Config {
	return &Config{
		DefaultProfile: "main",
		Chat: ChatConfig{
			ConversationID:    "main",
			ConversationTitle: "Dialogue",
		},
		Delivery: DeliveryConfig{
			SentAfter:      Duration(600 * time.Millisecond),
			DeliveredAfter: Duration(600 * time.Millisecond),
			ReadAfter:      Duration(800 * time.Millisecond),
		},
		Simulator: SimulatorConfig{
			IdlePeriod: Duration(6 * time.Second),
			TypingTime: Duration(1500 * time.Millisecond),
			ReplyDelay: Duration(time.Second),
		},
	}
}

// Load reads config from the given path and fills unset sections with
// defaults. Returns an error if the file is missing or malformed.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
