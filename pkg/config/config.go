package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/shouni/gemini-canvas-kit/pkg/domain"
)

// Config はキャンバスサーバー全体の設定です。YAML ファイルと環境変数の
// 両方から読み込み、環境変数がファイルの値を上書きします。
type Config struct {
	Env          string `yaml:"env" env:"CANVAS_ENV" env-default:"local"`
	ListenAddr   string `yaml:"listen_addr" env:"CANVAS_LISTEN_ADDR" env-default:"localhost:8080"`
	GeminiAPIKey string `yaml:"gemini_api_key" env:"GEMINI_API_KEY" env-default:""`
	Model        string `yaml:"model" env:"CANVAS_MODEL" env-default:"gemini-2.5-flash-image"`

	SessionTTL    time.Duration `yaml:"session_ttl" env:"CANVAS_SESSION_TTL" env-default:"30m"`
	SweepInterval time.Duration `yaml:"sweep_interval" env:"CANVAS_SWEEP_INTERVAL" env-default:"5m"`

	Compression struct {
		Enabled bool `yaml:"enabled" env:"CANVAS_COMPRESSION" env-default:"true"`
		Quality int  `yaml:"quality" env:"CANVAS_COMPRESSION_QUALITY" env-default:"75"`
	} `yaml:"compression"`

	Fetch struct {
		Timeout  time.Duration `yaml:"timeout" env:"CANVAS_FETCH_TIMEOUT" env-default:"30s"`
		MaxBytes int64         `yaml:"max_bytes" env:"CANVAS_FETCH_MAX_BYTES" env-default:"20971520"`
		FileRoot string        `yaml:"file_root" env:"CANVAS_FILE_ROOT" env-default:""`
	} `yaml:"fetch"`
}

// Load は path の YAML と環境変数から設定を読み込みます。ファイルが
// 存在しない場合は環境変数のみで構成するため、GEMINI_API_KEY さえあれば
// 設定ファイルなしで起動できるのだ。
func Load(path string) (*Config, error) {
	conf := &Config{}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, conf); err != nil {
			desc, _ := cleanenv.GetDescription(conf, nil)
			return nil, fmt.Errorf("config: %s; %s", err, desc)
		}
		return conf, nil
	}

	if err := cleanenv.ReadEnv(conf); err != nil {
		desc, _ := cleanenv.GetDescription(conf, nil)
		return nil, fmt.Errorf("config: %s; %s", err, desc)
	}
	return conf, nil
}

// Validate は起動に必須の設定を検査します。
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return domain.ErrNotConfigured
	}
	return nil
}
