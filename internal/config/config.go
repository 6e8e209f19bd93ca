package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// ICEServer is one STUN/TURN entry handed to clients for peer setup.
type ICEServer struct {
	URLs       []string `mapstructure:"urls"`
	Username   string   `mapstructure:"username"`
	Credential string   `mapstructure:"credential"`
}

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	// Secret signs the cookie session store.
	Secret string `mapstructure:"secret"`
	// AuthSecret is the shared HMAC secret for identity claims.
	// Empty means identity claims are trusted as-is.
	AuthSecret  string `mapstructure:"auth_secret"`
	MaxRoomSize int    `mapstructure:"max_room_size"`
	// MultiRoom lets one connection be a member of several rooms at once.
	MultiRoom        bool          `mapstructure:"multi_room"`
	ChatRateLimit    int           `mapstructure:"chat_rate_limit"`
	ChatRateInterval time.Duration `mapstructure:"chat_rate_interval"`
	// RedisAddr enables the cross-instance broadcast bridge when set.
	RedisAddr  string      `mapstructure:"redis_addr"`
	ICEServers []ICEServer `mapstructure:"ice_servers"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("max_room_size", 10)
	v.SetDefault("multi_room", false)
	v.SetDefault("chat_rate_limit", 20)
	v.SetDefault("chat_rate_interval", "10s")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if len(cfg.ICEServers) == 0 {
		cfg.ICEServers = []ICEServer{{URLs: []string{"stun:stun.l.google.com:19302"}}}
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | MaxRoomSize: %d\n", cfg.Mode, cfg.Port, cfg.MaxRoomSize)
	return &cfg, nil
}
