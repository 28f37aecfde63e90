package config

import (
	"encoding/base64"
	"errors"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	Env        string `mapstructure:"env"`
	Port       int    `mapstructure:"port"`
	InstanceID string `mapstructure:"instance_id"`
}

type AuthConfig struct {
	JWTAlg           string `mapstructure:"jwt_alg"`
	JWTSecret        string `mapstructure:"jwt_secret"`
	JWTPublicKeyPath string `mapstructure:"jwt_public_key_path"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

type CryptoConfig struct {
	// ContentKey is the base64 of a 32-byte AES key.
	ContentKey string `mapstructure:"content_key"`
}

type LimitsConfig struct {
	SendPerMinute int `mapstructure:"send_per_minute"`
}

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Auth   AuthConfig   `mapstructure:"auth"`
	Mongo  MongoConfig  `mapstructure:"mongodb"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Kafka  KafkaConfig  `mapstructure:"kafka"`
	Crypto CryptoConfig `mapstructure:"crypto"`
	Limits LimitsConfig `mapstructure:"limits"`
	// derived
	RequestTimeout time.Duration
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	// sensible defaults
	c.RequestTimeout = 10 * time.Second
	if c.App.Port == 0 {
		c.App.Port = 8081
	}
	if c.Auth.JWTAlg == "" {
		c.Auth.JWTAlg = "HS256"
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "polmatch"
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "message.events"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "messaging-service"
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "pm"
	}
	if c.Limits.SendPerMinute == 0 {
		c.Limits.SendPerMinute = 60
	}
	return &c, nil
}

// ContentKeyBytes decodes and checks the message content key.
func (c *Config) ContentKeyBytes() ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(c.Crypto.ContentKey)
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, errors.New("crypto.content_key must decode to 32 bytes")
	}
	return key, nil
}
