package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Sftp   SftpConfig   `mapstructure:"sftp"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// SftpConfig SFTP连接默认值,请求中未携带的参数按此回退
type SftpConfig struct {
	Host              string `mapstructure:"host"`
	Port              int    `mapstructure:"port"`
	Username          string `mapstructure:"username"`
	Password          string `mapstructure:"password"`
	DefaultPath       string `mapstructure:"default_path"`
	DefaultUploadPath string `mapstructure:"default_upload_path"`
	DefaultContent    string `mapstructure:"default_content"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds"` // 所有操作统一超时,默认60秒
	QPS               int    `mapstructure:"qps"`             // 出站连接QPS限制,0为不限制
}

type LogConfig struct {
	Level     string `mapstructure:"level"`
	Output    string `mapstructure:"output"`
	Format    string `mapstructure:"format"`
	FilePath  string `mapstructure:"file_path"`
	Colorize  bool   `mapstructure:"colorize"`
	AddSource bool   `mapstructure:"add_source"`
}

// Timeout 连接和传输操作的统一超时
func (c SftpConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	// 设置默认值
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")

	// SFTP默认值,与请求参数缺省时的回退值一致
	viper.SetDefault("sftp.host", "localhost")
	viper.SetDefault("sftp.port", 22)
	viper.SetDefault("sftp.username", "demo")
	viper.SetDefault("sftp.password", "password")
	viper.SetDefault("sftp.default_path", ".")
	viper.SetDefault("sftp.default_upload_path", "upload.txt")
	viper.SetDefault("sftp.default_content", "Hello from sftp-function")
	viper.SetDefault("sftp.timeout_seconds", 60)
	viper.SetDefault("sftp.qps", 50)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "console")
	viper.SetDefault("log.format", "text")
	viper.SetDefault("log.colorize", true)
	viper.SetDefault("log.add_source", false)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
