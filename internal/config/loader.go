package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	globalConfig *Config
	once         sync.Once
)

// LoadConfig 加载配置文件，进程内只加载一次
func LoadConfig(configFile string) (*Config, error) {
	var err error

	once.Do(func() {
		var cfg *Config
		cfg, err = Load(configFile)
		if err == nil {
			globalConfig = cfg
		}
	})

	return globalConfig, err
}

// LoadEnvFile 加载 .env 到环境变量，文件不存在时忽略，已有的环境变量不被覆盖
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("加载 %s 失败: %w", path, err)
	}
	return nil
}

// Load 从文件加载配置，不写入全局变量
func Load(configFile string) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// GATEWAY_UPSTREAM_API_KEY 覆盖 upstream.api_key
	v.SetEnvPrefix("gateway")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{"upstream.api_key", "admin.password", "upload.secret_key", "redis_service.password"} {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	setDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	return &cfg, nil
}

// setDefaults 设置默认值
func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./database/gateway.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Log.File == "" {
		cfg.Log.File = "./logs/gateway.log"
	}
	if cfg.Log.MaxSize == 0 {
		cfg.Log.MaxSize = 100
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = 7
	}
	if cfg.Log.MaxAge == 0 {
		cfg.Log.MaxAge = 30
	}
	if cfg.Upstream.ChatTimeout == 0 {
		cfg.Upstream.ChatTimeout = 300
	}
	if cfg.Upstream.ImageTimeout == 0 {
		cfg.Upstream.ImageTimeout = 120
	}
	if cfg.Upstream.ListTimeout == 0 {
		cfg.Upstream.ListTimeout = 30
	}
	if cfg.Catalog.TTL == 0 {
		cfg.Catalog.TTL = 3600
	}
	if cfg.Catalog.ImageKeywords == nil {
		cfg.Catalog.ImageKeywords = []string{"dall-e", "image", "flux", "midjourney"}
	}
	if cfg.TestUser.Limit == 0 {
		cfg.TestUser.Limit = 20
	}
	if cfg.History.Days == 0 {
		cfg.History.Days = 7
	}
	if cfg.Upload.Dir == "" {
		cfg.Upload.Dir = "./uploads"
	}
	if cfg.Upload.MaxSize == 0 {
		cfg.Upload.MaxSize = 20 * 1024 * 1024
	}
	if cfg.Upload.AllowedExt == nil {
		cfg.Upload.AllowedExt = []string{"txt", "pdf", "png", "jpg", "jpeg", "gif", "webp"}
	}
	if cfg.Upload.URLTTL == 0 {
		cfg.Upload.URLTTL = 7 * 24 * 3600
	}
	if cfg.Admin.Username == "" {
		cfg.Admin.Username = "admin"
	}
	if cfg.CORS.AllowMethods == nil {
		cfg.CORS.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if cfg.CORS.AllowHeaders == nil {
		cfg.CORS.AllowHeaders = []string{"*"}
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.SlotTTL == 0 {
		cfg.Redis.SlotTTL = 600
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.LoginProtection.RequestsPerMinute == 0 {
		cfg.LoginProtection.RequestsPerMinute = 30
	}
	if cfg.LoginProtection.Burst == 0 {
		cfg.LoginProtection.Burst = 10
	}
	if cfg.Archive.Dir == "" {
		cfg.Archive.Dir = "./backup"
	}
	if cfg.Archive.DialogDays == 0 {
		cfg.Archive.DialogDays = 8
	}
	if cfg.I18n.DefaultLanguage == "" {
		cfg.I18n.DefaultLanguage = "zh"
	}
}

// validateConfig 验证配置
func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("无效的服务器端口: %d", cfg.Server.Port)
	}

	if len(cfg.Upstream.BaseURLs) == 0 {
		return fmt.Errorf("上游服务地址不能为空")
	}
	for i, u := range cfg.Upstream.BaseURLs {
		cfg.Upstream.BaseURLs[i] = strings.TrimRight(u, "/")
	}

	if cfg.Admin.Password == "" {
		return fmt.Errorf("管理员密码不能为空")
	}

	if cfg.Upload.SecretKey == "" {
		return fmt.Errorf("文件签名密钥不能为空")
	}

	switch cfg.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("无效的日志格式: %s", cfg.Log.Format)
	}

	dbDir := filepath.Dir(cfg.Database.Path)
	if _, err := os.Stat(dbDir); os.IsNotExist(err) {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return fmt.Errorf("创建数据库目录失败: %w", err)
		}
	}

	return nil
}

// GetConfig 获取全局配置
func GetConfig() *Config {
	return globalConfig
}
