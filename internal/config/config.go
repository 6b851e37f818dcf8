package config

import (
	"fmt"
	"time"
)

// Config 应用配置结构
type Config struct {
	Server          ServerConfig          `mapstructure:"server"`
	Database        DatabaseConfig        `mapstructure:"database"`
	Log             LogConfig             `mapstructure:"log"`
	Upstream        UpstreamConfig        `mapstructure:"upstream"`
	Catalog         CatalogConfig         `mapstructure:"catalog"`
	TestUser        TestUserConfig        `mapstructure:"test_user"`
	History         HistoryConfig         `mapstructure:"history"`
	Upload          UploadConfig          `mapstructure:"upload"`
	Admin           AdminConfig           `mapstructure:"admin"`
	CORS            CORSConfig            `mapstructure:"cors"`
	Redis           RedisConfig           `mapstructure:"redis_service"`
	Metrics         MetricsConfig         `mapstructure:"metrics"`
	LoginProtection LoginProtectionConfig `mapstructure:"login_protection"`
	Archive         ArchiveConfig         `mapstructure:"archive"`
	I18n            I18nConfig            `mapstructure:"i18n"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	ProductionMode bool   `mapstructure:"production_mode"`
}

// GetAddress 获取服务器地址
func (s *ServerConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// UpstreamConfig 上游模型服务配置
type UpstreamConfig struct {
	BaseURLs     []string `mapstructure:"base_urls"`
	APIKey       string   `mapstructure:"api_key"`
	ChatTimeout  int      `mapstructure:"chat_timeout"`
	ImageTimeout int      `mapstructure:"image_timeout"`
	ListTimeout  int      `mapstructure:"list_timeout"`
	MaxTokens    int      `mapstructure:"max_tokens"`
	// MaxConcurrent 进程内上游并发上限，0 表示不限制
	MaxConcurrent int `mapstructure:"max_concurrent"`
}

// GetChatTimeout 对话请求超时
func (u *UpstreamConfig) GetChatTimeout() time.Duration {
	return time.Duration(u.ChatTimeout) * time.Second
}

// GetImageTimeout 图片请求超时
func (u *UpstreamConfig) GetImageTimeout() time.Duration {
	return time.Duration(u.ImageTimeout) * time.Second
}

// GetListTimeout 模型列表请求超时
func (u *UpstreamConfig) GetListTimeout() time.Duration {
	return time.Duration(u.ListTimeout) * time.Second
}

// CatalogConfig 模型目录配置
type CatalogConfig struct {
	TTL             int      `mapstructure:"ttl"`
	IncludePrefixes []string `mapstructure:"include_prefixes"`
	ExcludeKeywords []string `mapstructure:"exclude_keywords"`
	ImageKeywords   []string `mapstructure:"image_keywords"`
}

// GetTTL 缓存有效期
func (c *CatalogConfig) GetTTL() time.Duration {
	return time.Duration(c.TTL) * time.Second
}

// TestUserConfig 测试账号配置
type TestUserConfig struct {
	Username string `mapstructure:"username"`
	Limit    int    `mapstructure:"limit"`
}

// HistoryConfig 历史对话配置
type HistoryConfig struct {
	Days int `mapstructure:"days"`
}

// UploadConfig 上传配置
type UploadConfig struct {
	Dir        string   `mapstructure:"dir"`
	MaxSize    int64    `mapstructure:"max_size"`
	AllowedExt []string `mapstructure:"allowed_ext"`
	SecretKey  string   `mapstructure:"secret_key"`
	URLTTL     int      `mapstructure:"url_ttl"`
}

// GetURLTTL 文件链接有效期
func (u *UploadConfig) GetURLTTL() time.Duration {
	return time.Duration(u.URLTTL) * time.Second
}

// AdminConfig 管理员配置
type AdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	// SeedUsers 启动时导入的用户，格式 user:password[:api_key]
	SeedUsers []string `mapstructure:"seed_users"`
}

// CORSConfig CORS配置
type CORSConfig struct {
	Origins          []string `mapstructure:"origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	AllowMethods     []string `mapstructure:"allow_methods"`
	AllowHeaders     []string `mapstructure:"allow_headers"`
}

// RedisConfig Redis配置，Host 为空时不启用并发限制
type RedisConfig struct {
	Host                 string `mapstructure:"host"`
	Port                 int    `mapstructure:"port"`
	DB                   int    `mapstructure:"db"`
	Password             string `mapstructure:"password"`
	MaxConcurrentPerUser int    `mapstructure:"max_concurrent_per_user"`
	SlotTTL              int    `mapstructure:"slot_ttl"`
}

// Enabled 是否启用Redis并发限制
func (r *RedisConfig) Enabled() bool {
	return r.Host != "" && r.MaxConcurrentPerUser > 0
}

// GetAddress 获取Redis地址
func (r *RedisConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// GetSlotTTL 槽位过期时间
func (r *RedisConfig) GetSlotTTL() time.Duration {
	return time.Duration(r.SlotTTL) * time.Second
}

// MetricsConfig 监控配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Port    int    `mapstructure:"port"`
}

// LoginProtectionConfig 登录保护配置
type LoginProtectionConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"rpm"`
	Burst             int  `mapstructure:"burst"`
}

// ArchiveConfig 归档配置
type ArchiveConfig struct {
	Dir        string `mapstructure:"dir"`
	DialogDays int    `mapstructure:"dialog_days"`
}

// I18nConfig 多语言配置
type I18nConfig struct {
	DefaultLanguage string `mapstructure:"default_language"`
}
