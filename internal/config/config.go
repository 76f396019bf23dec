package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 全局配置结构体
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	MySQL         DatabaseConfig      `mapstructure:"mysql"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Log           LogConfig           `mapstructure:"log"`
	Storage       StorageConfig       `mapstructure:"storage"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Metric        MetricConfig        `mapstructure:"metric"`
	Cron          CronConfig          `mapstructure:"cron"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name    string     `mapstructure:"name"`
	Mode    string     `mapstructure:"mode"`
	Port    int        `mapstructure:"port"`
	SiteURL string     `mapstructure:"site_url"` // 前台站点地址，用于生成站点地图
	Cors    CorsConfig `mapstructure:"cors"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	SecretKey            string `mapstructure:"secret_key"`
	AccessExpireSeconds  int    `mapstructure:"access_expire_seconds"`
	RefreshExpireSeconds int    `mapstructure:"refresh_expire_seconds"`
	BufferSeconds        int    `mapstructure:"buffer_seconds"`
	Issuer               string `mapstructure:"issuer"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	Charset      string `mapstructure:"charset"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	LogLevel     string `mapstructure:"log_level"`
}

// DSN 获取数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		c.Username, c.Password, c.Host, c.Port, c.Database, c.Charset)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

// Addr 获取Redis地址
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ElasticsearchConfig Elasticsearch配置
type ElasticsearchConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	URLs     []string `mapstructure:"urls"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	Index    string   `mapstructure:"index"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
	Stdout     bool   `mapstructure:"stdout"`
}

// StorageConfig 对象存储配置
type StorageConfig struct {
	Type  string       `mapstructure:"type"` // local / cos
	Local LocalStorage `mapstructure:"local"`
	COS   COSStorage   `mapstructure:"cos"`
	Limit StorageLimit `mapstructure:"limit"`
}

// LocalStorage 本地存储配置
type LocalStorage struct {
	Path      string `mapstructure:"path"`
	URLPrefix string `mapstructure:"url_prefix"`
}

// COSStorage 腾讯云COS存储配置
type COSStorage struct {
	SecretID  string `mapstructure:"secret_id"`
	SecretKey string `mapstructure:"secret_key"`
	BucketURL string `mapstructure:"bucket_url"`
	URLPrefix string `mapstructure:"url_prefix"` // CDN域名，为空时使用BucketURL
}

// StorageLimit 上传限制配置
type StorageLimit struct {
	MaxSize    int64    `mapstructure:"max_size"`
	AllowTypes []string `mapstructure:"allow_types"`
}

// MetricConfig 浏览/分享统计配置
type MetricConfig struct {
	WindowHours  int    `mapstructure:"window_hours"`
	CookieDomain string `mapstructure:"cookie_domain"`
	CookieSecure bool   `mapstructure:"cookie_secure"`
	SameSite     string `mapstructure:"same_site"` // strict / lax / none
}

// Window 去重窗口
func (c *MetricConfig) Window() time.Duration {
	if c.WindowHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.WindowHours) * time.Hour
}

// CronConfig 定时任务配置
type CronConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Timezone    string `mapstructure:"timezone"`
	TagSyncSpec string `mapstructure:"tag_sync_spec"`
}

// CorsConfig 跨域配置
type CorsConfig struct {
	AllowOrigins     []string `mapstructure:"allow_origins"`
	AllowMethods     []string `mapstructure:"allow_methods"`
	AllowHeaders     []string `mapstructure:"allow_headers"`
	ExposedHeaders   []string `mapstructure:"expose_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

var (
	// GlobalConfig 全局配置实例
	GlobalConfig *Config
	// 配置Viper实例
	viperInstance *viper.Viper
)

// Init 初始化配置
func Init(configPath string) error {
	v := viper.New()
	v.AddConfigPath(configPath)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("读取配置文件失败: %v", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return fmt.Errorf("解析配置文件失败: %v", err)
	}

	GlobalConfig = &config
	viperInstance = v
	return nil
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "cms-api")
	v.SetDefault("app.mode", "release")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.site_url", "http://localhost:3000")
	v.SetDefault("mysql.charset", "utf8mb4")
	v.SetDefault("mysql.max_idle_conns", 10)
	v.SetDefault("mysql.max_open_conns", 100)
	v.SetDefault("log.level", "info")
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local.path", "./uploads")
	v.SetDefault("storage.local.url_prefix", "/uploads")
	v.SetDefault("storage.limit.max_size", 5<<20)
	v.SetDefault("storage.limit.allow_types", []string{"image/jpeg", "image/png", "image/gif", "image/webp"})
	v.SetDefault("elasticsearch.index", "articles")
	v.SetDefault("metric.window_hours", 24)
	v.SetDefault("metric.same_site", "lax")
	v.SetDefault("cron.timezone", "Local")
	v.SetDefault("cron.tag_sync_spec", "0 0 * * * *")
	v.SetDefault("jwt.access_expire_seconds", 900)
	v.SetDefault("jwt.refresh_expire_seconds", 604800)
	v.SetDefault("jwt.buffer_seconds", 60)
}

// GetString 获取字符串配置
func GetString(key string) string {
	return viperInstance.GetString(key)
}

// GetInt 获取整数配置
func GetInt(key string) int {
	return viperInstance.GetInt(key)
}

// GetBool 获取布尔值配置
func GetBool(key string) bool {
	return viperInstance.GetBool(key)
}

// GetConfig 获取全局配置
func GetConfig() *Config {
	return GlobalConfig
}
