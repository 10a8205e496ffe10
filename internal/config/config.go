// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
// 它在启动时加载一次，并显式注入到各个组件中。
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Log           LogConfig           `mapstructure:"log"`
	OpenAI        OpenAIConfig        `mapstructure:"openai"`
	Assistant     AssistantConfig     `mapstructure:"assistant"`
	Knowledge     KnowledgeConfig     `mapstructure:"knowledge"`
	Crawler       CrawlerConfig       `mapstructure:"crawler"`
	Recorder      RecorderConfig      `mapstructure:"recorder"`
	Admin         AdminConfig         `mapstructure:"admin"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Tika          TikaConfig          `mapstructure:"tika"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// OpenAIConfig 存储模型服务商的访问凭据与端点。
type OpenAIConfig struct {
	APIKey    string        `mapstructure:"api_key"`
	BaseURL   string        `mapstructure:"base_url"`
	ProjectID string        `mapstructure:"project_id"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// AssistantConfig 配置问答流程：固定的 assistant 标识与 run 轮询策略。
type AssistantConfig struct {
	ID           string        `mapstructure:"id"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxWait      time.Duration `mapstructure:"max_wait"`
}

// KnowledgeConfig 配置知识入库流程：固定的向量索引与 batch 轮询策略。
type KnowledgeConfig struct {
	VectorStoreID string        `mapstructure:"vector_store_id"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	MaxWait       time.Duration `mapstructure:"max_wait"`
}

// CrawlerConfig 配置网页抓取。
type CrawlerConfig struct {
	UserAgent    string        `mapstructure:"user_agent"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

// RecorderConfig 配置问答记录的后台写入。
type RecorderConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// AdminConfig 管理员路由的访问控制。令牌由外部登录服务签发。
type AdminConfig struct {
	JWTSecret      string   `mapstructure:"jwt_secret"`
	AllowedEmails  []string `mapstructure:"allowed_emails"`
	AllowedDomains []string `mapstructure:"allowed_domains"`
}

// KafkaConfig 存储 Kafka 相关的配置。
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// TikaConfig 存储 Tika 服务器相关的配置。
type TikaConfig struct {
	ServerURL string `mapstructure:"server_url"`
}

// ElasticsearchConfig 存储 Elasticsearch 相关的配置。
type ElasticsearchConfig struct {
	Addresses string `mapstructure:"addresses"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	IndexName string `mapstructure:"index_name"`
}

// MinIOConfig 存储 MinIO 对象存储的配置。
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// setDefaults 为可选配置项提供默认值。
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	// 空默认值让 AutomaticEnv 能识别这些只通过环境变量提供的键
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.project_id", "")
	v.SetDefault("assistant.id", "")
	v.SetDefault("knowledge.vector_store_id", "")
	v.SetDefault("admin.jwt_secret", "")
	v.SetDefault("admin.allowed_emails", []string{})
	v.SetDefault("admin.allowed_domains", []string{})
	v.SetDefault("database.mysql.dsn", "")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.timeout", 30*time.Second)
	v.SetDefault("assistant.poll_interval", time.Second)
	v.SetDefault("assistant.max_wait", 2*time.Minute)
	v.SetDefault("knowledge.poll_interval", time.Second)
	v.SetDefault("knowledge.max_wait", 5*time.Minute)
	v.SetDefault("crawler.user_agent", "Mozilla/5.0 (compatible; pai-assistant/1.0)")
	v.SetDefault("crawler.timeout", 60*time.Second)
	v.SetDefault("crawler.max_body_bytes", 2<<20)
	v.SetDefault("recorder.timeout", 10*time.Second)
	v.SetDefault("kafka.group_id", "pai-assistant-go-consumer")
	v.SetDefault("elasticsearch.index_name", "knowledge_pages")
}

// Load 从指定的路径读取 YAML 文件并解析为 Config。
// 环境变量会覆盖文件中的同名配置，例如 OPENAI_API_KEY 覆盖 openai.api_key。
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("无法将配置解析到结构体中: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 检查启动所必需的配置项。
func (c *Config) Validate() error {
	if c.Assistant.ID == "" {
		return fmt.Errorf("配置缺失: assistant.id")
	}
	if c.Knowledge.VectorStoreID == "" {
		return fmt.Errorf("配置缺失: knowledge.vector_store_id")
	}
	if c.Assistant.PollInterval <= 0 || c.Knowledge.PollInterval <= 0 {
		return fmt.Errorf("轮询间隔必须大于 0")
	}
	return nil
}
