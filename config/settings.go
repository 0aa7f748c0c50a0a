package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/rushteam/courserec/core"
	"github.com/rushteam/courserec/pkg/logging"
	"github.com/rushteam/courserec/store"
)

// EnvPrefix 环境变量前缀；嵌套字段用双下划线分隔：
//
//	COURSEREC_EMBEDDING__API_KEY -> embedding.api_key
//	COURSEREC_ENGINE__TIMEOUT    -> engine.timeout
const EnvPrefix = "COURSEREC_"

// ConfigPathEnvVar 可覆盖配置文件路径
const ConfigPathEnvVar = "COURSEREC_CONFIG"

// DefaultConfigPaths 按顺序查找的配置文件
var DefaultConfigPaths = []string{
	"courserec.yaml",
	"courserec.yml",
	"/etc/courserec/config.yaml",
}

// Settings 是进程级配置。
type Settings struct {
	Log logging.Config `koanf:"log"`

	Engine    EngineSettings    `koanf:"engine"`
	Catalog   CatalogSettings   `koanf:"catalog"`
	Index     IndexSettings     `koanf:"index"`
	Embedding EmbeddingSettings `koanf:"embedding"`
	Ratings   RatingsSettings   `koanf:"ratings"`
	Redis     store.RedisConfig `koanf:"redis"`

	// Semesters 学期 -> 向量索引 collection
	Semesters map[string]string `koanf:"semesters" validate:"required,min=1,dive,keys,required,endkeys,required"`

	// PipelineFile 可选的 Pipeline YAML；为空时使用默认链路
	PipelineFile string `koanf:"pipeline_file"`
}

type EngineSettings struct {
	Timeout      time.Duration `koanf:"timeout" validate:"gte=0"`
	RetryBackoff time.Duration `koanf:"retry_backoff" validate:"gte=0"`
	MaxRetries   int           `koanf:"max_retries" validate:"gte=-1,lte=5"`

	// CatalogLimit 单次检索上限，需不小于单学期课程数
	CatalogLimit int `koanf:"catalog_limit" validate:"gt=0"`

	// Blacklist 全局下架课程号
	Blacklist []string `koanf:"blacklist"`
}

type CatalogSettings struct {
	// Source: sqlite / redis
	Source     string `koanf:"source" validate:"oneof=sqlite redis"`
	SQLitePath string `koanf:"sqlite_path" validate:"required_if=Source sqlite"`
	KeyPrefix  string `koanf:"key_prefix"`
}

type IndexSettings struct {
	// Backend: milvus / memory（memory 启动时从目录构建索引）
	Backend  string        `koanf:"backend" validate:"oneof=milvus memory"`
	Address  string        `koanf:"address" validate:"required_if=Backend milvus"`
	Username string        `koanf:"username"`
	Password string        `koanf:"password"`
	Database string        `koanf:"database"`
	Metric   string        `koanf:"metric" validate:"omitempty,oneof=cosine euclidean inner_product"`
	Timeout  time.Duration `koanf:"timeout" validate:"gte=0"`
}

type EmbeddingSettings struct {
	// Backend: gemini / hash（hash 为离线确定性实现）
	Backend   string        `koanf:"backend" validate:"oneof=gemini hash"`
	APIKey    string        `koanf:"api_key" validate:"required_if=Backend gemini"`
	Model     string        `koanf:"model"`
	BaseURL   string        `koanf:"base_url" validate:"omitempty,url"`
	Dimension int           `koanf:"dimension" validate:"gt=0"`
	Timeout   time.Duration `koanf:"timeout" validate:"gte=0"`
}

type RatingsSettings struct {
	// Source: none / feast / redis
	Source       string        `koanf:"source" validate:"oneof=none feast redis"`
	FeastAddress string        `koanf:"feast_address" validate:"required_if=Source feast"`
	FeastProject string        `koanf:"feast_project"`
	FeastToken   string        `koanf:"feast_token"`
	Timeout      time.Duration `koanf:"timeout" validate:"gte=0"`
	KeyPrefix    string        `koanf:"key_prefix"`
}

// DefaultSettings 返回默认配置，之后依次被配置文件、环境变量覆盖。
func DefaultSettings() Settings {
	return Settings{
		Log: logging.Config{Level: "info", Format: "json"},
		Engine: EngineSettings{
			Timeout:      30 * time.Second,
			RetryBackoff: 500 * time.Millisecond,
			MaxRetries:   1,
			CatalogLimit: 10000,
		},
		Catalog: CatalogSettings{Source: "sqlite", SQLitePath: "courses.db", KeyPrefix: "catalog"},
		Index:   IndexSettings{Backend: "memory", Metric: string(core.MetricCosine), Timeout: 10 * time.Second},
		Embedding: EmbeddingSettings{
			Backend:   "hash",
			Model:     "text-embedding-004",
			Dimension: 768,
			Timeout:   10 * time.Second,
		},
		Ratings: RatingsSettings{Source: "none", FeastProject: "courserec", Timeout: 2 * time.Second, KeyPrefix: "ratings:"},
		Redis:   store.RedisConfig{Addr: "127.0.0.1:6379", Timeout: 2 * time.Second},
	}
}

// LoadSettings 按 默认值 -> 配置文件 -> 环境变量 的顺序加载并校验配置。
// path 为空时查找 COURSEREC_CONFIG 与 DefaultConfigPaths，找不到文件不是错误。
func LoadSettings(path string) (*Settings, error) {
	k := koanf.New(".")

	defaults := DefaultSettings()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	if err := splitList(k, "engine.blacklist"); err != nil {
		return nil, err
	}

	s := &Settings{}
	if err := k.Unmarshal("", s); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 校验配置；失败返回 CONFIGURATION 错误。
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return core.WrapDomainError(core.ModuleEngine, core.ErrorCodeConfiguration, "invalid settings", err)
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envTransform COURSEREC_ENGINE__MAX_RETRIES -> engine.max_retries
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if key == "config" {
		return ""
	}
	return strings.ReplaceAll(key, "__", ".")
}

// splitList 把环境变量中的逗号分隔字符串转成列表
func splitList(k *koanf.Koanf, path string) error {
	s, ok := k.Get(path).(string)
	if !ok {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if err := k.Set(path, out); err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	return nil
}
