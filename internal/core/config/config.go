package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host              string
	Port              int
	ReadTimeoutSec    int
	WriteTimeoutSec   int
	IdleTimeoutSec    int
	RequestTimeoutSec int
	MaxBodyMB         int
	RateLimitRPS      float64
	RateLimitBurst    int
	RateLimitPerIP    bool // true 时按客户端 IP 分桶
	MaxInFlight       int64
}

type App struct {
	Name string
	Env  string
	HTTP HTTP
}

type LogRotate struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Log struct {
	Level  string
	JSON   bool
	Rotate LogRotate
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int // 0 表示不写 exp
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

type Redis struct {
	Addr         string `mapstructure:"addr"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	GameCacheTTL int    `mapstructure:"gamecachettl"` // 秒
}

type S3 struct {
	Bucket        string
	Region        string
	PresignTTLSec int
}

type Config struct {
	App   App
	Log   Log
	JWT   JWT
	DB    DB
	Redis Redis `mapstructure:"redis"`
	S3    S3
}

// 旧部署沿用的环境变量名
var envAliases = map[string]string{
	"app.http.port": "PORT",
	"db.dsn":        "DATABASE_URL",
	"jwt.secret":    "AUTH_SECRET",
	"s3.bucket":     "S3_BUCKET_NAME",
	"s3.region":     "AWS_REGION",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "playlog")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 9090)
	v.SetDefault("app.http.readtimeoutsec", 5)
	v.SetDefault("app.http.writetimeoutsec", 10)
	v.SetDefault("app.http.idletimeoutsec", 60)
	v.SetDefault("app.http.requesttimeoutsec", 10)
	v.SetDefault("app.http.maxbodymb", 16)
	v.SetDefault("app.http.ratelimitrps", 200)
	v.SetDefault("app.http.ratelimitburst", 400)
	v.SetDefault("app.http.ratelimitperip", false)
	v.SetDefault("app.http.maxinflight", 300)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.rotate.enable", false)
	v.SetDefault("log.rotate.filename", "logs/playlog.log")
	v.SetDefault("log.rotate.compress", false)
	v.SetDefault("log.rotate.maxsizemb", 100)
	v.SetDefault("log.rotate.maxbackups", 7)
	v.SetDefault("log.rotate.maxagedays", 30)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "playlog")
	v.SetDefault("jwt.accesstokenttlmin", 0)

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.username", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.maxopenconns", 50)
	v.SetDefault("db.maxidleconns", 10)
	v.SetDefault("db.connmaxlifetimemin", 30)
	v.SetDefault("db.automigrate", true)
	v.SetDefault("db.loglevel", "warn")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.gamecachettl", 3600)

	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.region", "us-west-2")
	v.SetDefault("s3.presignttlsec", 3600)
}

// Load 读取 yaml（可选）+ APP_ 前缀环境变量 + 默认值
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envAliases {
		if err := v.BindEnv(key, "APP_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	explicit := path != ""
	if path == "" {
		path = "./configs/config.local.yaml"
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		// 未显式指定且文件不存在时只用环境变量
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.JWT.Secret) == "" {
		errs = append(errs, errors.New("jwt.secret is required"))
	}
	if strings.TrimSpace(c.DB.DSN) == "" {
		errs = append(errs, errors.New("db.dsn is required"))
	}
	if c.App.HTTP.Port <= 0 || c.App.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("app.http.port out of range: %d", c.App.HTTP.Port))
	}
	return errors.Join(errs...)
}
