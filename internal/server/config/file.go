package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/assetorigin/internal/flagx"
	"github.com/dmitrijs2005/assetorigin/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. Zero values leave
// the corresponding setting untouched.
type FileConfig struct {
	HTTPAddr string `json:"http_addr" yaml:"http_addr"`
	GRPCAddr string `json:"grpc_addr" yaml:"grpc_addr"`

	DatabaseDSN       string         `json:"database_dsn" yaml:"database_dsn"`
	DBMaxOpenConns    int            `json:"db_max_open_conns" yaml:"db_max_open_conns"`
	DBMaxIdleConns    int            `json:"db_max_idle_conns" yaml:"db_max_idle_conns"`
	DBConnMaxLifetime timex.Duration `json:"db_conn_max_lifetime" yaml:"db_conn_max_lifetime"`
	DBConnectTimeout  timex.Duration `json:"db_connect_timeout" yaml:"db_connect_timeout"`

	ManagementSecret string `json:"management_secret" yaml:"management_secret"`

	TokenDefaultTTL    timex.Duration `json:"token_default_ttl" yaml:"token_default_ttl"`
	TokenMaxTTL        timex.Duration `json:"token_max_ttl" yaml:"token_max_ttl"`
	TokenSweepInterval timex.Duration `json:"token_sweep_interval" yaml:"token_sweep_interval"`

	UploadLimitBytes int64 `json:"upload_limit_bytes" yaml:"upload_limit_bytes"`

	ObjectStore    string `json:"object_store" yaml:"object_store"`
	S3User         string `json:"s3_user" yaml:"s3_user"`
	S3Password     string `json:"s3_password" yaml:"s3_password"`
	S3Bucket       string `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region       string `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`

	LogFormat string `json:"log_format" yaml:"log_format"`
	LogLevel  string `json:"log_level" yaml:"log_level"`
}

// parseFile overlays the file given with -c/-config, if any. The format is
// picked by extension: .yaml/.yml is YAML, anything else JSON.
func parseFile(config *Config, args []string) {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	fc := &FileConfig{}
	if flagx.IsYAML(path) {
		err = yaml.Unmarshal(raw, fc)
	} else {
		err = json.Unmarshal(raw, fc)
	}
	if err != nil {
		panic(err)
	}

	fc.apply(config)
}

func (fc *FileConfig) apply(c *Config) {
	setString(&c.HTTPAddr, fc.HTTPAddr)
	setString(&c.GRPCAddr, fc.GRPCAddr)
	setString(&c.DatabaseDSN, fc.DatabaseDSN)
	if fc.DBMaxOpenConns > 0 {
		c.DBMaxOpenConns = fc.DBMaxOpenConns
	}
	if fc.DBMaxIdleConns > 0 {
		c.DBMaxIdleConns = fc.DBMaxIdleConns
	}
	setDuration(&c.DBConnMaxLifetime, fc.DBConnMaxLifetime)
	setDuration(&c.DBConnectTimeout, fc.DBConnectTimeout)
	setString(&c.ManagementSecret, fc.ManagementSecret)
	setDuration(&c.TokenDefaultTTL, fc.TokenDefaultTTL)
	setDuration(&c.TokenMaxTTL, fc.TokenMaxTTL)
	setDuration(&c.TokenSweepInterval, fc.TokenSweepInterval)
	if fc.UploadLimitBytes > 0 {
		c.UploadLimitBytes = fc.UploadLimitBytes
	}
	setString(&c.ObjectStore, fc.ObjectStore)
	setString(&c.S3User, fc.S3User)
	setString(&c.S3Password, fc.S3Password)
	setString(&c.S3Bucket, fc.S3Bucket)
	setString(&c.S3Region, fc.S3Region)
	setString(&c.S3BaseEndpoint, fc.S3BaseEndpoint)
	setString(&c.LogFormat, fc.LogFormat)
	setString(&c.LogLevel, fc.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
