package config

import (
	"flag"

	"github.com/dmitrijs2005/assetorigin/internal/flagx"
)

// parseFlags overlays command-line flags. Only the flags below are looked at,
// so other components may define their own.
//
//	-a  HTTP listen address          -g  gRPC health listen address
//	-d  PostgreSQL DSN               -s  management JWT secret
//	-t  default token TTL (15m)      -m  maximum token TTL (24h)
//	-l  upload limit, bytes          -o  object store: s3 | memory
//	-u  S3 user                      -p  S3 password
//	-b  S3 bucket                    -r  S3 region
//	-e  S3 base endpoint             -f  log format: json | console
//	-v  log level
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{
		"-a", "-g", "-d", "-s", "-t", "-m", "-l", "-o", "-u", "-p", "-b", "-r", "-e", "-f", "-v",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP listen address")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "gRPC health listen address")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.ManagementSecret, "s", config.ManagementSecret, "management JWT secret")
	fs.DurationVar(&config.TokenDefaultTTL, "t", config.TokenDefaultTTL, "default access token TTL")
	fs.DurationVar(&config.TokenMaxTTL, "m", config.TokenMaxTTL, "maximum access token TTL")
	fs.Int64Var(&config.UploadLimitBytes, "l", config.UploadLimitBytes, "upload size limit in bytes")
	fs.StringVar(&config.ObjectStore, "o", config.ObjectStore, "object store provider (s3|memory)")
	fs.StringVar(&config.S3User, "u", config.S3User, "S3 user")
	fs.StringVar(&config.S3Password, "p", config.S3Password, "S3 password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "r", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogFormat, "f", config.LogFormat, "log format (json|console)")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
