package main

import (
	"fmt"
	"os"

	"github.com/ayxworxfr/scada_web/internal/appdata"
	"github.com/ayxworxfr/scada_web/internal/config"
	"github.com/ayxworxfr/scada_web/pkg/crypter"
	"github.com/ayxworxfr/scada_web/pkg/jwtauth"
	"github.com/ayxworxfr/scada_web/pkg/logger"
	"github.com/ayxworxfr/scada_web/pkg/utils"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "scadaweb",
	Short:         "SCADA web application shell",
	Version:       appdata.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "conf/config.yaml", "config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(userCmd)
}

// initConfig 加载配置并初始化日志、密码摘要和令牌
func initConfig() (*config.Config, error) {
	cfg, err := config.Load(utils.GetAbsPath(configPath))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}

	initLogger(cfg.Logger)
	crypter.Init(cfg.Crypter.Key)

	jwt, err := jwtauth.NewJWT(cfg.JWT.Secret, cfg.JWT.AccessTokenExp, cfg.JWT.RefreshTokenExp)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize JWT")
	}
	jwtauth.Init(jwt)
	return cfg, nil
}

func initLogger(cfg config.LoggerConfig) {
	logger.InitLogger(logger.Config{
		LogFile:    cfg.LogFile,
		Level:      cfg.Level,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
		Console:    cfg.Console,
	})
}
