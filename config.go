package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

const (
	defaultClientSecretsFile = "client_secret.json"
	defaultTokenFile         = "tokens/credentials.json"
)

type config struct {
	ChannelID string
	FilePath  string
	Overwrite bool
	Audio     bool
	Verbose   bool
	DryRun    bool

	Backend           string
	APIKey            string
	ClientSecretsFile string
	TokenFile         string
	FirestoreProject  string
	RequestsPerSecond float64
	LogLevel          string

	Serve   bool
	Port    string
	Develop bool
}

// loadConfig .envを読んだ後にフラグをパースする。フラグの既定値には環境変数を使う
func loadConfig(args []string) (config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn().Err(err).Msg("can't load .env")
	}

	var cfg config
	fs := pflag.NewFlagSet("ccvids", pflag.ContinueOnError)
	fs.StringVarP(&cfg.ChannelID, "channelid", "c", getEnv("CHANNEL_ID", ""), "id for the channel of the form https://www.youtube.com/channel/{channel_id}")
	fs.StringVarP(&cfg.FilePath, "filepath", "f", getEnv("OUTPUT_PATH", "./"), "directory where videos and channel_summary.json are written")
	fs.BoolVarP(&cfg.Overwrite, "overwrite", "w", false, "overwrite existing videos instead of skipping them")
	fs.BoolVarP(&cfg.Audio, "getaudio", "a", false, "also download the best audio stream separately")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "print extra details")
	fs.BoolVarP(&cfg.DryRun, "dry-run", "d", false, "don't download files, only print information about channel and videos")

	fs.StringVar(&cfg.Backend, "backend", getEnv("DOWNLOAD_BACKEND", backendYtdlp), "download backend (yt-dlp|native)")
	fs.StringVar(&cfg.ClientSecretsFile, "client-secrets", getEnv("CLIENT_SECRETS_FILE", defaultClientSecretsFile), "OAuth client secrets file")
	fs.StringVar(&cfg.TokenFile, "token-file", getEnv("TOKEN_FILE", defaultTokenFile), "cached OAuth token")
	fs.StringVar(&cfg.FirestoreProject, "firestore-project", getEnv("FIRESTORE_PROJECT", ""), "export the summary to Firestore in this project")
	fs.Float64Var(&cfg.RequestsPerSecond, "rps", getEnvFloat("YOUTUBE_RPS", 5), "max YouTube API requests per second (0 = unlimited)")
	fs.StringVar(&cfg.LogLevel, "log-level", getEnv("LOG_LEVEL", "info"), "log level")
	fs.BoolVar(&cfg.Serve, "serve", false, "run the HTTP server instead of a single export")
	fs.StringVar(&cfg.Port, "port", getEnv("PORT", "8080"), "HTTP port for --serve")

	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	cfg.APIKey = os.Getenv("YOUTUBE_API_KEY")
	cfg.Develop = os.Getenv("DEVELOP") == "true"
	if cfg.Verbose {
		cfg.LogLevel = "debug"
	}

	return cfg, cfg.validate()
}

func (c config) validate() error {
	if c.ChannelID == "" {
		return errors.New("--channelid is required")
	}
	if c.FilePath == "" {
		return errors.New("--filepath must not be empty")
	}
	switch c.Backend {
	case backendYtdlp, backendNative:
	default:
		return fmt.Errorf("unknown download backend: %q", c.Backend)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("--rps must not be negative: %v", c.RequestsPerSecond)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}
