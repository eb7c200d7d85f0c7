package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds everything the daemon reads from the environment. Values are
// loaded once at startup; nothing else touches raw env vars.
type Config struct {
	Port string

	PostgresURI string
	RedisAddr   string // empty selects the in-process dispatcher

	Storage StorageConfig
	STT     STTConfig
	LLM     LLMConfig
	Gmail   GmailConfig
	IMAP    IMAPConfig

	SweepInterval  time.Duration
	DispatchWorker int
	FetchTimeout   time.Duration
	RecordCallback string // overrides the host-derived TwiML callback URL
}

type StorageConfig struct {
	Backend string // "local" or "gcs"
	Dir     string
	Bucket  string
}

type STTConfig struct {
	Enabled  bool
	Language string
	Timeout  time.Duration
}

type LLMConfig struct {
	Enabled  bool
	Project  string
	Location string
	Model    string
	Timeout  time.Duration
}

type GmailConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	User         string
	PollInterval time.Duration
}

func (g GmailConfig) Configured() bool {
	return g.ClientID != "" && g.ClientSecret != "" && g.RefreshToken != ""
}

type IMAPConfig struct {
	Host         string
	Port         int
	Username     string
	Password     string
	Folder       string
	PollInterval time.Duration
}

func (i IMAPConfig) Configured() bool {
	return i.Host != "" && i.Username != "" && i.Password != ""
}

func (i IMAPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", i.Host, i.Port)
}

func Load() (Config, error) {
	c := Config{
		Port:        getenv("PORT", "8080"),
		PostgresURI: os.Getenv("POSTGRES_URI"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		Storage: StorageConfig{
			Backend: getenv("STORAGE_BACKEND", "local"),
			Dir:     getenv("RECORDINGS_DIR", "recordings"),
			Bucket:  os.Getenv("RECORDINGS_BUCKET"),
		},
		STT: STTConfig{
			Enabled:  boolenv("STT_ENABLED"),
			Language: getenv("STT_LANGUAGE", "en-US"),
			Timeout:  durenv("STT_TIMEOUT_SECS", 300*time.Second),
		},
		LLM: LLMConfig{
			Enabled:  boolenv("LLM_ENABLED"),
			Project:  os.Getenv("GOOGLE_PROJECT_ID"),
			Location: getenv("GOOGLE_LOCATION", "us-central1"),
			Model:    os.Getenv("LLM_MODEL"),
			Timeout:  durenv("LLM_TIMEOUT_SECS", 60*time.Second),
		},
		Gmail: GmailConfig{
			ClientID:     os.Getenv("GMAIL_CLIENT_ID"),
			ClientSecret: os.Getenv("GMAIL_CLIENT_SECRET"),
			RefreshToken: os.Getenv("GMAIL_REFRESH_TOKEN"),
			User:         getenv("GMAIL_USER", "me"),
			PollInterval: durenv("GMAIL_POLL_SECS", 30*time.Second),
		},
		IMAP: IMAPConfig{
			Host:         os.Getenv("IMAP_HOST"),
			Port:         intenv("IMAP_PORT", 993),
			Username:     os.Getenv("IMAP_USER"),
			Password:     os.Getenv("IMAP_PASSWORD"),
			Folder:       getenv("IMAP_FOLDER", "INBOX"),
			PollInterval: durenv("IMAP_POLL_SECS", 30*time.Second),
		},
		SweepInterval:  durenv("SWEEP_POLL_SECS", 10*time.Second),
		DispatchWorker: intenv("DISPATCH_WORKERS", 4),
		FetchTimeout:   durenv("FETCH_TIMEOUT_SECS", 30*time.Second),
		RecordCallback: os.Getenv("RECORDING_CALLBACK_URL"),
	}

	if c.PostgresURI == "" {
		return Config{}, errors.New("POSTGRES_URI is required")
	}
	switch c.Storage.Backend {
	case "local":
	case "gcs":
		if c.Storage.Bucket == "" {
			return Config{}, errors.New("RECORDINGS_BUCKET is required for the gcs backend")
		}
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	if c.LLM.Enabled && c.LLM.Project == "" {
		return Config{}, errors.New("GOOGLE_PROJECT_ID is required when LLM_ENABLED is set")
	}

	return c, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func boolenv(key string) bool {
	v := os.Getenv(key)
	return v == "1" || v == "true"
}

func intenv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func durenv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}
