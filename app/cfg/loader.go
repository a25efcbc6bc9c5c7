package cfg

import (
	"cmp"
	"fmt"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Application configuration
	Port          string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	DBPath        string `long:"db-path" env:"DB_PATH" default:"./shared_links.db" description:"Path to the sqlite database file"`
	ProvidersFile string `long:"providers-file" env:"PROVIDERS_FILE" default:"./providers.yml" description:"Optional YAML file overriding provider endpoints"`
	WorkerCount   int    `long:"worker-count" env:"WORKER_COUNT" description:"Worker pool size for provider fetches (0 = one worker per task)"`
	TaskTimeout   int    `long:"task-timeout" env:"TASK_TIMEOUT" default:"20" description:"Per-provider fetch timeout in seconds"`
	BatchTimeout  int    `long:"batch-timeout" env:"BATCH_TIMEOUT" default:"25" description:"Whole-batch aggregation ceiling in seconds"`

	// Optional share-payload cache
	RedisAddr     string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for share-payload caching (optional)"`
	ShareCacheTTL int    `long:"share-cache-ttl" env:"SHARE_CACHE_TTL" default:"300" description:"Share cache TTL in seconds"`

	// Partner credentials
	WebWunderAPIKey          string `long:"webwunder-api-key" env:"WEBWUNDER_API_KEY" description:"WebWunder API key"`
	ByteMeAPIKey             string `long:"byteme-api-key" env:"BYTEME_API_KEY" description:"ByteMe API key"`
	PingPerfectClientID      string `long:"pingperfect-client-id" env:"PINGPERFECT_CLIENT_ID" description:"Ping Perfect client ID"`
	PingPerfectSigningSecret string `long:"pingperfect-signature-secret" env:"PINGPERFECT_SIGNATURE_SECRET" description:"Ping Perfect HMAC signing secret"`
	VerbynDichAPIKey         string `long:"verbyndich-api-key" env:"VERBYNDICH_API_KEY" description:"VerbynDich API key"`
	ServusSpeedUsername      string `long:"servusspeed-username" env:"SERVUSSPEED_USERNAME" description:"Servus Speed basic-auth username"`
	ServusSpeedPassword      string `long:"servusspeed-password" env:"SERVUSSPEED_PASSWORD" description:"Servus Speed basic-auth password"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Offer Comb/1.0" description:"User agent string for partner requests"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	// Credentials typically live in a .env file during development; a
	// missing file just means the environment is already populated.
	_ = godotenv.Load()

	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		Port:          raw.Port,
		DBPath:        raw.DBPath,
		ProvidersFile: raw.ProvidersFile,
		WorkerCount:   raw.WorkerCount,
		TaskTimeout:   raw.TaskTimeout,
		BatchTimeout:  raw.BatchTimeout,

		RedisAddr:     raw.RedisAddr,
		ShareCacheTTL: raw.ShareCacheTTL,

		WebWunderAPIKey:          raw.WebWunderAPIKey,
		ByteMeAPIKey:             raw.ByteMeAPIKey,
		PingPerfectClientID:      raw.PingPerfectClientID,
		PingPerfectSigningSecret: raw.PingPerfectSigningSecret,
		VerbynDichAPIKey:         raw.VerbynDichAPIKey,
		ServusSpeedUsername:      raw.ServusSpeedUsername,
		ServusSpeedPassword:      raw.ServusSpeedPassword,

		UserAgent: raw.UserAgent,
		Debug:     raw.Debug,
		Version:   GetVersion(),
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}
