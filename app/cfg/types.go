package cfg

type Cfg struct {
	// Application configuration
	Port          string
	DBPath        string
	ProvidersFile string
	WorkerCount   int
	TaskTimeout   int // seconds
	BatchTimeout  int // seconds

	// Optional share-payload cache
	RedisAddr     string
	ShareCacheTTL int // seconds

	// Partner credentials (injected via environment)
	WebWunderAPIKey          string
	ByteMeAPIKey             string
	PingPerfectClientID      string
	PingPerfectSigningSecret string
	VerbynDichAPIKey         string
	ServusSpeedUsername      string
	ServusSpeedPassword      string

	// Application metadata
	UserAgent string
	Debug     bool
	Version   string
}
