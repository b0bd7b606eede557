package types

type Config struct {
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort      uint   `envconfig:"SERVER_PORT" default:"8080"`
	DatabaseURL     string `envconfig:"DATABASE_URL"`
	DatabaseSchema  string `envconfig:"DATABASE_SCHEMA" default:"carelink"`
	ReadTimeoutSec  uint   `envconfig:"READ_TIMEOUT_SEC" default:"10"`
	WriteTimeoutSec uint   `envconfig:"WRITE_TIMEOUT_SEC" default:"15"`
	LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`

	// Pool size, zero keeps the pgxpool default
	DatabaseMaxConns int32 `envconfig:"DATABASE_MAX_CONNS"`

	// Attempts per transaction when postgres reports a serialization failure
	// or deadlock. Clamped to 1..3.
	TxMaxAttempts uint `envconfig:"TX_MAX_ATTEMPTS" default:"3"`

	// Cognito Auth
	CognitoClientID  string `envconfig:"COGNITO_CLIENT_ID"`
	CognitoIssuerURL string `envconfig:"COGNITO_ISSUER_URL"`
	AdminGroup       string `envconfig:"ADMIN_GROUP" default:"admin"`

	// Cookie encryption keys (base64 encoded)
	// openssl rand -base64 32
	// to generate values
	CookieHashKey  string `envconfig:"COOKIE_HASH_KEY"`  // 32 or 64 bytes
	CookieBlockKey string `envconfig:"COOKIE_BLOCK_KEY"` // 16, 24, or 32 bytes

	// Optional report cache, disabled when empty
	RedisURL          string `envconfig:"REDIS_URL"`
	ReportCacheTTLSec uint   `envconfig:"REPORT_CACHE_TTL_SEC" default:"60"`

	// Optional archive of uploaded requirement PDFs, disabled when empty
	PDFBucket      string `envconfig:"PDF_BUCKET"`
	MaxUploadBytes int64  `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`
}
