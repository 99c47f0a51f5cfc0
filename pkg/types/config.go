package types

type Config struct {
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort      uint   `envconfig:"SERVER_PORT" default:"8080"`
	DatabaseURL     string `envconfig:"DATABASE_URL"`
	ReadTimeoutSec  uint   `envconfig:"READ_TIMEOUT_SEC" default:"10"`
	WriteTimeoutSec uint   `envconfig:"WRITE_TIMEOUT_SEC" default:"15"`

	// Session tokens
	SessionSecret    string `envconfig:"SESSION_SECRET"` // HMAC signing key
	SessionMaxAgeSec int    `envconfig:"SESSION_MAX_AGE_SEC" default:"604800"` // 7 days
	CookieName       string `envconfig:"SESSION_COOKIE_NAME" default:"session_id"`

	// Cookie encryption keys (base64 encoded)
	// openssl rand -base64 32
	// to generate values
	CookieHashKey  string `envconfig:"COOKIE_HASH_KEY"`  // 32 or 64 bytes
	CookieBlockKey string `envconfig:"COOKIE_BLOCK_KEY"` // 16, 24, or 32 bytes

	// Object storage
	StorageBucket        string `envconfig:"STORAGE_BUCKET" default:"submission-uploads"`
	StorageRegion        string `envconfig:"STORAGE_REGION" default:"us-east-1"`
	StoragePublicBaseURL string `envconfig:"STORAGE_PUBLIC_BASE_URL"`

	// Upload limits
	MaxUploadFiles   int   `envconfig:"MAX_UPLOAD_FILES" default:"10"`
	MaxUploadTotalMB int64 `envconfig:"MAX_UPLOAD_TOTAL_MB" default:"200"`

	// Outbound automation webhooks
	IntakeWebhookURL     string `envconfig:"INTAKE_WEBHOOK_URL"`
	EstimateWebhookURL   string `envconfig:"ESTIMATE_WEBHOOK_URL"`
	WebhookToken         string `envconfig:"WEBHOOK_TOKEN"`
	IntakeWebhookMs      int    `envconfig:"INTAKE_WEBHOOK_TIMEOUT_MS" default:"3000"`
	EstimateWebhookMs    int    `envconfig:"ESTIMATE_WEBHOOK_TIMEOUT_MS" default:"2500"`
	WebhookQueueCapacity int    `envconfig:"WEBHOOK_QUEUE_CAPACITY" default:"64"`
}
