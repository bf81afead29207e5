package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig collects the environment-provided settings the server needs
type AppConfig struct {
	Env           string
	Port          string
	MongoURI      string
	DBName        string
	JWTSecret     string
	PublicSiteURL string
	UploadDir     string

	PhonePe PhonePeConfig
	SMTP    SMTPConfig
}

// PhonePeConfig holds the payment gateway credentials
type PhonePeConfig struct {
	Env         string
	Host        string
	MerchantID  string
	SaltKey     string
	SaltIndex   string
	RedirectURL string
	CallbackURL string
}

// SMTPConfig holds outgoing mail settings
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Gateway sandbox defaults. The merchant id and salt below are the gateway's published
// test credentials and are only used when PHONEPE_ENV=sandbox.
const (
	phonePeSandboxHost      = "https://api-preprod.phonepe.com/apis/pg-sandbox"
	phonePeProductionHost   = "https://api.phonepe.com/apis/hermes"
	phonePeSandboxMerchant  = "PGTESTPAYUAT"
	phonePeSandboxSaltKey   = "099eb0cd-02cf-4e2a-8aca-3e6c6aff0399"
	phonePeDefaultSaltIndex = "1"
)

// Load reads .env (if present) and the process environment
func Load() *AppConfig {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := &AppConfig{
		Env:           getEnv("ENV", "development"),
		Port:          getEnv("PORT", "8080"),
		MongoURI:      firstEnv("MONGO_URI", "MONGODB_URI"),
		DBName:        getEnv("DB_NAME", defaultDBName),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		PublicSiteURL: strings.TrimRight(getEnv("PUBLIC_SITE_URL", "http://localhost:3000"), "/"),
		UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
	}

	cfg.PhonePe = loadPhonePe()
	cfg.SMTP = SMTPConfig{
		Host:     getEnv("SMTP_HOST", "mail.smtp2go.com"),
		Port:     getEnvInt("SMTP_PORT", 2525),
		User:     os.Getenv("SMTP_USER"),
		Password: os.Getenv("SMTP_PASS"),
		From:     firstEnv("FROM_EMAIL", "SMTP_USER"),
	}
	return cfg
}

func loadPhonePe() PhonePeConfig {
	pc := PhonePeConfig{
		Env:         getEnv("PHONEPE_ENV", "sandbox"),
		Host:        os.Getenv("PHONEPE_HOST"),
		MerchantID:  os.Getenv("PHONEPE_MERCHANT_ID"),
		SaltKey:     os.Getenv("PHONEPE_SALT_KEY"),
		SaltIndex:   getEnv("PHONEPE_SALT_INDEX", phonePeDefaultSaltIndex),
		RedirectURL: os.Getenv("PHONEPE_REDIRECT_URL"),
		CallbackURL: os.Getenv("PHONEPE_CALLBACK_URL"),
	}

	if pc.Env == "sandbox" {
		if pc.Host == "" {
			pc.Host = phonePeSandboxHost
		}
		if pc.MerchantID == "" && pc.SaltKey == "" {
			pc.MerchantID = phonePeSandboxMerchant
			pc.SaltKey = phonePeSandboxSaltKey
		}
	} else if pc.Host == "" {
		pc.Host = phonePeProductionHost
	}
	pc.Host = strings.TrimRight(pc.Host, "/")

	if pc.MerchantID == "" || pc.SaltKey == "" {
		log.Printf("WARNING: PhonePe credentials not fully configured (PHONEPE_MERCHANT_ID, PHONEPE_SALT_KEY)")
	} else {
		log.Printf("PhonePe configuration: env=%s host=%s merchant=%s salt=[CONFIGURED]", pc.Env, pc.Host, pc.MerchantID)
	}
	return pc
}

// IsDevelopment reports whether the server runs with development fallbacks
func (c *AppConfig) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "dev"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
