package config

import (
	"os"
)

type DatabaseConfig struct {
	URL string
}

type AuthConfig struct {
	JWTSecret string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

type GradioConfig struct {
	// Space is the hosted model space, e.g. "black-forest-labs/FLUX.1-schnell".
	Space string
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
}

type ResendConfig struct {
	APIKey string
	From   string
}

type Config struct {
	Port       string
	Database   DatabaseConfig
	Auth       AuthConfig
	Stripe     StripeConfig
	Cloudinary CloudinaryConfig
	Gradio     GradioConfig
	R2         R2Config
	Resend     ResendConfig
}

func LoadConfig() *Config {
	cfg := &Config{}

	cfg.Port = getEnv("PORT", "8080")
	cfg.Database.URL = os.Getenv("DATABASE_URL")
	cfg.Auth.JWTSecret = os.Getenv("JWT_SECRET")

	cfg.Stripe.SecretKey = os.Getenv("STRIPE_SECRET_KEY")
	cfg.Stripe.WebhookSecret = os.Getenv("STRIPE_WEBHOOK_SECRET")
	appURL := getEnv("APP_URL", "http://localhost:3000")
	cfg.Stripe.SuccessURL = appURL + "/credits?success=true&session_id={CHECKOUT_SESSION_ID}"
	cfg.Stripe.CancelURL = appURL + "/credits?canceled=true"

	cfg.Cloudinary.CloudName = os.Getenv("CLOUDINARY_CLOUD_NAME")
	cfg.Cloudinary.APIKey = os.Getenv("CLOUDINARY_API_KEY")
	cfg.Cloudinary.APISecret = os.Getenv("CLOUDINARY_API_SECRET")

	cfg.Gradio.Space = getEnv("GRADIO_SPACE", "black-forest-labs/FLUX.1-schnell")

	cfg.R2.AccountID = os.Getenv("R2_ACCOUNT_ID")
	cfg.R2.AccessKeyID = os.Getenv("R2_ACCESS_KEY_ID")
	cfg.R2.SecretAccessKey = os.Getenv("R2_SECRET_ACCESS_KEY")
	cfg.R2.Bucket = os.Getenv("R2_BUCKET")

	cfg.Resend.APIKey = os.Getenv("RESEND_API_KEY")
	cfg.Resend.From = getEnv("RESEND_FROM", "MediaMorph <billing@mediamorph.app>")

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
