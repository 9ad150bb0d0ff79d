package config

import "time"

// TestPublishableKey is the clearly-labeled fallback used when no Stripe
// publishable key is configured. It must never be pointed at live data.
const TestPublishableKey = "pk_test_your_publishable_key"

type ServiceConfig struct {
	Name        string       `yaml:"name"`
	Environment string       `yaml:"environment"`
	Version     string       `yaml:"version"`
	ClientURL   string       `yaml:"client_url"`
	Stripe      StripeConfig `yaml:"stripe"`
	Admin       AdminConfig  `yaml:"admin"`
	Plans       PlanConfig   `yaml:"plans"`
}

type StripeConfig struct {
	SecretKey      string `yaml:"secret_key"`
	PublishableKey string `yaml:"publishable_key"`
	WebhookSecret  string `yaml:"webhook_secret"`
	// ProtectionProductID is the Stripe product subscriptions bill against.
	ProtectionProductID string `yaml:"protection_product_id"`
}

type AdminConfig struct {
	Username     string        `yaml:"username"`
	PasswordHash string        `yaml:"password_hash"`
	JWTSecret    string        `yaml:"jwt_secret"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
	RememberTTL  time.Duration `yaml:"remember_ttl"`
}

// PlanConfig prices the protection plans as a fraction of the insured
// item's value.
type PlanConfig struct {
	MonthlyRate float64 `yaml:"monthly_rate"`
	YearlyRate  float64 `yaml:"yearly_rate"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type StorageConfig struct {
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PublicBaseURL   string `yaml:"public_base_url"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// PriceChannel is the pub/sub channel price updates fan out on.
	PriceChannel string `yaml:"price_channel"`
}

type PriceFeedConfig struct {
	// UpstreamURL serves spot prices as {"Gold":..,"Silver":..,...}.
	UpstreamURL string        `yaml:"upstream_url"`
	Interval    time.Duration `yaml:"interval"`
}

func (s *ServiceConfig) applyDefaults() {
	if s.Stripe.PublishableKey == "" {
		s.Stripe.PublishableKey = TestPublishableKey
	}
	if s.Admin.TokenTTL == 0 {
		s.Admin.TokenTTL = time.Hour
	}
	if s.Admin.RememberTTL == 0 {
		s.Admin.RememberTTL = 30 * 24 * time.Hour
	}
	if s.Plans.MonthlyRate == 0 {
		s.Plans.MonthlyRate = 0.02
	}
	if s.Plans.YearlyRate == 0 {
		s.Plans.YearlyRate = 0.20
	}
}
