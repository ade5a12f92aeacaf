package config

import (
	"fmt"

	"github.com/Netflix/go-env"
)

type Config struct {
	ShopifyDomain      string `env:"SHOPIFY_DOMAIN,required=true"`
	ShopifyAccessToken string `env:"SHOPIFY_ACCESS_TOKEN,required=true"`
	FedExAPIKey        string `env:"FEDEX_API_KEY,required=true"`
	FedExSecretKey     string `env:"FEDEX_SECRET_KEY,required=true"`
	FedExAPIURL        string `env:"FEDEX_API_URL,default=https://apis-sandbox.fedex.com"`
	APIPort            int    `env:"PORT,default=8080"`
	LogLevel           string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
