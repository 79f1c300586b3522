package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/vladimiradmaev/glucolog/internal/config"
)

func main() {
	fmt.Println("Checking configuration...")

	if err := godotenv.Load(); err != nil {
		fmt.Printf(".env file not found: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Configuration is invalid:\n%v\n", err)
		os.Exit(1)
	}

	fmt.Println("Configuration is valid.")
	fmt.Printf("  - DB Host: %s\n", cfg.DB.Host)
	fmt.Printf("  - DB Port: %s\n", cfg.DB.Port)
	fmt.Printf("  - DB User: %s\n", cfg.DB.User)
	fmt.Printf("  - DB Name: %s\n", cfg.DB.DBName)
	fmt.Printf("  - Redis Addr: %s\n", cfg.Redis.Addr)
	fmt.Printf("  - Redis Cache TTL: %v\n", cfg.Redis.CacheTTL)
	fmt.Printf("  - Dexcom Base URL: %s\n", cfg.Dexcom.BaseURL)
	fmt.Printf("  - Dexcom Token: %s\n", maskToken(cfg.Dexcom.Token))
	fmt.Printf("  - Gemini API Key: %s\n", maskToken(cfg.AI.GeminiAPIKey))
	fmt.Printf("  - OpenAI API Key: %s\n", maskToken(cfg.AI.OpenAIAPIKey))
	fmt.Printf("  - Target Range: %d-%d mg/dL\n", cfg.Analytics.TargetLower, cfg.Analytics.TargetUpper)
	fmt.Printf("  - Audit Stream: %s\n", cfg.Audit.Stream)
	fmt.Printf("  - Audit Poll Interval: %v\n", cfg.Audit.PollInterval)
	fmt.Printf("  - Log Level: %v\n", cfg.Logger.Level)
	fmt.Printf("  - Log Output: %s\n", cfg.Logger.OutputPath)
	fmt.Printf("  - Log Format: %s\n", cfg.Logger.Format)
}

func maskToken(token string) string {
	if token == "" {
		return "<not set>"
	}
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
