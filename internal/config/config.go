package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type APIConfig struct {
	Addr             string
	RPCURL           string
	ProgramID        string
	IconURL          string
	BlockchainIDs    string
	PollEvery        time.Duration
	DiscordToken     string
	DiscordChannelID string
}

type CLIConfig struct {
	APIBaseURL string
}

func LoadAPIFromEnv() (APIConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("EMPEROR_API_ADDR", ":8080")
	}

	cfg := APIConfig{
		Addr:             addr,
		RPCURL:           envDefault("EMPEROR_RPC_URL", "https://api.devnet.solana.com"),
		ProgramID:        strings.TrimSpace(os.Getenv("EMPEROR_PROGRAM_ID")),
		IconURL:          envDefault("EMPEROR_ICON_URL", "https://emperor-game.net/icon.png"),
		BlockchainIDs:    envDefault("EMPEROR_BLOCKCHAIN_IDS", "solana:devnet"),
		PollEvery:        envDurationDefault("EMPEROR_POLL_EVERY", 15*time.Second),
		DiscordToken:     strings.TrimSpace(os.Getenv("DISCORD_BOT_TOKEN")),
		DiscordChannelID: strings.TrimSpace(os.Getenv("DISCORD_CHANNEL_ID")),
	}
	if cfg.ProgramID == "" {
		return cfg, fmt.Errorf("EMPEROR_PROGRAM_ID is required")
	}
	return cfg, nil
}

func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("EMPEROR_API_BASE_URL", "http://localhost:8080"), "/"),
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
