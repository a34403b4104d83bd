package config

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
	"strings"
)

// Config holds all configurable session parameters.
type Config struct {
	WSPort        int `json:"ws_port"`
	MaxNameLength int `json:"max_name_length"`

	// ReadyCheckSec is the window both players have to accept a match.
	ReadyCheckSec   int `json:"ready_check_sec"`
	OpeningHandSize int `json:"opening_hand_size"`

	StartingHealth int `json:"starting_health"`
	MaxHealth      int `json:"max_health"`
	// ResourceCeiling clamps armor, currency and power on every write.
	ResourceCeiling int `json:"resource_ceiling"`

	// ChoiceTimeoutSec bounds how long a choice request may stay unanswered before the default answer is applied.
	ChoiceTimeoutSec int `json:"choice_timeout_sec"`
	AckTimeoutMS     int `json:"ack_timeout_ms"`

	IntentRatePerSec int `json:"intent_rate_per_sec"`
	IntentBurst      int `json:"intent_burst"`

	// CombatPolicy selects how Toad card fights are decided: "reward" (always won) or "exchange".
	CombatPolicy string `json:"combat_policy"`

	// DeckList is the card ids each player starts with; empty means one copy of every catalog card.
	DeckList        []string `json:"deck_list"`
	CardCatalogPath string   `json:"card_catalog_path"`

	DatabaseURL string `json:"database_url"`
	AuthBaseURL string `json:"auth_base_url"`
	LogLevel    string `json:"log_level"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		WSPort:           8080,
		MaxNameLength:    24,
		ReadyCheckSec:    15,
		OpeningHandSize:  7,
		StartingHealth:   30,
		MaxHealth:        30,
		ResourceCeiling:  99,
		ChoiceTimeoutSec: 30,
		AckTimeoutMS:     3000,
		IntentRatePerSec: 20,
		IntentBurst:      40,
		CombatPolicy:     "reward",
		LogLevel:         "info",
	}
}

// Load reads configuration from an optional config.json file,
// then applies environment variable overrides. Fields not set
// in either source retain their default values.
func Load() *Config {
	cfg := Defaults()

	if f, err := os.Open("config.json"); err == nil {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			log.Printf("Warning: failed to parse config.json: %v", err)
		}
	}

	overrideInt(&cfg.WSPort, "WS_PORT")
	overrideInt(&cfg.MaxNameLength, "MAX_NAME_LENGTH")
	overrideInt(&cfg.ReadyCheckSec, "READY_CHECK_SEC")
	overrideInt(&cfg.OpeningHandSize, "OPENING_HAND_SIZE")
	overrideInt(&cfg.StartingHealth, "STARTING_HEALTH")
	overrideInt(&cfg.MaxHealth, "MAX_HEALTH")
	overrideInt(&cfg.ResourceCeiling, "RESOURCE_CEILING")
	overrideInt(&cfg.ChoiceTimeoutSec, "CHOICE_TIMEOUT_SEC")
	overrideInt(&cfg.AckTimeoutMS, "ACK_TIMEOUT_MS")
	overrideInt(&cfg.IntentRatePerSec, "INTENT_RATE_PER_SEC")
	overrideInt(&cfg.IntentBurst, "INTENT_BURST")
	overrideString(&cfg.CombatPolicy, "COMBAT_POLICY")
	overrideString(&cfg.CardCatalogPath, "CARD_CATALOG_PATH")
	overrideString(&cfg.DatabaseURL, "DATABASE_URL")
	overrideString(&cfg.AuthBaseURL, "AUTH_BASE_URL")
	overrideString(&cfg.LogLevel, "LOG_LEVEL")
	if val := os.Getenv("DECK_LIST"); val != "" {
		cfg.DeckList = splitList(val)
	}

	if cfg.StartingHealth > cfg.MaxHealth {
		log.Printf("Warning: STARTING_HEALTH %d exceeds MAX_HEALTH %d; clamping", cfg.StartingHealth, cfg.MaxHealth)
		cfg.StartingHealth = cfg.MaxHealth
	}
	return cfg
}

func overrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*field = n
		} else {
			log.Printf("Warning: invalid value for %s: %q", envKey, val)
		}
	}
}

func overrideString(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
