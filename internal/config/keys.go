package config

import "os"

// APIKeySource represents where a credential comes from.
type APIKeySource string

const (
	KeySourceEnv    APIKeySource = "env"
	KeySourceConfig APIKeySource = "config"
	KeySourceNone   APIKeySource = "none"
)

// KeyStatus represents the status of a credential.
type KeyStatus struct {
	Name   string       `json:"name"`
	Source APIKeySource `json:"source"`
	IsSet  bool         `json:"is_set"`
	Masked string       `json:"masked,omitempty"` // e.g., "abc...xyz"
}

// CheckSecrets returns the status of every external credential the tool
// can use. Only the Graph API key is required for live rate history; the
// rest enable optional integrations.
func CheckSecrets(cfg *Config) []KeyStatus {
	return []KeyStatus{
		checkKey("Graph API Key", cfg.Data.GraphAPIKey, "SWAPSIM_DATA_GRAPH_API_KEY", "GRAPH_API_KEY"),
		checkKey("Ethereum RPC URL", cfg.Data.RPCURL, "SWAPSIM_DATA_RPC_URL"),
		checkKey("Postgres DSN", cfg.Store.DatabaseURL, "SWAPSIM_STORE_DATABASE_URL", "DATABASE_URL"),
		checkKey("Redis Address", cfg.Cache.RedisAddr, "SWAPSIM_CACHE_REDIS_ADDR", "REDIS_ADDR"),
	}
}

// checkKey checks if a credential is set and where it came from.
func checkKey(name, value string, envVars ...string) KeyStatus {
	status := KeyStatus{
		Name:  name,
		IsSet: value != "",
	}

	if value != "" {
		// Check if it came from env
		status.Source = KeySourceConfig
		for _, e := range envVars {
			if os.Getenv(e) != "" {
				status.Source = KeySourceEnv
				break
			}
		}
		status.Masked = maskKey(value)
	} else {
		status.Source = KeySourceNone
	}

	return status
}

// maskKey masks a credential for display, showing only first 3 and last 3 chars.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-3:]
}
