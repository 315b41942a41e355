package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// lookupFunc matches os.LookupEnv.
type lookupFunc func(string) (string, bool)

// applyEnv overlays RAGCHAT_* variables onto cfg. Set-but-empty variables are ignored.
func applyEnv(cfg *Config, lookup lookupFunc) error {
	get := func(key string) (string, bool) {
		v, ok := lookup("RAGCHAT_" + key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	strs := map[string]*string{
		"SERVER_ADDR":       &cfg.Server.Addr,
		"GIN_MODE":          &cfg.Server.GinMode,
		"RETRIEVAL_URL":     &cfg.Retrieval.URL,
		"LLM_BACKEND":       &cfg.LLM.Backend,
		"LLM_URL":           &cfg.LLM.URL,
		"LLM_MODEL":         &cfg.LLM.Model,
		"LLM_API_KEY":       &cfg.LLM.APIKey,
		"LLM_PROMPT_FORMAT": &cfg.LLM.PromptFormat,
		"OTLP_ENDPOINT":     &cfg.Telemetry.OTLPEndpoint,
		"SERVICE_NAME":      &cfg.Telemetry.ServiceName,
		"LOG_LEVEL":         &cfg.Log.Level,
		"LOG_FORMAT":        &cfg.Log.Format,
	}
	for key, dst := range strs {
		if v, ok := get(key); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"SERVER_READ_TIMEOUT":  &cfg.Server.ReadTimeout,
		"SERVER_WRITE_TIMEOUT": &cfg.Server.WriteTimeout,
		"RETRIEVAL_TIMEOUT":    &cfg.Retrieval.Timeout,
		"LLM_TIMEOUT":          &cfg.LLM.Timeout,
	}
	for key, dst := range durations {
		if v, ok := get(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("RAGCHAT_%s: %w", key, err)
			}
			*dst = d
		}
	}

	ints := map[string]*int{
		"RETRIEVAL_TOP_K": &cfg.Retrieval.TopK,
		"RATE_BURST":      &cfg.Server.RateBurst,
	}
	for key, dst := range ints {
		if v, ok := get(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("RAGCHAT_%s: %w", key, err)
			}
			*dst = n
		}
	}

	if v, ok := get("RATE_LIMIT"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("RAGCHAT_RATE_LIMIT: %w", err)
		}
		cfg.Server.RateLimit = f
	}
	if v, ok := get("WATCH"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("RAGCHAT_WATCH: %w", err)
		}
		cfg.Watch = b
	}
	if v, ok := get("CRISIS_KEYWORDS"); ok {
		cfg.Policy.CrisisKeywords = strings.Split(v, ",")
	}
	return nil
}
