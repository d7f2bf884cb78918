package profile

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start the recollect server.
type Profile struct {
	// Server
	Mode    string // prod | dev | demo
	Addr    string
	Port    int
	Version string

	// Store
	Driver string // postgres | embedded
	DSN    string

	// Unified LLM configuration (OpenAI-compatible protocol). Used for both
	// summarization and merge generation.
	LLMProvider string // zai, deepseek, openai, siliconflow, dashscope, ollama
	LLMAPIKey   string
	LLMBaseURL  string
	LLMModel    string
	LLMTimeout  int // request timeout in seconds (default: 120)

	// Embedding configuration
	EmbeddingProvider   string
	EmbeddingModel      string
	EmbeddingAPIKey     string
	EmbeddingBaseURL    string
	EmbeddingDimensions int

	// Consolidation thresholds. The merge threshold is much tighter than the
	// retrieval threshold: a merge false-positive silently destroys
	// information, a retrieval false-positive only adds noise.
	MergeDistance float64
	MergeTopK     int

	// Retrieval defaults used when a search call does not specify its own.
	RetrievalDistance float64
	RetrievalTopK     int
}

// Provider default configurations for the LLM, applied when a base URL or
// model is not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"zai": {
		BaseURL: "https://open.bigmodel.cn/api/paas/v4",
		Model:   "glm-4.7",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-5.2",
	},
	"siliconflow": {
		BaseURL: "https://api.siliconflow.cn/v1",
		Model:   "Qwen/Qwen2.5-72B-Instruct",
	},
	"dashscope": {
		BaseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1",
		Model:   "qwen-max-latest",
	},
	"ollama": {
		BaseURL: "http://localhost:11434",
		Model:   "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if the LLM API key is configured. Without it the
// server still serves storage and search; ingestion via generation is off.
func (p *Profile) IsAIEnabled() bool {
	return p.LLMAPIKey != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvOrDefaultFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.LLMProvider = getEnvOrDefault("RECOLLECT_AI_LLM_PROVIDER", "zai")
	p.LLMAPIKey = getEnvOrDefault("RECOLLECT_AI_LLM_API_KEY", "")
	p.LLMBaseURL = getEnvOrDefault("RECOLLECT_AI_LLM_BASE_URL", "")
	p.LLMModel = getEnvOrDefault("RECOLLECT_AI_LLM_MODEL", "")
	p.LLMTimeout = getEnvOrDefaultInt("RECOLLECT_AI_LLM_TIMEOUT_SECONDS", 120)

	if p.LLMProvider != "" {
		if _, ok := llmProviderDefaults[p.LLMProvider]; !ok {
			slog.Warn("unknown LLM provider, using default: zai", "provider", p.LLMProvider)
			p.LLMProvider = "zai"
		}
	}
	if defaults, ok := llmProviderDefaults[p.LLMProvider]; ok {
		if p.LLMBaseURL == "" {
			p.LLMBaseURL = defaults.BaseURL
		}
		if p.LLMModel == "" {
			p.LLMModel = defaults.Model
		}
	}

	p.EmbeddingProvider = getEnvOrDefault("RECOLLECT_AI_EMBEDDING_PROVIDER", "siliconflow")
	p.EmbeddingModel = getEnvOrDefault("RECOLLECT_AI_EMBEDDING_MODEL", "BAAI/bge-m3")
	p.EmbeddingAPIKey = getEnvOrDefault("RECOLLECT_AI_EMBEDDING_API_KEY", "")
	p.EmbeddingBaseURL = getEnvOrDefault("RECOLLECT_AI_EMBEDDING_BASE_URL", "https://api.siliconflow.cn/v1")
	p.EmbeddingDimensions = getEnvOrDefaultInt("RECOLLECT_AI_EMBEDDING_DIMENSIONS", 1024)

	p.MergeDistance = getEnvOrDefaultFloat("RECOLLECT_MERGE_DISTANCE", 0.2)
	p.MergeTopK = getEnvOrDefaultInt("RECOLLECT_MERGE_TOP_K", 5)
	p.RetrievalDistance = getEnvOrDefaultFloat("RECOLLECT_RETRIEVAL_DISTANCE", 0.5)
	p.RetrievalTopK = getEnvOrDefaultInt("RECOLLECT_RETRIEVAL_TOP_K", 10)
}

// Validate checks the profile and normalizes defaults.
func (p *Profile) Validate() error {
	if !slices.Contains([]string{"prod", "dev", "demo"}, p.Mode) {
		p.Mode = "demo"
	}
	if p.Port <= 0 || p.Port > 65535 {
		return errors.Errorf("invalid port %d", p.Port)
	}

	switch p.Driver {
	case "postgres":
		if p.DSN == "" {
			return errors.New("dsn required for postgres driver")
		}
	case "embedded":
		// In-process store, nothing to validate.
	default:
		return errors.Errorf("unsupported driver %q (expect postgres or embedded)", p.Driver)
	}

	if p.EmbeddingDimensions <= 0 {
		return errors.Errorf("invalid embedding dimensions %d", p.EmbeddingDimensions)
	}
	if p.MergeDistance <= 0 || p.MergeDistance > 2 {
		return errors.Errorf("merge distance %v out of range (0, 2]", p.MergeDistance)
	}
	if p.RetrievalDistance <= 0 || p.RetrievalDistance > 2 {
		return errors.Errorf("retrieval distance %v out of range (0, 2]", p.RetrievalDistance)
	}
	if p.MergeTopK <= 0 || p.RetrievalTopK <= 0 {
		return errors.New("top-k values must be positive")
	}
	return nil
}

func (p *Profile) String() string {
	fields := []string{
		fmt.Sprintf("mode=%s", p.Mode),
		fmt.Sprintf("addr=%s:%d", p.Addr, p.Port),
		fmt.Sprintf("driver=%s", p.Driver),
		fmt.Sprintf("version=%s", p.Version),
	}
	return strings.Join(fields, " ")
}
