package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LLM struct {
		BaseURL     string  `yaml:"base_url"`
		Model       string  `yaml:"model"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float64 `yaml:"temperature"`
		APIKey      string  `yaml:"-"`
	} `yaml:"llm"`

	Embedding struct {
		Model  string `yaml:"model"`
		APIKey string `yaml:"-"`
	} `yaml:"embedding"`

	Index struct {
		Path string `yaml:"path"`
		TopK int    `yaml:"top_k"`
	} `yaml:"index"`

	Fetcher struct {
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		RateLimit      float64 `yaml:"rate_limit"`
		UserAgent      string  `yaml:"user_agent"`
	} `yaml:"fetcher"`

	Processor struct {
		ChunkSize    int `yaml:"chunk_size"`
		ChunkOverlap int `yaml:"chunk_overlap"`
	} `yaml:"processor"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/newsrag/config.yaml"),
			"/etc/newsrag/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	mergeWithEnv(&config)
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.LLM.Model == "" {
		config.LLM.Model = "llama-3.3-70b-versatile"
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 2000
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = 0.7
	}
	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = "https://api.groq.com/openai/v1"
	}

	if config.Embedding.Model == "" {
		config.Embedding.Model = "text-embedding-004"
	}

	if config.Index.Path == "" {
		config.Index.Path = "index"
	}
	if config.Index.TopK == 0 {
		config.Index.TopK = 5
	}

	if config.Fetcher.TimeoutSeconds == 0 {
		config.Fetcher.TimeoutSeconds = 30
	}
	if config.Fetcher.RateLimit == 0 {
		config.Fetcher.RateLimit = 2.0
	}

	if config.Processor.ChunkSize == 0 {
		config.Processor.ChunkSize = 800
	}
	if config.Processor.ChunkOverlap == 0 {
		config.Processor.ChunkOverlap = 80
	}

	if config.Server.Addr == "" {
		config.Server.Addr = ":8080"
	}
}

func mergeWithEnv(config *Config) {
	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		config.LLM.APIKey = key
	}
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		config.Embedding.APIKey = key
	}
	if path := os.Getenv("NEWSRAG_INDEX_PATH"); path != "" {
		config.Index.Path = path
	}
	if port := os.Getenv("PORT"); port != "" {
		config.Server.Addr = ":" + port
	}
}
