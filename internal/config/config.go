package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv      = "BOOK_ANNOTATOR_CONFIG"
	ledgerDSNEnv       = "LEDGER_DSN"
	catalogDSNEnv      = "CATALOG_DSN"
	openAIKeyEnv       = "OPENAI_API_KEY"
	chatGPTAPIKeyEnv   = "CHATGPT_API_KEY"
	chatGPTModelEnv    = "CHATGPT_MODEL"
	chatGPTEndpointEnv = "CHATGPT_ENDPOINT"
	httpAddrEnv        = "HTTP_ADDR"
	logLevelEnv        = "LOG_LEVEL"
	searchEngineEnv    = "SEARCH_ENGINE"
	searchEndpointEnv  = "SEARCH_ENDPOINT"
)

// Supported database drivers.
const (
	DriverPostgres  = "postgres"
	DriverSQLite    = "sqlite"
	DriverSQLServer = "sqlserver"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	HTTP    HTTPConfig    `yaml:"http"`
	Ledger  LedgerConfig  `yaml:"ledger"`
	Catalog CatalogConfig `yaml:"catalog"`
	Search  SearchConfig  `yaml:"search"`
	Fetch   FetchConfig   `yaml:"fetch"`
	ChatGPT ChatGPTConfig `yaml:"chatgpt"`
}

// LoggingConfig selects verbosity and output format (text, json, human).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// HTTPConfig describes the inbound API listener.
type HTTPConfig struct {
	Addr         string   `yaml:"addr"`
	ReadTimeout  Duration `yaml:"readTimeout"`
	WriteTimeout Duration `yaml:"writeTimeout"`
}

// LedgerConfig points at the database holding generated descriptions.
type LedgerConfig struct {
	Driver     string   `yaml:"driver"`
	DSN        string   `yaml:"dsn"`
	Table      string   `yaml:"table"`
	StaleAfter Duration `yaml:"staleAfter"`
}

// CatalogConfig points at the library catalog with bibliographic records.
type CatalogConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Table  string `yaml:"table"`
}

// SearchConfig selects and tunes the web search engine.
type SearchConfig struct {
	Engine         string   `yaml:"engine"`
	Endpoint       string   `yaml:"endpoint"`
	UserAgent      string   `yaml:"userAgent"`
	AcceptLanguage string   `yaml:"acceptLanguage"`
	Timeout        Duration `yaml:"timeout"`
	QueryInterval  Duration `yaml:"queryInterval"`
	ExcludedHosts  []string `yaml:"excludedHosts"`
	MaxURLLength   int      `yaml:"maxURLLength"`
}

// FetchConfig bounds source downloads.
type FetchConfig struct {
	HTMLTimeout   Duration `yaml:"htmlTimeout"`
	PDFTimeout    Duration `yaml:"pdfTimeout"`
	Interval      Duration `yaml:"interval"`
	MaxCandidates int      `yaml:"maxCandidates"`
	MaxBodyBytes  int64    `yaml:"maxBodyBytes"`
	UserAgent     string   `yaml:"userAgent"`
}

// ChatGPTConfig defines how to contact the ChatGPT API.
type ChatGPTConfig struct {
	Endpoint     string   `yaml:"endpoint"`
	Model        string   `yaml:"model"`
	APIKey       string   `yaml:"apiKey"`
	SystemPrompt string   `yaml:"systemPrompt"`
	Temperature  float64  `yaml:"temperature"`
	Timeout      Duration `yaml:"timeout"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
// An explicit path takes precedence over BOOK_ANNOTATOR_CONFIG.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
			cfg = mergeConfig(cfg, fileCfg)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the application cannot run with.
func (c Config) Validate() error {
	for name, driver := range map[string]string{"ledger": c.Ledger.Driver, "catalog": c.Catalog.Driver} {
		switch driver {
		case DriverPostgres, DriverSQLite, DriverSQLServer:
		default:
			return fmt.Errorf("config: unsupported %s driver %q", name, driver)
		}
	}
	if c.Ledger.Driver == DriverSQLServer {
		return fmt.Errorf("config: ledger driver %q is not supported", c.Ledger.Driver)
	}
	if strings.TrimSpace(c.Search.Engine) == "" {
		return fmt.Errorf("config: search engine is required")
	}
	timeouts := map[string]Duration{
		"search.timeout":    c.Search.Timeout,
		"fetch.htmlTimeout": c.Fetch.HTMLTimeout,
		"fetch.pdfTimeout":  c.Fetch.PDFTimeout,
		"chatgpt.timeout":   c.ChatGPT.Timeout,
	}
	for name, d := range timeouts {
		if d <= 0 {
			return fmt.Errorf("config: %s must be positive", name)
		}
	}
	if c.Search.QueryInterval < 0 || c.Fetch.Interval < 0 {
		return fmt.Errorf("config: pacing intervals must not be negative")
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(ledgerDSNEnv); v != "" {
		c.Ledger.DSN = v
	}

	if v := os.Getenv(catalogDSNEnv); v != "" {
		c.Catalog.DSN = v
	}

	if v := os.Getenv(openAIKeyEnv); v != "" {
		c.ChatGPT.APIKey = v
	}
	if v := os.Getenv(chatGPTAPIKeyEnv); v != "" {
		c.ChatGPT.APIKey = v
	}

	if v := os.Getenv(chatGPTModelEnv); v != "" {
		c.ChatGPT.Model = v
	}

	if v := os.Getenv(chatGPTEndpointEnv); v != "" {
		c.ChatGPT.Endpoint = v
	}

	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(searchEngineEnv); v != "" {
		c.Search.Engine = v
	}

	if v := os.Getenv(searchEndpointEnv); v != "" {
		c.Search.Endpoint = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.HTTP.Addr != "" {
		base.HTTP.Addr = override.HTTP.Addr
	}
	if override.HTTP.ReadTimeout != 0 {
		base.HTTP.ReadTimeout = override.HTTP.ReadTimeout
	}
	if override.HTTP.WriteTimeout != 0 {
		base.HTTP.WriteTimeout = override.HTTP.WriteTimeout
	}

	if override.Ledger.Driver != "" {
		base.Ledger.Driver = override.Ledger.Driver
	}
	if override.Ledger.DSN != "" {
		base.Ledger.DSN = override.Ledger.DSN
	}
	if override.Ledger.Table != "" {
		base.Ledger.Table = override.Ledger.Table
	}
	if override.Ledger.StaleAfter != 0 {
		base.Ledger.StaleAfter = override.Ledger.StaleAfter
	}

	if override.Catalog.Driver != "" {
		base.Catalog.Driver = override.Catalog.Driver
	}
	if override.Catalog.DSN != "" {
		base.Catalog.DSN = override.Catalog.DSN
	}
	if override.Catalog.Table != "" {
		base.Catalog.Table = override.Catalog.Table
	}

	if override.Search.Engine != "" {
		base.Search.Engine = override.Search.Engine
	}
	if override.Search.Endpoint != "" {
		base.Search.Endpoint = override.Search.Endpoint
	}
	if override.Search.UserAgent != "" {
		base.Search.UserAgent = override.Search.UserAgent
	}
	if override.Search.AcceptLanguage != "" {
		base.Search.AcceptLanguage = override.Search.AcceptLanguage
	}
	if override.Search.Timeout != 0 {
		base.Search.Timeout = override.Search.Timeout
	}
	if override.Search.QueryInterval != 0 {
		base.Search.QueryInterval = override.Search.QueryInterval
	}
	if override.Search.ExcludedHosts != nil {
		base.Search.ExcludedHosts = override.Search.ExcludedHosts
	}
	if override.Search.MaxURLLength != 0 {
		base.Search.MaxURLLength = override.Search.MaxURLLength
	}

	if override.Fetch.HTMLTimeout != 0 {
		base.Fetch.HTMLTimeout = override.Fetch.HTMLTimeout
	}
	if override.Fetch.PDFTimeout != 0 {
		base.Fetch.PDFTimeout = override.Fetch.PDFTimeout
	}
	if override.Fetch.Interval != 0 {
		base.Fetch.Interval = override.Fetch.Interval
	}
	if override.Fetch.MaxCandidates != 0 {
		base.Fetch.MaxCandidates = override.Fetch.MaxCandidates
	}
	if override.Fetch.MaxBodyBytes != 0 {
		base.Fetch.MaxBodyBytes = override.Fetch.MaxBodyBytes
	}
	if override.Fetch.UserAgent != "" {
		base.Fetch.UserAgent = override.Fetch.UserAgent
	}

	if override.ChatGPT.Endpoint != "" {
		base.ChatGPT.Endpoint = override.ChatGPT.Endpoint
	}
	if override.ChatGPT.Model != "" {
		base.ChatGPT.Model = override.ChatGPT.Model
	}
	if override.ChatGPT.APIKey != "" {
		base.ChatGPT.APIKey = override.ChatGPT.APIKey
	}
	if override.ChatGPT.SystemPrompt != "" {
		base.ChatGPT.SystemPrompt = override.ChatGPT.SystemPrompt
	}
	if override.ChatGPT.Temperature != 0 {
		base.ChatGPT.Temperature = override.ChatGPT.Temperature
	}
	if override.ChatGPT.Timeout != 0 {
		base.ChatGPT.Timeout = override.ChatGPT.Timeout
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		HTTP: HTTPConfig{
			Addr:         ":8080",
			ReadTimeout:  Duration(10 * time.Second),
			WriteTimeout: Duration(5 * time.Minute),
		},
		Ledger: LedgerConfig{
			Driver:     DriverSQLite,
			DSN:        "file:book_descriptions.db?_pragma=busy_timeout(5000)",
			Table:      "book_descriptions",
			StaleAfter: Duration(10 * time.Minute),
		},
		Catalog: CatalogConfig{
			Driver: DriverSQLite,
			DSN:    "file:catalog.db?mode=ro",
			Table:  "DOC_VIEW",
		},
		Search: SearchConfig{
			Engine:         "duckduckgo",
			Endpoint:       "",
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
			AcceptLanguage: "kk-KZ,kk;q=0.9,ru-RU,ru;q=0.8,en;q=0.7",
			Timeout:        Duration(10 * time.Second),
			QueryInterval:  Duration(2500 * time.Millisecond),
			ExcludedHosts:  []string{"duckduckgo.com", "facebook.com", "twitter.com", "instagram.com", "x.com", "vk.com", "youtube.com"},
			MaxURLLength:   300,
		},
		Fetch: FetchConfig{
			HTMLTimeout:   Duration(10 * time.Second),
			PDFTimeout:    Duration(15 * time.Second),
			Interval:      Duration(1500 * time.Millisecond),
			MaxCandidates: 15,
			MaxBodyBytes:  32 << 20,
			UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		},
		ChatGPT: ChatGPTConfig{
			Endpoint:    "https://api.openai.com/v1/chat/completions",
			Model:       "gpt-4o-mini",
			APIKey:      "",
			Temperature: 0,
			Timeout:     Duration(60 * time.Second),
		},
	}
}
