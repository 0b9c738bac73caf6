// Package config loads the YAML tunables for the ErgoCare services.
// Secrets and endpoints stay in the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ergocare-backend/scoring"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ScoringConfig holds the feature weights and banding thresholds.
type ScoringConfig struct {
	Weights    scoring.Weights    `yaml:"weights"`
	Thresholds scoring.Thresholds `yaml:"thresholds"`
	MaxHours   int                `yaml:"max_hours"`
}

// ClassifierConfig selects the risk model.
type ClassifierConfig struct {
	Type      string `yaml:"type"`
	ModelPath string `yaml:"model_path"`
}

// EmbedderConfig configures the embedding model.
type EmbedderConfig struct {
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
}

// GeneratorConfig configures the report language model.
type GeneratorConfig struct {
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	TopP        float32 `yaml:"top_p"`
}

// VectorStoreConfig selects the knowledge-base backend.
type VectorStoreConfig struct {
	Type       string `yaml:"type"`
	SQLitePath string `yaml:"sqlite_path,omitempty"`
}

// RetrievalConfig holds per-role document counts.
type RetrievalConfig struct {
	Policy   int `yaml:"policy"`
	Primary  int `yaml:"primary"`
	High     int `yaml:"high"`
	Moderate int `yaml:"moderate"`
}

// ReportConfig overrides the report instruction template. Empty means built-in.
type ReportConfig struct {
	TemplatePath   string `yaml:"template_path,omitempty"`
	Archive        bool   `yaml:"archive"`
	IncludeGeneral bool   `yaml:"include_general"`
}

// TimeoutConfig holds per-call deadlines in seconds.
type TimeoutConfig struct {
	EmbedSecs     int `yaml:"embed_secs"`
	SearchSecs    int `yaml:"search_secs"`
	GenerateSecs  int `yaml:"generate_secs"`
	ModelLoadSecs int `yaml:"model_load_secs"`
}

func (t TimeoutConfig) Embed() time.Duration     { return time.Duration(t.EmbedSecs) * time.Second }
func (t TimeoutConfig) Search() time.Duration    { return time.Duration(t.SearchSecs) * time.Second }
func (t TimeoutConfig) Generate() time.Duration  { return time.Duration(t.GenerateSecs) * time.Second }
func (t TimeoutConfig) ModelLoad() time.Duration { return time.Duration(t.ModelLoadSecs) * time.Second }

// CacheConfig configures the redis report cache.
type CacheConfig struct {
	Enabled    bool `yaml:"enabled"`
	TTLMinutes int  `yaml:"ttl_minutes"`
}

// TTL returns the cache lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// IngestConfig configures knowledge-base ingestion.
type IngestConfig struct {
	Dir           string  `yaml:"dir"`
	ChunkSize     int     `yaml:"chunk_size"`
	Overlap       int     `yaml:"overlap"`
	MinSimilarity float64 `yaml:"min_similarity"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server      ServerConfig      `yaml:"server"`
	Scoring     ScoringConfig     `yaml:"scoring"`
	Classifier  ClassifierConfig  `yaml:"classifier"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	Generator   GeneratorConfig   `yaml:"generator"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Report      ReportConfig      `yaml:"report"`
	Timeouts    TimeoutConfig     `yaml:"timeouts"`
	Cache       CacheConfig       `yaml:"cache"`
	Ingest      IngestConfig      `yaml:"ingest"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}
	cfg := newConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	applyConfigDefaults(cfg)
	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadFromEnv loads the file named by ERGOCARE_CONFIG, defaulting to ./config.yaml.
func LoadFromEnv() (*AppConfig, string, error) {
	path := os.Getenv("ERGOCARE_CONFIG")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := Load(path)
	return cfg, path, err
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects configurations the pipeline cannot run with.
func (c *AppConfig) Validate() error {
	if err := c.Scoring.Weights.Validate(); err != nil {
		return err
	}
	t := c.Scoring.Thresholds
	if t.Band < 0 || t.Band > t.Default {
		return fmt.Errorf("threshold band %v must be in [0, %v]", t.Band, t.Default)
	}
	for d, v := range t.Cutoffs {
		if v-t.Band < 0 || v > 100 {
			return fmt.Errorf("cutoff for %s out of range: %v", d, v)
		}
	}
	switch c.Classifier.Type {
	case "xgboost", "rules":
	default:
		return fmt.Errorf("unknown classifier type %q", c.Classifier.Type)
	}
	switch c.VectorStore.Type {
	case "pgvector", "sqlite", "memory":
	default:
		return fmt.Errorf("unknown vector store type %q", c.VectorStore.Type)
	}
	r := c.Retrieval
	if r.Policy <= 0 || r.High <= 0 || r.Moderate <= 0 {
		return fmt.Errorf("retrieval counts must be positive: %+v", r)
	}
	if r.Primary <= r.Moderate {
		return fmt.Errorf("retrieval primary count %d must exceed moderate count %d", r.Primary, r.Moderate)
	}
	if c.Ingest.Overlap >= c.Ingest.ChunkSize {
		return fmt.Errorf("ingest overlap %d must be smaller than chunk size %d", c.Ingest.Overlap, c.Ingest.ChunkSize)
	}
	if c.Generator.TopP <= 0 || c.Generator.TopP > 1 {
		return fmt.Errorf("generator top_p %v out of range", c.Generator.TopP)
	}
	return nil
}

// newConfig seeds the fields whose zero value is a valid setting, so an
// explicit zero in the file is kept
func newConfig() *AppConfig {
	return &AppConfig{
		Scoring: ScoringConfig{Thresholds: scoring.DefaultThresholds()},
	}
}

func defaultConfig() *AppConfig {
	cfg := newConfig()
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:5173"}
	}

	// a weight table left out of the file keeps its defaults
	def := scoring.DefaultWeights()
	w := &cfg.Scoring.Weights
	if w.Posture == (scoring.PostureWeights{}) {
		w.Posture = def.Posture
	}
	if w.Visual == (scoring.VisualWeights{}) {
		w.Visual = def.Visual
	}
	if w.Cognitive == (scoring.CognitiveWeights{}) {
		w.Cognitive = def.Cognitive
	}
	if w.MSK == (scoring.MSKWeights{}) {
		w.MSK = def.MSK
	}
	if w.Lifestyle == (scoring.LifestyleWeights{}) {
		w.Lifestyle = def.Lifestyle
	}
	if w.Overall == (scoring.OverallWeights{}) {
		w.Overall = def.Overall
	}

	th := scoring.DefaultThresholds()
	if cfg.Scoring.Thresholds.Default == 0 {
		cfg.Scoring.Thresholds.Default = th.Default
	}
	if cfg.Scoring.MaxHours == 0 {
		cfg.Scoring.MaxHours = scoring.DefaultMaxHours
	}

	if cfg.Classifier.Type == "" {
		cfg.Classifier.Type = "xgboost"
	}
	if cfg.Classifier.ModelPath == "" {
		cfg.Classifier.ModelPath = "models/faculty_risk_model.json"
	}

	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = "text-embedding-004"
	}
	if cfg.Embedder.Dimension == 0 {
		cfg.Embedder.Dimension = 768
	}

	if cfg.Generator.Model == "" {
		cfg.Generator.Model = "gemini-2.5-flash"
	}
	if cfg.Generator.Temperature == 0 {
		cfg.Generator.Temperature = 0.2
	}
	if cfg.Generator.TopP == 0 {
		cfg.Generator.TopP = 0.9
	}

	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "pgvector"
	}
	if cfg.VectorStore.Type == "sqlite" && cfg.VectorStore.SQLitePath == "" {
		cfg.VectorStore.SQLitePath = "data/knowledge.db"
	}

	if cfg.Retrieval.Policy == 0 {
		cfg.Retrieval.Policy = 5
	}
	if cfg.Retrieval.Moderate == 0 {
		cfg.Retrieval.Moderate = 3
	}
	if cfg.Retrieval.Primary == 0 {
		cfg.Retrieval.Primary = 2 * cfg.Retrieval.Moderate
	}
	if cfg.Retrieval.High == 0 {
		cfg.Retrieval.High = 4
	}

	if cfg.Timeouts.EmbedSecs == 0 {
		cfg.Timeouts.EmbedSecs = 15
	}
	if cfg.Timeouts.SearchSecs == 0 {
		cfg.Timeouts.SearchSecs = 5
	}
	if cfg.Timeouts.GenerateSecs == 0 {
		cfg.Timeouts.GenerateSecs = 120
	}
	if cfg.Timeouts.ModelLoadSecs == 0 {
		cfg.Timeouts.ModelLoadSecs = 30
	}

	if cfg.Cache.TTLMinutes == 0 {
		cfg.Cache.TTLMinutes = 60
	}

	if cfg.Ingest.Dir == "" {
		cfg.Ingest.Dir = "knowledge_base"
	}
	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = 900
	}
	if cfg.Ingest.Overlap == 0 {
		cfg.Ingest.Overlap = 200
	}
	if cfg.Ingest.MinSimilarity == 0 {
		cfg.Ingest.MinSimilarity = 0.35
	}
}

// applyEnvOverrides lets deployment environments override a few file values
func applyEnvOverrides(cfg *AppConfig) {
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = port
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		var list []string
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				list = append(list, o)
			}
		}
		cfg.Server.AllowedOrigins = list
	}
	if t := os.Getenv("CLASSIFIER_TYPE"); t != "" {
		cfg.Classifier.Type = t
	}
	if p := os.Getenv("MODEL_PATH"); p != "" {
		cfg.Classifier.ModelPath = p
	}
	if t := os.Getenv("VECTOR_STORE"); t != "" {
		cfg.VectorStore.Type = t
		if t == "sqlite" && cfg.VectorStore.SQLitePath == "" {
			cfg.VectorStore.SQLitePath = "data/knowledge.db"
		}
	}
	if v := os.Getenv("REPORT_CACHE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Cache.Enabled = b
		}
	}
}
