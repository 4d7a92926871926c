package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Logger     LoggerConfig
	DB         DBConfig
	Redis      RedisConfig
	Embedding  EmbeddingConfig
	LLM        LLMConfig
	RAG        RAGConfig
	Session    SessionConfig
	Transcript TranscriptConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BodyLimit    int
	UploadDir    string
}

type LoggerConfig struct {
	Env   string
	Level string
}

// DBConfig selects the attempts store. An empty Driver disables persistence.
type DBConfig struct {
	Driver      string
	DSN         string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	AutoMigrate bool
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type EmbeddingConfig struct {
	Source string
	OpenAI OpenAIEmbeddingConfig
	Ollama OllamaEmbeddingConfig
}

type OpenAIEmbeddingConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type OllamaEmbeddingConfig struct {
	ServerURL string
	Model     string
}

// LLMConfig selects the quiz generator. Each provider keeps its own model so
// switching providers never carries an OpenAI model name to Ollama.
type LLMConfig struct {
	Provider string
	Timeout  time.Duration
	OpenAI   OpenAILLMConfig
	Ollama   OllamaLLMConfig
}

type OpenAILLMConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type OllamaLLMConfig struct {
	ServerURL string
	Model     string
}

type RAGConfig struct {
	ChunkSize      int
	ChunkOverlap   int
	TopK           int
	RetrievalQuery string
	MaxQuestions   int
}

type SessionConfig struct {
	TTL time.Duration
}

type TranscriptConfig struct {
	Language string
	Timeout  time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", 60*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.body_limit", 32*1024*1024)
	v.SetDefault("server.upload_dir", os.TempDir())

	v.SetDefault("logger.env", "development")
	v.SetDefault("logger.level", "info")

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "file:quiz.db?_pragma=foreign_keys(1)")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.auto_migrate", true)

	v.SetDefault("redis.address", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("embedding.source", "openai")
	v.SetDefault("embedding.openai.model", "text-embedding-ada-002")
	v.SetDefault("embedding.ollama.server_url", "http://localhost:11434")
	v.SetDefault("embedding.ollama.model", "nomic-embed-text")

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.openai.model", "gpt-4-turbo")
	v.SetDefault("llm.ollama.server_url", "http://localhost:11434")
	v.SetDefault("llm.ollama.model", "llama3")
	v.SetDefault("llm.timeout", 120*time.Second)

	v.SetDefault("rag.chunk_size", 2000)
	v.SetDefault("rag.chunk_overlap", 200)
	v.SetDefault("rag.top_k", 4)
	v.SetDefault("rag.retrieval_query", "summary key concepts")
	v.SetDefault("rag.max_questions", 10)

	v.SetDefault("session.ttl", time.Hour)

	v.SetDefault("transcript.language", "en")
	v.SetDefault("transcript.timeout", 30*time.Second)
}

// LoadConfig reads config.yaml from the working directory or ./config, then
// applies APP_* environment overrides. A missing file is not an error.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if os.Getenv("ENV") == "test" {
		v.AddConfigPath("../../config")
		v.AddConfigPath("../../")
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if configFile := v.ConfigFileUsed(); configFile != "" {
		absPath, _ := filepath.Abs(configFile)
		fmt.Printf("Using config file: %s\n", absPath)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetInt("server.port"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
			BodyLimit:    v.GetInt("server.body_limit"),
			UploadDir:    v.GetString("server.upload_dir"),
		},
		Logger: LoggerConfig{
			Env:   v.GetString("logger.env"),
			Level: v.GetString("logger.level"),
		},
		DB: DBConfig{
			Driver:      v.GetString("db.driver"),
			DSN:         v.GetString("db.dsn"),
			Host:        v.GetString("db.host"),
			Port:        v.GetInt("db.port"),
			User:        v.GetString("db.user"),
			Password:    v.GetString("db.password"),
			DBName:      v.GetString("db.name"),
			SSLMode:     v.GetString("db.sslmode"),
			AutoMigrate: v.GetBool("db.auto_migrate"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Embedding: EmbeddingConfig{
			Source: v.GetString("embedding.source"),
			OpenAI: OpenAIEmbeddingConfig{
				APIKey:  v.GetString("embedding.openai.api_key"),
				Model:   v.GetString("embedding.openai.model"),
				BaseURL: v.GetString("embedding.openai.base_url"),
			},
			Ollama: OllamaEmbeddingConfig{
				ServerURL: v.GetString("embedding.ollama.server_url"),
				Model:     v.GetString("embedding.ollama.model"),
			},
		},
		LLM: LLMConfig{
			Provider: v.GetString("llm.provider"),
			Timeout:  v.GetDuration("llm.timeout"),
			OpenAI: OpenAILLMConfig{
				APIKey:  v.GetString("llm.openai.api_key"),
				Model:   v.GetString("llm.openai.model"),
				BaseURL: v.GetString("llm.openai.base_url"),
			},
			Ollama: OllamaLLMConfig{
				ServerURL: v.GetString("llm.ollama.server_url"),
				Model:     v.GetString("llm.ollama.model"),
			},
		},
		RAG: RAGConfig{
			ChunkSize:      v.GetInt("rag.chunk_size"),
			ChunkOverlap:   v.GetInt("rag.chunk_overlap"),
			TopK:           v.GetInt("rag.top_k"),
			RetrievalQuery: v.GetString("rag.retrieval_query"),
			MaxQuestions:   v.GetInt("rag.max_questions"),
		},
		Session: SessionConfig{
			TTL: v.GetDuration("session.ttl"),
		},
		Transcript: TranscriptConfig{
			Language: v.GetString("transcript.language"),
			Timeout:  v.GetDuration("transcript.timeout"),
		},
	}

	// The OpenAI key is shared by the embedder and the generator unless each
	// has its own.
	if openAIKey := os.Getenv("OPENAI_API_KEY"); openAIKey != "" {
		if cfg.Embedding.OpenAI.APIKey == "" {
			cfg.Embedding.OpenAI.APIKey = openAIKey
		}
		if cfg.LLM.OpenAI.APIKey == "" {
			cfg.LLM.OpenAI.APIKey = openAIKey
		}
	}

	return cfg, nil
}

// GetDSN returns the connection string for the configured driver.
func (c *Config) GetDSN() string {
	if c.DB.DSN != "" && (c.DB.Driver == "sqlite" || c.DB.Host == "") {
		return c.DB.DSN
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DB.User,
		c.DB.Password,
		c.DB.Host,
		c.DB.Port,
		c.DB.DBName,
		c.DB.SSLMode,
	)
}
