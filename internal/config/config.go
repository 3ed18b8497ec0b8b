package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type HTTPServer struct {
	Host string
	Port string
}

type Postgres struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisCache struct {
	Host     string
	Port     string
	Password string
}

type Auth struct {
	JWTSecret     string
	TokenTTL      time.Duration
	ResetTokenTTL time.Duration
}

type Embeddings struct {
	Path string
}

type Embedder struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type Recommend struct {
	DefaultLambda      float64
	MaxRecommendations int
}

type Config struct {
	HTTP       HTTPServer
	Postgres   Postgres
	Redis      RedisCache
	Auth       Auth
	Embeddings Embeddings
	Embedder   Embedder
	Recommend  Recommend
}

const logtag = "[config]"

func Load() *Config {
	configPath := flag.String("config", "", "path env file")
	flag.Parse()

	if *configPath != "" {
		if err := godotenv.Load(*configPath); err != nil {
			log.Fatalf("%s err loading env from file : %v", logtag, err)
		}
		log.Printf("%s using env from : %s", logtag, *configPath)
	} else {
		log.Printf("%s using env from .env", logtag)
		_ = godotenv.Load()
	}

	cfg := &Config{
		HTTP:       *newHTTP(),
		Postgres:   *newPostgres(),
		Redis:      *newRedis(),
		Auth:       *newAuth(),
		Embeddings: *newEmbeddings(),
		Embedder:   *newEmbedder(),
		Recommend:  *newRecommend(),
	}

	return cfg
}

func newHTTP() *HTTPServer {
	return &HTTPServer{
		Port: getenv("HTTP_PORT", "8080"),
		Host: getenv("HTTP_HOST", "localhost"),
	}
}

func newPostgres() *Postgres {
	return &Postgres{
		Host:     getenv("DB_HOST", "localhost"),
		Port:     getenv("DB_PORT", "5432"),
		User:     getenv("DB_USER", "admin"),
		Password: getenv("DB_PASSWORD", "shared"),
		DBName:   getenv("DB_NAME", "movies"),
		SSLMode:  getenv("DB_SSLMODE", "disable"),
	}
}

func newRedis() *RedisCache {
	return &RedisCache{
		Port:     getenv("REDIS_PORT", "6379"),
		Host:     getenv("REDIS_HOST", "redis"),
		Password: getenv("REDIS_PASSWORD", "shared"),
	}
}

func newAuth() *Auth {
	return &Auth{
		JWTSecret:     getenv("JWT_SECRET", "jwt-secret-change-in-production"),
		TokenTTL:      getenvDuration("JWT_TOKEN_TTL", 30*24*time.Hour),
		ResetTokenTTL: getenvDuration("RESET_TOKEN_TTL", time.Hour),
	}
}

func newEmbeddings() *Embeddings {
	return &Embeddings{
		Path: getenv("EMBEDDINGS_PATH", "data/embeddings.npy"),
	}
}

func newEmbedder() *Embedder {
	return &Embedder{
		BaseURL: getenv("EMBEDDER_BASE_URL", "https://openrouter.ai/api/v1"),
		APIKey:  getenv("EMBEDDER_API_KEY", ""),
		Model:   getenv("EMBEDDER_MODEL", "openai/text-embedding-3-small"),
		Timeout: getenvDuration("EMBEDDER_TIMEOUT", 10*time.Second),
	}
}

func newRecommend() *Recommend {
	return &Recommend{
		DefaultLambda:      getenvFloat("RECOMMEND_DEFAULT_LAMBDA", 0.7),
		MaxRecommendations: getenvInt("RECOMMEND_MAX", 50),
	}
}

func getenv(key, defaultValue string) string {
	val := os.Getenv(key)
	if val == "" {
		fmt.Printf("%s %s undefined. Using default value %s\n", logtag, key, defaultValue)
		return defaultValue
	}
	return val
}

func getenvInt(key string, defaultValue int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		log.Printf("%s %s is not an int, using default %d", logtag, key, defaultValue)
		return defaultValue
	}
	return n
}

func getenvFloat(key string, defaultValue float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		log.Printf("%s %s is not a float, using default %f", logtag, key, defaultValue)
		return defaultValue
	}
	return f
}

func getenvDuration(key string, defaultValue time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		log.Printf("%s %s is not a duration, using default %s", logtag, key, defaultValue)
		return defaultValue
	}
	return d
}
