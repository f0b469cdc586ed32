package config

import (
	"github.com/caarlos0/env/v10"
)

type Config struct {
	DataDir          string `env:"DATA_DIR" envDefault:"./chroma_db"`
	OllamaURL        string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	OllamaEmbedModel string `env:"OLLAMA_EMBED_MODEL" envDefault:"nomic-embed-text"`
	LLMURL           string `env:"LLM_URL" envDefault:"http://localhost:11434/v1"`
	LLMModel         string `env:"LLM_MODEL" envDefault:"llama3.3:70b"`
	LLMKey           string `env:"LLM_API_KEY"`
	ChunkSize        int    `env:"CHUNK_SIZE" envDefault:"10"`
	ChunkOverlap     int    `env:"CHUNK_OVERLAP" envDefault:"2"`
	TopK             int    `env:"TOP_K" envDefault:"5"`
}

func Init(cfg interface{}) error {
	return env.Parse(cfg)
}
