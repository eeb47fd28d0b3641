package config

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)

// Config is the top-level flowgraph configuration, corresponding to .flowgraph.yml.
type Config struct {
	Provider      ProviderType   `yaml:"provider" koanf:"provider"`
	Model         string         `yaml:"model" koanf:"model"`
	Temperature   float64        `yaml:"temperature" koanf:"temperature"`
	MaxTokens     int            `yaml:"max_tokens" koanf:"max_tokens"`
	HistoryWindow int            `yaml:"history_window" koanf:"history_window"`
	RateLimitRPM  int            `yaml:"rate_limit_rpm" koanf:"rate_limit_rpm"`
	Server        ServerConfig   `yaml:"server" koanf:"server"`
	Client        ClientConfig   `yaml:"client" koanf:"client"`
	Graphviz      GraphvizConfig `yaml:"graphviz" koanf:"graphviz"`
	Logging       LoggingConfig  `yaml:"logging" koanf:"logging"`
}

// ServerConfig holds settings for `flowgraph server`.
type ServerConfig struct {
	Port            int    `yaml:"port" koanf:"port"`
	DataDir         string `yaml:"data_dir" koanf:"data_dir"`
	AllowAllOrigins bool   `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	MaxUploadBytes  int64  `yaml:"max_upload_bytes" koanf:"max_upload_bytes"`
	RequestTimeout  string `yaml:"request_timeout" koanf:"request_timeout"`
}

// ClientConfig holds settings for the chat widget and the one-shot command.
type ClientConfig struct {
	ServerURL string `yaml:"server_url" koanf:"server_url"`
	Timeout   string `yaml:"timeout" koanf:"timeout"`
	ImagePath string `yaml:"image_path" koanf:"image_path"`
}

// GraphvizConfig locates the dot binary used for rendering.
type GraphvizConfig struct {
	Binary  string `yaml:"binary" koanf:"binary"`
	Timeout string `yaml:"timeout" koanf:"timeout"`
}

// LoggingConfig controls zap output.
type LoggingConfig struct {
	Level string `yaml:"level" koanf:"level"`
	JSON  bool   `yaml:"json" koanf:"json"`
	File  string `yaml:"file" koanf:"file"`
}
