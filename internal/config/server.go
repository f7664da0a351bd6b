package config

type ServerConfig struct {
	Port int
	// Secret authenticates the control-plane endpoints via the
	// X-Auth-Token header.
	Secret string
}

func NewServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:   getEnvAsInt("PORT", 3000),
		Secret: getEnv("SECRET", ""),
	}
}
