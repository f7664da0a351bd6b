package config

type ClistConfig struct {
	BaseURL string
	APIKey  string
}

func NewClistConfig() *ClistConfig {
	return &ClistConfig{
		BaseURL: getEnv("CLIST_API_BASE_URL", "https://clist.by/api/v2"),
		APIKey:  getEnv("CLIST_API_KEY", ""),
	}
}
