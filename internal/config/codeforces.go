package config

type CodeforcesConfig struct {
	BaseURL string
}

func NewCodeforcesConfig() *CodeforcesConfig {
	return &CodeforcesConfig{
		BaseURL: getEnv("CODEFORCES_API_BASE_URL", "https://codeforces.com/api"),
	}
}
