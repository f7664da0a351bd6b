package config

type PredictorConfig struct {
	// URL of the third-party round results page with predicted deltas.
	URL string
}

func NewPredictorConfig() *PredictorConfig {
	return &PredictorConfig{
		URL: getEnv("PREDICTOR_URL", "https://cf-predictor-frontend.herokuapp.com/roundResults.jsp"),
	}
}
