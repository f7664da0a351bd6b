package config

type TaskQueueConfig struct {
	// CallbackBaseURL is where scheduled tasks are delivered, normally the
	// public URL of this service.
	CallbackBaseURL string
	// SigningSecret signs the callback tokens.
	SigningSecret string
}

func NewTaskQueueConfig() *TaskQueueConfig {
	return &TaskQueueConfig{
		CallbackBaseURL: getEnv("TASK_CALLBACK_BASE_URL", "http://localhost:3000"),
		SigningSecret:   getEnv("TASK_SIGNING_SECRET", ""),
	}
}
