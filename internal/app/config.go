package app

import (
	"github.com/yungbote/studypact-backend/internal/pkg/envutil"
)

type Config struct {
	Port              string
	JWTSecret         string
	TemporalTaskQueue string
}

func LoadConfig() Config {
	return Config{
		Port:              envutil.String("PORT", "8080"),
		JWTSecret:         envutil.String("JWT_SECRET", "defaultsecret"),
		TemporalTaskQueue: envutil.String("TEMPORAL_TASK_QUEUE", "studypact"),
	}
}
