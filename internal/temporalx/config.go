package temporalx

import (
	"os"
	"strings"

	"github.com/yungbote/studypact-backend/internal/pkg/envutil"
)

type Config struct {
	Address   string
	Namespace string
	TaskQueue string
}

// LoadConfig reads the Temporal connection settings. An empty Address
// means Temporal is not configured and the DB-polling worker runs jobs
// instead.
func LoadConfig() Config {
	return Config{
		Address:   strings.TrimSpace(os.Getenv("TEMPORAL_ADDRESS")),
		Namespace: envutil.String("TEMPORAL_NAMESPACE", "studypact"),
		TaskQueue: envutil.String("TEMPORAL_TASK_QUEUE", "studypact"),
	}
}
