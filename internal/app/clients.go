package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/yungbote/studypact-backend/internal/clients/evaluator"
	"github.com/yungbote/studypact-backend/internal/clients/openai"
	"github.com/yungbote/studypact-backend/internal/clients/ragworker"
	redisx "github.com/yungbote/studypact-backend/internal/clients/redis"
	"github.com/yungbote/studypact-backend/internal/pkg/logger"
)

type Clients struct {
	OpenAI    openai.Client
	RAG       ragworker.Client
	Evaluator evaluator.Client
	Locker    redisx.Locker
}

// wireClients tolerates absent OpenAI and Redis configuration: the
// services degrade (template plans, in-process locking only) rather
// than refuse to boot a dev environment.
func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	var ai openai.Client
	if strings.TrimSpace(os.Getenv("OPENAI_API_KEY")) != "" {
		c, err := openai.NewClient(log)
		if err != nil {
			return Clients{}, fmt.Errorf("init openai client: %w", err)
		}
		ai = c
	} else {
		log.Warn("OPENAI_API_KEY not set; plan drafts and check-in advice fall back to templates")
	}

	var locker redisx.Locker
	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "" {
		l, err := redisx.NewLocker(log)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis locker: %w", err)
		}
		locker = l
	} else {
		log.Warn("REDIS_ADDR not set; plan generation locking is in-process only")
	}

	rag, err := ragworker.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init rag worker client: %w", err)
	}

	eval, err := evaluator.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init evaluator client: %w", err)
	}

	return Clients{
		OpenAI:    ai,
		RAG:       rag,
		Evaluator: eval,
		Locker:    locker,
	}, nil
}
