package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/newomen/newme-backend/internal/platform/logger"
	"github.com/newomen/newme-backend/internal/platform/zai"
	"github.com/newomen/newme-backend/internal/realtime/bus"
)

type Clients struct {
	AI  zai.Client
	Bus bus.Bus
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	aiClient, err := zai.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init zai client: %w", err)
	}

	// Redis fans events out across nodes; without it events only reach
	// clients connected to this one.
	var b bus.Bus
	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "" {
		b, err = bus.NewRedisBus(log)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis bus: %w", err)
		}
	} else {
		b = bus.NewLocalBus(log)
	}

	return Clients{
		AI:  aiClient,
		Bus: b,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Bus != nil {
		_ = c.Bus.Close()
	}
}
