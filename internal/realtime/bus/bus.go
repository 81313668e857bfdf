package bus

import "github.com/newomen/newme-backend/internal/realtime"

type Bus = realtime.Bus
