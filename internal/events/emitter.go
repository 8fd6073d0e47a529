package events

import (
	"encoding/json"
	"log"
)

type Emitter interface {
	Emit(event PlatformEvent)
}

// LogEmitter writes events to the process log. Default when no broker is
// configured.
type LogEmitter struct{}

func NewLogEmitter() *LogEmitter {
	return &LogEmitter{}
}

func (e *LogEmitter) Emit(event PlatformEvent) {
	b, err := json.Marshal(event)
	if err != nil {
		log.Printf("event marshal failed: %v", err)
		return
	}
	log.Printf("replaycore event: %s", string(b))
}
