package montecarlo

import (
	"io"
	"sync"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// LogIteration is a struct meant for serializing to a log-file, for
// debug and other purposes.
type LogIteration struct {
	Iteration int       `json:"iteration" yaml:"iteration"`
	Plays     []LogPlay `json:"plays" yaml:"plays"`
}

// LogPlay is a single play.
type LogPlay struct {
	Play string `json:"play" yaml:"play"`
	Rack string `json:"rack" yaml:"rack"`
	Pts  int    `json:"pts" yaml:"pts"`
	// Leftover is the rack-leave consideration recorded on the play's
	// final simulated turn.
	Leftover float64 `json:"left,omitempty" yaml:"left,omitempty"`
	WinRatio float64 `json:"win,omitempty" yaml:"win,omitempty"`
	// Although this is a recursive structure we don't really use it
	// recursively.
	Plies []LogPlay `json:"plies,omitempty" yaml:"plies,omitempty,flow"`
	Bingo bool      `json:"bingo,omitempty" yaml:"bingo,omitempty"`
}

// iterationLogger serializes LogIteration records to a caller-provided
// stream; each record is appended as one item, so the stream as a whole
// reads back as a single yaml sequence.
type iterationLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *iterationLogger) active() bool {
	return l != nil && l.w != nil
}

func (l *iterationLogger) write(iter LogIteration) {
	if !l.active() {
		return
	}
	out, err := yaml.Marshal([]LogIteration{iter})
	if err != nil {
		log.Error().Err(err).Msg("marshalling iteration log")
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(out)
}
