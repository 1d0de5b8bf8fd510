// Package plan holds the typed trading-plan payloads stored per
// (user, symbol): an entry ladder and a stop descriptor. Payloads are
// validated when written; reads re-validate and degrade to nil on any
// failure so one bad row never takes down a dashboard.
package plan

import (
	"encoding/json"
	"errors"
)

// Level is one planned entry in a ladder.
type Level struct {
	Price        float64 `json:"price"`
	SizeFraction float64 `json:"size_fraction,omitempty"`
}

// Ladder is the ordered sequence of planned entry levels.
type Ladder struct {
	Levels []Level `json:"levels"`
}

// Stop describes how the position is cut.
type Stop struct {
	StopTotal float64 `json:"stop_total"`
	StopType  string  `json:"stop_type,omitempty"`
}

var (
	ErrEmptyLadder      = errors.New("ladder.levels required")
	ErrBadLadderLevel   = errors.New("ladder levels require a positive price")
	ErrMissingStopTotal = errors.New("stop.stop_total required")
)

func (l Ladder) Validate() error {
	if len(l.Levels) == 0 {
		return ErrEmptyLadder
	}
	for _, level := range l.Levels {
		if level.Price <= 0 {
			return ErrBadLadderLevel
		}
	}
	return nil
}

func (s Stop) Validate() error {
	if s.StopTotal <= 0 {
		return ErrMissingStopTotal
	}
	return nil
}

// DecodeLadder reconstitutes a stored ladder payload. A nil result means
// the payload was malformed or invalid; callers surface "unavailable"
// instead of failing.
func DecodeLadder(raw []byte) *Ladder {
	if len(raw) == 0 {
		return nil
	}
	var l Ladder
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil
	}
	if err := l.Validate(); err != nil {
		return nil
	}
	return &l
}

// DecodeStop reconstitutes a stored stop payload, nil on any failure.
func DecodeStop(raw []byte) *Stop {
	if len(raw) == 0 {
		return nil
	}
	var s Stop
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	if err := s.Validate(); err != nil {
		return nil
	}
	return &s
}
