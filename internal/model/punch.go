package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidKind is returned when a punch kind cannot be recognised.
var ErrInvalidKind = errors.New("invalid punch kind")

// PunchKind distinguishes clock-in from clock-out.
type PunchKind string

const (
	ClockIn  PunchKind = "clock-in"
	ClockOut PunchKind = "clock-out"
)

// ParsePunchKind accepts the canonical kinds plus the short and Portuguese
// aliases used by the CLI.
func ParsePunchKind(s string) (PunchKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "clock-in", "in", "entrada":
		return ClockIn, nil
	case "clock-out", "out", "saida", "saída":
		return ClockOut, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// Location is an optional descriptor stored alongside a punch. It is kept
// verbatim and never interpreted.
type Location struct {
	Label     string   `json:"label,omitempty" yaml:"label,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty" yaml:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty" yaml:"longitude,omitempty"`
}

// Clone returns a deep copy of l. A nil Location clones to nil.
func (l *Location) Clone() *Location {
	if l == nil {
		return nil
	}
	out := &Location{Label: l.Label}
	if l.Latitude != nil {
		lat := *l.Latitude
		out.Latitude = &lat
	}
	if l.Longitude != nil {
		lng := *l.Longitude
		out.Longitude = &lng
	}
	return out
}

// PunchRecord is the attendance record of one calendar date.
type PunchRecord struct {
	Date     string `json:"data" yaml:"data"`
	ClockIn  string `json:"entrada" yaml:"entrada"`
	ClockOut string `json:"saida" yaml:"saida"`
	Break    string `json:"intervalo" yaml:"intervalo"`
	Total    string `json:"total" yaml:"total"`
	// Bank is the day's delta against the expected day. Informational only.
	Bank string `json:"banco" yaml:"banco"`

	ClockInLocation  *Location `json:"localEntrada,omitempty" yaml:"localEntrada,omitempty"`
	ClockOutLocation *Location `json:"localSaida,omitempty" yaml:"localSaida,omitempty"`
}

// Snapshot is the persisted form of the ledger.
type Snapshot struct {
	Records []PunchRecord `json:"registros" yaml:"registros"`
	Bank    string        `json:"bancoHoras" yaml:"bancoHoras"`
}

// State is the read view handed to callers.
type State struct {
	Records []PunchRecord `json:"registros" yaml:"registros"`
	Bank    string        `json:"bancoHoras" yaml:"bancoHoras"`
	Status  string        `json:"statusHoje" yaml:"statusHoje"`
}
