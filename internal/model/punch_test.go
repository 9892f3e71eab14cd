package model_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/punch/internal/model"
)

func TestParsePunchKind(t *testing.T) {
	tests := []struct {
		input string
		want  model.PunchKind
	}{
		{"clock-in", model.ClockIn},
		{"IN", model.ClockIn},
		{" entrada ", model.ClockIn},
		{"clock-out", model.ClockOut},
		{"out", model.ClockOut},
		{"saida", model.ClockOut},
		{"saída", model.ClockOut},
	}
	for _, tt := range tests {
		got, err := model.ParsePunchKind(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}

	_, err := model.ParsePunchKind("lunch")
	assert.ErrorIs(t, err, model.ErrInvalidKind)
}

func TestSnapshotJSONKeys(t *testing.T) {
	snap := model.Snapshot{
		Records: []model.PunchRecord{{
			Date: "19/10/2026", ClockIn: "09:00", ClockOut: "18:15",
			Break: "01:00", Total: "08:15", Bank: "+0:15",
		}},
		Bank: "+0:15",
	}
	data, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"registros": [{
			"data": "19/10/2026", "entrada": "09:00", "saida": "18:15",
			"intervalo": "01:00", "total": "08:15", "banco": "+0:15"
		}],
		"bancoHoras": "+0:15"
	}`, string(data))
}

func TestLocationClone(t *testing.T) {
	var nilLoc *model.Location
	assert.Nil(t, nilLoc.Clone())

	lat, lng := -23.5, -46.6
	orig := &model.Location{Label: "Office", Latitude: &lat, Longitude: &lng}
	c := orig.Clone()
	require.NotNil(t, c)
	assert.Equal(t, orig, c)

	*c.Latitude = 0
	c.Label = "Home"
	assert.Equal(t, -23.5, *orig.Latitude)
	assert.Equal(t, "Office", orig.Label)
}
