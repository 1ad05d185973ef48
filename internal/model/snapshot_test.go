package model

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_JSON(t *testing.T) {
	snap := &Snapshot{Close: null.FloatFrom(101.5), RSI: null.FloatFrom(55), DeathCross: true}
	data, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"close": 101.5, "change_percent": null, "pe": null, "rsi": 55,
		"k": null, "d": null, "j": null, "ma20": null, "ma120": null, "ma240": null,
		"golden_cross": false, "death_cross": true, "top_divergence": false, "bottom_divergence": false
	}`, string(data))
}

func TestEmptySnapshot(t *testing.T) {
	snap := EmptySnapshot()
	assert.False(t, snap.Close.Valid)
	assert.False(t, snap.Signals().Any())
}

func TestSignalVector(t *testing.T) {
	v := SignalVector{GoldenCross: true, BottomDivergence: true}
	assert.True(t, v.Any())
	assert.Equal(t, []string{"golden_cross", "bottom_divergence"}, v.Names())
	assert.Empty(t, SignalVector{}.Names())

	var snap Snapshot
	snap.SetSignals(v)
	assert.Equal(t, v, snap.Signals())
}

func TestBoard_Order(t *testing.T) {
	board := NewBoard()
	board.Set("zeta", EmptySnapshot())
	board.Set("alpha", &Snapshot{Close: null.FloatFrom(1)})
	board.Set("mid", EmptySnapshot())
	board.Set("zeta", &Snapshot{Close: null.FloatFrom(2)})

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, board.Keys())
	assert.Equal(t, 3, board.Len())
	snap, ok := board.Get("zeta")
	require.True(t, ok)
	assert.Equal(t, 2.0, snap.Close.Float64)

	data, err := json.Marshal(board)
	require.NoError(t, err)

	decoded := NewBoard()
	require.NoError(t, json.Unmarshal(data, decoded))
	assert.Equal(t, board.Keys(), decoded.Keys())

	var zero Board
	require.NoError(t, json.Unmarshal(data, &zero))
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, zero.Keys())
}

func TestOscillatorSeries(t *testing.T) {
	var empty OscillatorSeries
	assert.True(t, empty.Last().IsNone())
}

func TestInstrumentLabel(t *testing.T) {
	assert.Equal(t, "Apple", Instrument{Symbol: "AAPL", Name: "Apple"}.Label())
	assert.Equal(t, "AAPL", Instrument{Symbol: "AAPL"}.Label())
}

func TestOscillatorSeries_KLine(t *testing.T) {
	osc := OscillatorSeries{optional.None[KDJ](), optional.Some(KDJ{K: 40, D: 45, J: 30})}
	k := osc.KLine()
	assert.True(t, math.IsNaN(k[0]))
	assert.Equal(t, 40.0, k[1])
	assert.True(t, osc.At(5).IsNone())
	assert.Equal(t, 45.0, osc.Last().Unwrap().D)
}
