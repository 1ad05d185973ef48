package recorder

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketPulse/internal/model"
)

func sampleBoard() *model.Board {
	board := model.NewBoard()
	board.Set("twii", &model.Snapshot{Close: null.FloatFrom(23000.5), K: null.FloatFrom(61.2), GoldenCross: true})
	board.Set("btc", model.EmptySnapshot())
	board.Set("aapl", &model.Snapshot{Close: null.FloatFrom(190)})
	return board
}

func TestJSONRecorder_RecordBoard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "data.json")
	rec, err := NewJSONRecorder(path, nil)
	require.NoError(t, err)

	require.NoError(t, rec.RecordBoard(sampleBoard()))
	require.NoError(t, rec.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.True(t, strings.HasPrefix(text, "{\n  \"twii\": {\n    \"close\": 23000.5"), text)
	assert.Less(t, strings.Index(text, `"twii"`), strings.Index(text, `"btc"`))
	assert.Less(t, strings.Index(text, `"btc"`), strings.Index(text, `"aapl"`))
	assert.Contains(t, text, `"pe": null`)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")

	board, err := ReadBoard(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"twii", "btc", "aapl"}, board.Keys())
	snap, ok := board.Get("twii")
	require.True(t, ok)
	assert.True(t, snap.GoldenCross)
	assert.Equal(t, 61.2, snap.K.Float64)
	assert.False(t, snap.D.Valid)
}

func TestJSONRecorder_Overwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	rec, err := NewJSONRecorder(path, nil)
	require.NoError(t, err)

	require.NoError(t, rec.RecordBoard(sampleBoard()))
	next := model.NewBoard()
	next.Set("gld", model.EmptySnapshot())
	require.NoError(t, rec.RecordBoard(next))

	board, err := ReadBoard(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"gld"}, board.Keys())
}

func TestReadBoard(t *testing.T) {
	board, err := ReadBoard(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Zero(t, board.Len())

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("[1,2"), 0o644))
	_, err = ReadBoard(bad)
	assert.Error(t, err)
}

func TestNoopRecorder(t *testing.T) {
	var rec Recorder = NewNoopRecorder()
	assert.NoError(t, rec.RecordBoard(sampleBoard()))
	assert.NoError(t, rec.Close())
}

func TestBoardSchema(t *testing.T) {
	data, err := json.Marshal(BoardSchema())
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "object", doc["type"])

	defs, ok := doc["$defs"].(map[string]any)
	require.True(t, ok, "schema should carry definitions: %s", data)
	snap, ok := defs["Snapshot"].(map[string]any)
	require.True(t, ok)
	props := snap["properties"].(map[string]any)

	for _, field := range []string{"close", "change_percent", "pe", "rsi", "k", "d", "j", "ma20", "ma120", "ma240"} {
		prop, ok := props[field].(map[string]any)
		require.True(t, ok, field)
		assert.Len(t, prop["oneOf"], 2, field)
	}
	assert.Equal(t, "boolean", props["golden_cross"].(map[string]any)["type"])
}
