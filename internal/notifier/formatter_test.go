package notifier

import (
	"errors"
	"strings"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"

	"MarketPulse/internal/model"
)

func testBoard() (*model.Board, []model.Instrument) {
	board := model.NewBoard()
	board.Set("tsmc", &model.Snapshot{
		Close: null.FloatFrom(1025), ChangePercent: null.FloatFrom(1.2345),
		RSI: null.FloatFrom(61.4), K: null.FloatFrom(35.55), D: null.FloatFrom(30.04), J: null.FloatFrom(46.57),
		GoldenCross: true, BottomDivergence: true,
	})
	board.Set("btc", model.EmptySnapshot())
	board.Set("gld", &model.Snapshot{Close: null.FloatFrom(215.3), ChangePercent: null.FloatFrom(-0.5)})
	return board, []model.Instrument{
		{Key: "tsmc", Symbol: "2330.TW", Name: "台积电"},
		{Key: "btc", Symbol: "BTC-USD"},
		{Key: "gld", Symbol: "GLD"},
	}
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "N/A", formatValue(null.Float{}, 2))
	assert.Equal(t, "1.10", formatValue(null.FloatFrom(1.1), 2))
	assert.Equal(t, "62", formatValue(null.FloatFrom(61.5), 0))
	assert.Equal(t, "+1.23%", formatChange(null.FloatFrom(1.2345)))
	assert.Equal(t, "-0.50%", formatChange(null.FloatFrom(-0.5)))
	assert.Equal(t, "0.00%", formatChange(null.FloatFrom(0.001)))
	assert.Equal(t, "N/A", formatChange(null.Float{}))
}

func TestFormatSignalAlert(t *testing.T) {
	board, instruments := testBoard()
	msg := FormatSignalAlert(board, instruments, "run-1")

	assert.Contains(t, msg, "<b>台积电</b> 1025.00 (+1.23%)")
	assert.Contains(t, msg, "KD黄金交叉")
	assert.Contains(t, msg, "底背离")
	assert.Contains(t, msg, "K 35.6 | D 30.0 | J 46.6")
	assert.Contains(t, msg, "run run-1")
	assert.NotContains(t, msg, "GLD")
	assert.NotContains(t, msg, "BTC-USD")

	quiet := model.NewBoard()
	quiet.Set("gld", &model.Snapshot{Close: null.FloatFrom(1)})
	assert.Empty(t, FormatSignalAlert(quiet, instruments, "run-2"))
	assert.Empty(t, FormatSignalAlert(nil, instruments, "run-3"))
}

func TestFormatSignals(t *testing.T) {
	board, instruments := testBoard()
	assert.Contains(t, FormatSignals(board, instruments), "当前信号")
	assert.Contains(t, FormatSignals(model.NewBoard(), instruments), "暂无数据")

	quiet := model.NewBoard()
	quiet.Set("gld", &model.Snapshot{Close: null.FloatFrom(1)})
	assert.Contains(t, FormatSignals(quiet, instruments), "没有触发")
}

func TestFormatSnapshot(t *testing.T) {
	board, instruments := testBoard()
	msg := FormatSnapshot(board, instruments)
	lines := strings.Split(strings.TrimSpace(msg), "\n")

	assert.Len(t, lines, 5)
	assert.Contains(t, lines[2], "台积电: 1025.00 (+1.23%) RSI 61 K 36")
	assert.Contains(t, lines[2], "KD黄金交叉")
	assert.Equal(t, "BTC-USD: 数据获取失败", lines[3])
	assert.Equal(t, "GLD: 215.30 (-0.50%) RSI N/A K N/A", lines[4])
	assert.Contains(t, FormatSnapshot(nil, nil), "暂无数据")
}

func TestFormatRunFailure(t *testing.T) {
	assert.Equal(t, "❌ 刷新失败 (run abc): boom", FormatRunFailure("abc", errors.New("boom")))
}
