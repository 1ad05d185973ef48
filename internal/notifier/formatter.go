package notifier

import (
	"fmt"
	"strings"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"

	"MarketPulse/internal/model"
)

var signalLabels = map[string]string{
	"golden_cross":      "🟢 KD黄金交叉",
	"death_cross":       "🔴 KD死亡交叉",
	"top_divergence":    "⚠️ 顶背离",
	"bottom_divergence": "💡 底背离",
}

// formatValue renders a nullable number with fixed decimal places, or "N/A".
func formatValue(v null.Float, places int32) string {
	if !v.Valid {
		return "N/A"
	}
	return decimal.NewFromFloat(v.Float64).StringFixed(places)
}

func formatChange(v null.Float) string {
	if !v.Valid {
		return "N/A"
	}
	d := decimal.NewFromFloat(v.Float64).Round(2)
	if d.IsPositive() {
		return "+" + d.StringFixed(2) + "%"
	}
	return d.StringFixed(2) + "%"
}

func labels(instruments []model.Instrument) map[string]string {
	out := make(map[string]string, len(instruments))
	for _, inst := range instruments {
		out[inst.Key] = inst.Label()
	}
	return out
}

func signalLine(names []string) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = signalLabels[n]
	}
	return strings.Join(parts, " ")
}

// FormatSignalAlert lists every instrument with at least one fired signal.
// It returns "" when nothing fired.
func FormatSignalAlert(board *model.Board, instruments []model.Instrument, runID string) string {
	body := formatSignalEntries(board, instruments)
	if body == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString("📡 <b>MarketPulse 信号提醒</b>\n\n")
	b.WriteString(body)
	if runID != "" {
		b.WriteString(fmt.Sprintf("\n<i>run %s</i>", runID))
	}
	return b.String()
}

// FormatSignals answers the /signals command.
func FormatSignals(board *model.Board, instruments []model.Instrument) string {
	if board == nil || board.Len() == 0 {
		return "暂无数据，请等待下一次刷新"
	}
	body := formatSignalEntries(board, instruments)
	if body == "" {
		return "✅ 当前没有触发任何信号"
	}
	return "📡 <b>当前信号</b>\n\n" + body
}

func formatSignalEntries(board *model.Board, instruments []model.Instrument) string {
	if board == nil {
		return ""
	}
	names := labels(instruments)
	var b strings.Builder
	for _, key := range board.Keys() {
		snap, _ := board.Get(key)
		fired := snap.Signals().Names()
		if len(fired) == 0 {
			continue
		}
		label := names[key]
		if label == "" {
			label = key
		}
		b.WriteString(fmt.Sprintf("<b>%s</b> %s (%s)\n", label, formatValue(snap.Close, 2), formatChange(snap.ChangePercent)))
		b.WriteString(fmt.Sprintf("  %s\n", signalLine(fired)))
		b.WriteString(fmt.Sprintf("  K %s | D %s | J %s\n",
			formatValue(snap.K, 1), formatValue(snap.D, 1), formatValue(snap.J, 1)))
	}
	return b.String()
}

// FormatSnapshot answers the /snapshot command with one line per instrument.
func FormatSnapshot(board *model.Board, instruments []model.Instrument) string {
	if board == nil || board.Len() == 0 {
		return "暂无数据，请等待下一次刷新"
	}
	names := labels(instruments)
	var b strings.Builder
	b.WriteString("📊 <b>MarketPulse 行情快照</b>\n\n")
	for _, key := range board.Keys() {
		snap, _ := board.Get(key)
		label := names[key]
		if label == "" {
			label = key
		}
		if !snap.Close.Valid {
			b.WriteString(fmt.Sprintf("%s: 数据获取失败\n", label))
			continue
		}
		b.WriteString(fmt.Sprintf("%s: %s (%s) RSI %s K %s",
			label, formatValue(snap.Close, 2), formatChange(snap.ChangePercent),
			formatValue(snap.RSI, 0), formatValue(snap.K, 0)))
		if fired := snap.Signals().Names(); len(fired) > 0 {
			b.WriteString(" " + signalLine(fired))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatRunFailure reports a refresh that could not produce a board.
func FormatRunFailure(runID string, err error) string {
	return fmt.Sprintf("❌ 刷新失败 (run %s): %v", runID, err)
}
