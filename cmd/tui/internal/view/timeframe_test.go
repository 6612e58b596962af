package view_test

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/bookxchange/cmd/tui/internal/view"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTimeframe_Filter(t *testing.T) {
	now := time.Date(2026, time.March, 14, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		tf        view.Timeframe
		wantStart *time.Time
		wantEnd   *time.Time
	}{
		{"ThisMonth", view.TimeframeThisMonth, new(date(2026, time.March, 1)), nil},
		{"LastMonth", view.TimeframeLastMonth, new(date(2026, time.February, 1)), new(date(2026, time.March, 1))},
		{"ThisYear", view.TimeframeThisYear, new(date(2026, time.January, 1)), nil},
		{"All", view.TimeframeAll, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.tf.Filter(now)
			assert.Equal(t, tt.wantStart, f.Start)
			assert.Equal(t, tt.wantEnd, f.End)
		})
	}
}

func TestTimeframe_FilterLastMonthAcrossYear(t *testing.T) {
	f := view.TimeframeLastMonth.Filter(date(2026, time.January, 9))

	assert.Equal(t, new(date(2025, time.December, 1)), f.Start)
	assert.Equal(t, new(date(2026, time.January, 1)), f.End)
}

func key(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func typeText(p view.TimeframePicker, s string) view.TimeframePicker {
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return p
}

func openCustom(t *testing.T) view.TimeframePicker {
	t.Helper()

	p := view.NewTimeframePicker()
	for range int(view.TimeframeCustom) {
		p, _ = p.Update(key(tea.KeyDown))
	}

	p, _ = p.Update(key(tea.KeyEnter))
	require.False(t, p.IsSelecting())

	return p
}

func TestTimeframePicker_CustomRange(t *testing.T) {
	p := openCustom(t)
	p = typeText(p, "2026-02-01")
	p, _ = p.Update(key(tea.KeyTab))
	p = typeText(p, "2026-02-28")

	_, cmd := p.Update(key(tea.KeyEnter))
	require.NotNil(t, cmd)

	sel, ok := cmd().(view.TimeframeSelectedMsg)
	require.True(t, ok)

	assert.Equal(t, "2026-02-01 to 2026-02-28", sel.Label)
	assert.Equal(t, new(date(2026, time.February, 1)), sel.Filter.Start)
	assert.Equal(t, new(date(2026, time.March, 1)), sel.Filter.End, "end day is included")
}

func TestTimeframePicker_CustomRangeRejectsInvertedDates(t *testing.T) {
	p := openCustom(t)
	p = typeText(p, "2026-03-01")
	p, _ = p.Update(key(tea.KeyTab))
	p = typeText(p, "2026-02-01")

	p, cmd := p.Update(key(tea.KeyEnter))
	assert.Nil(t, cmd)
	assert.Contains(t, p.View(), "end date is before start date")

	p, _ = p.Update(key(tea.KeyEsc))
	assert.True(t, p.IsSelecting())
}

func TestTimeframePicker_PredefinedSelection(t *testing.T) {
	p := view.NewTimeframePicker()
	p, _ = p.Update(key(tea.KeyDown))

	_, cmd := p.Update(key(tea.KeyEnter))
	require.NotNil(t, cmd)

	sel, ok := cmd().(view.TimeframeSelectedMsg)
	require.True(t, ok)
	assert.Equal(t, "Last Month", sel.Label)
	assert.NotNil(t, sel.Filter.End)
}
