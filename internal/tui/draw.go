package tui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
)

var (
	styleDefault  = tcell.StyleDefault
	styleLabel    = tcell.StyleDefault.Bold(true)
	styleChip     = tcell.StyleDefault.Reverse(true)
	styleDismiss  = tcell.StyleDefault.Foreground(tcell.ColorRed).Reverse(true)
	styleSelected = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleHelp     = tcell.StyleDefault.Dim(true)
)

const helpLine = "Tab switch  Enter/, add  Ctrl-S save  Ctrl-L load  Ctrl-T suggest  Ctrl-E text  Esc quit"

const recordsHelp = "Ctrl-B bulk mode  Ctrl-N/Ctrl-P move  Ctrl-R pick  Ctrl-A apply"

// putString draws s at (x, y) and returns the column after it.
func putString(s tcell.Screen, x, y int, str string, style tcell.Style) int {
	width, _ := s.Size()
	for _, r := range str {
		if x >= width {
			break
		}
		s.SetContent(x, y, r, nil, style)
		x++
	}
	return x
}

func (a *App) draw() {
	s := a.screen
	s.Clear()
	a.chipHits = a.chipHits[:0]
	a.recordHits = a.recordHits[:0]

	y := 0
	putString(s, 0, y, helpLine, styleHelp)
	y++
	if len(a.records) > 0 {
		putString(s, 0, y, recordsHelp, styleHelp)
		y++
		y = a.drawRecords(y)
	}
	y++

	for i, e := range a.pair.Editors() {
		marker := "  "
		if i == a.active {
			marker = "> "
		}
		x := putString(s, putString(s, 0, y, marker, styleLabel), y, e.Label, styleLabel)
		if e.Modified() {
			putString(s, x, y, " (modified)", styleHelp)
		}
		y++

		x = 2
		for _, chip := range e.Chips().Chips() {
			if a.textMode {
				x = putString(s, x, y, chip.Name, styleChip) + 1
				continue
			}
			x = putString(s, x, y, chip.Name+" ", styleChip)
			x0 := x
			x = putString(s, x, y, "x", styleDismiss)
			a.chipHits = append(a.chipHits, chipHit{editor: i, y: y, x0: x0, x1: x - 1, name: chip.Name})
			x++
		}
		if i == a.active && !a.textMode {
			x = putString(s, x, y, e.Input(), styleDefault)
			s.ShowCursor(x, y)
		}
		y++

		prefix := "  text: "
		x = putString(s, 0, y, prefix, styleHelp)
		x = putString(s, x, y, e.Text().Value(), styleDefault)
		if i == a.active && a.textMode {
			s.ShowCursor(x, y)
		}
		y += 2
	}

	for i, sug := range a.suggestions {
		style := styleDefault
		prefix := "   "
		if i == a.selected {
			style = styleSelected
			prefix = " * "
		}
		putString(s, 0, y, fmt.Sprintf("%s%s", prefix, sug), style)
		y++
	}

	_, height := s.Size()
	putString(s, 0, height-1, a.Status(), styleLabel)
	s.Show()
}

// drawRecords draws the records line starting at row y and returns the next
// free row.
func (a *App) drawRecords(y int) int {
	s := a.screen
	mode := "bulk off"
	if a.selection.Armed() {
		mode = "bulk on"
	}
	picked := make(map[string]bool)
	for _, id := range a.selection.IDs() {
		picked[id] = true
	}

	x := putString(s, 0, y, fmt.Sprintf("Records (%s, %d selected): ", mode, len(picked)), styleLabel)
	for i, id := range a.records {
		mark := "[ ]"
		if picked[id] {
			mark = "[x]"
		}
		style := styleDefault
		if i == a.cursor {
			style = styleSelected
		}
		x0 := x
		x = putString(s, x, y, mark+id, style)
		a.recordHits = append(a.recordHits, recordHit{y: y, x0: x0, x1: x - 1, index: i})
		x++
	}
	return y + 1
}
