package tui

import (
	"fmt"

	"github.com/ChristianF88/gcodex/gcode"
	"github.com/ChristianF88/gcodex/output"
	"github.com/ChristianF88/gcodex/parser"
	"github.com/ChristianF88/gcodex/pools"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// App is the interactive block inspector: a scrollable block table with a
// word detail pane and a summary panel built from the stats report.
type App struct {
	app        *tview.Application
	blockTable *tview.Table
	detailView *tview.TextView
	summary    *tview.TextView
	statusBar  *tview.TextView

	file   string
	result *parser.Result
	report *output.JSONOutput
}

// NewApp creates the inspector over a fully parsed program.
func NewApp(file string, result *parser.Result, report *output.JSONOutput) *App {
	return &App{
		app:    tview.NewApplication(),
		file:   file,
		result: result,
		report: report,
	}
}

// Run builds the layout and blocks until the user quits.
func (a *App) Run() error {
	a.blockTable = tview.NewTable().SetSelectable(true, false).SetFixed(1, 0)
	a.blockTable.SetBorder(true).SetTitle(fmt.Sprintf(" Blocks — %s ", a.file))

	a.detailView = tview.NewTextView().SetDynamicColors(true)
	a.detailView.SetBorder(true).SetTitle(" Words ")

	a.summary = tview.NewTextView().SetDynamicColors(true)
	a.summary.SetBorder(true).SetTitle(" Summary ")

	a.statusBar = tview.NewTextView().SetDynamicColors(true)
	a.statusBar.SetText("[yellow]↑/↓[-] select block  [yellow]q[-] quit")

	a.populateTable()
	a.populateSummary()

	a.blockTable.SetSelectionChangedFunc(func(row, col int) {
		if row >= 1 && row <= len(a.result.Blocks) {
			a.showBlock(a.result.Blocks[row-1])
		}
	})
	if len(a.result.Blocks) > 0 {
		a.blockTable.Select(1, 0)
		a.showBlock(a.result.Blocks[0])
	}

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Rune() == 'q' || event.Key() == tcell.KeyEscape {
			a.app.Stop()
			return nil
		}
		return event
	})

	right := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.summary, 0, 1, false).
		AddItem(a.detailView, 0, 2, false)

	body := tview.NewFlex().
		AddItem(a.blockTable, 0, 2, true).
		AddItem(right, 0, 1, false)

	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(body, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)

	return a.app.SetRoot(root, true).Run()
}

func (a *App) populateTable() {
	headers := []string{"Line", "Words", "Block"}
	for col, h := range headers {
		a.blockTable.SetCell(0, col, tview.NewTableCell(h).
			SetTextColor(tcell.ColorYellow).
			SetSelectable(false))
	}

	builder := pools.Pools.GetBuilder()
	defer pools.Pools.ReturnBuilder(builder)

	for i, blk := range a.result.Blocks {
		builder.Reset()
		for j, w := range blk.Words {
			if j > 0 {
				builder.WriteByte(' ')
			}
			builder.WriteString(w.String())
		}
		a.blockTable.SetCell(i+1, 0, tview.NewTableCell(fmt.Sprintf("%d", blk.LineNumber)))
		a.blockTable.SetCell(i+1, 1, tview.NewTableCell(fmt.Sprintf("%d", len(blk.Words))))
		a.blockTable.SetCell(i+1, 2, tview.NewTableCell(builder.String()).SetExpansion(1))
	}
}

func (a *App) populateSummary() {
	builder := pools.Pools.GetBuilder()
	defer pools.Pools.ReturnBuilder(builder)

	fmt.Fprintf(builder, "[yellow]blocks[-]  %d\n", a.report.General.TotalBlocks)
	fmt.Fprintf(builder, "[yellow]words[-]   %d\n", a.report.General.TotalWords)
	fmt.Fprintf(builder, "[yellow]lines[-]   %d\n", a.report.General.TotalLines)
	fmt.Fprintf(builder, "[yellow]bytes[-]   %d\n\n", a.report.General.TotalBytes)
	for _, l := range a.report.Letters {
		fmt.Fprintf(builder, "%s %d  ", l.Letter, l.Count)
	}
	a.summary.SetText(builder.String())
}

func (a *App) showBlock(blk gcode.Block) {
	builder := pools.Pools.GetBuilder()
	defer pools.Pools.ReturnBuilder(builder)

	fmt.Fprintf(builder, "[yellow]line %d[-]\n\n", blk.LineNumber)
	for _, w := range blk.Words {
		if w.Kind == gcode.KindString {
			fmt.Fprintf(builder, "%c  [green]%q[-]\n", w.Letter, w.Str)
		} else {
			fmt.Fprintf(builder, "%c  %g\n", w.Letter, w.Number)
		}
	}
	a.detailView.SetText(builder.String())
}
