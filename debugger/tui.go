package debugger

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// TUI is the text interface over a Debugger: a Registers/Pages/Breakpoints
// panel trio plus an output log and a command line, laid out as a Flex of
// view panels over a command InputField.
type TUI struct {
	Debugger *Debugger
	App      *tview.Application
	Pages    *tview.Pages

	MainLayout *tview.Flex
	RightPanel *tview.Flex

	RegisterView    *tview.TextView
	PageMapView     *tview.TextView
	BreakpointsView *tview.TextView
	OutputView      *tview.TextView
	CommandInput    *tview.InputField
}

// NewTUI builds a TUI over dbg.
func NewTUI(dbg *Debugger) *TUI {
	t := &TUI{
		Debugger: dbg,
		App:      tview.NewApplication(),
	}

	t.initializeViews()
	t.buildLayout()
	t.setupKeyBindings()

	return t
}

func (t *TUI) initializeViews() {
	t.RegisterView = tview.NewTextView().SetDynamicColors(true).SetScrollable(false)
	t.RegisterView.SetBorder(true).SetTitle(" Registers ")

	t.PageMapView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.PageMapView.SetBorder(true).SetTitle(" Page Map ")

	t.BreakpointsView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.BreakpointsView.SetBorder(true).SetTitle(" Breakpoints ")

	t.OutputView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(true)
	t.OutputView.SetBorder(true).SetTitle(" Output ")

	t.CommandInput = tview.NewInputField().SetLabel("> ").SetFieldWidth(0)
	t.CommandInput.SetBorder(true).SetTitle(" Command ")
	t.CommandInput.SetDoneFunc(t.handleCommand)
}

func (t *TUI) buildLayout() {
	t.RightPanel = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.RegisterView, 10, 0, false).
		AddItem(t.PageMapView, 0, 1, false).
		AddItem(t.BreakpointsView, 8, 0, false)

	mainContent := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(t.RightPanel, 0, 1, false)

	t.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(mainContent, 0, 4, false).
		AddItem(t.OutputView, 8, 0, false).
		AddItem(t.CommandInput, 3, 0, true)

	t.Pages = tview.NewPages().AddPage("main", t.MainLayout, true, true)
}

func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF5:
			t.executeCommand("continue")
			return nil
		case tcell.KeyF11:
			t.executeCommand("step")
			return nil
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		case tcell.KeyCtrlL:
			t.RefreshAll()
			return nil
		}
		return event
	})
}

func (t *TUI) handleCommand(key tcell.Key) {
	if key != tcell.KeyEnter {
		return
	}
	cmd := t.CommandInput.GetText()
	if cmd == "" {
		return
	}
	t.executeCommand(cmd)
	t.CommandInput.SetText("")
}

func (t *TUI) executeCommand(cmd string) {
	err := t.Debugger.ExecuteCommand(cmd)
	output := t.Debugger.GetOutput()

	if err != nil {
		t.WriteOutput(fmt.Sprintf("[red]error:[white] %v\n", err))
	}
	if output != "" {
		t.WriteOutput(output)
	}

	if t.Debugger.Running {
		for {
			out := t.Debugger.Step()
			if !out.Running() {
				t.WriteOutput(fmt.Sprintf("stopped: %s pc=0x%016X\n", out.Code, t.Debugger.Machine.Core.PC))
				break
			}
			if hit, reason := t.Debugger.ShouldBreak(); hit {
				t.WriteOutput(fmt.Sprintf("%s at pc=0x%016X\n", reason, t.Debugger.Machine.Core.PC))
				break
			}
			if reason, hit := t.Debugger.WatchHit(); hit {
				t.WriteOutput(fmt.Sprintf("%s at pc=0x%016X\n", reason, t.Debugger.Machine.Core.PC))
				break
			}
		}
		t.Debugger.Running = false
	}

	t.RefreshAll()
}

// WriteOutput appends text to the output view.
func (t *TUI) WriteOutput(text string) {
	_, _ = t.OutputView.Write([]byte(text))
	t.OutputView.ScrollToEnd()
}

// RefreshAll redraws every panel from the current machine state.
func (t *TUI) RefreshAll() {
	t.updateRegisterView()
	t.updatePageMapView()
	t.updateBreakpointsView()
	t.App.Draw()
}

func (t *TUI) updateRegisterView() {
	core := t.Debugger.Machine.Core
	var lines []string
	for row := 0; row < 4; row++ {
		var cols []string
		for col := 0; col < 4; col++ {
			i := row*4 + col
			if i >= 13 {
				break
			}
			cols = append(cols, fmt.Sprintf("r%-2d: 0x%016X", i, core.Regs.Get(i)))
		}
		lines = append(lines, strings.Join(cols, "  "))
	}
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("pc: 0x%016X  gas: %d", core.PC, core.Gas))
	t.RegisterView.SetText(strings.Join(lines, "\n"))
}

func (t *TUI) updatePageMapView() {
	core := t.Debugger.Machine.Core
	var lines []string
	for _, e := range core.RAM.PageMap() {
		lines = append(lines, fmt.Sprintf("0x%08X  rights=%d", e.Address, e.Rights))
	}
	if len(lines) == 0 {
		lines = append(lines, "[yellow]no non-default pages[white]")
	}
	t.PageMapView.SetText(strings.Join(lines, "\n"))
}

func (t *TUI) updateBreakpointsView() {
	var lines []string
	bps := t.Debugger.Breakpoints.All()
	wps := t.Debugger.Watchpoints.All()
	if len(bps) == 0 && len(wps) == 0 {
		lines = append(lines, "[yellow]no breakpoints or watchpoints set[white]")
	}
	for _, bp := range bps {
		status, color := "enabled", "green"
		if !bp.Enabled {
			status, color = "disabled", "red"
		}
		if bp.Condition != "" {
			lines = append(lines, fmt.Sprintf("  b%d: [%s]%s[white] 0x%016X if %s (hits: %d)", bp.ID, color, status, bp.Address, bp.Condition, bp.HitCount))
		} else {
			lines = append(lines, fmt.Sprintf("  b%d: [%s]%s[white] 0x%016X (hits: %d)", bp.ID, color, status, bp.Address, bp.HitCount))
		}
	}
	for _, wp := range wps {
		status, color := "enabled", "green"
		if !wp.Enabled {
			status, color = "disabled", "red"
		}
		lines = append(lines, fmt.Sprintf("  w%d: [%s]%s[white] %s (hits: %d)", wp.ID, color, status, wp.Label(), wp.HitCount))
	}
	t.BreakpointsView.SetText(strings.Join(lines, "\n"))
}

// Run starts the TUI application loop.
func (t *TUI) Run() error {
	t.RefreshAll()
	t.WriteOutput("[green]pvm debugger[white]\n")
	t.WriteOutput("Press F5 to continue, F11 to step\n\n")
	return t.App.SetRoot(t.Pages, true).SetFocus(t.CommandInput).Run()
}

// Stop stops the TUI application.
func (t *TUI) Stop() {
	t.App.Stop()
}

// RunTUI is the package-level entry point mirroring RunCLI.
func RunTUI(dbg *Debugger) error {
	return NewTUI(dbg).Run()
}
