package tui

// Keybinding constants
const (
	KeyQuit    = "ctrl+q"
	KeyCtrlC   = "ctrl+c"
	KeyEsc     = "esc"
	KeyRefresh = "ctrl+r"
)

// HelpView returns a one-line help bar with common keybindings.
func HelpView() string {
	return StyleHelp.Render("enter: next step | esc: back | ctrl+r: refresh models | ctrl+q: quit")
}
