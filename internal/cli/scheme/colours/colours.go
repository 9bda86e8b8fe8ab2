package colours

import "github.com/fatih/color"

// Color scheme for the CLI
var (
	Title       = color.New(color.FgCyan, color.Bold)
	Word        = color.New(color.FgMagenta)
	Translation = color.New(color.FgHiGreen, color.Italic)
	Prompt      = color.New(color.FgGreen, color.Bold)
	Error       = color.New(color.FgRed, color.Bold)
	Success     = color.New(color.FgGreen)
	Info        = color.New(color.FgBlue)
	Warning     = color.New(color.FgYellow)
	Muted       = color.New(color.FgHiBlack)
)

// Apply switches to the palette for a dark or light terminal background.
func Apply(dark bool) {
	if dark {
		Title = color.New(color.FgHiCyan, color.Bold)
		Word = color.New(color.FgHiMagenta)
		Info = color.New(color.FgHiBlue)
		Muted = color.New(color.FgWhite)
		return
	}
	Title = color.New(color.FgCyan, color.Bold)
	Word = color.New(color.FgMagenta)
	Info = color.New(color.FgBlue)
	Muted = color.New(color.FgHiBlack)
}
