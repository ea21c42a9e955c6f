package ctlclient

import (
	"fmt"

	"github.com/fatih/color"
)

// PrintSuccess writes a green status line, mirroring urp's render.Renderer
// status-coloring convention.
func PrintSuccess(format string, args ...any) {
	fmt.Println(color.GreenString(format, args...))
}

// PrintError writes a red status line.
func PrintError(format string, args ...any) {
	fmt.Println(color.RedString(format, args...))
}

// PrintWarn writes a yellow status line, used for escalated/awaiting outcomes.
func PrintWarn(format string, args ...any) {
	fmt.Println(color.YellowString(format, args...))
}
