package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
)

var (
	SuccessColorFG = pterm.FgLightGreen
	SuccessStyleBG = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	WarnColorFG    = pterm.FgYellow
	WarnStyleBG    = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	ErrorColorFG   = pterm.FgRed
	ErrorStyleBG   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	InfoColorFG    = pterm.FgLightCyan
	InfoStyleBG    = pterm.NewStyle(pterm.BgLightCyan, pterm.FgBlack)
)

// PrintErrorMessage prints a standard Go error to the console.
func PrintErrorMessage(tag string, err error) {
	ErrorStyleBG.Print(tag)
	ErrorColorFG.Println(" " + err.Error())
}

// PrintWarningMessage prints a warning message to the console.
func PrintWarningMessage(tag, msg string) {
	WarnStyleBG.Print(tag)
	WarnColorFG.Println(" " + msg)
}

// PrintInfoMessage prints an informational message to the console.
func PrintInfoMessage(tag, msg string) {
	InfoStyleBG.Print(tag)
	InfoColorFG.Println(" " + msg)
}

// -----------------------------------------------------------------------------

var kindBanners = map[Kind]string{
	KindSyntax:    "Syntax Error",
	KindSemantic:  "Semantic Error",
	KindAssembler: "Internal Error",
}

// displayCompileError displays a compile error with its banner and, if
// possible, the offending source line.
func displayCompileError(err *Error, source string, firstLine int) {
	fmt.Print("\n-- ")
	banner := kindBanners[err.Kind]
	ErrorStyleBG.Print(banner)
	fmt.Print(" ")

	fileName := err.Pos.File
	if fileName == "" {
		fileName = "<input>"
	}

	bannerLen := pterm.GetTerminalWidth() / 2
	if bannerLen > 50 {
		bannerLen = 50
	}
	dashCount := bannerLen - len(fileName) - len(banner) - 1
	if dashCount < 2 {
		dashCount = 2
	}

	fmt.Print(strings.Repeat("-", dashCount) + " ")
	InfoColorFG.Println(fileName)

	if err.HasPos {
		fmt.Printf("%d:%d: %s\n", err.Pos.Line, err.Pos.Col, err.Message)
	} else {
		fmt.Println(err.Message)
	}

	if err.HasPos && source != "" {
		displaySourceLine(err, source, firstLine)
	}

	if err.Kind == KindAssembler {
		InfoColorFG.Println(icePostlude)
	}
}

// displaySourceLine displays the erroneous line with a caret under the
// offending column.  firstLine is the line number of the first line of source.
func displaySourceLine(err *Error, source string, firstLine int) {
	lines := strings.Split(source, "\n")

	idx := err.Pos.Line - firstLine
	if idx < 0 || idx >= len(lines) {
		return
	}

	line := strings.ReplaceAll(lines[idx], "\t", "    ")
	trimmed := strings.TrimLeft(line, " ")
	indent := len(line) - len(trimmed)

	lineNumStr := strconv.Itoa(err.Pos.Line)
	fmt.Println()
	InfoColorFG.Print(lineNumStr + " ")
	fmt.Print("|  ")
	fmt.Println(trimmed)

	fmt.Print(strings.Repeat(" ", len(lineNumStr)+1), "|  ")
	caretCol := err.Pos.Col - 1 - indent
	if caretCol < 0 {
		caretCol = 0
	}
	fmt.Print(strings.Repeat(" ", caretCol))
	ErrorColorFG.Println("^")
	fmt.Println()
}

const icePostlude = `This is likely a bug in the compiler: the code generator produced an
instruction the assembler could not encode.`

// displayFatal displays a fatal error message.
func displayFatal(msg string) {
	fmt.Print("\n")
	ErrorStyleBG.Print("Fatal Error")
	ErrorColorFG.Println(" " + msg)
}

// -----------------------------------------------------------------------------

// displayCompileHeader displays the compiler information before compilation.
func displayCompileHeader(version, file string) {
	fmt.Print("fern ")
	InfoColorFG.Print("v" + version)
	fmt.Print(" -- compiling: ")
	InfoColorFG.Println(file)
}

// phaseSpinner stores the current phase spinner.
var phaseSpinner *pterm.SpinnerPrinter
var currentPhase string
var phaseStartTime time.Time

const maxPhaseLength = len("Assembling")

// displayBeginPhase displays the beginning of a compilation phase.
func displayBeginPhase(phase string) {
	currentPhase = phase
	phaseText := phase + "..." + strings.Repeat(" ", padding(phase))
	phaseSpinner = pterm.DefaultSpinner.WithStyle(pterm.NewStyle(InfoColorFG))

	phaseSpinner.SuccessPrinter = &pterm.PrefixPrinter{
		MessageStyle: pterm.NewStyle(pterm.FgDefault),
		Prefix: pterm.Prefix{
			Style: SuccessStyleBG,
			Text:  "Done",
		},
	}

	phaseSpinner.FailPrinter = &pterm.PrefixPrinter{
		MessageStyle: pterm.NewStyle(pterm.FgDefault),
		Prefix: pterm.Prefix{
			Style: ErrorStyleBG,
			Text:  "Fail",
		},
	}

	phaseSpinner.Start(phaseText)
	phaseStartTime = time.Now()
}

// displayEndPhase displays the end of a compilation phase.
func displayEndPhase(success bool) {
	if phaseSpinner == nil {
		return
	}

	if success {
		phaseSpinner.Success(
			currentPhase+strings.Repeat(" ", padding(currentPhase)),
			fmt.Sprintf("(%.3fs)", time.Since(phaseStartTime).Seconds()),
		)
	} else {
		phaseSpinner.Fail(currentPhase + strings.Repeat(" ", padding(currentPhase)))
	}

	phaseSpinner = nil
}

func padding(phase string) int {
	if n := maxPhaseLength - len(phase) + 2; n > 0 {
		return n
	}

	return 1
}

// displayCompilationFinished displays a compilation finished message.
func displayCompilationFinished(success bool, errorCount, warningCount int, outputPath string) {
	fmt.Print("\n")

	if success {
		SuccessColorFG.Print("All done! ")
	} else {
		ErrorColorFG.Print("Oh no! ")
	}

	fmt.Print("(")

	switch errorCount {
	case 0:
		SuccessColorFG.Print(0)
		fmt.Print(" errors, ")
	case 1:
		ErrorColorFG.Print(1)
		fmt.Print(" error, ")
	default:
		ErrorColorFG.Print(errorCount)
		fmt.Print(" errors, ")
	}

	switch warningCount {
	case 0:
		SuccessColorFG.Print(0)
		fmt.Println(" warnings)")
	case 1:
		WarnColorFG.Print(1)
		fmt.Println(" warning)")
	default:
		WarnColorFG.Print(warningCount)
		fmt.Println(" warnings)")
	}

	if success && outputPath != "" {
		fmt.Print("output written to ")
		InfoColorFG.Println(outputPath)
	}
}
