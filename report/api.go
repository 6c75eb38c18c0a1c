package report

import (
	"fmt"
	"os"
)

// NOTE: All report functions only display if the appropriate log level is
// set.  Most report functions will simply fail silently if below their
// appropriate log level.

// ReportCompileError reports a compilation error.  The source is the text that
// was compiled and firstLine is the line number its first line was given.  The
// source may be empty in which case no source line is displayed.
func ReportCompileError(err *Error, source string, firstLine int) {
	rep.m.Lock()
	defer rep.m.Unlock()

	rep.errorCount++

	if rep.logLevel > LogLevelSilent {
		displayEndPhase(false)
		displayCompileError(err, source, firstLine)
	}
}

// ReportError reports an error that is not a compilation error: eg. failing
// to read a file.  The tag is displayed as the error's banner.
func ReportError(tag string, err error) {
	rep.m.Lock()
	defer rep.m.Unlock()

	rep.errorCount++

	if rep.logLevel > LogLevelSilent {
		displayEndPhase(false)
		PrintErrorMessage(tag, err)
	}
}

// ReportWarning reports a warning message.
func ReportWarning(tag, msg string) {
	rep.m.Lock()
	defer rep.m.Unlock()

	rep.warningCount++

	if rep.logLevel > LogLevelError {
		PrintWarningMessage(tag, msg)
	}
}

// ReportInfo reports an informational message.  Only displayed when verbose.
func ReportInfo(tag, msg string) {
	if rep.logLevel == LogLevelVerbose {
		PrintInfoMessage(tag, msg)
	}
}

// ReportFatal reports a fatal error and exits the program.
func ReportFatal(msg string, args ...interface{}) {
	rep.m.Lock()
	defer rep.m.Unlock()

	if rep.logLevel > LogLevelSilent {
		displayEndPhase(false)
		displayFatal(fmt.Sprintf(msg, args...))
	}

	os.Exit(1)
}

// -----------------------------------------------------------------------------

// BeginPhase starts a named compilation phase.  A spinner is displayed while
// the phase runs if the log level is verbose.
func BeginPhase(phase string) {
	if rep.logLevel == LogLevelVerbose {
		displayBeginPhase(phase)
	}
}

// EndPhase ends the current compilation phase.
func EndPhase(success bool) {
	if rep.logLevel == LogLevelVerbose {
		displayEndPhase(success)
	}
}

// ReportCompileHeader displays the compiler version and the file being
// compiled.
func ReportCompileHeader(version, file string) {
	if rep.logLevel == LogLevelVerbose {
		displayCompileHeader(version, file)
	}
}

// ReportCompilationFinished displays the closing summary.
func ReportCompilationFinished(outputPath string) {
	if rep.logLevel > LogLevelSilent {
		displayCompilationFinished(rep.errorCount == 0, rep.errorCount, rep.warningCount, outputPath)
	}
}
