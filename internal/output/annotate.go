package output

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// annotationEscaper escapes workflow command data the way the runner expects.
//
//nolint:gochecknoglobals // Immutable replacer shared by all calls.
var annotationEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")

// InGitHubActions reports whether the process runs inside a GitHub Actions job.
func InGitHubActions() bool {
	return os.Getenv("GITHUB_ACTIONS") == "true"
}

// ReportFailure writes err as an "::error::" workflow command, marking the step as failed in the job UI.
func ReportFailure(w io.Writer, err error) {
	if err == nil {
		return
	}

	_, _ = fmt.Fprintf(w, "::error::%s\n", annotationEscaper.Replace(err.Error()))
}
