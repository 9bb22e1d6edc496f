package orchestrate

import (
	"context"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/joist-el/joist/pkg/execx"
)

// versionToken matches the first dotted version number in --version
// output, e.g. "GNU Emacs 29.1" or "GNU Emacs 30.0.50".
var versionToken = regexp.MustCompile(`\b(\d+(?:\.\d+)+)\b`)

// DetectHostVersion determines the installed runtime version by running
// `<binary> --version` and parsing the first version token. It returns
// nil when the binary is missing or its output is unrecognized; the
// orchestrator treats an unknown version as "skip the check".
func DetectHostVersion(ctx context.Context, runner execx.Runner, binary string) *semver.Version {
	res, err := runner.Run(ctx, "", binary, "--version")
	if err != nil || !res.Success() {
		return nil
	}
	line, _, _ := strings.Cut(res.Stdout, "\n")
	m := versionToken.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	v, err := semver.NewVersion(m[1])
	if err != nil {
		return nil
	}
	return v
}
