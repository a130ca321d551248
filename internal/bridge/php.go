package bridge

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

var onLine = regexp.MustCompile(`on line (\d+)`)

// SyntaxFailure is one file rejected by the PHP linter.
type SyntaxFailure struct {
	Path    string
	Line    int
	Message string
}

// SyntaxResult aggregates php -l over a set of files.
type SyntaxResult struct {
	Checked  int
	Failing  []SyntaxFailure
	ExitCode int
}

// PHPLinter drives `php -l`.
type PHPLinter struct {
	Runner Runner
	Binary string
}

// SyntaxCheck lints files one by one. The exit code is the highest seen.
// An error stops the run and returns the partial result.
func (p *PHPLinter) SyntaxCheck(ctx context.Context, files []string) (SyntaxResult, error) {
	var result SyntaxResult
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		out, err := p.Runner.Run(ctx, p.Binary, "-l", file)
		if err != nil {
			return result, err
		}
		result.Checked++
		if out.ExitCode == 0 {
			continue
		}
		if out.ExitCode > result.ExitCode {
			result.ExitCode = out.ExitCode
		}
		result.Failing = append(result.Failing, parseLintFailure(file, out.Combined()))
	}
	return result, nil
}

func parseLintFailure(file, output string) SyntaxFailure {
	failure := SyntaxFailure{Path: file}
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "Errors parsing") {
			continue
		}
		failure.Message = line
		break
	}
	if m := onLine.FindStringSubmatch(failure.Message); m != nil {
		failure.Line, _ = strconv.Atoi(m[1])
	}
	return failure
}
