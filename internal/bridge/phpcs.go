package bridge

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// CodingStandardsInput describes one PHP_CodeSniffer invocation.
type CodingStandardsInput struct {
	Root       string
	Standard   string
	PHPVersion string
	Exclusions []string
}

// PHPCS drives the phpcs binary.
type PHPCS struct {
	Runner Runner
	Binary string
}

// Check runs phpcs over the plugin root with the emacs report so every issue is one line.
// Exit codes 1 and 2 mean issues were found; anything above is a processing failure.
func (p *PHPCS) Check(ctx context.Context, in CodingStandardsInput) (Output, error) {
	out, err := p.Runner.Run(ctx, p.Binary, codingStandardsArgs(in)...)
	if err != nil {
		return out, err
	}
	if out.ExitCode > 2 {
		return out, fmt.Errorf("%s exited with status %d", p.Binary, out.ExitCode)
	}
	return out, nil
}

func codingStandardsArgs(in CodingStandardsInput) []string {
	args := []string{
		"--standard=" + in.Standard,
		"--extensions=php",
		"--report=emacs",
		"--basepath=" + in.Root,
	}
	if len(in.Exclusions) > 0 {
		patterns := make([]string, 0, len(in.Exclusions))
		for _, name := range in.Exclusions {
			if path, anchored := strings.CutPrefix(name, "/"); anchored {
				patterns = append(patterns, strings.TrimRight(filepath.ToSlash(in.Root), "/")+"/"+path+"/*")
				continue
			}
			patterns = append(patterns, "*/"+name+"/*")
		}
		args = append(args, "--ignore="+strings.Join(patterns, ","))
	}
	if in.PHPVersion != "" {
		args = append(args, "--runtime-set", "testVersion", in.PHPVersion)
	}
	return append(args, "-q", in.Root)
}
