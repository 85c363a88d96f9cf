package deps

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

// Version runs "<command> -version" and returns the reported version token,
// or an empty string when the binary cannot be queried. ffmpeg and ffprobe
// both print "<name> version <token> ..." on the first line.
func Version(ctx context.Context, command string) string {
	command = strings.TrimSpace(command)
	if command == "" {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, command, "-version").Output() //nolint:gosec
	if err != nil {
		return ""
	}
	return parseVersion(string(out))
}

func parseVersion(output string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(output), "\n")
	fields := strings.Fields(line)
	for i := 0; i+1 < len(fields); i++ {
		if strings.EqualFold(fields[i], "version") {
			return fields[i+1]
		}
	}
	return ""
}
