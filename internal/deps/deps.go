package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external binary podium relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Resolved    string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// ClipRequirements lists the binaries used for capture and probing.
func ClipRequirements(ffmpeg, ffprobe string) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: ffmpeg, Description: "Captures camera and microphone for drills"},
		{Name: "FFprobe", Command: ffprobe, Description: "Reads clip duration before upload", Optional: true},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Resolved = resolved
		status.Available = true
		results = append(results, status)
	}
	return results
}
