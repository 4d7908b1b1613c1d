// Package deps reports the installation status of the external binaries
// soundscribe can shell out to.
package deps

import (
	"os/exec"
	"strings"
)

// Status represents the installation status of a dependency
type Status struct {
	Name      string
	Installed bool
	Path      string
	Version   string
	Required  bool // required for the default engine, not merely optional
}

// binary describes how to probe one external dependency
type binary struct {
	name        string
	versionArgs []string
	required    bool
}

var binaries = []binary{
	{name: "whisper-cli", versionArgs: []string{"--version"}, required: true},
	{name: "ffmpeg", versionArgs: []string{"-version"}, required: false},
}

// Check probes a single binary by name
func Check(name string) Status {
	for _, b := range binaries {
		if b.name == name {
			return probe(b)
		}
	}
	return Status{Name: name}
}

// CheckAll probes every known binary
func CheckAll() []Status {
	statuses := make([]Status, len(binaries))
	for i, b := range binaries {
		statuses[i] = probe(b)
	}
	return statuses
}

func probe(b binary) Status {
	status := Status{Name: b.name, Required: b.required}

	path, err := exec.LookPath(b.name)
	if err != nil {
		return status
	}
	status.Installed = true
	status.Path = path

	output, err := exec.Command(path, b.versionArgs...).Output()
	if err == nil {
		lines := strings.Split(string(output), "\n")
		if len(lines) > 0 {
			status.Version = strings.TrimSpace(lines[0])
		}
	}
	return status
}
