// Package prompts provides the static coaching instructions, embedded at
// build time and loaded once.
package prompts

import (
	"embed"
	"fmt"
	"strings"

	"discoverycoach/pkg/coach"
)

//go:embed instructions/*.md
var instructionFS embed.FS

// Library holds the base coaching instruction and per-focus appendices.
// It implements coach.PromptSource.
type Library struct {
	base       string
	appendices map[coach.ArtifactFocus]string
}

// Load reads the embedded instruction files. Called once at startup.
func Load() (*Library, error) {
	base, err := read("system_prompt.md")
	if err != nil {
		return nil, err
	}
	initiative, err := read("strategic_initiative.md")
	if err != nil {
		return nil, err
	}
	piObjective, err := read("pi_objective.md")
	if err != nil {
		return nil, err
	}

	return &Library{
		base: base,
		appendices: map[coach.ArtifactFocus]string{
			coach.FocusStrategicInitiative: initiative,
			coach.FocusPIObjective:         piObjective,
		},
	}, nil
}

// Base returns the base coaching system instruction.
func (l *Library) Base() string {
	return l.base
}

// FocusAppendix returns the artifact-type-specific instruction appendix, or
// "" when the focus needs no steering beyond the base instruction.
func (l *Library) FocusAppendix(focus coach.ArtifactFocus) string {
	return l.appendices[focus]
}

func read(name string) (string, error) {
	data, err := instructionFS.ReadFile("instructions/" + name)
	if err != nil {
		return "", fmt.Errorf("failed to read embedded instruction %s: %w", name, err)
	}
	return strings.TrimSpace(string(data)), nil
}
