// Package persona shapes everything the rover says to match its character.
package persona

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Persona describes the speaking style. Loaded from a YAML file or built in
// code; zero values fall back to the defaults below.
type Persona struct {
	Tone        string `yaml:"tone"`        // playful, sarcastic, excited
	Prefix      string `yaml:"prefix"`      // spoken name prefix
	Catchphrase string `yaml:"catchphrase"` // appended to every line
}

// Default is the stock WALL-E-ish character.
func Default() Persona {
	return Persona{
		Tone:        "sarcastic",
		Prefix:      "WALL-E",
		Catchphrase: "Directive?",
	}
}

// Load reads a persona YAML file, filling unset fields from Default.
func Load(path string) (Persona, error) {
	p := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read persona file: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse persona file: %w", err)
	}
	return p, nil
}

// Adapter applies a persona to outgoing speech. An optional Hook runs after
// the base styling for app-specific rewrites.
type Adapter struct {
	Persona Persona
	Hook    func(styled string, p Persona) string
}

// NewAdapter creates an adapter for the given persona.
func NewAdapter(p Persona) *Adapter {
	return &Adapter{Persona: p}
}

// Apply styles one line of speech.
func (a *Adapter) Apply(message string) string {
	styled := a.baseStyle(message)
	if a.Hook != nil {
		styled = a.Hook(styled, a.Persona)
	}
	return styled
}

func (a *Adapter) baseStyle(message string) string {
	p := a.Persona
	switch p.Tone {
	case "sarcastic":
		message = "Oh sure, " + strings.ToLower(message)
	case "excited":
		message = message + "!"
	}

	var b strings.Builder
	if p.Prefix != "" {
		b.WriteString(p.Prefix)
		b.WriteString(": ")
	}
	b.WriteString(message)
	if p.Catchphrase != "" {
		b.WriteString(" ")
		b.WriteString(p.Catchphrase)
	}
	return b.String()
}
