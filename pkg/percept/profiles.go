package percept

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// HSVRange is one inclusive hue/saturation/value window. Wrap-around colors
// such as red need two ranges.
type HSVRange struct {
	HMin float64 `yaml:"h_min"`
	HMax float64 `yaml:"h_max"`
	SMin float64 `yaml:"s_min"`
	SMax float64 `yaml:"s_max"`
	VMin float64 `yaml:"v_min"`
	VMax float64 `yaml:"v_max"`
}

// Profile describes one recognizable object.
type Profile struct {
	Ranges  []HSVRange `yaml:"ranges"`
	Color   string     `yaml:"color"`
	Shape   string     `yaml:"shape"`
	Aliases []string   `yaml:"aliases"`
}

// DefaultProfiles is the stock color map for the playfield objects.
var DefaultProfiles = map[string]Profile{
	"red_cube": {
		Ranges: []HSVRange{
			{HMin: 0, HMax: 10, SMin: 150, SMax: 255, VMin: 90, VMax: 255},
			{HMin: 170, HMax: 179, SMin: 150, SMax: 255, VMin: 90, VMax: 255},
		},
		Color: "red", Shape: "cube",
		Aliases: []string{"red block", "red box"},
	},
	"green_cube": {
		Ranges: []HSVRange{{HMin: 40, HMax: 85, SMin: 120, SMax: 255, VMin: 70, VMax: 255}},
		Color:  "green", Shape: "cube",
		Aliases: []string{"green block"},
	},
	"blue_cube": {
		Ranges: []HSVRange{{HMin: 100, HMax: 135, SMin: 120, SMax: 255, VMin: 70, VMax: 255}},
		Color:  "blue", Shape: "cube",
		Aliases: []string{"blue block", "blue box"},
	},
	"purple_ball": {
		Ranges: []HSVRange{{HMin: 130, HMax: 155, SMin: 150, SMax: 255, VMin: 90, VMax: 255}},
		Color:  "purple", Shape: "ball",
		Aliases: []string{"purple sphere"},
	},
	"yellow_sign": {
		Ranges: []HSVRange{{HMin: 20, HMax: 35, SMin: 120, SMax: 255, VMin: 120, VMax: 255}},
		Color:  "yellow", Shape: "triangle",
		Aliases: []string{"warning sign", "triangle sign"},
	},
	"orange_mug": {
		Ranges: []HSVRange{{HMin: 5, HMax: 25, SMin: 140, SMax: 255, VMin: 120, VMax: 255}},
		Color:  "orange", Shape: "mug",
		Aliases: []string{"orange cup", "coffee mug"},
	},
	"silver_can": {
		Ranges: []HSVRange{
			{HMin: 0, HMax: 10, SMin: 0, SMax: 70, VMin: 170, VMax: 255},
			{HMin: 170, HMax: 179, SMin: 0, SMax: 70, VMin: 170, VMax: 255},
		},
		Color: "silver", Shape: "cylinder",
		Aliases: []string{"soda can", "aluminium can"},
	},
}

// LoadProfiles reads a YAML color-profile file keyed by label.
func LoadProfiles(path string) (map[string]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read color profiles: %w", err)
	}
	profiles := map[string]Profile{}
	if err := yaml.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("parse color profiles: %w", err)
	}
	return profiles, nil
}

// ResolveLabel matches a spoken query ("the red block") against labels,
// pretty names, color+shape pairs and aliases. Empty means no match.
func ResolveLabel(profiles map[string]Profile, query string) string {
	candidate := strings.TrimSpace(strings.ToLower(strings.ReplaceAll(query, "-", " ")))
	candidateKey := strings.ReplaceAll(candidate, " ", "_")
	if _, ok := profiles[candidateKey]; ok {
		return candidateKey
	}
	for label, p := range profiles {
		pretty := strings.ReplaceAll(label, "_", " ")
		if strings.Contains(pretty, candidate) || strings.Contains(candidate, pretty) {
			return label
		}
		if p.Color != "" && p.Shape != "" &&
			strings.Contains(candidate, p.Color) && strings.Contains(candidate, p.Shape) {
			return label
		}
		for _, alias := range p.Aliases {
			aliasNorm := strings.ToLower(strings.ReplaceAll(alias, "-", " "))
			if candidate == aliasNorm ||
				strings.Contains(aliasNorm, candidate) ||
				strings.Contains(candidate, aliasNorm) {
				return label
			}
		}
	}
	return ""
}
