package config

import "gopkg.in/yaml.v3"

// fileDefaults mirrors the structure of the embedded defaults.yaml.
type fileDefaults struct {
	Stream struct {
		Tolerance        float64 `yaml:"tolerance"`
		ToleranceRelaxed float64 `yaml:"tolerance_relaxed"`
		FrameSkip        int     `yaml:"frame_skip"`
		Downscale        float64 `yaml:"downscale"`
		FPSWindow        int     `yaml:"fps_window"`
	} `yaml:"stream"`
	Camera struct {
		Indices []int `yaml:"indices"`
		Width   int   `yaml:"width"`
		Height  int   `yaml:"height"`
	} `yaml:"camera"`
}

func loadDefaults() fileDefaults {
	var d fileDefaults
	if err := yaml.Unmarshal(defaultsYAML, &d); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	return d
}
