package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	d := loadDefaults()

	if d.Stream.Tolerance != 0.6 {
		t.Errorf("expected default tolerance 0.6, got %v", d.Stream.Tolerance)
	}
	if d.Stream.ToleranceRelaxed != 0.9 {
		t.Errorf("expected relaxed tolerance 0.9, got %v", d.Stream.ToleranceRelaxed)
	}
	if d.Stream.FrameSkip != 2 {
		t.Errorf("expected frame skip 2, got %d", d.Stream.FrameSkip)
	}
	if d.Stream.Downscale != 0.25 {
		t.Errorf("expected downscale 0.25, got %v", d.Stream.Downscale)
	}
	if len(d.Camera.Indices) == 0 {
		t.Error("expected at least one default camera index")
	}
}

func TestEnvInt(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected int
	}{
		{"unset", "", 42},
		{"valid", "7", 7},
		{"invalid", "abc", 42},
		{"negative", "-3", 42},
		{"zero", "0", 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("FACEWATCH_TEST_INT", tt.value)
			}
			if got := envInt("FACEWATCH_TEST_INT", 42); got != tt.expected {
				t.Errorf("envInt(%q) = %d, want %d", tt.value, got, tt.expected)
			}
		})
	}
}

func TestEnvIndices(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected []int
	}{
		{"unset", "", []int{0}},
		{"single", "2", []int{2}},
		{"list", "0, 1,2", []int{0, 1, 2}},
		{"garbage", "x,1", []int{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("FACEWATCH_TEST_IDX", tt.value)
			}
			got := envIndices("FACEWATCH_TEST_IDX", []int{0})
			if len(got) != len(tt.expected) {
				t.Fatalf("envIndices(%q) = %v, want %v", tt.value, got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("envIndices(%q) = %v, want %v", tt.value, got, tt.expected)
				}
			}
		})
	}
}

func TestLoadUsesEnvironment(t *testing.T) {
	t.Setenv("MATCH_TOLERANCE", "0.45")
	t.Setenv("EMBEDDING_DIM", "512")

	cfg := Load()

	if cfg.Stream.Tolerance != 0.45 {
		t.Errorf("expected tolerance 0.45, got %v", cfg.Stream.Tolerance)
	}
	if cfg.Vision.Dim != 512 {
		t.Errorf("expected dim 512, got %d", cfg.Vision.Dim)
	}
	if cfg.Stream.FrameSkip != 2 {
		t.Errorf("expected frame skip fallback 2, got %d", cfg.Stream.FrameSkip)
	}
}
