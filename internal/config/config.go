package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Gallery GalleryConfig
	Vision  VisionConfig
	Camera  CameraConfig
	Stream  StreamConfig
}

type GalleryConfig struct {
	// DataDir holds the CSV/gob file store. Used when DatabaseURL is empty.
	DataDir string
	// DatabaseURL selects the PostgreSQL backend when set.
	DatabaseURL  string
	MaxOpenConns int // Maximum open connections (default 25)
	MaxIdleConns int // Maximum idle connections (default 5)
}

type VisionConfig struct {
	URL string // face service base URL, defaults to http://localhost:8000
	Dim int    // embedding dimension, defaults to 128
}

type CameraConfig struct {
	Indices []int // device indices tried in order
	Width   int
	Height  int
}

type StreamConfig struct {
	Tolerance        float64 // default matching tolerance
	ToleranceRelaxed float64 // second preset for the runtime toggle
	FrameSkip        int     // run recognition on every Nth frame
	Downscale        float64 // detection downscale factor
	FPSWindow        int     // frames per rolling FPS sample
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envIndices parses a comma-separated list of camera indices, e.g. "0,1,2".
func envIndices(key string, defaultVal []int) []int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return defaultVal
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}

func Load() *Config {
	defaults := loadDefaults()

	return &Config{
		Gallery: GalleryConfig{
			DataDir:      envString("DATA_DIR", "data"),
			DatabaseURL:  os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Vision: VisionConfig{
			URL: envString("FACE_SERVICE_URL", "http://localhost:8000"),
			Dim: envInt("EMBEDDING_DIM", 128),
		},
		Camera: CameraConfig{
			Indices: envIndices("CAMERA_INDICES", defaults.Camera.Indices),
			Width:   envInt("CAMERA_WIDTH", defaults.Camera.Width),
			Height:  envInt("CAMERA_HEIGHT", defaults.Camera.Height),
		},
		Stream: StreamConfig{
			Tolerance:        envFloat("MATCH_TOLERANCE", defaults.Stream.Tolerance),
			ToleranceRelaxed: envFloat("MATCH_TOLERANCE_RELAXED", defaults.Stream.ToleranceRelaxed),
			FrameSkip:        envInt("STREAM_FRAME_SKIP", defaults.Stream.FrameSkip),
			Downscale:        envFloat("STREAM_DOWNSCALE", defaults.Stream.Downscale),
			FPSWindow:        envInt("STREAM_FPS_WINDOW", defaults.Stream.FPSWindow),
		},
	}
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
