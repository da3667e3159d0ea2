package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment override, e.g. FACE_INFERENCE_BACKEND
const EnvPrefix = "FACE"

// Config holds the application configuration
type Config struct {
	Detector    DetectorConfig    `json:"detector" envconfig:"DETECTOR"`
	Inference   InferenceConfig   `json:"inference" envconfig:"INFERENCE"`
	Classifier  ClassifierConfig  `json:"classifier" envconfig:"CLASSIFIER"`
	Color       ColorConfig       `json:"color" envconfig:"COLOR"`
	Cropper     CropperConfig     `json:"cropper" envconfig:"CROPPER"`
	Recognition RecognitionConfig `json:"recognition" envconfig:"RECOGNITION"`
	Camera      CameraConfig      `json:"camera" envconfig:"CAMERA"`
	Storage     StorageConfig     `json:"storage" envconfig:"STORAGE"`
	Output      OutputConfig      `json:"output" envconfig:"OUTPUT"`
	Log         LogConfig         `json:"log" envconfig:"LOG"`
}

// DetectorConfig selects and tunes the face detector
type DetectorConfig struct {
	// Backend is "pigo" or "opencv"
	Backend      string  `json:"backend" envconfig:"BACKEND"`
	CascadePath  string  `json:"cascade_path" envconfig:"CASCADE_PATH"`
	ScaleFactor  float64 `json:"scale_factor" envconfig:"SCALE_FACTOR"`
	MinNeighbors int     `json:"min_neighbors" envconfig:"MIN_NEIGHBORS"`
	MinSize      int     `json:"min_size" envconfig:"MIN_SIZE"`
	MaxSize      int     `json:"max_size" envconfig:"MAX_SIZE"`
	ShiftFactor  float64 `json:"shift_factor" envconfig:"SHIFT_FACTOR"`
	IoUThreshold float64 `json:"iou_threshold" envconfig:"IOU_THRESHOLD"`
	MinQuality   float64 `json:"min_quality" envconfig:"MIN_QUALITY"`
}

// InferenceConfig selects the emotion/gender/age backend
type InferenceConfig struct {
	// Backend is "deepface", "rekognition", "ollama", "llamacpp" or "none"
	Backend          string  `json:"backend" envconfig:"BACKEND"`
	TimeoutSeconds   int     `json:"timeout_seconds" envconfig:"TIMEOUT_SECONDS"`
	MinConfidence    float64 `json:"min_confidence" envconfig:"MIN_CONFIDENCE"`
	DeepFaceURL      string  `json:"deepface_url" envconfig:"DEEPFACE_URL"`
	DeepFaceModel    string  `json:"deepface_model" envconfig:"DEEPFACE_MODEL"`
	DeepFaceDetector string  `json:"deepface_detector" envconfig:"DEEPFACE_DETECTOR"`
	OllamaURL        string  `json:"ollama_url" envconfig:"OLLAMA_URL"`
	LlamaCppURL      string  `json:"llamacpp_url" envconfig:"LLAMACPP_URL"`
	Model            string  `json:"model" envconfig:"MODEL"`
	AWSRegion        string  `json:"aws_region" envconfig:"AWS_REGION"`
}

// ClassifierConfig tunes the color naming rules
type ClassifierConfig struct {
	// HairStrategy is "ladder" or "palette"
	HairStrategy string `json:"hair_strategy" envconfig:"HAIR_STRATEGY"`
}

// ColorConfig tunes dominant color clustering
type ColorConfig struct {
	K             int     `json:"k" envconfig:"K"`
	Restarts      int     `json:"restarts" envconfig:"RESTARTS"`
	MaxIterations int     `json:"max_iterations" envconfig:"MAX_ITERATIONS"`
	Tolerance     float64 `json:"tolerance" envconfig:"TOLERANCE"`
	Seed          int64   `json:"seed" envconfig:"SEED"`
	MaxSamples    int     `json:"max_samples" envconfig:"MAX_SAMPLES"`
}

// CropperConfig holds configuration for face crops sent to inference
type CropperConfig struct {
	PaddingRatio float64 `json:"padding_ratio" envconfig:"PADDING_RATIO"`
	MinSide      int     `json:"min_side" envconfig:"MIN_SIDE"`
	MaxSide      int     `json:"max_side" envconfig:"MAX_SIDE"`
}

// RecognitionConfig holds configuration for identity matching
type RecognitionConfig struct {
	Enabled      bool    `json:"enabled" envconfig:"ENABLED"`
	Tolerance    float64 `json:"tolerance" envconfig:"TOLERANCE"`
	ArchiveFaces bool    `json:"archive_faces" envconfig:"ARCHIVE_FACES"`
	FacesDir     string  `json:"faces_dir" envconfig:"FACES_DIR"`
}

// CameraConfig holds configuration for the capture loop
type CameraConfig struct {
	Device          int    `json:"device" envconfig:"DEVICE"`
	ProcessEveryNth int    `json:"process_every_nth" envconfig:"PROCESS_EVERY_NTH"`
	RefreshEvery    int    `json:"refresh_every" envconfig:"REFRESH_EVERY"`
	FrameIntervalMS int    `json:"frame_interval_ms" envconfig:"FRAME_INTERVAL_MS"`
	ListenAddr      string `json:"listen_addr" envconfig:"LISTEN_ADDR"`
}

// StorageConfig holds configuration for persistence
type StorageConfig struct {
	DatabasePath string `json:"database_path" envconfig:"DATABASE_PATH"`
	AutoSave     bool   `json:"auto_save" envconfig:"AUTO_SAVE"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	DefaultFormat string `json:"default_format" envconfig:"DEFAULT_FORMAT"`
	OutputDir     string `json:"output_dir" envconfig:"OUTPUT_DIR"`
	Quality       int    `json:"quality" envconfig:"QUALITY"`
	Suffix        string `json:"suffix" envconfig:"SUFFIX"`
}

// LogConfig holds configuration for logging
type LogConfig struct {
	Level  string `json:"level" envconfig:"LEVEL"`
	Format string `json:"format" envconfig:"FORMAT"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Detector: DetectorConfig{
			Backend:      "pigo",
			CascadePath:  "./cascade/facefinder",
			ScaleFactor:  1.1,
			MinNeighbors: 5,
			MinSize:      30,
			MaxSize:      1000,
			ShiftFactor:  0.1,
			IoUThreshold: 0.2,
			MinQuality:   5,
		},
		Inference: InferenceConfig{
			Backend:          "deepface",
			TimeoutSeconds:   30,
			DeepFaceURL:      "http://localhost:5005",
			DeepFaceModel:    "Facenet",
			DeepFaceDetector: "skip",
			OllamaURL:        "http://localhost:11434",
			LlamaCppURL:      "http://localhost:8080",
			Model:            "llava",
			AWSRegion:        "us-east-1",
		},
		Classifier: ClassifierConfig{
			HairStrategy: "ladder",
		},
		Color: ColorConfig{
			K:             3,
			Restarts:      10,
			MaxIterations: 300,
			Tolerance:     1e-4,
			Seed:          42,
			MaxSamples:    4096,
		},
		Cropper: CropperConfig{
			PaddingRatio: 0,
			MinSide:      48,
			MaxSide:      512,
		},
		Recognition: RecognitionConfig{
			Enabled:   false,
			Tolerance: 0.4,
			FacesDir:  "./faces",
		},
		Camera: CameraConfig{
			Device:          0,
			ProcessEveryNth: 1,
			RefreshEvery:    10,
			FrameIntervalMS: 100,
		},
		Storage: StorageConfig{
			DatabasePath: "./face_analysis.db",
		},
		Output: OutputConfig{
			DefaultFormat: "jpg",
			OutputDir:     "./output",
			Quality:       90,
			Suffix:        "_analyzed",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the effective configuration: defaults, then the JSON file at
// path (when it exists), then environment variables. A .env file in the
// working directory is read first and never overrides the real environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := LoadFromFile(path)
			if err != nil {
				return nil, err
			}
			cfg = loaded
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a JSON file; missing keys keep their defaults
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Detector.Backend {
	case "pigo", "opencv":
	default:
		return fmt.Errorf("detector.backend must be pigo or opencv, got %q", c.Detector.Backend)
	}

	if c.Detector.ScaleFactor <= 1 {
		return fmt.Errorf("detector.scale_factor must be greater than 1")
	}

	if c.Detector.MinSize < 1 || (c.Detector.MaxSize > 0 && c.Detector.MaxSize < c.Detector.MinSize) {
		return fmt.Errorf("detector.min_size must be positive and not above detector.max_size")
	}

	switch c.Inference.Backend {
	case "deepface", "rekognition", "ollama", "llamacpp", "none":
	default:
		return fmt.Errorf("inference.backend %q is not supported", c.Inference.Backend)
	}

	if c.Inference.TimeoutSeconds < 0 {
		return fmt.Errorf("inference.timeout_seconds cannot be negative")
	}

	if c.Inference.MinConfidence < 0 || c.Inference.MinConfidence > 1 {
		return fmt.Errorf("inference.min_confidence must be between 0 and 1")
	}

	switch c.Classifier.HairStrategy {
	case "ladder", "palette":
	default:
		return fmt.Errorf("classifier.hair_strategy must be ladder or palette, got %q", c.Classifier.HairStrategy)
	}

	if c.Color.K < 1 || c.Color.Restarts < 1 || c.Color.MaxIterations < 1 {
		return fmt.Errorf("color.k, color.restarts and color.max_iterations must be positive")
	}

	if c.Cropper.PaddingRatio < 0 || c.Cropper.PaddingRatio > 1 {
		return fmt.Errorf("cropper.padding_ratio must be between 0 and 1")
	}

	if c.Recognition.Tolerance <= 0 || c.Recognition.Tolerance > 2 {
		return fmt.Errorf("recognition.tolerance must be in (0, 2]")
	}

	if c.Camera.ProcessEveryNth < 1 || c.Camera.RefreshEvery < 1 {
		return fmt.Errorf("camera.process_every_nth and camera.refresh_every must be positive")
	}

	if c.Camera.FrameIntervalMS < 0 {
		return fmt.Errorf("camera.frame_interval_ms cannot be negative")
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	return nil
}

// InferenceTimeout returns the per-face inference timeout
func (c *Config) InferenceTimeout() time.Duration {
	return time.Duration(c.Inference.TimeoutSeconds) * time.Second
}

// FrameInterval returns the pause between camera frames
func (c *Config) FrameInterval() time.Duration {
	return time.Duration(c.Camera.FrameIntervalMS) * time.Millisecond
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "face-analyzer", "config.json")
}
