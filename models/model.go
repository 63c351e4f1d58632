package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ModelKind is a closed variant over the model families the gateway knows.
// Request shaping dispatches on this instead of ad hoc string lists, so a new
// model must be classified here before anything will talk to it.
type ModelKind int

const (
	MODEL_KIND_TEXT ModelKind = iota
	MODEL_KIND_VISION
	MODEL_KIND_IMAGE
)

var modelKinds = map[string]ModelKind{
	"gpt-4o":       MODEL_KIND_VISION,
	"gpt-4o-mini":  MODEL_KIND_VISION,
	"gpt-4.1":      MODEL_KIND_TEXT,
	"gpt-4.1-mini": MODEL_KIND_TEXT,
	"gpt-4.1-nano": MODEL_KIND_TEXT,
	"gpt-image-1":  MODEL_KIND_IMAGE,
}

// KindOfModel classifies a model name. ok=false means the model is unknown
// and must be rejected before any dialog or request is built for it.
func KindOfModel(model string) (ModelKind, bool) {
	k, ok := modelKinds[model]
	return k, ok
}

// Allowed values for gpt-image-1 settings.
var (
	SettingSizes       = []string{"1024x1024", "1536x1024", "1024x1536", "auto"}
	SettingQualities   = []string{"auto", "low", "medium", "high"}
	SettingFormats     = []string{"png", "jpeg", "webp"}
	SettingBackgrounds = []string{"auto", "transparent", "opaque"}
)

// Settings carries the per-model dialog configuration. Text and vision models
// use only Temperature; the image model uses the remaining four fields. The
// struct is stored as a JSON text column.
type Settings struct {
	Temperature  *float64 `json:"temperature,omitempty"`
	Size         string   `json:"size,omitempty"`
	Quality      string   `json:"quality,omitempty"`
	OutputFormat string   `json:"output_format,omitempty"`
	Background   string   `json:"background,omitempty"`
}

func (s Settings) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *Settings) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = Settings{}
		return nil
	case string:
		if v == "" {
			*s = Settings{}
			return nil
		}
		return json.Unmarshal([]byte(v), s)
	case []byte:
		if len(v) == 0 {
			*s = Settings{}
			return nil
		}
		return json.Unmarshal(v, s)
	}
	return fmt.Errorf("settings: unsupported column type %T", src)
}

// Fields returns the settings as loose key/value pairs for spreading into a
// gateway payload, keeping only the keys that belong to the given kind.
func (s Settings) Fields(kind ModelKind) map[string]string {
	out := map[string]string{}
	if kind == MODEL_KIND_IMAGE {
		if s.Size != "" {
			out["size"] = s.Size
		}
		if s.Quality != "" {
			out["quality"] = s.Quality
		}
		if s.OutputFormat != "" {
			out["output_format"] = s.OutputFormat
		}
		if s.Background != "" {
			out["background"] = s.Background
		}
	}
	return out
}

// DefaultSettings returns the settings a new dialog gets when the creator
// does not pick any. Mirrors the creation form defaults.
func DefaultSettings(model string) Settings {
	kind, ok := KindOfModel(model)
	if !ok {
		return Settings{}
	}
	switch kind {
	case MODEL_KIND_TEXT, MODEL_KIND_VISION:
		t := 0.7
		return Settings{Temperature: &t}
	case MODEL_KIND_IMAGE:
		return Settings{
			Size:         "1024x1024",
			Quality:      "auto",
			OutputFormat: "png",
			Background:   "auto",
		}
	}
	return Settings{}
}

// ValidateSettings enforces the invariant that settings match the shape
// implied by the model: temperature only for text/vision, the four image
// fields only for gpt-image-1.
func ValidateSettings(model string, s Settings) error {
	kind, ok := KindOfModel(model)
	if !ok {
		return fmt.Errorf("unknown model %q", model)
	}

	switch kind {
	case MODEL_KIND_TEXT, MODEL_KIND_VISION:
		if s.Temperature == nil {
			return fmt.Errorf("model %s requires temperature", model)
		}
		if *s.Temperature < 0 || *s.Temperature > 1 {
			return fmt.Errorf("temperature must be between 0 and 1")
		}
		if s.Size != "" || s.Quality != "" || s.OutputFormat != "" || s.Background != "" {
			return fmt.Errorf("model %s accepts only temperature", model)
		}
	case MODEL_KIND_IMAGE:
		if s.Temperature != nil {
			return fmt.Errorf("model %s does not accept temperature", model)
		}
		if !contains(SettingSizes, s.Size) {
			return fmt.Errorf("invalid size %q", s.Size)
		}
		if !contains(SettingQualities, s.Quality) {
			return fmt.Errorf("invalid quality %q", s.Quality)
		}
		if !contains(SettingFormats, s.OutputFormat) {
			return fmt.Errorf("invalid output_format %q", s.OutputFormat)
		}
		if !contains(SettingBackgrounds, s.Background) {
			return fmt.Errorf("invalid background %q", s.Background)
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
