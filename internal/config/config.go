package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"quiz-runner/internal/domain"
	"quiz-runner/internal/spreadsheet"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz    QuizConfig              `yaml:"quiz"`
	Logger  LoggerConfig            `yaml:"logger"`
	Layouts map[string]LayoutConfig `yaml:"layouts"`
}

// QuizConfig controls bank caching and how uploads are read.
type QuizConfig struct {
	TTL            string `yaml:"ttl"`
	Layout         string `yaml:"layout"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

type LoggerConfig struct {
	Level string `yaml:"level"`
	Env   string `yaml:"env"`
}

// LayoutConfig names spreadsheet columns by letter. Empty optional columns are absent.
type LayoutConfig struct {
	Topic            string   `yaml:"topic"`
	Question         string   `yaml:"question"`
	Options          []string `yaml:"options"`
	Marker           string   `yaml:"marker"`
	Image            string   `yaml:"image"`
	HeaderRow        *int     `yaml:"header_row"`
	RejectDuplicates bool     `yaml:"reject_duplicates"`
}

// Load reads YAML config from path. A missing file yields the zero config.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// Layout resolves a named column layout. An empty name means quiz.layout, then "standard".
// Layouts declared in the file shadow the built-in ones.
func (c Config) Layout(name string) (domain.ColumnLayout, error) {
	if name == "" {
		name = c.Quiz.Layout
	}
	if name == "" {
		name = "standard"
	}
	if lc, ok := c.Layouts[name]; ok {
		layout, err := lc.columnLayout(name)
		if err != nil {
			return domain.ColumnLayout{}, err
		}
		return layout, layout.Validate()
	}
	switch name {
	case "standard":
		return domain.StandardLayout(), nil
	case "imaged":
		return domain.ImagedLayout(), nil
	case "topical":
		return domain.TopicalLayout(), nil
	}
	return domain.ColumnLayout{}, fmt.Errorf("%w: unknown layout %q", domain.ErrInvalidLayout, name)
}

func (lc LayoutConfig) columnLayout(name string) (domain.ColumnLayout, error) {
	layout := domain.ColumnLayout{
		Name:                   name,
		RejectDuplicateOptions: lc.RejectDuplicates,
	}
	var err error
	if layout.TopicColumn, err = optionalColumn("topic", lc.Topic); err != nil {
		return layout, err
	}
	if layout.ImageColumn, err = optionalColumn("image", lc.Image); err != nil {
		return layout, err
	}
	if layout.QuestionColumn, err = requiredColumn("question", lc.Question); err != nil {
		return layout, err
	}
	if layout.CorrectMarkerColumn, err = requiredColumn("marker", lc.Marker); err != nil {
		return layout, err
	}
	if len(lc.Options) != domain.OptionCount {
		return layout, fmt.Errorf("%w: layout %q needs %d option columns, got %d",
			domain.ErrInvalidLayout, name, domain.OptionCount, len(lc.Options))
	}
	for i, col := range lc.Options {
		if layout.OptionColumns[i], err = requiredColumn("option", col); err != nil {
			return layout, err
		}
	}
	if lc.HeaderRow != nil {
		if *lc.HeaderRow < 1 {
			return layout, fmt.Errorf("%w: header_row is 1-based, got %d", domain.ErrInvalidLayout, *lc.HeaderRow)
		}
		layout.HeaderRowPresent = true
		layout.HeaderRowIndex = *lc.HeaderRow - 1
	}
	return layout, nil
}

func requiredColumn(field, letter string) (int, error) {
	if letter == "" {
		return 0, fmt.Errorf("%w: %s column not set", domain.ErrInvalidLayout, field)
	}
	idx, err := spreadsheet.ColumnIndex(letter)
	if err != nil {
		return 0, fmt.Errorf("%w: %s column %q: %v", domain.ErrInvalidLayout, field, letter, err)
	}
	return idx, nil
}

func optionalColumn(field, letter string) (int, error) {
	if letter == "" {
		return domain.NoColumn, nil
	}
	return requiredColumn(field, letter)
}
