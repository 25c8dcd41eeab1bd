package persona

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Persona captures the companion character exposed to the frontend and the prompt builder.
type Persona struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description"`
	VoiceID     string `json:"voiceId,omitempty" yaml:"voiceId"`

	// Identity 与 Rules 分别位于情绪指令之前和之后。
	Identity string `json:"-" yaml:"identity"`
	Rules    string `json:"-" yaml:"rules"`
	// Primer 是模型在历史开头的确认回复，可为空。
	Primer string `json:"-" yaml:"primer"`

	Moods                  []string            `json:"moods" yaml:"moods"`
	MoodInstructions       map[string]string   `json:"-" yaml:"moodInstructions"`
	DefaultMoodInstruction string              `json:"-" yaml:"defaultMoodInstruction"`
	FallbackReply          string              `json:"-" yaml:"fallbackReply"`
	OfflineReplies         map[string][]string `json:"-" yaml:"offlineReplies"`
}

// MoodInstruction returns the instruction for mood. Unknown moods get the
// default instruction and ok=false.
func (p Persona) MoodInstruction(mood string) (instruction string, ok bool) {
	key := strings.ToLower(strings.TrimSpace(mood))
	if text, found := p.MoodInstructions[key]; found && strings.TrimSpace(text) != "" {
		return text, true
	}
	return p.DefaultMoodInstruction, false
}

// HasMood reports whether mood belongs to this persona's vocabulary.
func (p Persona) HasMood(mood string) bool {
	_, ok := p.MoodInstruction(mood)
	return ok
}

// Validate checks the fields the prompt builder relies on.
func (p Persona) Validate() error {
	switch {
	case strings.TrimSpace(p.ID) == "":
		return fmt.Errorf("persona without id")
	case strings.TrimSpace(p.Identity) == "":
		return fmt.Errorf("persona %s: identity is empty", p.ID)
	case strings.TrimSpace(p.DefaultMoodInstruction) == "":
		return fmt.Errorf("persona %s: defaultMoodInstruction is empty", p.ID)
	}
	for _, mood := range p.Moods {
		if _, ok := p.MoodInstructions[mood]; !ok {
			return fmt.Errorf("persona %s: mood %q has no instruction", p.ID, mood)
		}
	}
	return nil
}

//go:embed personas.yaml
var seedYAML []byte

// Seed returns the built-in personas.
func Seed() []Persona {
	items, err := Decode(seedYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded persona catalogue: %v", err))
	}
	return items
}

// LoadFile reads a persona catalogue from a YAML file.
func LoadFile(path string) ([]Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read persona file: %w", err)
	}
	return Decode(data)
}

// Decode parses and validates a YAML persona list.
func Decode(data []byte) ([]Persona, error) {
	var items []Persona
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode personas: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("persona catalogue is empty")
	}

	seen := make(map[string]struct{}, len(items))
	for _, p := range items {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("duplicate persona id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return items, nil
}
