package model

import (
	"fmt"
	"strings"
)

// Section identifies a category of test content
type Section string

const (
	SectionQuantitative Section = "quantitative"
	SectionAnalogy      Section = "analogy"
	SectionSynonym      Section = "synonym"
	SectionReading      Section = "reading"
	SectionWriting      Section = "writing"
)

// AllSections lists every known section in canonical order
var AllSections = []Section{
	SectionQuantitative,
	SectionAnalogy,
	SectionSynonym,
	SectionReading,
	SectionWriting,
}

// ParseSection validates and normalizes a section identifier
func ParseSection(s string) (Section, error) {
	section := Section(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllSections {
		if section == known {
			return section, nil
		}
	}
	return "", fmt.Errorf("unknown section: %s", s)
}

// IsComposite reports whether the section's generation unit is a passage
// group rather than a single question. For composite sections "count"
// counts passages, not raw questions.
func (s Section) IsComposite() bool {
	return s == SectionReading
}

// Difficulty represents the requested difficulty level
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty validates and normalizes a difficulty level
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case DifficultyEasy:
		return DifficultyEasy, nil
	case DifficultyMedium, "":
		return DifficultyMedium, nil
	case DifficultyHard:
		return DifficultyHard, nil
	default:
		return "", fmt.Errorf("unknown difficulty: %s", s)
	}
}
