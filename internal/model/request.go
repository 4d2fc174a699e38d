package model

import (
	"fmt"
)

// SectionRequest specifies the desired item count for one section of a test
type SectionRequest struct {
	Section    Section `json:"section" bson:"section"`
	Subsection string  `json:"subsection,omitempty" bson:"subsection,omitempty"`
	Count      int     `json:"count" bson:"count"`
}

// TestRequest is the submitted test specification: an ordered list of
// sections with per-section counts, a difficulty, and a format flag.
type TestRequest struct {
	Sections   []SectionRequest `json:"sections" bson:"sections"`
	Difficulty Difficulty       `json:"difficulty" bson:"difficulty"`
	Official   bool             `json:"official" bson:"official"`
}

// Validate validates request shape. Upstream enforces max bounds; this
// layer only rejects structurally invalid requests.
func (tr *TestRequest) Validate() error {
	if len(tr.Sections) == 0 {
		return fmt.Errorf("%w: at least one section is required", ErrInvalidRequest)
	}

	seen := make(map[Section]bool, len(tr.Sections))
	for i := range tr.Sections {
		section, err := ParseSection(string(tr.Sections[i].Section))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		tr.Sections[i].Section = section

		if tr.Sections[i].Count < 0 {
			return fmt.Errorf("%w: negative count for section %s", ErrInvalidRequest, section)
		}
		if seen[section] {
			return fmt.Errorf("%w: duplicate section %s", ErrInvalidRequest, section)
		}
		seen[section] = true
	}

	difficulty, err := ParseDifficulty(string(tr.Difficulty))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	tr.Difficulty = difficulty

	return nil
}

// TotalCount returns the sum of requested counts across all sections
func (tr *TestRequest) TotalCount() int {
	total := 0
	for _, s := range tr.Sections {
		total += s.Count
	}
	return total
}
