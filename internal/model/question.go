package model

// ItemSource tells where a delivered item came from
type ItemSource string

const (
	SourcePool      ItemSource = "pool"
	SourceGenerated ItemSource = "generated"
)

// SubQuestion is one question inside a reading passage group
type SubQuestion struct {
	Prompt  string   `json:"prompt" bson:"prompt"`
	Choices []string `json:"choices" bson:"choices"`
	Answer  int      `json:"answer" bson:"answer"`
}

// Question is one deliverable content item. For composite sections
// (reading) a Question carries a passage plus its associated
// sub-questions and counts as a single item.
type Question struct {
	ID           string        `json:"id" bson:"_id,omitempty"`
	Section      Section       `json:"section" bson:"section"`
	Subsection   string        `json:"subsection,omitempty" bson:"subsection,omitempty"`
	Difficulty   Difficulty    `json:"difficulty" bson:"difficulty"`
	Prompt       string        `json:"prompt,omitempty" bson:"prompt,omitempty"`
	Choices      []string      `json:"choices,omitempty" bson:"choices,omitempty"`
	Answer       int           `json:"answer" bson:"answer"`
	Explanation  string        `json:"explanation,omitempty" bson:"explanation,omitempty"`
	Passage      string        `json:"passage,omitempty" bson:"passage,omitempty"`
	SubQuestions []SubQuestion `json:"sub_questions,omitempty" bson:"sub_questions,omitempty"`
	Source       ItemSource    `json:"source" bson:"source"`
}

// SectionResult is the assembled output for one planned section.
// Items preserves pool-items-first ordering.
type SectionResult struct {
	Section       Section    `json:"section"`
	Requested     int        `json:"requested"`
	Granted       int        `json:"granted"`
	Items         []Question `json:"items"`
	FromPool      int        `json:"from_pool"`
	FromGenerated int        `json:"from_generated"`
	Remaining     int        `json:"remaining_quota"`
	Warnings      []string   `json:"warnings,omitempty"`
	Error         string     `json:"error,omitempty"`
}

// Status derives the terminal per-section status from the delivered
// items: done when everything granted was delivered, partial when some
// content made it out, failed when nothing did.
func (sr *SectionResult) Status() SectionStatus {
	switch {
	case sr.Error != "" && len(sr.Items) == 0:
		return SectionFailed
	case sr.Error != "" || len(sr.Items) < sr.Granted:
		return SectionPartial
	default:
		return SectionDone
	}
}
