package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSection(t *testing.T) {
	section, err := ParseSection(" Quantitative ")
	require.NoError(t, err)
	assert.Equal(t, SectionQuantitative, section)

	_, err = ParseSection("trigonometry")
	assert.Error(t, err)
}

func TestParseDifficultyDefaultsToMedium(t *testing.T) {
	difficulty, err := ParseDifficulty("")
	require.NoError(t, err)
	assert.Equal(t, DifficultyMedium, difficulty)

	difficulty, err = ParseDifficulty("HARD")
	require.NoError(t, err)
	assert.Equal(t, DifficultyHard, difficulty)

	_, err = ParseDifficulty("brutal")
	assert.Error(t, err)
}

func TestValidateNormalizesRequest(t *testing.T) {
	req := TestRequest{
		Sections: []SectionRequest{
			{Section: "Synonym", Count: 5},
			{Section: "reading", Count: 2},
		},
		Difficulty: "Easy",
	}

	require.NoError(t, req.Validate())
	assert.Equal(t, SectionSynonym, req.Sections[0].Section)
	assert.Equal(t, DifficultyEasy, req.Difficulty)
	assert.Equal(t, 7, req.TotalCount())
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name string
		req  TestRequest
	}{
		{"no sections", TestRequest{}},
		{"unknown section", TestRequest{
			Sections: []SectionRequest{{Section: "trigonometry", Count: 1}},
		}},
		{"negative count", TestRequest{
			Sections: []SectionRequest{{Section: SectionSynonym, Count: -1}},
		}},
		{"duplicate section", TestRequest{
			Sections: []SectionRequest{
				{Section: SectionSynonym, Count: 1},
				{Section: SectionSynonym, Count: 2},
			},
		}},
		{"unknown difficulty", TestRequest{
			Sections:   []SectionRequest{{Section: SectionSynonym, Count: 1}},
			Difficulty: "brutal",
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, tc.req.Validate(), ErrInvalidRequest)
		})
	}
}

func TestDayKeyIsUTC(t *testing.T) {
	// 23:30 in UTC-5 is already the next day in UTC.
	loc := time.FixedZone("UTC-5", -5*3600)
	local := time.Date(2025, 6, 1, 23, 30, 0, 0, loc)

	assert.Equal(t, "2025-06-02", DayKey(local))
	assert.Equal(t, "2025-06-01", DayKey(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)))
}

func TestSectionResultStatus(t *testing.T) {
	done := SectionResult{Granted: 5, Items: make([]Question, 5)}
	assert.Equal(t, SectionDone, done.Status())

	partial := SectionResult{Granted: 5, Items: make([]Question, 3), Error: "generation failed"}
	assert.Equal(t, SectionPartial, partial.Status())

	short := SectionResult{Granted: 5, Items: make([]Question, 3)}
	assert.Equal(t, SectionPartial, short.Status())

	failed := SectionResult{Granted: 5, Error: "generation failed"}
	assert.Equal(t, SectionFailed, failed.Status())
}

func TestJobTerminal(t *testing.T) {
	assert.False(t, JobPending.Terminal())
	assert.False(t, JobRunning.Terminal())
	assert.True(t, JobCompleted.Terminal())
	assert.True(t, JobPartial.Terminal())
	assert.True(t, JobFailed.Terminal())
	assert.True(t, JobCancelled.Terminal())
}

func TestJobCloneIsDeep(t *testing.T) {
	job := &Job{
		ID:     "j1",
		Status: JobRunning,
		Request: TestRequest{
			Sections: []SectionRequest{{Section: SectionSynonym, Count: 2}},
		},
		Sections: []SectionProgress{{Section: SectionSynonym, Status: SectionGenerating}},
		Result: []SectionResult{{
			Section:  SectionSynonym,
			Items:    []Question{{ID: "q1", Prompt: "original"}},
			Warnings: []string{"w1"},
		}},
	}

	clone := job.Clone()
	clone.Sections[0].Status = SectionDone
	clone.Result[0].Items[0].Prompt = "mutated"
	clone.Result[0].Warnings[0] = "mutated"
	clone.Request.Sections[0].Count = 99

	assert.Equal(t, SectionGenerating, job.Sections[0].Status)
	assert.Equal(t, "original", job.Result[0].Items[0].Prompt)
	assert.Equal(t, "w1", job.Result[0].Warnings[0])
	assert.Equal(t, 2, job.Request.Sections[0].Count)
}
