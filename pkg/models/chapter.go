package models

// ChapterStatus represents the state of one chapter in chapter-based generation.
type ChapterStatus string

const (
	ChapterStatusPending    ChapterStatus = "pending"
	ChapterStatusOutlining  ChapterStatus = "outlining"
	ChapterStatusInProgress ChapterStatus = "in_progress"
	ChapterStatusCompleted  ChapterStatus = "completed"
	ChapterStatusFailed     ChapterStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s ChapterStatus) Valid() bool {
	switch s {
	case ChapterStatusPending, ChapterStatusOutlining, ChapterStatusInProgress,
		ChapterStatusCompleted, ChapterStatusFailed:
		return true
	default:
		return false
	}
}

// ChapterOutline is the planned shape of one chapter.
type ChapterOutline struct {
	Index     int      `json:"index"`
	Title     string   `json:"title"`
	Summary   string   `json:"summary,omitempty"`
	KeyPoints []string `json:"key_points,omitempty"`
}

// ChapterContent tracks generation of one outlined chapter.
type ChapterContent struct {
	Outline      ChapterOutline `json:"outline"`
	Status       ChapterStatus  `json:"status"`
	Content      string         `json:"content,omitempty"`
	Error        string         `json:"error,omitempty"`
	Attempts     int            `json:"attempts"`
	QualityScore int            `json:"quality_score,omitempty"`
	Provider     string         `json:"provider,omitempty"`
}
