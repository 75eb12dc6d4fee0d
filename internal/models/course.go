package models

import (
	"fmt"
	"time"
)

type VideoType string

const (
	VideoURL  VideoType = "url"  // embeddable link
	VideoFile VideoType = "file" // uploaded file reference
)

func (v VideoType) Validate() error {
	switch v {
	case VideoURL, VideoFile:
		return nil
	default:
		return fmt.Errorf("unknown video type %q", string(v))
	}
}

type QuizQuestion struct {
	ID           string   `json:"id"`
	Text         string   `json:"text" validate:"required,max=2000"`
	Options      []string `json:"options" validate:"min=2,dive,required"`
	CorrectIndex int      `json:"correctIndex" validate:"min=0"`
}

// HasValidAnswer reports whether CorrectIndex points into Options.
func (q QuizQuestion) HasValidAnswer() bool {
	return q.CorrectIndex >= 0 && q.CorrectIndex < len(q.Options)
}

type Module struct {
	ID          string         `json:"id"`
	Title       string         `json:"title" validate:"required,max=200"`
	VideoURL    string         `json:"videoUrl"`
	VideoType   VideoType      `json:"videoType" validate:"omitempty,video_type"`
	Description string         `json:"description"`
	Quiz        []QuizQuestion `json:"quiz,omitempty" validate:"omitempty,dive"`
}

// HasQuiz is true when the module carries at least one question.
func (m Module) HasQuiz() bool {
	return len(m.Quiz) > 0
}

type Course struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Category     string    `json:"category"`
	InstructorID string    `json:"instructorId"`
	Thumbnail    string    `json:"thumbnail"`
	Description  string    `json:"description"`
	Modules      []Module  `json:"modules"`
	IsDraft      bool      `json:"isDraft"`
	CreatedAt    time.Time `json:"createdAt"`
}

// FindModule returns the module with the given id.
func (c Course) FindModule(moduleID string) (Module, bool) {
	for _, m := range c.Modules {
		if m.ID == moduleID {
			return m, true
		}
	}
	return Module{}, false
}

// FindCourse resolves a weak course reference.
func FindCourse(courses []Course, id string) (Course, bool) {
	for _, c := range courses {
		if c.ID == id {
			return c, true
		}
	}
	return Course{}, false
}
