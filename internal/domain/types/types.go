// Package types contains common types used across the application
package types

// Entry is one line of the student ranking, ordered by average score.
type Entry struct {
	Rank      int     `json:"rank"`
	StudentID string  `json:"student_id"`
	Average   float64 `json:"average"`
}

// SkillScore pairs a rubric field with a score.
type SkillScore struct {
	Field string  `json:"field"`
	Score float64 `json:"score"`
}
