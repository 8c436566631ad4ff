package models

// Student identifies a learner on a class roster.
type Student struct {
	ID      string `db:"id" json:"id"`
	Name    string `db:"full_name" json:"name"`
	ClassID string `db:"class_id" json:"class_id"`
}
