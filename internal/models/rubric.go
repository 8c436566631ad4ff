package models

import "fmt"

// RubricLevel is one achievement tier within a criterion.
type RubricLevel struct {
	Level       int     `db:"level" json:"level"`
	Percentage  float64 `db:"percentage" json:"percentage"`
	Description string  `db:"description" json:"description,omitempty"`
}

// RubricCriterion is one assessed dimension of a rubric.
type RubricCriterion struct {
	Name   string        `json:"name"`
	Levels []RubricLevel `json:"levels"`
}

// Rubric is an immutable scoring template. Loaders build it once and
// call Validate; the scoring path only reads it.
type Rubric struct {
	ID       string            `db:"id" json:"id"`
	Name     string            `db:"name" json:"name"`
	Criteria []RubricCriterion `json:"criteria"`
}

// RubricSelection maps criterion name to the chosen level number.
type RubricSelection map[string]int

// Clone returns an independent copy of the selection.
func (s RubricSelection) Clone() RubricSelection {
	out := make(RubricSelection, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// CriteriaCount returns the number of criteria.
func (r *Rubric) CriteriaCount() int {
	if r == nil {
		return 0
	}
	return len(r.Criteria)
}

// ListCriteria returns the criteria in rubric order. The slice is a copy.
func (r *Rubric) ListCriteria() []RubricCriterion {
	if r == nil {
		return nil
	}
	out := make([]RubricCriterion, len(r.Criteria))
	for i, c := range r.Criteria {
		levels := make([]RubricLevel, len(c.Levels))
		copy(levels, c.Levels)
		out[i] = RubricCriterion{Name: c.Name, Levels: levels}
	}
	return out
}

// MaxLevel returns the highest level defined for the criterion.
func (r *Rubric) MaxLevel(criterion string) (int, bool) {
	c, ok := r.criterion(criterion)
	if !ok || len(c.Levels) == 0 {
		return 0, false
	}
	max := c.Levels[0].Level
	for _, l := range c.Levels[1:] {
		if l.Level > max {
			max = l.Level
		}
	}
	return max, true
}

// Level looks up a level definition on a criterion.
func (r *Rubric) Level(criterion string, level int) (RubricLevel, bool) {
	c, ok := r.criterion(criterion)
	if !ok {
		return RubricLevel{}, false
	}
	for _, l := range c.Levels {
		if l.Level == level {
			return l, true
		}
	}
	return RubricLevel{}, false
}

func (r *Rubric) criterion(name string) (RubricCriterion, bool) {
	if r == nil {
		return RubricCriterion{}, false
	}
	for _, c := range r.Criteria {
		if c.Name == name {
			return c, true
		}
	}
	return RubricCriterion{}, false
}

// Validate enforces rubric integrity: unique criterion names, levels
// strictly increasing from 1, percentages in (0,1] and non-decreasing.
func (r *Rubric) Validate() error {
	if r == nil {
		return fmt.Errorf("rubric is nil")
	}
	seen := make(map[string]struct{}, len(r.Criteria))
	for _, c := range r.Criteria {
		if c.Name == "" {
			return fmt.Errorf("rubric %s: criterion name required", r.ID)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("rubric %s: duplicate criterion %q", r.ID, c.Name)
		}
		seen[c.Name] = struct{}{}
		if len(c.Levels) == 0 {
			return fmt.Errorf("rubric %s: criterion %q has no levels", r.ID, c.Name)
		}
		for i, l := range c.Levels {
			if l.Level != i+1 {
				return fmt.Errorf("rubric %s: criterion %q level %d out of sequence", r.ID, c.Name, l.Level)
			}
			if l.Percentage <= 0 || l.Percentage > 1 {
				return fmt.Errorf("rubric %s: criterion %q level %d percentage %v outside (0,1]", r.ID, c.Name, l.Level, l.Percentage)
			}
			if i > 0 && l.Percentage < c.Levels[i-1].Percentage {
				return fmt.Errorf("rubric %s: criterion %q level %d percentage decreases", r.ID, c.Name, l.Level)
			}
		}
	}
	return nil
}
