package models

import "time"

// Target is a deployable schema variant within a project (e.g. production,
// staging). Its clean identifier is unique within the project and appears in
// console route paths.
type Target struct {
	ID        string    `db:"id" json:"id"`
	ProjectID string    `db:"project_id" json:"projectId"`
	CleanID   string    `db:"clean_id" json:"cleanId"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// TargetList is an ordered sequence of targets plus the total count, scoped to
// one project. Ordering is oldest-first so switcher entries are stable.
type TargetList struct {
	Items []*Target `json:"items"`
	Total int       `json:"total"`
}

// FindByCleanID returns the target with the given clean identifier, or nil if
// the list contains no such target.
func (l *TargetList) FindByCleanID(cleanID string) *Target {
	for _, t := range l.Items {
		if t.CleanID == cleanID {
			return t
		}
	}
	return nil
}
