package template

import "time"

// GoalTemplate is a reusable goal definition maintained per tenant. Drafts
// import templates as ordinary goals; edits to the catalog never touch
// goals already copied out.
type GoalTemplate struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Importance        string    `json:"importance"`
	PerformanceFactor string    `json:"performanceFactor"`
	DefaultWeightage  int       `json:"defaultWeightage"`
	Categories        []string  `json:"categories"`
	CreatedAt         time.Time `json:"createdAt"`
}
