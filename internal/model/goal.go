package model

import "time"

// Goal statuses.
const (
	GoalActive    = "active"
	GoalCompleted = "completed"
	GoalArchived  = "archived"
)

// Goal is a tracked objective broken down into milestones.
type Goal struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      string          `gorm:"index;size:64" json:"userId"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Category    string          `gorm:"index" json:"category,omitempty"`
	Status      string          `gorm:"default:active;index" json:"status"`
	TargetDate  *time.Time      `json:"targetDate,omitempty"`
	Progress    int             `gorm:"default:0" json:"progress"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
	Milestones  []GoalMilestone `gorm:"foreignKey:GoalID" json:"milestones"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// GoalMilestone is a single step toward a goal.
type GoalMilestone struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	GoalID      uint       `gorm:"index" json:"goalId"`
	Title       string     `json:"title"`
	Completed   bool       `gorm:"default:false" json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Position    int        `json:"position"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
