package project

import (
	"time"

	"gorm.io/gorm"
)

type Project struct {
	ID           int64          `gorm:"primaryKey"`
	JobCode      string         `gorm:"column:job_code;uniqueIndex;not null"`
	Name         string         `gorm:"column:name;not null"`
	CustomerName string         `gorm:"column:customer_name"`
	Budget       float64        `gorm:"column:budget;type:decimal(14,2)"`
	PaymentTerm  string         `gorm:"column:payment_term"`
	Status       string         `gorm:"column:status;not null;default:ACTIVE"`
	ManagerID    *int64         `gorm:"column:manager_id"`
	StartDate    *time.Time     `gorm:"column:start_date;type:date"`
	EndDate      *time.Time     `gorm:"column:end_date;type:date"`
	CreatedAt    time.Time      `gorm:"column:created_at;default:now()"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;default:now()"`
	DeletedAt    gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Project) TableName() string {
	return "projects"
}
