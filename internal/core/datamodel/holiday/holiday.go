package holiday

import "time"

type Holiday struct {
	ID        int64     `gorm:"primaryKey"`
	Date      time.Time `gorm:"column:date;type:date;uniqueIndex;not null"`
	Name      string    `gorm:"column:name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;default:now()"`
}

func (Holiday) TableName() string {
	return "holidays"
}
