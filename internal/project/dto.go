package project

import (
	"time"

	"github.com/appworkspm/painai/internal/core/common/validation"
)

type CreateProjectDTO struct {
	JobCode      string     `json:"job_code"`
	Name         string     `json:"name"`
	CustomerName string     `json:"customer_name"`
	Budget       float64    `json:"budget"`
	PaymentTerm  string     `json:"payment_term"`
	Status       string     `json:"status"`
	ManagerID    *int64     `json:"manager_id"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
}

func (dto CreateProjectDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("job_code", dto.JobCode).Required().MaxLen(50)
	v.Field("name", dto.Name).Required().MaxLen(200)
	v.Field("customer_name", dto.CustomerName).MaxLen(200)
	v.Field("budget", dto.Budget).NonNegative()
	v.Field("status", dto.Status).OneOf(AllStatuses()...)
	if err := v.Build(); err != nil {
		return err
	}
	return nil
}

// UpdateProjectDTO is a sparse patch: nil fields are left untouched.
type UpdateProjectDTO struct {
	Name         *string    `json:"name,omitempty"`
	CustomerName *string    `json:"customer_name,omitempty"`
	Budget       *float64   `json:"budget,omitempty"`
	PaymentTerm  *string    `json:"payment_term,omitempty"`
	Status       *string    `json:"status,omitempty"`
	ManagerID    *int64     `json:"manager_id,omitempty"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
}

func (dto UpdateProjectDTO) Validate() error {
	v := validation.NewValidator()
	if dto.Name != nil {
		v.Field("name", *dto.Name).Required().MaxLen(200)
	}
	if dto.CustomerName != nil {
		v.Field("customer_name", *dto.CustomerName).MaxLen(200)
	}
	if dto.Budget != nil {
		v.Field("budget", *dto.Budget).NonNegative()
	}
	if dto.Status != nil {
		v.Field("status", *dto.Status).Required().OneOf(AllStatuses()...)
	}
	if err := v.Build(); err != nil {
		return err
	}
	return nil
}

type ListFilter struct {
	Status    string
	ManagerID int64
	Search    string
	Page      int
	Limit     int
}

func (f *ListFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
}

func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type ListResult struct {
	Projects []*Project `json:"projects"`
	Total    int64      `json:"total"`
	Page     int        `json:"page"`
	Limit    int        `json:"limit"`
}
