package project

import (
	"time"

	projectmodel "github.com/appworkspm/painai/internal/core/datamodel/project"
)

// Status follows the delivery lifecycle of a customer engagement.
type Status string

const (
	StatusActive             Status = "ACTIVE"
	StatusOnHold             Status = "ON_HOLD"
	StatusCompleted          Status = "COMPLETED"
	StatusCancelled          Status = "CANCELLED"
	StatusEscalatedToSupport Status = "ESCALATED_TO_SUPPORT"
	StatusSignedContract     Status = "SIGNED_CONTRACT"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusOnHold, StatusCompleted, StatusCancelled,
		StatusEscalatedToSupport, StatusSignedContract:
		return true
	}
	return false
}

func AllStatuses() []string {
	return []string{
		string(StatusActive), string(StatusOnHold), string(StatusCompleted),
		string(StatusCancelled), string(StatusEscalatedToSupport), string(StatusSignedContract),
	}
}

type Project struct {
	ID           int64      `json:"id"`
	JobCode      string     `json:"job_code"`
	Name         string     `json:"name"`
	CustomerName string     `json:"customer_name,omitempty"`
	Budget       float64    `json:"budget"`
	PaymentTerm  string     `json:"payment_term,omitempty"`
	Status       Status     `json:"status"`
	ManagerID    *int64     `json:"manager_id,omitempty"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (p *Project) ToDataModel() *projectmodel.Project {
	return &projectmodel.Project{
		ID:           p.ID,
		JobCode:      p.JobCode,
		Name:         p.Name,
		CustomerName: p.CustomerName,
		Budget:       p.Budget,
		PaymentTerm:  p.PaymentTerm,
		Status:       string(p.Status),
		ManagerID:    p.ManagerID,
		StartDate:    p.StartDate,
		EndDate:      p.EndDate,
	}
}

func FromDataModel(dm *projectmodel.Project) *Project {
	return &Project{
		ID:           dm.ID,
		JobCode:      dm.JobCode,
		Name:         dm.Name,
		CustomerName: dm.CustomerName,
		Budget:       dm.Budget,
		PaymentTerm:  dm.PaymentTerm,
		Status:       Status(dm.Status),
		ManagerID:    dm.ManagerID,
		StartDate:    dm.StartDate,
		EndDate:      dm.EndDate,
		CreatedAt:    dm.CreatedAt,
		UpdatedAt:    dm.UpdatedAt,
	}
}

func FromDataModelSlice(dms []*projectmodel.Project) []*Project {
	projects := make([]*Project, 0, len(dms))
	for _, dm := range dms {
		projects = append(projects, FromDataModel(dm))
	}
	return projects
}
