package holiday

import (
	"time"

	holidaymodel "github.com/appworkspm/painai/internal/core/datamodel/holiday"
)

// Holiday marks a company-wide non-working day. The calendar is consulted
// by timesheet entry clients; it does not block entry server-side.
type Holiday struct {
	ID        int64     `json:"id"`
	Date      time.Time `json:"date"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func FromDataModel(dm *holidaymodel.Holiday) *Holiday {
	return &Holiday{
		ID:        dm.ID,
		Date:      dm.Date,
		Name:      dm.Name,
		CreatedAt: dm.CreatedAt,
	}
}

func FromDataModelSlice(dms []*holidaymodel.Holiday) []*Holiday {
	holidays := make([]*Holiday, 0, len(dms))
	for _, dm := range dms {
		holidays = append(holidays, FromDataModel(dm))
	}
	return holidays
}
