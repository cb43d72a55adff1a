package holiday

import (
	"time"

	"github.com/appworkspm/painai/internal/core/common/validation"
)

type CreateHolidayDTO struct {
	Date time.Time `json:"date"`
	Name string    `json:"name"`
}

func (dto CreateHolidayDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("date", dto.Date).Required()
	v.Field("name", dto.Name).Required().MaxLen(200)
	if err := v.Build(); err != nil {
		return err
	}
	return nil
}
