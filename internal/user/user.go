package user

import (
	"time"

	"github.com/appworkspm/painai/internal/auth"
	usermodel "github.com/appworkspm/painai/internal/core/datamodel/user"
)

// Profile is the public view of a user record. The password hash never
// leaves the storage layer.
type Profile struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      auth.Role `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func FromDataModel(dm *usermodel.User) *Profile {
	return &Profile{
		ID:        dm.ID,
		Email:     dm.Email,
		Name:      dm.Name,
		Role:      auth.Role(dm.Role),
		IsActive:  dm.IsActive,
		CreatedAt: dm.CreatedAt,
		UpdatedAt: dm.UpdatedAt,
	}
}

func FromDataModelSlice(dms []*usermodel.User) []*Profile {
	profiles := make([]*Profile, 0, len(dms))
	for _, dm := range dms {
		profiles = append(profiles, FromDataModel(dm))
	}
	return profiles
}
