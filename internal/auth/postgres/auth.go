package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/appworkspm/painai/internal/auth"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetPasswordForEmail(email string) (string, int64, error) {
	var passwordHash string
	var userID int64
	query := `SELECT id, password_hash FROM users WHERE email = ? AND is_active = true AND deleted_at IS NULL`

	row := r.db.Raw(query, email).Row()
	if err := row.Scan(&userID, &passwordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", 0, fmt.Errorf("user not found")
		}
		return "", 0, err
	}
	return passwordHash, userID, nil
}

// GetUserWithPermissions loads the principal: coarse role column plus the
// permission names reachable through the user's fine-grained role grants.
func (r *Repository) GetUserWithPermissions(userID int64) (*auth.User, error) {
	var user auth.User
	var roleStr string

	query := `SELECT id, email, name, role FROM users WHERE id = ? AND is_active = true AND deleted_at IS NULL`
	row := r.db.Raw(query, userID).Row()
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &roleStr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, err
	}

	role, err := auth.ParseRole(roleStr)
	if err != nil {
		return nil, err
	}
	user.Role = role

	permQuery := `SELECT DISTINCT p.name
	             FROM permissions p
	             JOIN role_permissions rp ON p.id = rp.permission_id
	             JOIN user_roles ur ON rp.role_id = ur.role_id
	             WHERE ur.user_id = ?`

	rows, err := r.db.Raw(permQuery, userID).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var permissions []string
	for rows.Next() {
		var permName string
		if err := rows.Scan(&permName); err != nil {
			return nil, err
		}
		permissions = append(permissions, permName)
	}

	user.Permissions = permissions
	return &user, nil
}
