package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initGorm(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		if clearData {
			clearSeedData(db)
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), cfg.Security.BCryptCost)

		users := []struct {
			Email string
			Name  string
			Role  string
		}{
			{"somchai@painai.dev", "Somchai Dev", "USER"},
			{"nok@painai.dev", "Nok Manager", "MANAGER"},
			{"lek@painai.dev", "Lek Admin", "ADMIN"},
			{"prem@painai.dev", "Prem VP", "VP"},
		}

		for _, u := range users {
			var exists int
			row := db.Raw("SELECT 1 FROM users WHERE email = ?", u.Email).Row()
			if err := row.Scan(&exists); err == nil {
				fmt.Printf("user already exists: %s\n", u.Email)
				continue
			}

			if err := db.Exec("INSERT INTO users (email, name, password_hash, role, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, true, now(), now())",
				u.Email, u.Name, string(hash), u.Role).Error; err != nil {
				log.Fatalf("failed to insert user %s: %v", u.Email, err)
			}
			fmt.Printf("Seeded user: %s (%s)\n", u.Email, u.Role)
		}

		permissions := []struct {
			Name string
			Desc string
		}{
			{"approve_timesheets", "Can approve submitted timesheets"},
			{"reject_timesheets", "Can reject submitted timesheets"},
			{"view_all_timesheets", "Can view timesheets of any user"},
			{"manage_projects", "Can create, edit and delete projects"},
			{"manage_rbac", "Can manage roles and permissions"},
			{"manage_users", "Can list users and change roles"},
			{"manage_holidays", "Can manage the holiday calendar"},
		}

		for _, p := range permissions {
			var pid int64
			row := db.Raw("SELECT id FROM permissions WHERE name = ?", p.Name).Row()
			if err := row.Scan(&pid); err != nil {
				if err := db.Exec("INSERT INTO permissions (name, description, created_at) VALUES (?, ?, now())", p.Name, p.Desc).Error; err != nil {
					log.Fatalf("failed to insert permission %s: %v", p.Name, err)
				}
			}
		}

		roles := []struct {
			Name  string
			Desc  string
			Perms []string
		}{
			{"approver", "timesheet approval duties", []string{"approve_timesheets", "reject_timesheets", "view_all_timesheets"}},
			{"project_lead", "project catalog administration", []string{"manage_projects", "view_all_timesheets"}},
			{"administrator", "full administration", []string{
				"approve_timesheets", "reject_timesheets", "view_all_timesheets",
				"manage_projects", "manage_rbac", "manage_users", "manage_holidays"}},
		}

		for _, r := range roles {
			var rid int64
			row := db.Raw("SELECT id FROM roles WHERE name = ?", r.Name).Row()
			if err := row.Scan(&rid); err != nil {
				if err := db.Exec("INSERT INTO roles (name, description, created_at, updated_at) VALUES (?, ?, now(), now())", r.Name, r.Desc).Error; err != nil {
					log.Fatalf("failed to insert role %s: %v", r.Name, err)
				}
				if err := db.Raw("SELECT id FROM roles WHERE name = ?", r.Name).Row().Scan(&rid); err != nil {
					log.Fatalf("role not found after insert %s: %v", r.Name, err)
				}
			}

			for _, permName := range r.Perms {
				var pid int64
				if err := db.Raw("SELECT id FROM permissions WHERE name = ?", permName).Row().Scan(&pid); err != nil {
					log.Fatalf("permission not found %s: %v", permName, err)
				}

				var exists int
				if err := db.Raw("SELECT 1 FROM role_permissions WHERE role_id = ? AND permission_id = ?", rid, pid).Row().Scan(&exists); err == nil {
					continue
				}
				if err := db.Exec("INSERT INTO role_permissions (role_id, permission_id, created_at) VALUES (?, ?, now())", rid, pid).Error; err != nil {
					log.Fatalf("failed to link permission %s to role %s: %v", permName, r.Name, err)
				}
			}
		}

		grants := map[string]string{
			"nok@painai.dev":  "approver",
			"lek@painai.dev":  "administrator",
			"prem@painai.dev": "administrator",
		}

		for email, roleName := range grants {
			var uid, rid int64
			if err := db.Raw("SELECT id FROM users WHERE email = ?", email).Row().Scan(&uid); err != nil {
				log.Fatalf("failed to lookup user %s: %v", email, err)
			}
			if err := db.Raw("SELECT id FROM roles WHERE name = ?", roleName).Row().Scan(&rid); err != nil {
				log.Fatalf("failed to lookup role %s: %v", roleName, err)
			}

			var exists int
			if err := db.Raw("SELECT 1 FROM user_roles WHERE user_id = ? AND role_id = ?", uid, rid).Row().Scan(&exists); err == nil {
				continue
			}
			if err := db.Exec("INSERT INTO user_roles (user_id, role_id, granted_by, created_at) VALUES (?, ?, NULL, now())", uid, rid).Error; err != nil {
				log.Fatalf("failed to grant role %s to %s: %v", roleName, email, err)
			}
			fmt.Printf("Granted role %s to %s\n", roleName, email)
		}

		projects := []struct {
			JobCode string
			Name    string
			Budget  float64
		}{
			{"PAI-001", "Internal Platform", 250000},
			{"PAI-002", "Customer Portal", 480000},
		}

		for _, p := range projects {
			var exists int
			row := db.Raw("SELECT 1 FROM projects WHERE job_code = ?", p.JobCode).Row()
			if err := row.Scan(&exists); err != nil {
				if err := db.Exec("INSERT INTO projects (job_code, name, budget, status, created_at, updated_at) VALUES (?, ?, ?, 'ACTIVE', now(), now())",
					p.JobCode, p.Name, p.Budget).Error; err != nil {
					log.Fatalf("failed to insert project %s: %v", p.JobCode, err)
				}
				fmt.Printf("Seeded project: %s\n", p.JobCode)
			}
		}

		fmt.Println("Seed data loaded successfully")
	},
}

func clearSeedData(db *gorm.DB) {
	tables := []string{
		"timesheet_edit_histories",
		"timesheets",
		"activity_logs",
		"user_roles",
		"role_permissions",
		"roles",
		"permissions",
		"holidays",
		"projects",
		"users",
	}
	for _, table := range tables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			log.Fatalf("failed to clear table %s: %v", table, err)
		}
	}
	fmt.Println("Cleared existing data")
}
