package rbac_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/appworkspm/painai/internal"
	"github.com/appworkspm/painai/internal/auth"
	"github.com/appworkspm/painai/internal/rbac"
)

func TestRBAC(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "RBAC Module Suite")
}

type mockRBACRepository struct {
	roles       map[int64]*rbac.Role
	permissions map[int64]*rbac.Permission
	rolePerms   map[int64][]int64 // roleID -> permissionIDs
	userRoles   map[int64][]int64 // userID -> roleIDs
	users       map[int64]bool
	nextID      int64
}

func newMockRBACRepository() *mockRBACRepository {
	return &mockRBACRepository{
		roles:       make(map[int64]*rbac.Role),
		permissions: make(map[int64]*rbac.Permission),
		rolePerms:   make(map[int64][]int64),
		userRoles:   make(map[int64][]int64),
		users:       map[int64]bool{1: true, 2: true},
		nextID:      1,
	}
}

func (m *mockRBACRepository) CreateRole(ctx context.Context, role *rbac.Role) error {
	for _, existing := range m.roles {
		if existing.Name == role.Name {
			return internal.NewConflictError("role name already exists", internal.ErrCodeDuplicateName)
		}
	}
	role.ID = m.nextID
	m.nextID++
	role.CreatedAt = time.Now()
	m.roles[role.ID] = role
	return nil
}

func (m *mockRBACRepository) GetRole(ctx context.Context, id int64) (*rbac.Role, error) {
	role, ok := m.roles[id]
	if !ok {
		return nil, internal.ErrRoleNotFound
	}
	return role, nil
}

func (m *mockRBACRepository) ListRoles(ctx context.Context) ([]*rbac.Role, error) {
	var roles []*rbac.Role
	for _, role := range m.roles {
		roles = append(roles, role)
	}
	return roles, nil
}

func (m *mockRBACRepository) DeleteRole(ctx context.Context, id int64) error {
	if _, ok := m.roles[id]; !ok {
		return internal.ErrRoleNotFound
	}
	delete(m.roles, id)
	delete(m.rolePerms, id)
	for userID, roleIDs := range m.userRoles {
		kept := roleIDs[:0]
		for _, rid := range roleIDs {
			if rid != id {
				kept = append(kept, rid)
			}
		}
		m.userRoles[userID] = kept
	}
	return nil
}

func (m *mockRBACRepository) CreatePermission(ctx context.Context, perm *rbac.Permission) error {
	for _, existing := range m.permissions {
		if existing.Name == perm.Name {
			return internal.NewConflictError("permission name already exists", internal.ErrCodeDuplicateName)
		}
	}
	perm.ID = m.nextID
	m.nextID++
	perm.CreatedAt = time.Now()
	m.permissions[perm.ID] = perm
	return nil
}

func (m *mockRBACRepository) GetPermission(ctx context.Context, id int64) (*rbac.Permission, error) {
	perm, ok := m.permissions[id]
	if !ok {
		return nil, internal.ErrPermissionNotFound
	}
	return perm, nil
}

func (m *mockRBACRepository) ListPermissions(ctx context.Context) ([]*rbac.Permission, error) {
	var perms []*rbac.Permission
	for _, perm := range m.permissions {
		perms = append(perms, perm)
	}
	return perms, nil
}

func (m *mockRBACRepository) AssignPermissionToRole(ctx context.Context, roleID, permissionID int64) error {
	for _, pid := range m.rolePerms[roleID] {
		if pid == permissionID {
			return internal.NewConflictError("permission already assigned", internal.ErrCodeDuplicateAssignment)
		}
	}
	m.rolePerms[roleID] = append(m.rolePerms[roleID], permissionID)
	return nil
}

func (m *mockRBACRepository) RevokePermissionFromRole(ctx context.Context, roleID, permissionID int64) error {
	for i, pid := range m.rolePerms[roleID] {
		if pid == permissionID {
			m.rolePerms[roleID] = append(m.rolePerms[roleID][:i], m.rolePerms[roleID][i+1:]...)
			return nil
		}
	}
	return internal.ErrAssignmentNotFound
}

func (m *mockRBACRepository) ListPermissionsForRole(ctx context.Context, roleID int64) ([]*rbac.Permission, error) {
	perms := make([]*rbac.Permission, 0, len(m.rolePerms[roleID]))
	for _, pid := range m.rolePerms[roleID] {
		perms = append(perms, m.permissions[pid])
	}
	return perms, nil
}

func (m *mockRBACRepository) AssignRoleToUser(ctx context.Context, userID, roleID int64, grantedBy *int64) (*rbac.Assignment, error) {
	for _, rid := range m.userRoles[userID] {
		if rid == roleID {
			return nil, internal.NewConflictError("role already assigned", internal.ErrCodeDuplicateAssignment)
		}
	}
	m.userRoles[userID] = append(m.userRoles[userID], roleID)
	m.nextID++
	return &rbac.Assignment{
		ID:        m.nextID,
		UserID:    userID,
		RoleID:    roleID,
		GrantedBy: grantedBy,
		CreatedAt: time.Now(),
	}, nil
}

func (m *mockRBACRepository) RevokeRoleFromUser(ctx context.Context, userID, roleID int64) error {
	for i, rid := range m.userRoles[userID] {
		if rid == roleID {
			m.userRoles[userID] = append(m.userRoles[userID][:i], m.userRoles[userID][i+1:]...)
			return nil
		}
	}
	return internal.ErrAssignmentNotFound
}

func (m *mockRBACRepository) ListRolesForUser(ctx context.Context, userID int64) ([]*rbac.Role, error) {
	roles := make([]*rbac.Role, 0, len(m.userRoles[userID]))
	for _, rid := range m.userRoles[userID] {
		roles = append(roles, m.roles[rid])
	}
	return roles, nil
}

func (m *mockRBACRepository) UserExists(ctx context.Context, userID int64) (bool, error) {
	return m.users[userID], nil
}

type recordedActivity struct {
	userID    *int64
	entryType string
	message   string
}

type mockActivityRecorder struct {
	entries []recordedActivity
	failErr error
}

func (m *mockActivityRecorder) Record(ctx context.Context, userID *int64, entryType, message, severity string) error {
	if m.failErr != nil {
		return m.failErr
	}
	m.entries = append(m.entries, recordedActivity{userID, entryType, message})
	return nil
}

var _ = Describe("RBACService", func() {
	var (
		service  *rbac.Service
		mockRepo *mockRBACRepository
		activity *mockActivityRecorder
		ctx      context.Context

		admin   *auth.User
		manager *auth.User
	)

	BeforeEach(func() {
		mockRepo = newMockRBACRepository()
		activity = &mockActivityRecorder{}
		service = rbac.NewService(mockRepo, auth.NewPolicy(), activity)
		ctx = context.Background()

		admin = &auth.User{ID: 1, Email: "lek@painai.dev", Role: auth.RoleAdmin}
		manager = &auth.User{ID: 2, Email: "nok@painai.dev", Role: auth.RoleManager}
	})

	Describe("CreateRole", func() {
		It("should create a role with trimmed name", func() {
			role, err := service.CreateRole(ctx, admin, rbac.CreateRoleDTO{Name: "  approver  "})

			Expect(err).NotTo(HaveOccurred())
			Expect(role.ID).To(BeNumerically(">", 0))
			Expect(role.Name).To(Equal("approver"))
		})

		It("should append an audit entry for the new role", func() {
			_, err := service.CreateRole(ctx, admin, rbac.CreateRoleDTO{Name: "approver"})

			Expect(err).NotTo(HaveOccurred())
			Expect(activity.entries).To(HaveLen(1))
			Expect(activity.entries[0].entryType).To(Equal("rbac.changed"))
			Expect(activity.entries[0].message).To(ContainSubstring("approver"))
			Expect(activity.entries[0].userID).To(HaveValue(Equal(admin.ID)))
		})

		It("should fail the mutation when the audit append fails", func() {
			activity.failErr = errors.New("activity_logs table unavailable")

			_, err := service.CreateRole(ctx, admin, rbac.CreateRoleDTO{Name: "approver"})

			Expect(err).To(MatchError(activity.failErr))
		})

		It("should deny anyone below ADMIN", func() {
			_, err := service.CreateRole(ctx, manager, rbac.CreateRoleDTO{Name: "approver"})
			Expect(err).To(MatchError(internal.ErrInsufficientRank))
		})

		It("should reject an empty name", func() {
			_, err := service.CreateRole(ctx, admin, rbac.CreateRoleDTO{Name: "   "})
			Expect(err).To(HaveOccurred())
		})

		It("should surface duplicate names as conflicts", func() {
			_, err := service.CreateRole(ctx, admin, rbac.CreateRoleDTO{Name: "approver"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.CreateRole(ctx, admin, rbac.CreateRoleDTO{Name: "approver"})

			var appErr *internal.AppError
			Expect(errors.As(err, &appErr)).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeDuplicateName))
		})
	})

	Describe("DeleteRole", func() {
		It("should delete an existing role", func() {
			role, err := service.CreateRole(ctx, admin, rbac.CreateRoleDTO{Name: "temporary"})
			Expect(err).NotTo(HaveOccurred())

			Expect(service.DeleteRole(ctx, admin, role.ID)).To(Succeed())

			_, err = service.GetRole(ctx, admin, role.ID)
			Expect(err).To(MatchError(internal.ErrRoleNotFound))
		})

		It("should return not-found for an unknown role", func() {
			err := service.DeleteRole(ctx, admin, 999)
			Expect(err).To(MatchError(internal.ErrRoleNotFound))
		})
	})

	Describe("AssignPermissionToRole", func() {
		var (
			role *rbac.Role
			perm *rbac.Permission
		)

		BeforeEach(func() {
			var err error
			role, err = service.CreateRole(ctx, admin, rbac.CreateRoleDTO{Name: "approver"})
			Expect(err).NotTo(HaveOccurred())
			perm, err = service.CreatePermission(ctx, admin, rbac.CreatePermissionDTO{Name: "approve_timesheets"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("should link an existing permission to an existing role", func() {
			err := service.AssignPermissionToRole(ctx, admin, rbac.AssignPermissionDTO{
				RoleID:       role.ID,
				PermissionID: perm.ID,
			})
			Expect(err).NotTo(HaveOccurred())

			perms, err := service.ListPermissionsForRole(ctx, admin, role.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(perms).To(HaveLen(1))
			Expect(perms[0].Name).To(Equal("approve_timesheets"))
		})

		It("should report a missing role before anything else", func() {
			err := service.AssignPermissionToRole(ctx, admin, rbac.AssignPermissionDTO{
				RoleID:       999,
				PermissionID: perm.ID,
			})
			Expect(err).To(MatchError(internal.ErrRoleNotFound))
		})

		It("should report a missing permission", func() {
			err := service.AssignPermissionToRole(ctx, admin, rbac.AssignPermissionDTO{
				RoleID:       role.ID,
				PermissionID: 999,
			})
			Expect(err).To(MatchError(internal.ErrPermissionNotFound))
		})

		It("should reject double assignment", func() {
			dto := rbac.AssignPermissionDTO{RoleID: role.ID, PermissionID: perm.ID}
			Expect(service.AssignPermissionToRole(ctx, admin, dto)).To(Succeed())

			err := service.AssignPermissionToRole(ctx, admin, dto)
			Expect(err).To(HaveOccurred())
		})

		It("should deny MANAGER rank", func() {
			err := service.AssignPermissionToRole(ctx, manager, rbac.AssignPermissionDTO{
				RoleID:       role.ID,
				PermissionID: perm.ID,
			})
			Expect(err).To(MatchError(internal.ErrInsufficientRank))
		})
	})

	Describe("RevokePermissionFromRole", func() {
		It("should return not-found when the link does not exist", func() {
			role, err := service.CreateRole(ctx, admin, rbac.CreateRoleDTO{Name: "approver"})
			Expect(err).NotTo(HaveOccurred())
			perm, err := service.CreatePermission(ctx, admin, rbac.CreatePermissionDTO{Name: "approve_timesheets"})
			Expect(err).NotTo(HaveOccurred())

			err = service.RevokePermissionFromRole(ctx, admin, role.ID, perm.ID)
			Expect(err).To(MatchError(internal.ErrAssignmentNotFound))
		})
	})

	Describe("AssignRoleToUser", func() {
		var role *rbac.Role

		BeforeEach(func() {
			var err error
			role, err = service.CreateRole(ctx, admin, rbac.CreateRoleDTO{Name: "approver"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("should record who granted the role", func() {
			assignment, err := service.AssignRoleToUser(ctx, admin, rbac.AssignRoleDTO{
				UserID: 2,
				RoleID: role.ID,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(assignment.UserID).To(Equal(int64(2)))
			Expect(assignment.GrantedBy).To(HaveValue(Equal(admin.ID)))

			roles, err := service.ListRolesForUser(ctx, admin, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(roles).To(HaveLen(1))
			Expect(roles[0].Name).To(Equal("approver"))
		})

		It("should audit the grant", func() {
			_, err := service.AssignRoleToUser(ctx, admin, rbac.AssignRoleDTO{
				UserID: 2,
				RoleID: role.ID,
			})

			Expect(err).NotTo(HaveOccurred())
			last := activity.entries[len(activity.entries)-1]
			Expect(last.entryType).To(Equal("rbac.changed"))
			Expect(last.message).To(ContainSubstring("approver"))
		})

		It("should fail the grant when the audit append fails", func() {
			activity.failErr = errors.New("insert denied")

			_, err := service.AssignRoleToUser(ctx, admin, rbac.AssignRoleDTO{
				UserID: 2,
				RoleID: role.ID,
			})

			Expect(err).To(MatchError(activity.failErr))
		})

		It("should reject an unknown user", func() {
			_, err := service.AssignRoleToUser(ctx, admin, rbac.AssignRoleDTO{
				UserID: 999,
				RoleID: role.ID,
			})
			Expect(err).To(MatchError(internal.ErrUserNotFound))
		})

		It("should reject an unknown role", func() {
			_, err := service.AssignRoleToUser(ctx, admin, rbac.AssignRoleDTO{
				UserID: 2,
				RoleID: 999,
			})
			Expect(err).To(MatchError(internal.ErrRoleNotFound))
		})
	})

	Describe("RevokeRoleFromUser", func() {
		It("should remove an existing assignment", func() {
			role, err := service.CreateRole(ctx, admin, rbac.CreateRoleDTO{Name: "approver"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.AssignRoleToUser(ctx, admin, rbac.AssignRoleDTO{UserID: 2, RoleID: role.ID})
			Expect(err).NotTo(HaveOccurred())

			Expect(service.RevokeRoleFromUser(ctx, admin, 2, role.ID)).To(Succeed())

			roles, err := service.ListRolesForUser(ctx, admin, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(roles).To(BeEmpty())
		})
	})
})
