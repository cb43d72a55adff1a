package auth

import (
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/appworkspm/painai/internal"
)

var _ = ginkgo.Describe("Role", func() {
	ginkgo.Describe("ParseRole", func() {
		ginkgo.It("should accept the four known roles regardless of case", func() {
			for input, want := range map[string]Role{
				"USER":    RoleUser,
				"manager": RoleManager,
				" Admin ": RoleAdmin,
				"vp":      RoleVP,
			} {
				role, err := ParseRole(input)
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(role).To(gomega.Equal(want))
			}
		})

		ginkgo.It("should reject unknown roles instead of defaulting", func() {
			_, err := ParseRole("SUPERUSER")
			gomega.Expect(err).To(gomega.HaveOccurred())

			_, err = ParseRole("")
			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("AtLeast", func() {
		ginkgo.It("should order the hierarchy VP > ADMIN > MANAGER > USER", func() {
			gomega.Expect(RoleVP.AtLeast(RoleAdmin)).To(gomega.BeTrue())
			gomega.Expect(RoleAdmin.AtLeast(RoleManager)).To(gomega.BeTrue())
			gomega.Expect(RoleManager.AtLeast(RoleUser)).To(gomega.BeTrue())

			gomega.Expect(RoleUser.AtLeast(RoleManager)).To(gomega.BeFalse())
			gomega.Expect(RoleManager.AtLeast(RoleAdmin)).To(gomega.BeFalse())
			gomega.Expect(RoleAdmin.AtLeast(RoleVP)).To(gomega.BeFalse())
		})

		ginkgo.It("should treat every role as at least itself", func() {
			for _, r := range []Role{RoleUser, RoleManager, RoleAdmin, RoleVP} {
				gomega.Expect(r.AtLeast(r)).To(gomega.BeTrue())
			}
		})

		ginkgo.It("should rank unknown roles below everything", func() {
			gomega.Expect(Role("INTERN").AtLeast(RoleUser)).To(gomega.BeFalse())
		})
	})
})

var _ = ginkgo.Describe("Policy", func() {
	var policy *Policy

	asRole := func(role Role) *User {
		return &User{ID: 42, Email: "actor@painai.dev", Role: role}
	}

	ginkgo.BeforeEach(func() {
		policy = NewPolicy()
	})

	ginkgo.Describe("CanPerform", func() {
		ginkgo.It("should allow MANAGER and above to approve timesheets", func() {
			gomega.Expect(policy.CanPerform(asRole(RoleManager), ActionApproveTimesheet)).To(gomega.Succeed())
			gomega.Expect(policy.CanPerform(asRole(RoleAdmin), ActionApproveTimesheet)).To(gomega.Succeed())
			gomega.Expect(policy.CanPerform(asRole(RoleVP), ActionApproveTimesheet)).To(gomega.Succeed())
		})

		ginkgo.It("should deny USER rank approval-tier actions", func() {
			err := policy.CanPerform(asRole(RoleUser), ActionApproveTimesheet)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrInsufficientRank))

			err = policy.CanPerform(asRole(RoleUser), ActionViewAllTimesheets)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrInsufficientRank))
		})

		ginkgo.It("should gate administrative actions at ADMIN", func() {
			gomega.Expect(policy.CanPerform(asRole(RoleManager), ActionManageRBAC)).
				To(gomega.MatchError(internal.ErrInsufficientRank))
			gomega.Expect(policy.CanPerform(asRole(RoleAdmin), ActionManageRBAC)).To(gomega.Succeed())
			gomega.Expect(policy.CanPerform(asRole(RoleVP), ActionChangeUserRole)).To(gomega.Succeed())
		})

		ginkgo.It("should deny unregistered actions", func() {
			err := policy.CanPerform(asRole(RoleVP), Action("timesheet.export"))
			gomega.Expect(err).To(gomega.MatchError(internal.ErrUnauthorizedAccess))
		})

		ginkgo.It("should deny a nil actor", func() {
			err := policy.CanPerform(nil, ActionApproveTimesheet)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrUnauthorizedAccess))
		})

		ginkgo.It("should deny an actor carrying an unknown role", func() {
			err := policy.CanPerform(asRole(Role("INTERN")), ActionApproveTimesheet)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrUnauthorizedAccess))
		})

		ginkgo.Context("with a permission requirement registered", func() {
			ginkgo.BeforeEach(func() {
				policy.RequirePermission(ActionApproveTimesheet, "approve_timesheets")
			})

			ginkgo.It("should require rank and permission together", func() {
				manager := asRole(RoleManager)
				gomega.Expect(policy.CanPerform(manager, ActionApproveTimesheet)).
					To(gomega.MatchError(internal.ErrInsufficientRank))

				manager.Permissions = []string{"approve_timesheets"}
				gomega.Expect(policy.CanPerform(manager, ActionApproveTimesheet)).To(gomega.Succeed())
			})

			ginkgo.It("should not let the permission substitute for rank", func() {
				user := asRole(RoleUser)
				user.Permissions = []string{"approve_timesheets"}

				err := policy.CanPerform(user, ActionApproveTimesheet)
				gomega.Expect(err).To(gomega.MatchError(internal.ErrInsufficientRank))
			})
		})
	})

	ginkgo.Describe("CanActOnOwn", func() {
		ginkgo.It("should allow the owner", func() {
			gomega.Expect(policy.CanActOnOwn(asRole(RoleUser), 42)).To(gomega.Succeed())
		})

		ginkgo.It("should deny non-owners regardless of rank", func() {
			err := policy.CanActOnOwn(asRole(RoleVP), 7)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrNotOwner))
		})

		ginkgo.It("should deny a nil actor", func() {
			err := policy.CanActOnOwn(nil, 42)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrUnauthorizedAccess))
		})
	})
})
