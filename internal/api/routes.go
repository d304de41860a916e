package api

import (
	"github.com/resolveit/session-client/internal/core/domain"
	"github.com/resolveit/session-client/internal/core/service"
)

// pageRoute is one client page. A nil requirement leaves the page open.
type pageRoute struct {
	Path string
	Page string
	Req  *service.Requirement
}

func req(r service.Requirement) *service.Requirement { return &r }

// pageRoutes is the client application's route table.
func pageRoutes() []pageRoute {
	var (
		authed    = req(service.RequireAuthenticated())
		anonymous = req(service.RequireAnonymous())
		user      = req(service.RequireRoles(domain.RoleUser))
		employee  = req(service.RequireRoles(domain.RoleEmployee))
		senior    = req(service.RequireRoles(domain.RoleSeniorEmployee, domain.RoleAdmin))
		escalated = req(service.RequireRoles(domain.RoleSeniorEmployee, domain.RoleAdmin, domain.RoleEmployee))
		admin     = req(service.RequireRoles(domain.RoleAdmin))
	)

	return []pageRoute{
		{Path: "/login", Page: "login", Req: anonymous},
		{Path: "/register", Page: "register", Req: anonymous},
		{Path: "/public-complaints", Page: "public-complaints"},

		{Path: "/submit", Page: "submit-complaint", Req: authed},
		{Path: "/my-complaints", Page: "my-complaints", Req: authed},
		{Path: "/dashboard", Page: "dashboard", Req: authed},
		{Path: "/complaints/:id", Page: "complaint-detail", Req: authed},
		{Path: "/export-history", Page: "export-history", Req: authed},

		{Path: "/request-employee", Page: "request-employee", Req: user},

		{Path: "/employee/dashboard", Page: "employee-dashboard", Req: employee},
		{Path: "/employee/request-senior", Page: "request-senior", Req: employee},

		{Path: "/senior/dashboard", Page: "senior-dashboard", Req: senior},
		{Path: "/senior/escalated", Page: "escalated-complaints", Req: escalated},

		{Path: "/admin/dashboard", Page: "admin-dashboard", Req: admin},
		{Path: "/admin/complaints", Page: "admin-complaints", Req: admin},
		{Path: "/admin/employees", Page: "admin-employees", Req: admin},
		{Path: "/admin/employee-requests", Page: "employee-requests", Req: admin},
		{Path: "/admin/senior-requests", Page: "senior-requests", Req: admin},
	}
}
