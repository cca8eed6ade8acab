package api

// Public user endpoints
const (
	Register      = "/api/register"
	CheckUsername = "/api/check-username"
	Login         = "/api/login"
	AdminLogin    = "/api/admin/login"
)

// User-token endpoints
const (
	Logout = "/api/logout"
	Me     = "/api/me"
)

// Admin-token endpoints, relative to /api/admin
const (
	AdminUsers          = "/users"
	AdminUserApprove    = "/users/{id}/approve"
	AdminUserDeactivate = "/users/{id}/deactivate"
	AdminUserReactivate = "/users/{id}/reactivate"
	AdminExpirySetting  = "/settings/expiry"
	AdminAdmins         = "/admins"
	AdminAdmin          = "/admins/{id}"
)

// Operational endpoints
const (
	Healthz = "/healthz"
	Readyz  = "/readyz"
	Metrics = "/metrics"
)
