package constants

// Static route constants
const (
	PublicRoute        = "/"
	LoginRoute         = "/login"
	RegisterRoute      = "/register"
	LogoutRoute        = "/logout"
	ProvidersRoute     = "/providers"
	BookingsRoute      = "/bookings"
	ConversationsRoute = "/conversations"
	BillingRoute       = "/billing"
	AdminRoute         = "/admin"
)
