package constants

const (
	ViewData           = "view_data"
	CreateProperty     = "create_property"
	DeleteProperty     = "delete_property"
	BlockQuotas        = "block_quotas"
	RequestReservation = "request_reservation"
	DecideReservation  = "decide_reservation"
	ViewLedgerEvents   = "view_ledger_events"
	CreateUser         = "create_user"
	AssignRole         = "assign_role"
	ManageAdmins       = "manage_admins"
)
