package rowstore

// Logical table names inside the spreadsheet document.
const (
	TableJobs        = "Jobs_Master"
	TableTickets     = "Tickets"
	TablePhotos      = "Photos"
	TableAdjustments = "Stock_Adjustments"
	TableSyncLog     = "Sync_Log"
)

// tableHeaders is the fixed header row of each table, created on first use.
// Column order here is the physical cell order; the repository codec addresses
// columns by name only.
var tableHeaders = map[string][]string{
	TableTickets: {
		"ticket_id", "ticket_type", "status",
		"created_by", "created_by_role",
		"driver_id", "driver_name", "vehicle",
		"pulled_by", "verified_by", "signed_by",
		"job_id", "job_name", "job_address", "city", "state", "zip",
		"customer_name", "customer_phone", "customer_email", "project_manager",
		"materials",
		"requested_date", "requested_time", "scheduled_date", "scheduled_time",
		"priority", "special_instructions",
		"photo_ids", "signature_url",
		"assigned_gps", "verified_gps", "arrived_gps", "completed_gps",
		"return_reason", "pickup_reason", "related_ticket_id",
		"returned_materials", "return_condition",
		"flagged_for_review", "flag_reason",
		"delivery_notes", "cancel_reason", "billing_id",
		"created_at", "assigned_at", "pulled_at", "verified_at", "started_at",
		"arrived_at", "delivered_at", "completed_at", "cancelled_at", "updated_at",
	},
	TableJobs: {
		"job_id", "job_name", "customer_name", "job_address", "city", "state", "zip",
		"project_manager", "status",
		"total_deliveries", "total_pickups", "total_returns",
		"total_material_charged", "total_material_cost", "material_profit",
		"ticket_ids", "billing_ids", "invoice_ids", "photo_ids",
		"jobnimbus_id", "synced_to_jobnimbus", "last_jobnimbus_sync",
		"created_at", "updated_at",
	},
	TablePhotos: {
		"photo_id", "ticket_id", "job_id", "photo_type", "url",
		"uploaded_by", "notes", "captured_at",
	},
	TableAdjustments: {
		"adjustment_id", "product_id", "product_name",
		"previous_qty", "new_qty", "reason", "adjusted_by", "ticket_id", "created_at",
	},
	TableSyncLog: {
		"sync_log_id", "job_id", "action", "success",
		"jobnimbus_id", "error", "attempted_at",
	},
}

// Tables lists every logical table in a stable order.
func Tables() []string {
	return []string{TableJobs, TableTickets, TablePhotos, TableAdjustments, TableSyncLog}
}

// Headers returns the canonical header row for a table.
func Headers(table string) []string {
	return tableHeaders[table]
}
