package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldYear       = "year"
	FieldMonth      = "month"
	FieldDays       = "days"
	FieldReadings   = "readings"
	FieldKwhTotal   = "kwh_total"
	FieldClosed     = "closed"
	FieldBackend    = "backend"
	FieldKey        = "key"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentExtract = "extract"
	ComponentReport  = "report"
	ComponentStorage = "storage"
	ComponentOctopus = "octopus"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentExport  = "export"
)

// Operations defines standard operation names
const (
	OpRead     = "read"
	OpSave     = "save"
	OpLock     = "lock"
	OpExtract  = "extract"
	OpReport   = "report"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpExport   = "export"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
