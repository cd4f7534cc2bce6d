package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldDurationHuman = "duration_human"
	FieldUserAgent     = "user_agent"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldErrorType     = "error_type"
	FieldOperation     = "operation"
	FieldUserID        = "user_id"
	FieldRecordID      = "record_id"
	FieldCategory      = "category"
	FieldAmount        = "amount"
	FieldDescription   = "description"
	FieldAttachment    = "attachment"
	FieldSubscribers   = "subscribers"
	FieldQueue         = "queue"
	FieldSheetsRef     = "sheets_ref"
	FieldBackend       = "backend"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentForm      = "form"
	ComponentRecords   = "records"
	ComponentStorage   = "storage"
	ComponentFeed      = "feed"
	ComponentSession   = "session"
	ComponentIdentity  = "identity"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentCache     = "cache"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentBackend   = "backend"
	ComponentTemplate  = "template"
	ComponentExport    = "export"
)

// Operations defines standard operation names
const (
	OpCreate    = "create"
	OpDelete    = "delete"
	OpList      = "list"
	OpSubscribe = "subscribe"
	OpNotify    = "notify"
	OpPublish   = "publish"
	OpConsume   = "consume"
	OpMirror    = "mirror"
	OpValidate  = "validate"
	OpExport    = "export"
	OpReceipt   = "receipt"
	OpRender    = "render"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeAuth          = "auth_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeInternal      = "internal_error"
	ErrorTypeSession       = "session_error"
	ErrorTypeTemplate      = "template_error"
)

// Fields provides a builder pattern for structured log fields
type Fields []any

// NewFields creates a new Fields instance
func NewFields() Fields {
	return make(Fields, 0, 8)
}

func (f Fields) WithOperation(op string) Fields {
	return append(f, FieldOperation, op)
}

func (f Fields) WithUser(userID string) Fields {
	return append(f, FieldUserID, userID)
}

func (f Fields) WithRecordID(id string) Fields {
	return append(f, FieldRecordID, id)
}

// WithError adds error field
func (f Fields) WithError(err error) Fields {
	if err != nil {
		return append(f, FieldError, err.Error())
	}
	return f
}

// WithRecord adds the loggable parts of a record.
func (f Fields) WithRecord(id, category, description, amount string) Fields {
	return append(f,
		FieldRecordID, id,
		FieldCategory, category,
		FieldDescription, description,
		FieldAmount, amount)
}
