package logging

// Standard field names, so request logs can be filtered the same way everywhere.
const (
	FieldRequestID  = "request_id"
	FieldProvider   = "provider"
	FieldModel      = "model"
	FieldOperation  = "operation"
	FieldStatus     = "status"
	FieldError      = "error"
	FieldErrorKind  = "error_kind"
	FieldDuration   = "duration_ms"
	FieldCount      = "count"
	FieldDropped    = "dropped"
	FieldInvalidID  = "invalid_id"
	FieldAttempt    = "attempt"
	FieldDelay      = "delay_ms"
	FieldCurrency   = "currency"
	FieldInputFile  = "input_file"
	FieldOutputFile = "output_file"
)
