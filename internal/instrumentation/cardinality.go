package instrumentation

// Cardinality and PII helpers for logs and metrics.
//
// # Warning
//
// High cardinality in metrics can cause:
// - Increased memory usage in Prometheus/metrics backends
// - Slower query performance
// - Higher storage costs
//
// Never record phone numbers as metric labels.

// MaskPhone keeps the first four and last three digits of a phone number
// and replaces the rest with '*'.
//
// Example:
//
//	MaskPhone("254712345678")  // "2547*****678"
//	MaskPhone("0712")          // "****"
//	MaskPhone("")              // ""
func MaskPhone(phone string) string {
	const keepHead, keepTail = 4, 3
	if phone == "" {
		return ""
	}

	runes := []rune(phone)
	if len(runes) <= keepHead+keepTail {
		masked := make([]rune, len(runes))
		for i := range masked {
			masked[i] = '*'
		}
		return string(masked)
	}

	for i := keepHead; i < len(runes)-keepTail; i++ {
		runes[i] = '*'
	}
	return string(runes)
}

// Backend operation names used for spans and metrics.
// Status, credential result and Service constants are defined in config.go.
const (
	OperationGenerateToken     = "generate_token"
	OperationSTKPush           = "stk_push"
	OperationGenerateQR        = "generate_qr"
	OperationCreateSource      = "create_source"
	OperationCreateDestination = "create_destination"
	OperationCreateWorkflow    = "create_workflow"
	OperationRunWorkflow       = "run_workflow"
	OperationGetWorkflow       = "get_workflow"
	OperationListDocuments     = "list_documents"
	OperationListObjects       = "list_objects"
)
