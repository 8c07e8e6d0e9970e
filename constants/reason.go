package constants

// Review reasons attached to rejected candidates. Reason strings are stable:
// the review UI and rescan tooling match on them exactly.
const (
	ReasonMissingCriticalField  = "missing_critical_field"
	ReasonRarityPrefixMismatch  = "rarity_prefix_mismatch"
	ReasonLowConfidence         = "low_confidence"
	ReasonSchemaValidationError = "schema_validation_error"
	ReasonLLMUnavailable        = "llm_unavailable"
	ReasonInsufficientOCR       = "insufficient_ocr"
)

// TypeConflictReason builds a namespaced cross-field consistency reason,
// e.g. "type_conflict:level_on_non_personality".
func TypeConflictReason(kind string) string {
	return "type_conflict:" + kind
}
