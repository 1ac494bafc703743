// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldCorrelationID = "correlation_id"
	FieldRequestID     = "request_id"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Frame / decision fields
	FieldFrameID    = "frame_id"
	FieldSource     = "source"
	FieldClassID    = "class_id"
	FieldCode       = "code"
	FieldReasonCode = "reason_code"
	FieldConfidence = "confidence"
	FieldMargin     = "margin"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Path fields
	FieldPath = "path"
)
