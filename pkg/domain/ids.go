// Package domain defines the typed identifiers shared across the assessment
// core. Wrapping uuid.UUID (or int64 for reference data keyed by stable
// integers) prevents cross-type assignment at compile time.
package domain

import (
	"strconv"

	"github.com/google/uuid"

	dErrors "sglgb/pkg/domain-errors"
)

// UUID-backed entity identifiers.
type (
	// AssessmentID identifies one assessment aggregate.
	AssessmentID uuid.UUID

	// ResponseID identifies one indicator response within an assessment.
	ResponseID uuid.UUID

	// EvidenceID identifies one evidence file reference.
	EvidenceID uuid.UUID

	// UserID identifies an actor (BLGU submitter, assessor, validator, admin).
	UserID uuid.UUID
)

// Integer-keyed reference identifiers. Indicator definitions and BBI
// groupings are seeded reference data keyed by stable integer ids so the
// hierarchy can use plain parent references instead of code pattern matching.
type (
	// IndicatorID identifies one indicator definition node.
	IndicatorID int64

	// FieldSpecID identifies one field within an indicator definition.
	FieldSpecID int64

	// AreaID identifies a governance area.
	AreaID int32

	// BBIID identifies a barangay-based institution grouping.
	BBIID int64
)

func (id AssessmentID) String() string { return uuid.UUID(id).String() }
func (id ResponseID) String() string   { return uuid.UUID(id).String() }
func (id EvidenceID) String() string   { return uuid.UUID(id).String() }
func (id UserID) String() string       { return uuid.UUID(id).String() }

func (id AssessmentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ResponseID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id EvidenceID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }

func (id IndicatorID) String() string { return strconv.FormatInt(int64(id), 10) }
func (id FieldSpecID) String() string { return strconv.FormatInt(int64(id), 10) }
func (id AreaID) String() string      { return strconv.FormatInt(int64(id), 10) }
func (id BBIID) String() string       { return strconv.FormatInt(int64(id), 10) }

// Text marshalling keeps uuid-backed ids readable in JSON payloads and logs.
func (id AssessmentID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id ResponseID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id EvidenceID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id UserID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }

func (id *AssessmentID) UnmarshalText(raw []byte) error {
	parsed, err := uuid.Parse(string(raw))
	if err != nil {
		return err
	}
	*id = AssessmentID(parsed)
	return nil
}

func (id *ResponseID) UnmarshalText(raw []byte) error {
	parsed, err := uuid.Parse(string(raw))
	if err != nil {
		return err
	}
	*id = ResponseID(parsed)
	return nil
}

func (id *EvidenceID) UnmarshalText(raw []byte) error {
	parsed, err := uuid.Parse(string(raw))
	if err != nil {
		return err
	}
	*id = EvidenceID(parsed)
	return nil
}

func (id *UserID) UnmarshalText(raw []byte) error {
	parsed, err := uuid.Parse(string(raw))
	if err != nil {
		return err
	}
	*id = UserID(parsed)
	return nil
}

// NewAssessmentID returns a fresh random assessment id.
func NewAssessmentID() AssessmentID { return AssessmentID(uuid.New()) }

// NewResponseID returns a fresh random response id.
func NewResponseID() ResponseID { return ResponseID(uuid.New()) }

// NewEvidenceID returns a fresh random evidence id.
func NewEvidenceID() EvidenceID { return EvidenceID(uuid.New()) }

// NewUserID returns a fresh random user id.
func NewUserID() UserID { return UserID(uuid.New()) }

// parseUUID enforces the trust-boundary invariant: ids must be valid,
// non-empty, non-nil UUIDs.
func parseUUID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid id format")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil uuid")
	}
	return parsed, nil
}

// ParseAssessmentID parses and validates an assessment id.
func ParseAssessmentID(raw string) (AssessmentID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return AssessmentID{}, err
	}
	return AssessmentID(parsed), nil
}

// ParseResponseID parses and validates a response id.
func ParseResponseID(raw string) (ResponseID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return ResponseID{}, err
	}
	return ResponseID(parsed), nil
}

// ParseUserID parses and validates a user id.
func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return UserID{}, err
	}
	return UserID(parsed), nil
}

// ParseIndicatorID parses a stable integer indicator id.
func ParseIndicatorID(raw string) (IndicatorID, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "indicator id must be a positive integer")
	}
	return IndicatorID(n), nil
}
