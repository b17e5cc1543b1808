// Package errors provides structured error handling with gRPC status mapping.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Policy catalog errors
	CodePhaseUnknown       Code = "NARRATIVE_PHASE_UNKNOWN"
	CodeTensionUnknown     Code = "TENSION_LEVEL_UNKNOWN"
	CodeBeatTypeUnknown    Code = "STORY_BEAT_TYPE_UNKNOWN"
	CodeStallTypeUnknown   Code = "STALL_CONDITION_TYPE_UNKNOWN"
	CodeActionTypeUnknown  Code = "CURATOR_ACTION_TYPE_UNKNOWN"
	CodeSeverityUnknown    Code = "SEVERITY_LEVEL_UNKNOWN"

	// Story beat errors
	CodeBeatEmptyLeagueID Code = "BEAT_EMPTY_LEAGUE_ID"
	CodeBeatEmptyTitle    Code = "BEAT_EMPTY_TITLE"
	CodeBeatMissingType   Code = "BEAT_MISSING_TYPE"
	CodeBeatMissingPhase  Code = "BEAT_MISSING_PHASE"
	CodeBeatSelfReference Code = "BEAT_SELF_REFERENCE"
	CodeBeatAlreadyPublished Code = "BEAT_ALREADY_PUBLISHED"

	// Story arc errors
	CodeArcEmptyLeagueID         Code = "ARC_EMPTY_LEAGUE_ID"
	CodeArcEmptyTitle            Code = "ARC_EMPTY_TITLE"
	CodeArcStatusDisallowsBeats  Code = "ARC_STATUS_DISALLOWS_BEATS"
	CodeArcInvalidTransition     Code = "ARC_INVALID_STATUS_TRANSITION"
	CodeArcStatusDisallowsPhase  Code = "ARC_STATUS_DISALLOWS_PHASE_CHANGE"
	CodeArcNoNextPhase           Code = "ARC_NO_NEXT_PHASE"
	CodeArcEmptyBeatID           Code = "ARC_EMPTY_BEAT_ID"

	// Stall condition errors
	CodeStallEmptyLeagueID   Code = "STALL_EMPTY_LEAGUE_ID"
	CodeStallMissingType     Code = "STALL_MISSING_TYPE"
	CodeStallMissingStart    Code = "STALL_MISSING_START"
	CodeStallAlreadyResolved Code = "STALL_ALREADY_RESOLVED"

	// Curator action errors
	CodeActionEmptyLeagueID      Code = "ACTION_EMPTY_LEAGUE_ID"
	CodeActionMissingType        Code = "ACTION_MISSING_TYPE"
	CodeActionEmptyDescription   Code = "ACTION_EMPTY_DESCRIPTION"
	CodeActionInvalidTransition  Code = "ACTION_INVALID_STATUS_TRANSITION"

	// Director errors
	CodeDirectorEmptyLeagueID     Code = "DIRECTOR_EMPTY_LEAGUE_ID"
	CodeDirectorInvalidTransition Code = "DIRECTOR_INVALID_STATUS_TRANSITION"
	CodeDirectorNoNextPhase      Code = "DIRECTOR_NO_NEXT_PHASE"
	CodeDirectorMissingPhase     Code = "DIRECTOR_MISSING_PHASE"
	CodeDirectorInvalidThreshold Code = "DIRECTOR_INVALID_STALL_THRESHOLD"
	CodeDirectorInvalidTarget    Code = "DIRECTOR_INVALID_TENSION_TARGET"
	CodeDirectorEmptyArcID       Code = "DIRECTOR_EMPTY_ARC_ID"
	CodeDirectorEmptyStallID     Code = "DIRECTOR_EMPTY_STALL_ID"
	CodeDirectorEmptyActionID    Code = "DIRECTOR_EMPTY_ACTION_ID"

	// Storage errors
	CodeNotFound        Code = "NOT_FOUND"
	CodeVersionConflict Code = "VERSION_CONFLICT"
	CodeAlreadyExists   Code = "ALREADY_EXISTS"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodePhaseUnknown,
		CodeTensionUnknown,
		CodeBeatTypeUnknown,
		CodeStallTypeUnknown,
		CodeActionTypeUnknown,
		CodeSeverityUnknown,
		CodeBeatEmptyLeagueID,
		CodeBeatEmptyTitle,
		CodeBeatMissingType,
		CodeBeatMissingPhase,
		CodeBeatSelfReference,
		CodeArcEmptyLeagueID,
		CodeArcEmptyTitle,
		CodeArcEmptyBeatID,
		CodeStallEmptyLeagueID,
		CodeStallMissingType,
		CodeStallMissingStart,
		CodeActionEmptyLeagueID,
		CodeActionMissingType,
		CodeActionEmptyDescription,
		CodeDirectorEmptyLeagueID,
		CodeDirectorMissingPhase,
		CodeDirectorInvalidThreshold,
		CodeDirectorInvalidTarget,
		CodeDirectorEmptyArcID,
		CodeDirectorEmptyStallID,
		CodeDirectorEmptyActionID:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeBeatAlreadyPublished,
		CodeArcStatusDisallowsBeats,
		CodeArcInvalidTransition,
		CodeArcStatusDisallowsPhase,
		CodeArcNoNextPhase,
		CodeStallAlreadyResolved,
		CodeActionInvalidTransition,
		CodeDirectorInvalidTransition,
		CodeDirectorNoNextPhase:
		return codes.FailedPrecondition

	// NotFound - resource doesn't exist
	case CodeNotFound:
		return codes.NotFound

	// Aborted - concurrent writer won the version race
	case CodeVersionConflict:
		return codes.Aborted

	// AlreadyExists - unique resource constraint
	case CodeAlreadyExists:
		return codes.AlreadyExists

	default:
		return codes.Internal
	}
}
