// pkg/core/result.go
package core

import "fmt"

// FailCode is the stable machine-readable failure taxonomy for check-in
// operations. Messages layered on top are locale-specific and free to change;
// codes are not.
type FailCode string

const (
	FailGameEnded           FailCode = "GAME_ENDED"
	FailAccuracyTooBad      FailCode = "ACCURACY_TOO_BAD"
	FailNoSpot              FailCode = "NO_SPOT"
	FailInTrain             FailCode = "IN_TRAIN"
	FailJRDisabled          FailCode = "JR_DISABLED"
	FailCooldown            FailCode = "COOLDOWN"
	FailAlreadyBoarded      FailCode = "ALREADY_BOARDED"
	FailNoStation           FailCode = "NO_STATION"
	FailNotBoarded          FailCode = "NOT_BOARDED"
	FailSameStation         FailCode = "SAME_STATION"
	FailBoardStationUnknown FailCode = "BOARD_STATION_UNKNOWN"
	FailNotAtGoal           FailCode = "NOT_AT_GOAL"
)

// CheckInError is a typed engine failure. Failures never mutate progress;
// the caller's stored snapshot remains valid.
type CheckInError struct {
	Code    FailCode
	Message string
}

func (e *CheckInError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Fail builds a CheckInError with a formatted message.
func Fail(code FailCode, format string, args ...any) *CheckInError {
	return &CheckInError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CheckInKind tells the caller what a successful operation resolved to.
type CheckInKind string

const (
	KindSpot   CheckInKind = "SPOT"
	KindCP     CheckInKind = "CP"
	KindBoard  CheckInKind = "BOARD"
	KindAlight CheckInKind = "ALIGHT"
	KindGoal   CheckInKind = "GOAL"
)

// CheckInResult is the success side of every engine operation: the kind of
// transition, a display message, and the brand-new progress snapshot.
type CheckInResult struct {
	Kind     CheckInKind  `json:"kind"`
	Message  string       `json:"message"`
	Progress GameProgress `json:"progress"`
}
