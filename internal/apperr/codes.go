package apperr

type Code string

const (
	CodeUnknown               Code = "UNKNOWN"
	CodeBadRequest            Code = "BAD_REQUEST"
	CodeUnauthenticated       Code = "UNAUTHENTICATED"
	CodeForbidden             Code = "FORBIDDEN"
	CodeInvalidProfileContext Code = "INVALID_PROFILE_CONTEXT"
	CodeInvalidParticipants   Code = "INVALID_PARTICIPANTS"
	CodeNotParticipant        Code = "NOT_PARTICIPANT"
	CodeNotMember             Code = "NOT_MEMBER"
	CodeDuplicateInvitation   Code = "DUPLICATE_INVITATION"
	CodeNotFound              Code = "NOT_FOUND"
	CodeRateLimited           Code = "RATE_LIMITED"
	CodeConflictRetryable     Code = "CONFLICT_RETRYABLE"
	CodeStoreUnavailable      Code = "STORE_UNAVAILABLE"
)
