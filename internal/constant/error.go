package constant

const (
	ERR_VALIDATION_CODE                 = "VALIDATION_ERROR"
	ERR_INVALID_REQUEST_BODY_ERROR_CODE = "INVALID_REQUEST_BODY_ERROR"
	ERR_INTERNAL_SERVER_ERROR_CODE      = "INTERNAL_SERVER_ERROR"
	ERR_INTENRAL_SERVER_ERROR_MESSAGE   = "Something went wrong. If the problem persists, please contact support"
	ERR_INVALID_REQUEST_BODY_MESSAGE    = "The request is invalid or malformed"
	ERR_NOT_FOUND_ERROR                 = "NOT_FOUND_ERROR"
	ERR_UNATHORIZED_ERROR               = "UNAUTHORIEZED_ERROR"
	ERR_MODERATION_BLOCKED_CODE         = "MODERATION_BLOCKED"
	ERR_TOO_LARGE_CODE                  = "TOO_LARGE"
	ERR_SUBMISSION_FAILED_CODE          = "SUBMISSION_FAILED"
	ERR_ACTION_IN_FLIGHT_CODE           = "ACTION_IN_FLIGHT"
)

const (
	MODERATION_GENERIC_BLOCK_MESSAGE = "Your content could not be verified and was not posted"
	MODERATION_TEXT_BLOCK_MESSAGE    = "Your comment contains language that is not allowed"
	MODERATION_MEDIA_BLOCK_MESSAGE   = "An attachment was flagged as sensitive"
)
