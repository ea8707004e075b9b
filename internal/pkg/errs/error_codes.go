/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific business or system errors both inside the server and in the
envelopes sent to browsers.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrFormParseFailed indicates failure to parse multipart or URL-encoded form data.
	ErrFormParseFailed = 1005

	// ErrRequestEntityTooLarge indicates that the request body size exceeded the server limit.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Message and Attachment Errors
const (
	// ErrMessageEmpty indicates a send with neither text nor a selected file.
	ErrMessageEmpty = 2201

	// ErrMessageContentTooLong indicates that the message text exceeded the maximum length.
	ErrMessageContentTooLong = 2202

	// ErrMessageSendFailed indicates that the message store rejected or could not receive the message.
	ErrMessageSendFailed = 2203

	// ErrAttachmentInvalid indicates an attachment whose name or MIME type is not accepted.
	ErrAttachmentInvalid = 2301

	// ErrFileSizeTooLarge indicates that an attachment exceeded the maximum size.
	ErrFileSizeTooLarge = 2302
)

// 3xxx: User, Session, and Security Errors
const (
	// ErrPowChallengeRequired indicates the client must complete a Proof-of-Work challenge first.
	ErrPowChallengeRequired = 3001

	// ErrPowChallengeInvalid indicates that the PoW proof provided by the client is invalid.
	ErrPowChallengeInvalid = 3002

	// ErrMissingCredentials indicates an empty or whitespace-only username or password.
	ErrMissingCredentials = 3101

	// ErrUserAlreadyExists indicates a case-insensitive username collision at registration.
	ErrUserAlreadyExists = 3102

	// ErrInvalidCredentials covers both an unknown username and a wrong password.
	ErrInvalidCredentials = 3103

	// ErrUnauthorized indicates a request without a valid session token.
	ErrUnauthorized = 3104

	// ErrInvalidAPIKey indicates a request whose apikey header does not match CHAT_STORE_KEY.
	ErrInvalidAPIKey = 3105
)

// 4xxx: Configuration Errors
const (
	// ErrStoreNotConfigured indicates that the remote store settings still hold their placeholders.
	ErrStoreNotConfigured = 4001
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrFileStorageFailed indicates that the object storage could not presign or store a file.
	ErrFileStorageFailed = 5001

	// ErrStoreUnavailable indicates that the message or credential store could not be reached.
	ErrStoreUnavailable = 5002
)
