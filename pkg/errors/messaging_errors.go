package errors

var (
	// Domain errors shared across the messaging service.
	ErrMessagingDisabled      = Disabled("messaging is disabled on this site")
	ErrUserNotFound           = InvalidUser("user does not exist")
	ErrUserDeleted            = InvalidUser("user has been deleted")
	ErrConversationNotFound   = NotFound("conversation does not exist")
	ErrMessageNotFound        = NotFound("message does not exist")
	ErrNotificationNotFound   = NotFound("notification does not exist")
	ErrContactRequestNotFound = NotFound("contact request does not exist")
	ErrNotConversationMember  = InvalidArg("user is not a member of the conversation")
	ErrEmptySearchQuery       = InvalidArg("search query cannot be empty")
	ErrSelfReference          = InvalidArg("operation cannot target the acting user itself")
	ErrUserBlocked            = Blocked("recipient has blocked the sender")
	ErrCannotMessageUser      = InvalidOperation("user cannot be messaged")
)
