package contextkeys

// contextKey is an unexported type to prevent collisions with context keys defined in
// other packages.
type contextKey string

// String makes contextKey satisfy the Stringer interface to assist with debugging.
func (c contextKey) String() string {
	return "studio-cms context key " + string(c)
}

// RequestIDKey carries the X-Request-ID assigned by the requestid middleware.
const RequestIDKey = contextKey("requestID")

// AdminUserKey carries the authenticated admin username.
const AdminUserKey = contextKey("adminUser")

// CollectionKey carries the collection a request operates on.
const CollectionKey = contextKey("collection")

// ComponentKey and OperationKey are set by internal callers for log correlation.
const (
	ComponentKey = contextKey("component")
	OperationKey = contextKey("operation")
)
