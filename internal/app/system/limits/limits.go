// internal/app/system/limits/limits.go
package limits

// Request size limits for the REST and socket surfaces.
const (
	// MaxShareBody is the largest accepted body for a single grant.
	MaxShareBody = 16 << 10 // 16 KB

	// MaxBulkBody is the largest accepted body for a bulk revocation.
	MaxBulkBody = 256 << 10 // 256 KB

	// MaxBulkRevocations caps the pairs processed by one bulk revocation.
	MaxBulkRevocations = 200

	// DefaultMaxMessageBytes bounds one inbound socket frame when the
	// configured value is unset.
	DefaultMaxMessageBytes = 1 << 20 // 1 MB
)
