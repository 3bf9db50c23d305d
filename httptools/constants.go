package httptools

// DefaultRequestRetries is the number of attempts made for idempotent requests which fail with a temporary error or
// a retryable status code. The per attempt client timeout is reset between attempts.
const DefaultRequestRetries = 3
