package retry

import "context"

// Context is passed to each attempt of a retried function, it carries the attempt number alongside the parent context.
type Context struct {
	context.Context
	attempt int
}

// NewContext returns a context for the first attempt.
func NewContext(ctx context.Context) *Context {
	return &Context{Context: ctx, attempt: 1}
}

// Attempt returns the one based number of the current attempt.
func (c *Context) Attempt() int {
	return c.attempt
}
