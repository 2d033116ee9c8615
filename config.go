package portal

import "fmt"

// Policy decides what a local anchor does when it is retired while a portal
// that may have escaped its goroutine is still borrowing it.
type Policy int

const (
	// PolicyBlock blocks the retiring goroutine forever.
	PolicyBlock Policy = iota

	// PolicyAbort panics with an error wrapping ErrStillInUse.
	PolicyAbort
)

// String implements fmt.Stringer.
func (p Policy) String() string {
	switch p {
	case PolicyBlock:
		return "block"
	case PolicyAbort:
		return "abort"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// Config is the resolved set of options an anchor is created with.
type Config struct {
	// Policy applies to local anchors retired while borrowed.
	Policy Policy

	// Logger receives retirement diagnostics. It is never nil after NewConfig.
	Logger Logger

	// Confined records that every handle to the anchor stays on the goroutine
	// that created it. Local anchors enforce it on every operation, and in
	// exchange fail retirement with ErrStillInUse instead of applying Policy.
	Confined bool
}

// Option configures an anchor.
type Option func(*Config)

// WithPolicy sets the policy for retiring a borrowed local anchor.
func WithPolicy(p Policy) Option {
	return func(c *Config) { c.Policy = p }
}

// WithLogger sets the logger. A nil logger discards everything.
func WithLogger(l Logger) Option {
	return func(c *Config) {
		if l == nil {
			l = nopLogger{}
		}
		c.Logger = l
	}
}

// Confined marks the anchor as confined to the goroutine creating it.
func Confined() Option {
	return func(c *Config) { c.Confined = true }
}

// NewConfig applies the options on top of the defaults.
func NewConfig(opts ...Option) Config {
	c := Config{Policy: PolicyBlock}
	for _, opt := range opts {
		opt(&c)
	}
	if c.Logger == nil {
		c.Logger = DefaultLogger()
	}
	return c
}
