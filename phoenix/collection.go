package phoenix

// ErrorCollection keeps the most severe error of a batch of device calls.
//
// Any error outranks any warning and any warning outranks success. Between
// two results of the same class the first one is kept, so the reported error
// points at the earliest failing call.
//
// The zero value is ready to use.
type ErrorCollection struct {
	worst error
	code  ErrorCode
}

// Add records the result of one call.
func (c *ErrorCollection) Add(err error) {
	code := CodeOf(err)
	if severity(code) > severity(c.code) {
		c.worst = err
		c.code = code
	}
}

// Err returns the most severe error recorded, or nil if every call succeeded.
func (c *ErrorCollection) Err() error { return c.worst }

// Code returns the ErrorCode of the most severe error recorded.
func (c *ErrorCollection) Code() ErrorCode { return c.code }

// Worst returns the most severe of errs using the ErrorCollection rules.
func Worst(errs ...error) error {
	var c ErrorCollection
	for _, err := range errs {
		c.Add(err)
	}
	return c.Err()
}

func severity(c ErrorCode) int {
	switch {
	case c < 0:
		return 2
	case c > 0:
		return 1
	default:
		return 0
	}
}
