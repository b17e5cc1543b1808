package scenario

import (
	"fmt"
	"log"
)

// AssertionMode controls how expectation failures are handled.
type AssertionMode int

const (
	// AssertionStrict stops the run on the first failed expectation.
	AssertionStrict AssertionMode = iota
	// AssertionLogOnly logs failed expectations and keeps running.
	AssertionLogOnly
)

// Assertions evaluates scenario expectations under the configured mode.
type Assertions struct {
	Mode   AssertionMode
	Logger *log.Logger
}

// Failf reports an unrecoverable scenario failure regardless of mode.
func (a Assertions) Failf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}

// Assertf reports an expectation failure. In log-only mode the failure is
// logged and the run continues.
func (a Assertions) Assertf(format string, args ...any) error {
	if a.Mode == AssertionLogOnly {
		if a.Logger != nil {
			a.Logger.Printf("expectation failed: "+format, args...)
		}
		return nil
	}
	return fmt.Errorf(format, args...)
}
