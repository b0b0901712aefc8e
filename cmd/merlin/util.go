package main

import (
	"fmt"
	"os"
)

// Use a wrapper to differentiate logged panics from unexpected ones.
type LoggedError struct{ error }

func panicOnError(err error, msg string) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abort: %s: %s\n", msg, err)
		panic(LoggedError{err})
	}
}

func abortf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	panic(LoggedError{fmt.Errorf(format, args...)})
}
