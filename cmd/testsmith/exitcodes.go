package main

// Exit codes for the testsmith CLI.
const (
	ExitOK          = 0 // Every requested file was generated.
	ExitInvalidArgs = 1 // Bad arguments, missing input, or missing credential.
	ExitGeneration  = 2 // The API call or response post-processing failed.
)

// exitCodeError carries a specific process exit code up to main.
type exitCodeError struct {
	code int
	msg  string
}

func (e *exitCodeError) Error() string { return e.msg }
