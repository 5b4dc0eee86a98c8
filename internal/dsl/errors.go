// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dsl

import "fmt"

// InvalidArgumentError reports a spec field that failed construction-time
// validation (missing topic, negative limit).
type InvalidArgumentError struct {
	Field  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %s: %s", e.Field, e.Reason)
}

// GrammarError reports a spec value that cannot be embedded in a DSL
// string literal without corrupting the query.
type GrammarError struct {
	Field string
	Value string
}

func (e *GrammarError) Error() string {
	return fmt.Sprintf("cannot embed %s in DSL query: %q contains an unescaped quote or backslash", e.Field, e.Value)
}

// ExecutionError wraps a failure surfaced by the Analytics API client
// during Execute: network errors, authentication failures, remote query
// rejection, rate limiting.
type ExecutionError struct {
	Query string
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("executing DSL query: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
