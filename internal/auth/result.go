// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SoftwareVeterinaria Contributors

package auth

// ErrorCode names an expected business failure of a use case.
type ErrorCode string

// Business error codes returned by the use cases.
const (
	CodeEmailInUse         ErrorCode = "EMAIL_IN_USE"
	CodeEmailInvalid       ErrorCode = "EMAIL_INVALID"
	CodeWeakPassword       ErrorCode = "WEAK_PASSWORD"
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
)

// String returns the wire form of the code.
func (c ErrorCode) String() string {
	return string(c)
}

// Result is the outcome of a use case: either a value or an ErrorCode.
type Result[T any] struct {
	value T
	code  ErrorCode
	ok    bool
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v, ok: true}
}

// Fail builds a failed result carrying code.
func Fail[T any](code ErrorCode) Result[T] {
	return Result[T]{code: code}
}

// OK reports whether the result holds a value.
func (r Result[T]) OK() bool {
	return r.ok
}

// Value returns the success value, or the zero value of T on failure.
func (r Result[T]) Value() T {
	return r.value
}

// Code returns the failure code, or "" on success.
func (r Result[T]) Code() ErrorCode {
	return r.code
}
