// Package errors provides the classified error type used across rulesweb.
//
// Errors carry a category (what failed), a severity (how bad it is for the
// current request) and free-form context. The render path relies on the
// category to tell fatal content failures apart from cache failures that are
// swallowed into "treat as miss" or "skip persistence".
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryContent, "raw content unavailable").
//		Fatal().
//		WithContext("kind", "main").
//		Build()
package errors
