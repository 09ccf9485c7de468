// Package domain contains the core domain model for the application.
//
// This package defines:
//   - CORSPolicy: the cross-origin policy, built once at startup
//   - CORSRequest / CORSDecision: the input and output of policy evaluation
//   - Domain Errors: validation and policy construction errors
//
// Rules for this package:
//   - No external dependencies except the standard library
//   - No infrastructure concerns (database, HTTP routing, etc.)
//   - Values are immutable once handed to the evaluator
package domain
