// ABOUTME: Package documentation for the student-facing JSON API
// ABOUTME: Describes enrollment, bearer tokens, and content endpoints

// Package studentapi implements the JSON API consumed by the student client.
//
// Students enroll with an email, name, and class and receive an HS256 JWT
// carrying their student ID. All other endpoints require the token as a
// Bearer credential. The API serves the published subject and lesson catalog
// and records evaluation results and per-lesson progress.
package studentapi
