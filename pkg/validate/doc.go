// Package validate holds the pure field validators used by the contact and
// quote forms. Each validator returns a Result instead of an error so callers
// can aggregate several field failures into one error map per submission.
package validate
