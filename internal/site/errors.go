package site

import "errors"

var (
	// ErrNavigationAssertion is wrapped when the browser is not where a flow
	// expects it to be.
	ErrNavigationAssertion = errors.New("navigation assertion failed")
	// ErrAggregation is wrapped when the highest-rated scan cannot produce a
	// result set.
	ErrAggregation = errors.New("listing aggregation failed")
	// ErrInvalidArgument is wrapped when a page object is called with input
	// the site can never accept.
	ErrInvalidArgument = errors.New("invalid argument")
)
