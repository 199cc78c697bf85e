package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks reference data or rule sets that failed authoring checks.
	ErrValidation = errors.New("validation failed")
	// ErrPricingInvalidInput indicates the cart supplied for pricing is malformed.
	ErrPricingInvalidInput = errors.New("pricing: invalid input")
	// ErrRecommendationInvalidInput indicates the recommendation request is malformed.
	ErrRecommendationInvalidInput = errors.New("recommendation: invalid input")
	// ErrRepositoryMissing indicates a required repository dependency is absent.
	ErrRepositoryMissing = errors.New("services: repository is not configured")
	// ErrProductNotFound indicates the requested lens product does not exist.
	ErrProductNotFound = errors.New("services: lens product not found")
)

// problemList accumulates distinct problem strings in insertion order.
type problemList struct {
	seen  map[string]struct{}
	items []string
}

func (p *problemList) addf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if p.seen == nil {
		p.seen = make(map[string]struct{})
	}
	if _, ok := p.seen[msg]; ok {
		return
	}
	p.seen[msg] = struct{}{}
	p.items = append(p.items, msg)
}

func (p *problemList) empty() bool {
	return len(p.items) == 0
}

func (p *problemList) list() []string {
	return append([]string(nil), p.items...)
}

// RuleSetValidationError lists every problem found in an offer rule set.
type RuleSetValidationError struct {
	problems []string
}

func (e *RuleSetValidationError) Error() string {
	return "offer rule set invalid: " + strings.Join(e.problems, "; ")
}

// Problems returns a copy of the problem list.
func (e *RuleSetValidationError) Problems() []string {
	return append([]string(nil), e.problems...)
}

func (e *RuleSetValidationError) Unwrap() error { return ErrValidation }

// CatalogValidationError lists every problem found in catalog reference data.
type CatalogValidationError struct {
	problems []string
}

func (e *CatalogValidationError) Error() string {
	return "catalog invalid: " + strings.Join(e.problems, "; ")
}

// Problems returns a copy of the problem list.
func (e *CatalogValidationError) Problems() []string {
	return append([]string(nil), e.problems...)
}

func (e *CatalogValidationError) Unwrap() error { return ErrValidation }

// GraphValidationError lists duplicate IDs, dangling references and cycles in a questionnaire.
type GraphValidationError struct {
	problems []string
}

func (e *GraphValidationError) Error() string {
	return "questionnaire graph invalid: " + strings.Join(e.problems, "; ")
}

// Problems returns a copy of the problem list.
func (e *GraphValidationError) Problems() []string {
	return append([]string(nil), e.problems...)
}

func (e *GraphValidationError) Unwrap() error { return ErrValidation }

// ProblemLister is implemented by every validation error in this package.
type ProblemLister interface {
	error
	Problems() []string
}
