package services

import (
	"context"
	"errors"
)

type validationService struct {
	logger func(context.Context, string, map[string]any)
}

// NewValidationService returns the authoring-time validator. Logger may be nil.
func NewValidationService(logger func(context.Context, string, map[string]any)) ValidationService {
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &validationService{logger: logger}
}

func (s *validationService) ValidateOfferRules(ctx context.Context, rules []OfferRule) error {
	return s.report(ctx, "offer_rules", ValidateRuleSet(rules))
}

func (s *validationService) ValidateCatalog(ctx context.Context, catalog CatalogSnapshot) error {
	return s.report(ctx, "catalog", ValidateCatalog(catalog))
}

func (s *validationService) ValidateQuestionnaire(ctx context.Context, questions []Question) error {
	return s.report(ctx, "questionnaire", ValidateQuestionGraph(questions))
}

func (s *validationService) report(ctx context.Context, subject string, err error) error {
	var lister ProblemLister
	if errors.As(err, &lister) {
		s.logger(ctx, "validation_rejected", map[string]any{
			"subject":  subject,
			"problems": len(lister.Problems()),
		})
	}
	return err
}
