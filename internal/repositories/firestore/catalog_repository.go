package firestore

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"

	domain "github.com/lens-advisor/api/internal/domain"
	pfirestore "github.com/lens-advisor/api/internal/platform/firestore"
	"github.com/lens-advisor/api/internal/repositories"
)

const (
	lensProductsCollection   = "lens_products"
	benefitsCollection       = "benefits"
	answerBenefitsCollection = "answer_benefit_mappings"
	profileSignalsCollection = "profile_signals"
	questionsCollection      = "questions"
)

type rxRangeDocument struct {
	SphMin     float64 `firestore:"sphMin"`
	SphMax     float64 `firestore:"sphMax"`
	CylMin     float64 `firestore:"cylMin"`
	CylMax     float64 `firestore:"cylMax"`
	AddOnPrice int64   `firestore:"addOnPrice"`
}

type scoreDocument struct {
	Key   string  `firestore:"key"`
	Score float64 `firestore:"score"`
}

type lensProductDocument struct {
	Code         string            `firestore:"code"`
	Name         string            `firestore:"name"`
	BrandLine    string            `firestore:"brandLine"`
	Category     string            `firestore:"category"`
	VisionType   string            `firestore:"visionType"`
	Index        string            `firestore:"index"`
	MRP          int64             `firestore:"mrp"`
	OfferPrice   int64             `firestore:"offerPrice"`
	AddOnPrice   int64             `firestore:"addOnPrice"`
	RxRanges     []rxRangeDocument `firestore:"rxRanges"`
	Benefits     []scoreDocument   `firestore:"benefits"`
	AnswerScores []scoreDocument   `firestore:"answerScores"`
	Features     []string          `firestore:"features"`
	YOPOEligible bool              `firestore:"yopoEligible"`
	IsActive     bool              `firestore:"isActive"`
}

func (d lensProductDocument) toDomain(id string) domain.LensProduct {
	product := domain.LensProduct{
		ID:           id,
		Code:         strings.TrimSpace(d.Code),
		Name:         strings.TrimSpace(d.Name),
		BrandLine:    strings.TrimSpace(d.BrandLine),
		Category:     strings.TrimSpace(d.Category),
		VisionType:   domain.VisionType(strings.ToUpper(strings.TrimSpace(d.VisionType))),
		Index:        domain.LensIndex(strings.ToUpper(strings.TrimSpace(d.Index))),
		MRP:          d.MRP,
		OfferPrice:   d.OfferPrice,
		AddOnPrice:   d.AddOnPrice,
		Features:     d.Features,
		YOPOEligible: d.YOPOEligible,
		IsActive:     d.IsActive,
	}
	for _, r := range d.RxRanges {
		product.RxRanges = append(product.RxRanges, domain.RxRange(r))
	}
	for _, b := range d.Benefits {
		product.Benefits = append(product.Benefits, domain.ProductBenefitScore{BenefitCode: strings.TrimSpace(b.Key), Score: b.Score})
	}
	for _, a := range d.AnswerScores {
		product.AnswerScores = append(product.AnswerScores, domain.ProductAnswerScore{AnswerID: strings.TrimSpace(a.Key), Score: a.Score})
	}
	return product
}

type benefitDocument struct {
	Name        string  `firestore:"name"`
	PointWeight float64 `firestore:"pointWeight"`
	MaxScore    float64 `firestore:"maxScore"`
}

type answerBenefitDocument struct {
	AnswerID    string  `firestore:"answerId"`
	BenefitCode string  `firestore:"benefitCode"`
	Points      float64 `firestore:"points"`
}

type profileSignalDocument struct {
	AnswerID  string `firestore:"answerId"`
	Dimension string `firestore:"dimension"`
	Level     int    `firestore:"level"`
	Tag       string `firestore:"tag"`
}

type answerDocument struct {
	ID            string `firestore:"id"`
	Text          string `firestore:"text"`
	SubQuestionID string `firestore:"subQuestionId"`
}

type questionDocument struct {
	Text    string           `firestore:"text"`
	Answers []answerDocument `firestore:"answers"`
}

func (d questionDocument) toDomain(id string) domain.Question {
	question := domain.Question{ID: id, Text: d.Text}
	for _, a := range d.Answers {
		question.Answers = append(question.Answers, domain.Answer{
			ID:            strings.TrimSpace(a.ID),
			Text:          a.Text,
			SubQuestionID: strings.TrimSpace(a.SubQuestionID),
		})
	}
	return question
}

// decodeWithID decodes the snapshot into D and converts it using the document ID.
func decodeWithID[D any, T any](convert func(D, string) T) pfirestore.Decoder[T] {
	return func(snap *firestore.DocumentSnapshot) (T, error) {
		var doc D
		if err := snap.DataTo(&doc); err != nil {
			var zero T
			return zero, err
		}
		return convert(doc, snap.Ref.ID), nil
	}
}

func byDocumentID(q firestore.Query) firestore.Query {
	return q.OrderBy(firestore.DocumentID, firestore.Asc)
}

// LensProductRepository reads lens_products.
type LensProductRepository struct {
	base *pfirestore.BaseRepository[domain.LensProduct]
}

// NewLensProductRepository constructs a Firestore-backed lens product repository.
func NewLensProductRepository(provider *pfirestore.Provider) (*LensProductRepository, error) {
	if provider == nil {
		return nil, errors.New("lens product repository requires firestore provider")
	}
	decode := decodeWithID(lensProductDocument.toDomain)
	return &LensProductRepository{base: pfirestore.NewBaseRepository(provider, lensProductsCollection, decode)}, nil
}

func (r *LensProductRepository) List(ctx context.Context) ([]domain.LensProduct, error) {
	return r.base.Query(ctx, byDocumentID)
}

func (r *LensProductRepository) Get(ctx context.Context, id string) (domain.LensProduct, error) {
	return r.base.Get(ctx, strings.TrimSpace(id))
}

// BenefitRepository reads benefits keyed by benefit code.
type BenefitRepository struct {
	base *pfirestore.BaseRepository[domain.Benefit]
}

// NewBenefitRepository constructs a Firestore-backed benefit repository.
func NewBenefitRepository(provider *pfirestore.Provider) (*BenefitRepository, error) {
	if provider == nil {
		return nil, errors.New("benefit repository requires firestore provider")
	}
	decode := decodeWithID(func(d benefitDocument, id string) domain.Benefit {
		return domain.Benefit{Code: strings.ToUpper(id), Name: d.Name, PointWeight: d.PointWeight, MaxScore: d.MaxScore}
	})
	return &BenefitRepository{base: pfirestore.NewBaseRepository(provider, benefitsCollection, decode)}, nil
}

func (r *BenefitRepository) List(ctx context.Context) ([]domain.Benefit, error) {
	return r.base.Query(ctx, byDocumentID)
}

// AnswerBenefitRepository reads answer_benefit_mappings.
type AnswerBenefitRepository struct {
	base *pfirestore.BaseRepository[domain.AnswerBenefitMapping]
}

// NewAnswerBenefitRepository constructs a Firestore-backed mapping repository.
func NewAnswerBenefitRepository(provider *pfirestore.Provider) (*AnswerBenefitRepository, error) {
	if provider == nil {
		return nil, errors.New("answer benefit repository requires firestore provider")
	}
	decode := decodeWithID(func(d answerBenefitDocument, _ string) domain.AnswerBenefitMapping {
		return domain.AnswerBenefitMapping{
			AnswerID:    strings.TrimSpace(d.AnswerID),
			BenefitCode: strings.ToUpper(strings.TrimSpace(d.BenefitCode)),
			Points:      d.Points,
		}
	})
	return &AnswerBenefitRepository{base: pfirestore.NewBaseRepository(provider, answerBenefitsCollection, decode)}, nil
}

func (r *AnswerBenefitRepository) List(ctx context.Context) ([]domain.AnswerBenefitMapping, error) {
	return r.base.Query(ctx, byDocumentID)
}

// ProfileSignalRepository reads profile_signals.
type ProfileSignalRepository struct {
	base *pfirestore.BaseRepository[domain.ProfileSignal]
}

// NewProfileSignalRepository constructs a Firestore-backed profile signal repository.
func NewProfileSignalRepository(provider *pfirestore.Provider) (*ProfileSignalRepository, error) {
	if provider == nil {
		return nil, errors.New("profile signal repository requires firestore provider")
	}
	decode := decodeWithID(func(d profileSignalDocument, _ string) domain.ProfileSignal {
		return domain.ProfileSignal{
			AnswerID:  strings.TrimSpace(d.AnswerID),
			Dimension: domain.ProfileDimension(strings.ToUpper(strings.TrimSpace(d.Dimension))),
			Level:     d.Level,
			Tag:       strings.TrimSpace(d.Tag),
		}
	})
	return &ProfileSignalRepository{base: pfirestore.NewBaseRepository(provider, profileSignalsCollection, decode)}, nil
}

func (r *ProfileSignalRepository) List(ctx context.Context) ([]domain.ProfileSignal, error) {
	return r.base.Query(ctx, byDocumentID)
}

// QuestionRepository reads questions.
type QuestionRepository struct {
	base *pfirestore.BaseRepository[domain.Question]
}

// NewQuestionRepository constructs a Firestore-backed questionnaire repository.
func NewQuestionRepository(provider *pfirestore.Provider) (*QuestionRepository, error) {
	if provider == nil {
		return nil, errors.New("question repository requires firestore provider")
	}
	decode := decodeWithID(questionDocument.toDomain)
	return &QuestionRepository{base: pfirestore.NewBaseRepository(provider, questionsCollection, decode)}, nil
}

func (r *QuestionRepository) List(ctx context.Context) ([]domain.Question, error) {
	return r.base.Query(ctx, byDocumentID)
}

var (
	_ repositories.LensProductRepository   = (*LensProductRepository)(nil)
	_ repositories.BenefitRepository       = (*BenefitRepository)(nil)
	_ repositories.AnswerBenefitRepository = (*AnswerBenefitRepository)(nil)
	_ repositories.ProfileSignalRepository = (*ProfileSignalRepository)(nil)
	_ repositories.QuestionRepository      = (*QuestionRepository)(nil)
)
