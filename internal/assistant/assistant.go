// Package assistant answers questions about the bus pass system from a small
// documentation corpus: retrieve the top passages, then compose an answer.
package assistant

import (
	"context"
	"errors"
	"strings"

	"github.com/Skotchmaster/bus_pass/pkg/logging"
)

const DefaultTopK = 3

var ErrEmptyQuestion = errors.New("message is required")

type Passage struct {
	Source string
	Text   string
	Score  float64
}

type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]Passage, error)
}

type Generator interface {
	Generate(ctx context.Context, question string, passages []Passage) (string, error)
}

// Service is safe for concurrent use once built.
type Service struct {
	retriever Retriever
	fallback  Retriever
	generator Generator
	topK      int
}

type Option func(*Service)

// WithFallback sets the retriever used when the primary one fails.
func WithFallback(r Retriever) Option { return func(s *Service) { s.fallback = r } }

func WithTopK(k int) Option { return func(s *Service) { s.topK = k } }

// New builds a Service. A nil generator answers extractively.
func New(r Retriever, g Generator, opts ...Option) *Service {
	if g == nil {
		g = ExtractiveGenerator{}
	}
	s := &Service{retriever: r, generator: g, topK: DefaultTopK}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) Answer(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}
	l := logging.FromContext(ctx).With("svc", "assistant")

	passages, err := s.retriever.Retrieve(ctx, question, s.topK)
	if err != nil {
		if s.fallback == nil {
			return "", err
		}
		l.Warn("retrieve_failed", "fallback", true, "error", err)
		if passages, err = s.fallback.Retrieve(ctx, question, s.topK); err != nil {
			return "", err
		}
	}

	answer, err := s.generator.Generate(ctx, question, passages)
	if err != nil {
		if _, extractive := s.generator.(ExtractiveGenerator); extractive {
			return "", err
		}
		l.Warn("generate_failed", "fallback", "extractive", "error", err)
		return ExtractiveGenerator{}.Generate(ctx, question, passages)
	}
	return answer, nil
}
