// Package assistant proxies the car chatbot and the trade-in estimator to a
// chat completion backend.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"vehicle-vault-api/models"
)

const (
	DefaultMaxTokens = 500
	MaxHistory       = 40
)

var (
	ErrNotConfigured = errors.New("assistant is not configured")
	ErrUpstream      = errors.New("assistant backend failed")
	ErrInvalidInput  = errors.New("invalid assistant request")
)

// Inventory supplies the listings the chatbot may talk about.
type Inventory interface {
	Inventory(ctx context.Context) ([]models.Car, error)
}

type Service struct {
	completer Completer
	inventory Inventory
	maxTokens int
}

// NewService wires the assistant. A nil completer leaves the service
// answering ErrNotConfigured.
func NewService(completer Completer, inventory Inventory, maxTokens int) *Service {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Service{completer: completer, inventory: inventory, maxTokens: maxTokens}
}

func (s *Service) Configured() bool {
	return s.completer != nil
}

// Chat answers a single question with the current inventory as context.
func (s *Service) Chat(ctx context.Context, message string) (string, error) {
	if s.completer == nil {
		return "", ErrNotConfigured
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("%w: message is required", ErrInvalidInput)
	}

	var cars []models.Car
	if s.inventory != nil {
		var err error
		if cars, err = s.inventory.Inventory(ctx); err != nil {
			return "", fmt.Errorf("load inventory: %w", err)
		}
	}
	system, err := chatSystemPrompt(cars)
	if err != nil {
		return "", err
	}

	reply, err := s.completer.Complete(ctx, CompletionRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: system},
			{Role: RoleUser, Content: message},
		},
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		return "", upstream(err)
	}
	return strings.TrimSpace(reply), nil
}

type TradeInRequest struct {
	Message        string
	TargetCarPrice float64
	History        []Message
}

type TradeInReply struct {
	Reply          string   `json:"reply"`
	EstimatedValue *float64 `json:"estimatedValue"`
}

// TradeIn continues a trade-in conversation. The transcript lives with the
// client and is resent in full on every turn.
func (s *Service) TradeIn(ctx context.Context, req TradeInRequest) (*TradeInReply, error) {
	if s.completer == nil {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	if req.TargetCarPrice < 0 {
		return nil, fmt.Errorf("%w: targetCarPrice must not be negative", ErrInvalidInput)
	}
	if len(req.History) > MaxHistory {
		return nil, fmt.Errorf("%w: at most %d previous messages", ErrInvalidInput, MaxHistory)
	}

	messages := make([]Message, 0, len(req.History)+3)
	messages = append(messages, Message{Role: RoleSystem, Content: tradeInSystemPrompt(req.TargetCarPrice)})
	if len(req.History) == 0 {
		messages = append(messages, Message{Role: RoleAssistant, Content: tradeInGreeting})
	}
	for _, m := range req.History {
		if m.Role != RoleUser && m.Role != RoleAssistant {
			return nil, fmt.Errorf("%w: role must be user or assistant", ErrInvalidInput)
		}
		messages = append(messages, Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, Message{Role: RoleUser, Content: req.Message})

	reply, err := s.completer.Complete(ctx, CompletionRequest{Messages: messages, MaxTokens: s.maxTokens})
	if err != nil {
		return nil, upstream(err)
	}

	est, err := ParseEstimate(reply)
	if err != nil {
		log.Printf("⚠️  trade-in: %v", err)
	}
	return &TradeInReply{Reply: strings.TrimSpace(est.Text), EstimatedValue: est.Value}, nil
}

func upstream(err error) error {
	if errors.Is(err, ErrUpstream) || errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUpstream, err)
}
