package service

import (
	"context"

	"core_innovators/internal/assistant"
	"core_innovators/internal/logger"
	"core_innovators/internal/models"
	"core_innovators/internal/repository"

	"github.com/google/uuid"
)

// AssistantService runs the command interpreter and keeps a log of every
// exchange.
type AssistantService struct {
	interpreter *assistant.Interpreter
	events      repository.EventRepo
	log         *logger.Logger
}

func NewAssistantService(in *assistant.Interpreter, events repository.EventRepo, log *logger.Logger) *AssistantService {
	return &AssistantService{interpreter: in, events: events, log: log}
}

func (s *AssistantService) Handle(ctx context.Context, utterance string) assistant.Reply {
	reply := s.interpreter.Handle(ctx, utterance)

	meta := map[string]any{
		"utterance": utterance,
		"source":    reply.Source,
	}
	if reply.Action != nil {
		meta["action"] = reply.Action.String()
		meta["affected"] = reply.Affected
	}
	if reply.KnowledgeID != "" {
		meta["knowledge_id"] = reply.KnowledgeID
	}
	if reply.Error != "" {
		meta["error"] = reply.Error
	}
	if s.events != nil {
		if err := s.events.Append(ctx, models.Event{
			EventID:     uuid.NewString(),
			Type:        models.EventAssistant,
			Description: reply.Text,
			Metadata:    identityMeta(ctx, meta),
		}); err != nil && s.log != nil {
			s.log.Warnw("assistant_event_append_failed", "error", err)
		}
	}
	return reply
}
