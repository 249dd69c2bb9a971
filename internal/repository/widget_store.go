package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"support-widget/internal/domain"
)

const (
	// SessionKey es la clave fija del id de sesion en el scope efimero.
	SessionKey = "chat_session_id"

	DefaultMaxMessages = 100
)

// MessagesKey deriva la clave del historial a partir del id de sesion.
func MessagesKey(sessionID string) string {
	return "messages:" + sessionID
}

// WidgetStore persiste el id de sesion y el historial acotado de un widget.
// Los fallos de almacenamiento se registran y nunca se propagan.
type WidgetStore struct {
	ephemeral   Scope
	durable     Scope
	logger      *zap.Logger
	maxMessages int
}

func NewWidgetStore(ephemeral, durable Scope, logger *zap.Logger, maxMessages int) *WidgetStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}
	return &WidgetStore{
		ephemeral:   ephemeral,
		durable:     durable,
		logger:      logger,
		maxMessages: maxMessages,
	}
}

func (s *WidgetStore) GetSessionID(ctx context.Context) string {
	id, ok, err := s.ephemeral.Get(ctx, SessionKey)
	if err != nil {
		s.logger.Warn("read session id failed", zap.Error(err))
		return ""
	}
	if !ok {
		return ""
	}
	return strings.TrimSpace(id)
}

func (s *WidgetStore) SaveSessionID(ctx context.Context, id string) {
	if strings.TrimSpace(id) == "" {
		return
	}
	if err := s.ephemeral.Set(ctx, SessionKey, id); err != nil {
		s.logger.Warn("save session id failed", zap.Error(err))
	}
}

func (s *WidgetStore) ClearSessionID(ctx context.Context) {
	if err := s.ephemeral.Delete(ctx, SessionKey); err != nil {
		s.logger.Warn("clear session id failed", zap.Error(err))
	}
}

// GetMessages devuelve el historial de la sesion actual; vacio si falta o esta corrupto.
func (s *WidgetStore) GetMessages(ctx context.Context) []domain.Message {
	sid := s.GetSessionID(ctx)
	if sid == "" {
		return nil
	}
	return s.load(ctx, sid)
}

// AppendMessage agrega un mensaje y conserva solo los ultimos maxMessages.
func (s *WidgetStore) AppendMessage(ctx context.Context, msg domain.Message) {
	sid := s.GetSessionID(ctx)
	if sid == "" {
		s.logger.Debug("append skipped: no session id")
		return
	}
	messages := append(s.load(ctx, sid), msg)
	if over := len(messages) - s.maxMessages; over > 0 {
		messages = messages[over:]
	}
	s.save(ctx, sid, messages)
}

// AmendLastMessage modifica en el lugar el ultimo mensaje persistido.
func (s *WidgetStore) AmendLastMessage(ctx context.Context, amend func(*domain.Message)) {
	sid := s.GetSessionID(ctx)
	if sid == "" || amend == nil {
		return
	}
	messages := s.load(ctx, sid)
	if len(messages) == 0 {
		return
	}
	amend(&messages[len(messages)-1])
	s.save(ctx, sid, messages)
}

func (s *WidgetStore) ClearMessages(ctx context.Context) {
	sid := s.GetSessionID(ctx)
	if sid == "" {
		return
	}
	if err := s.durable.Delete(ctx, MessagesKey(sid)); err != nil {
		s.logger.Warn("clear messages failed", zap.String("session_id", sid), zap.Error(err))
	}
}

func (s *WidgetStore) load(ctx context.Context, sid string) []domain.Message {
	raw, ok, err := s.durable.Get(ctx, MessagesKey(sid))
	if err != nil {
		s.logger.Warn("read messages failed", zap.String("session_id", sid), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	messages, dropped, err := DecodeMessageLog([]byte(raw))
	if err != nil {
		s.logger.Warn("discarding persisted messages", zap.String("session_id", sid), zap.Error(err))
		return nil
	}
	if dropped > 0 {
		s.logger.Warn("dropped invalid persisted messages", zap.String("session_id", sid), zap.Int("dropped", dropped))
	}
	return messages
}

func (s *WidgetStore) save(ctx context.Context, sid string, messages []domain.Message) {
	data, err := json.Marshal(domain.MessageLog{Version: domain.MessageLogVersion, Messages: messages})
	if err != nil {
		s.logger.Warn("encode messages failed", zap.String("session_id", sid), zap.Error(err))
		return
	}
	if err := s.durable.Set(ctx, MessagesKey(sid), string(data)); err != nil {
		s.logger.Warn("save messages failed", zap.String("session_id", sid), zap.Error(err))
	}
}

type rawMessageLog struct {
	Version  int               `json:"version"`
	Messages []json.RawMessage `json:"messages"`
}

// DecodeMessageLog valida el historial persistido. Acepta el sobre versionado y el
// arreglo plano heredado; descarta individualmente los mensajes invalidos.
func DecodeMessageLog(data []byte) ([]domain.Message, int, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, 0, nil
	}

	var items []json.RawMessage
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, 0, fmt.Errorf("decode legacy log: %w", err)
		}
	case '{':
		var env rawMessageLog
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, 0, fmt.Errorf("decode log: %w", err)
		}
		if env.Version != domain.MessageLogVersion {
			return nil, 0, fmt.Errorf("unsupported log version %d", env.Version)
		}
		items = env.Messages
	default:
		return nil, 0, fmt.Errorf("unexpected log shape")
	}

	messages := make([]domain.Message, 0, len(items))
	dropped := 0
	for _, item := range items {
		var msg domain.Message
		if err := json.Unmarshal(item, &msg); err != nil {
			dropped++
			continue
		}
		messages = append(messages, msg)
	}
	return messages, dropped, nil
}
