package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Event struct {
	ID        int64           `json:"id"`
	ActorID   *int64          `json:"actorId,omitempty"`
	Action    string          `json:"action"`
	Entity    string          `json:"entity"`
	EntityID  string          `json:"entityId"`
	RequestID string          `json:"requestId"`
	IP        string          `json:"ip"`
	Detail    json.RawMessage `json:"detail,omitempty"`
	CreatedAt any             `json:"createdAt"`
}

type Filter struct {
	Action string
	Entity string
}

type Service struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

func (s *Service) Record(ctx context.Context, actorID int64, action, entity, entityID, requestID, ip string, detail any) error {
	var detailJSON []byte
	if detail != nil {
		payload, err := json.Marshal(detail)
		if err != nil {
			return err
		}
		detailJSON = payload
	}

	var actor any
	if actorID > 0 {
		actor = actorID
	}

	_, err := s.DB.Exec(ctx, `
    INSERT INTO audit_events (actor_id, action, entity, entity_id, request_id, ip, detail)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
  `, actor, action, entity, entityID, requestID, ip, detailJSON)
	return err
}

func (s *Service) Count(ctx context.Context, filter Filter) (int, error) {
	query, args := buildBaseQuery("SELECT COUNT(1)", filter)
	var total int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Service) List(ctx context.Context, filter Filter, limit, offset int) ([]Event, error) {
	query, args := buildBaseQuery("SELECT id, actor_id, action, entity, entity_id, COALESCE(request_id, ''), COALESCE(ip, ''), detail, created_at", filter)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var evt Event
		if err := rows.Scan(&evt.ID, &evt.ActorID, &evt.Action, &evt.Entity, &evt.EntityID, &evt.RequestID, &evt.IP, &evt.Detail, &evt.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

func buildBaseQuery(prefix string, filter Filter) (string, []any) {
	query := prefix + " FROM audit_events WHERE 1=1"
	var args []any
	if filter.Action != "" {
		args = append(args, filter.Action)
		query += fmt.Sprintf(" AND action = $%d", len(args))
	}
	if filter.Entity != "" {
		args = append(args, filter.Entity)
		query += fmt.Sprintf(" AND entity = $%d", len(args))
	}
	return query, args
}
