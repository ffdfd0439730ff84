package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/moonssword/dating-bot/internal/domain/enums"
	"github.com/moonssword/dating-bot/internal/domain/model"
	convsvc "github.com/moonssword/dating-bot/internal/services/conversation"
)

const sessionPrefix = "chat_state:"

// SessionRepo keeps the per-account conversation position in a redis
// hash with a sliding TTL. Writes are last-write-wins: two updates
// racing for the same account keep whichever lands second.
type SessionRepo struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewSessionRepo(client *goredis.Client, ttl time.Duration) *SessionRepo {
	return &SessionRepo{client: client, ttl: ttl}
}

func sessionKey(accountID int64) string {
	return sessionPrefix + strconv.FormatInt(accountID, 10)
}

func (r *SessionRepo) Get(ctx context.Context, accountID int64) (convsvc.Session, error) {
	if r.client == nil {
		return convsvc.Session{}, fmt.Errorf("redis client is nil")
	}
	if accountID <= 0 {
		return convsvc.Session{}, fmt.Errorf("invalid account id")
	}

	values, err := r.client.HGetAll(ctx, sessionKey(accountID)).Result()
	if err != nil {
		return convsvc.Session{}, fmt.Errorf("get session hash: %w", err)
	}
	if len(values) == 0 {
		return convsvc.Session{}, convsvc.ErrSessionNotFound
	}

	return parseSession(accountID, values)
}

func (r *SessionRepo) Save(ctx context.Context, session convsvc.Session) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if session.AccountID <= 0 {
		return fmt.Errorf("invalid session account id")
	}

	locationJSON, err := json.Marshal(session.Draft.Location)
	if err != nil {
		return fmt.Errorf("marshal draft location: %w", err)
	}
	photoJSON, err := json.Marshal(session.Draft.Photo)
	if err != nil {
		return fmt.Errorf("marshal draft photo: %w", err)
	}

	fields := map[string]interface{}{
		"state":              string(session.State),
		"locale":             session.Draft.Locale,
		"gender":             string(session.Draft.Gender),
		"display_name":       session.Draft.DisplayName,
		"birthdate":          session.Draft.Birthdate,
		"about":              session.Draft.About,
		"location":           string(locationJSON),
		"photo":              string(photoJSON),
		"candidate_id":       session.CandidateID,
		"report_target_id":   session.ReportTargetID,
		"city_options_token": session.CityOptionsToken,
		"last_prompt_id":     session.LastPromptID,
	}

	key := sessionKey(session.AccountID)
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save session hash: %w", err)
	}

	return nil
}

func (r *SessionRepo) Delete(ctx context.Context, accountID int64) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	if err := r.client.Del(ctx, sessionKey(accountID)).Err(); err != nil {
		return fmt.Errorf("delete session hash: %w", err)
	}
	return nil
}

func parseSession(accountID int64, values map[string]string) (convsvc.Session, error) {
	session := convsvc.Session{
		AccountID: accountID,
		State:     enums.ChatState(values["state"]),
	}
	session.Draft.Locale = values["locale"]
	session.Draft.Gender = enums.Gender(values["gender"])
	session.Draft.DisplayName = values["display_name"]
	session.Draft.Birthdate = values["birthdate"]
	session.Draft.About = values["about"]
	session.CityOptionsToken = values["city_options_token"]

	if raw := values["location"]; raw != "" {
		var loc model.Location
		if err := json.Unmarshal([]byte(raw), &loc); err != nil {
			return convsvc.Session{}, fmt.Errorf("unmarshal draft location: %w", err)
		}
		session.Draft.Location = loc
	}
	if raw := values["photo"]; raw != "" {
		var photo model.ProfilePhoto
		if err := json.Unmarshal([]byte(raw), &photo); err != nil {
			return convsvc.Session{}, fmt.Errorf("unmarshal draft photo: %w", err)
		}
		session.Draft.Photo = photo
	}

	var err error
	if session.CandidateID, err = parseInt64Field(values, "candidate_id"); err != nil {
		return convsvc.Session{}, err
	}
	if session.ReportTargetID, err = parseInt64Field(values, "report_target_id"); err != nil {
		return convsvc.Session{}, err
	}
	promptID, err := parseInt64Field(values, "last_prompt_id")
	if err != nil {
		return convsvc.Session{}, err
	}
	session.LastPromptID = int(promptID)

	return session, nil
}

func parseInt64Field(values map[string]string, field string) (int64, error) {
	raw := values[field]
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse session field %q: %w", field, err)
	}
	return n, nil
}
