package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/convopulse/convopulse/internal/models"
	"github.com/convopulse/convopulse/internal/utils"
)

// In-memory fakes for the repository interfaces, keeping just enough state to
// observe what the services persist.

type fakeConversationRepo struct {
	rows     map[string]*models.Conversation // keyed by internal id
	messages map[string][]models.Message
	seq      int

	upsertErr error
	scoreErr  error

	lastUpsert struct {
		externalID string
		startedAt  time.Time
		endedAt    time.Time
		status     string
		metadata   []byte
		msgs       []models.Message
	}
	scores map[string]int

	avgHealth   float64
	activeCount int64
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		rows:     map[string]*models.Conversation{},
		messages: map[string][]models.Message{},
		scores:   map[string]int{},
	}
}

func (f *fakeConversationRepo) UpsertWithMessages(ctx context.Context, externalID string, startedAt, endedAt time.Time, status string, metadata []byte, msgs []models.Message) (string, error) {
	if f.upsertErr != nil {
		return "", f.upsertErr
	}
	f.lastUpsert.externalID = externalID
	f.lastUpsert.startedAt = startedAt
	f.lastUpsert.endedAt = endedAt
	f.lastUpsert.status = status
	f.lastUpsert.metadata = metadata
	f.lastUpsert.msgs = msgs

	var row *models.Conversation
	for _, existing := range f.rows {
		if existing.ExternalID == externalID {
			row = existing
			break
		}
	}
	if row == nil {
		f.seq++
		id := fmt.Sprintf("conv-%d", f.seq)
		end := endedAt
		row = &models.Conversation{ID: id, ExternalID: externalID, StartedAt: startedAt, EndedAt: &end, Status: status}
		f.rows[id] = row
	} else {
		// same union-the-window semantics as the real store
		if startedAt.Before(row.StartedAt) {
			row.StartedAt = startedAt
		}
		if row.EndedAt == nil || endedAt.After(*row.EndedAt) {
			end := endedAt
			row.EndedAt = &end
		}
		row.Status = status
	}

	stored := make([]models.Message, 0, len(msgs))
	for i, m := range msgs {
		m.ID = fmt.Sprintf("%s-msg-%d", row.ID, len(f.messages[row.ID])+i+1)
		m.ConversationID = row.ID
		stored = append(stored, m)
	}
	f.messages[row.ID] = append(f.messages[row.ID], stored...)
	return row.ID, nil
}

func (f *fakeConversationRepo) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	row, ok := f.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return row, nil
}

func (f *fakeConversationRepo) List(ctx context.Context, offset, limit int) ([]models.Conversation, int64, error) {
	out := make([]models.Conversation, 0, len(f.rows))
	for _, row := range f.rows {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (f *fakeConversationRepo) SetHealthScore(ctx context.Context, id string, score int) error {
	if f.scoreErr != nil {
		return f.scoreErr
	}
	f.scores[id] = score
	return nil
}

func (f *fakeConversationRepo) AverageHealth(ctx context.Context) (float64, error) {
	return f.avgHealth, nil
}

func (f *fakeConversationRepo) CountByStatus(ctx context.Context, status string) (int64, error) {
	return f.activeCount, nil
}

type fakeMessageRepo struct {
	byConversation map[string][]models.Message
	store          *fakeConversationRepo // when set, reads what the store ingested
	err            error
}

func (f *fakeMessageRepo) ListByConversation(ctx context.Context, conversationID string) ([]models.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.store != nil {
		return f.store.messages[conversationID], nil
	}
	return f.byConversation[conversationID], nil
}

type fakeFailureRepo struct {
	rows      []models.Failure
	alerted   map[string]bool
	seq       int
	insertErr error
	sinceN    int64
}

func newFakeFailureRepo() *fakeFailureRepo {
	return &fakeFailureRepo{alerted: map[string]bool{}}
}

func (f *fakeFailureRepo) InsertBatch(ctx context.Context, conversationID string, types []string, detectedAt time.Time) ([]string, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	ids := make([]string, 0, len(types))
	for _, t := range types {
		f.seq++
		id := fmt.Sprintf("fail-%d", f.seq)
		f.rows = append(f.rows, models.Failure{ID: id, ConversationID: conversationID, Type: t, Status: models.FailureStatusOpen, DetectedAt: detectedAt})
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeFailureRepo) MarkAlerted(ctx context.Context, ids []string) error {
	for _, id := range ids {
		f.alerted[id] = true
	}
	return nil
}

func (f *fakeFailureRepo) ListByConversation(ctx context.Context, conversationID string) ([]models.Failure, error) {
	var out []models.Failure
	for _, row := range f.rows {
		if row.ConversationID == conversationID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeFailureRepo) CountDetectedSince(ctx context.Context, since time.Time) (int64, error) {
	return f.sinceN, nil
}

type fakePatternRepo struct {
	byName map[string]*models.UsagePattern
	links  map[string]bool // "patternID/conversationID"
	seq    int
	err    error
}

func newFakePatternRepo() *fakePatternRepo {
	return &fakePatternRepo{
		byName: map[string]*models.UsagePattern{},
		links:  map[string]bool{},
	}
}

func (f *fakePatternRepo) UpsertByName(ctx context.Context, name string, seenAt time.Time) (*models.UsagePattern, error) {
	if f.err != nil {
		return nil, f.err
	}
	if p, ok := f.byName[name]; ok {
		p.OccurrenceCount++
		p.LastSeen = seenAt
		out := *p
		return &out, nil
	}
	f.seq++
	p := &models.UsagePattern{
		ID:              fmt.Sprintf("pat-%d", f.seq),
		Name:            name,
		OccurrenceCount: 1,
		FirstSeen:       seenAt,
		LastSeen:        seenAt,
	}
	f.byName[name] = p
	out := *p
	return &out, nil
}

func (f *fakePatternRepo) LinkConversation(ctx context.Context, patternID, conversationID string) error {
	f.links[patternID+"/"+conversationID] = true
	return nil
}

func (f *fakePatternRepo) List(ctx context.Context) ([]models.UsagePattern, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.UsagePattern, 0, len(f.byName))
	for _, p := range f.byName {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurrenceCount > out[j].OccurrenceCount })
	return out, nil
}

type storedEmbedding struct {
	vector []float32
	model  string
}

type fakeEmbeddingRepo struct {
	byConversation map[string]storedEmbedding
	err            error
}

func newFakeEmbeddingRepo() *fakeEmbeddingRepo {
	return &fakeEmbeddingRepo{byConversation: map[string]storedEmbedding{}}
}

func (f *fakeEmbeddingRepo) Upsert(ctx context.Context, conversationID string, vector []float32, model string) error {
	if f.err != nil {
		return f.err
	}
	f.byConversation[conversationID] = storedEmbedding{vector: vector, model: model}
	return nil
}

func (f *fakeEmbeddingRepo) Get(ctx context.Context, conversationID string) (*models.ConversationEmbedding, error) {
	if _, ok := f.byConversation[conversationID]; !ok {
		return nil, utils.ErrNotFound
	}
	return &models.ConversationEmbedding{ConversationID: conversationID}, nil
}

// fakeNotifier records alert calls and answers with configurable delivery
// results, defaulting to delivered.
type fakeNotifier struct {
	failureResults []bool // consumed per AlertFailure call, in order
	failureCalls   []string
	lowHealthCalls []int
}

func (f *fakeNotifier) AlertFailure(ctx context.Context, conversationID, failureType string) bool {
	f.failureCalls = append(f.failureCalls, failureType)
	if len(f.failureResults) > 0 {
		res := f.failureResults[0]
		f.failureResults = f.failureResults[1:]
		return res
	}
	return true
}

func (f *fakeNotifier) AlertLowHealth(ctx context.Context, conversationID string, score int) bool {
	f.lowHealthCalls = append(f.lowHealthCalls, score)
	return true
}

// fakeCache is a TTL-less map cache.
type fakeCache struct {
	entries map[string][]byte
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}}
}

func (f *fakeCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, ok := f.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (f *fakeCache) SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	f.entries[key] = raw
	f.sets++
	return nil
}

func (f *fakeCache) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.entries, k)
	}
	return nil
}
