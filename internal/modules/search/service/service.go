package service

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"anoa.com/moodquest/internal/entity"
	"anoa.com/moodquest/pkg/apperror"
	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog/log"
)

const JournalIndex = "journal_entries"

// JournalHit is one search result. Only the owner's entries are ever returned.
type JournalHit struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Mood      string `json:"mood,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

type SearchService interface {
	IndexJournal(ctx context.Context, entry *entity.JournalEntry) error
	SearchJournals(ctx context.Context, userID uuid.UUID, query string, limit int) ([]JournalHit, error)
}

type meiliSearchService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

// NewSearchService returns a service backed by client. A nil client yields a
// service that skips indexing and reports search as unavailable.
func NewSearchService(client meilisearch.ServiceManager) SearchService {
	s := &meiliSearchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	if client != nil {
		s.initIndex()
	}
	return s
}

func (s *meiliSearchService) initIndex() {
	filterable := []any{"user_id", "mood"}
	if _, err := s.client.Index(JournalIndex).UpdateFilterableAttributes(&filterable); err != nil {
		log.Warn().Err(err).Msg("failed to update journal filterable attributes")
	}

	sortable := []string{"created_at"}
	if _, err := s.client.Index(JournalIndex).UpdateSortableAttributes(&sortable); err != nil {
		log.Warn().Err(err).Msg("failed to update journal sortable attributes")
	}

	log.Info().Str("index", JournalIndex).Msg("meilisearch index initialized")
}

type journalDoc struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Mood      string `json:"mood,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

func (s *meiliSearchService) cleanText(content string) string {
	content = strings.ReplaceAll(content, "</p>", " ")
	content = strings.ReplaceAll(content, "<br>", " ")
	content = strings.ReplaceAll(content, "</div>", " ")

	cleaned := html.UnescapeString(s.sanitizer.Sanitize(content))
	return strings.Join(strings.Fields(cleaned), " ")
}

func (s *meiliSearchService) toDoc(entry *entity.JournalEntry) journalDoc {
	doc := journalDoc{
		ID:        entry.ID.String(),
		UserID:    entry.UserID.String(),
		Title:     s.cleanText(entry.Title),
		Content:   s.cleanText(entry.Content),
		CreatedAt: entry.CreatedAt.Unix(),
	}
	if entry.Mood != nil {
		doc.Mood = *entry.Mood
	}
	return doc
}

func (s *meiliSearchService) IndexJournal(_ context.Context, entry *entity.JournalEntry) error {
	if s.client == nil {
		return nil
	}

	pk := "id"
	task, err := s.client.Index(JournalIndex).AddDocuments([]journalDoc{s.toDoc(entry)}, &pk)
	if err != nil {
		return fmt.Errorf("%w: index journal: %v", apperror.ErrCollaborator, err)
	}
	log.Debug().Str("journal_id", entry.ID.String()).Int64("task_uid", task.TaskUID).Msg("journal entry indexed")
	return nil
}

func (s *meiliSearchService) SearchJournals(_ context.Context, userID uuid.UUID, query string, limit int) ([]JournalHit, error) {
	if s.client == nil {
		return nil, fmt.Errorf("%w: journal search is not configured", apperror.ErrUnavailable)
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	raw, err := s.client.Index(JournalIndex).SearchRaw(query, &meilisearch.SearchRequest{
		Filter: ownerFilter(userID),
		Sort:   []string{"created_at:desc"},
		Limit:  int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: search journals: %v", apperror.ErrCollaborator, err)
	}

	return decodeHits(*raw)
}

func ownerFilter(userID uuid.UUID) string {
	return fmt.Sprintf("user_id = '%s'", userID.String())
}

func decodeHits(raw []byte) ([]JournalHit, error) {
	var res struct {
		Hits []JournalHit `json:"hits"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("%w: decode search response: %v", apperror.ErrCollaborator, err)
	}
	if res.Hits == nil {
		res.Hits = []JournalHit{}
	}
	return res.Hits, nil
}
