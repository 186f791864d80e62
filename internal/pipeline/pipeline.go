package pipeline

import (
	"bitwise74/docs-api/internal/event"
	"bitwise74/docs-api/internal/format"
	"bitwise74/docs-api/internal/lockset"
	"bitwise74/docs-api/internal/metrics"
	"bitwise74/docs-api/internal/model"
	"bitwise74/docs-api/internal/repository"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type State string

const (
	StateIngested   State = "INGESTED"
	StateExtracting State = "EXTRACTING"
	// Suggestions were received and applied
	StateTagged State = "TAGGED"
	// Nothing to send for suggestions, only the baseline tag was applied
	StateSkipped State = "SKIPPED"
	// Suggestion request failed, only the baseline tag was applied
	StateFailed State = "FAILED"
)

// Result describes how far one run got. Soft failures are reported in Err
// and never abort the run
type Result struct {
	State     State
	Category  Category
	Suggested []string
	// Complete tag set of the document after the run
	TagIDs []string
	Err    error
}

type Suggester interface {
	Suggest(ctx context.Context, content string) ([]string, error)
}

// Suggesters that can be switched off by configuration report it here, a
// disabled suggester is treated like no suggester at all
type enabler interface {
	Enabled() bool
}

type Pipeline struct {
	repo         *repository.Repository
	formats      *format.Registry
	suggester    Suggester
	defaultColor string
	processing   *Processing
	// Serializes tag reconciliation per tag owner
	owners *lockset.Set
}

type Options struct {
	Formats      *format.Registry
	Suggester    Suggester
	DefaultColor string
	Processing   *Processing
}

func New(repo *repository.Repository, o Options) *Pipeline {
	if o.Processing == nil {
		o.Processing = NewProcessing()
	}
	if o.Formats == nil {
		o.Formats = format.NewRegistry()
	}
	if o.DefaultColor == "" {
		o.DefaultColor = "#3a87ad"
	}

	return &Pipeline{
		repo:         repo,
		formats:      o.Formats,
		suggester:    o.Suggester,
		defaultColor: o.DefaultColor,
		processing:   o.Processing,
		owners:       lockset.New(),
	}
}

func (p *Pipeline) Processing() *Processing {
	return p.processing
}

// Run processes one FileUpdated event. It never returns early on extraction
// or suggestion errors, the baseline tag is applied in every case where the
// file belongs to a document
func (p *Pipeline) Run(ctx context.Context, e event.FileUpdated) (res Result) {
	res.State = StateIngested
	defer func() {
		metrics.PipelineRuns.WithLabelValues(string(res.State)).Inc()
	}()

	file, err := p.repo.Files.Get(ctx, e.FileID)
	if err != nil {
		res.State = StateFailed
		res.Err = err
		return res
	}

	res.Category = Classify(file.MimeType)
	res.State = StateExtracting

	var content string
	if res.Category == CategoryText {
		content = p.extract(ctx, file, e)
	}

	if file.IsOrphan() {
		// No document to tag yet, attaching raises a new event
		res.State = StateSkipped
		return res
	}

	names := []string{}
	if res.Category != CategoryNone {
		names = append(names, string(res.Category))
	}

	res.State = StateSkipped
	if content != "" && p.suggests() {
		suggested, err := p.suggester.Suggest(ctx, content)
		if err != nil {
			zap.L().Warn("Tag suggestion failed", zap.String("file_id", file.ID), zap.Error(err))
			res.State = StateFailed
			res.Err = err
		} else {
			res.State = StateTagged
			res.Suggested = suggested
			names = append(names, suggested...)
		}
	}

	tagIDs, err := p.reconcile(ctx, *file.DocumentID, names)
	if err != nil {
		zap.L().Error("Failed to reconcile document tags", zap.String("document_id", *file.DocumentID), zap.Error(err))
		res.State = StateFailed
		res.Err = err
		return res
	}

	res.TagIDs = tagIDs
	return res
}

func (p *Pipeline) suggests() bool {
	if p.suggester == nil {
		return false
	}
	if e, ok := p.suggester.(enabler); ok {
		return e.Enabled()
	}
	return true
}

// extract returns the file text, reading the cached copy when the event has
// no plaintext to work with
func (p *Pipeline) extract(ctx context.Context, file *model.File, e event.FileUpdated) string {
	ex := p.formats.Find(file.MimeType)
	if ex == nil || e.UnencryptedPath == "" {
		if file.Content != nil {
			return *file.Content
		}
		return ""
	}

	content, err := ex.Extract(e.Language, e.UnencryptedPath)
	if err != nil {
		zap.L().Warn("Failed to extract file content", zap.String("file_id", file.ID), zap.String("mime", file.MimeType), zap.Error(err))
		return ""
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}

	if err := p.repo.Files.SetContent(ctx, file.ID, content); err != nil {
		zap.L().Error("Failed to cache file content", zap.String("file_id", file.ID), zap.Error(err))
	}

	return content
}

// reconcile resolves names to tags of the document owner, creating the
// missing ones, and stores them together with the document's current tags
func (p *Pipeline) reconcile(ctx context.Context, documentID string, names []string) ([]string, error) {
	doc, err := p.repo.Documents.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	unlock := p.owners.Lock(doc.UserID)
	defer unlock()

	var ids []string

	err = p.repo.Transaction(ctx, func(tx *repository.Repository) error {
		owned, err := tx.Tags.ListByUser(ctx, doc.UserID)
		if err != nil {
			return err
		}

		byName := make(map[string]string, len(owned))
		for _, t := range owned {
			byName[strings.ToLower(t.Name)] = t.ID
		}

		current, err := tx.Tags.ListByDocument(ctx, documentID)
		if err != nil {
			return err
		}

		seen := make(map[string]bool)
		for _, t := range current {
			if !seen[t.ID] {
				seen[t.ID] = true
				ids = append(ids, t.ID)
			}
		}
		before := len(ids)

		for _, name := range names {
			name = truncateName(strings.TrimSpace(name))
			if name == "" {
				continue
			}
			key := strings.ToLower(name)

			id, ok := byName[key]
			if !ok {
				tag := &model.Tag{
					ID:         uuid.NewString(),
					Name:       name,
					Color:      p.defaultColor,
					UserID:     doc.UserID,
					CreateDate: time.Now(),
				}
				if err := tx.Tags.Create(ctx, tag); err != nil {
					return err
				}

				id = tag.ID
				byName[key] = id
			}

			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}

		if len(ids) == before {
			return nil
		}

		if err := tx.Tags.UpdateTagList(ctx, documentID, ids); err != nil {
			return fmt.Errorf("failed to store document tags, %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return ids, nil
}

// Tag names are limited by the column size
func truncateName(name string) string {
	r := []rune(name)
	if len(r) > 36 {
		return string(r[:36])
	}

	return name
}
