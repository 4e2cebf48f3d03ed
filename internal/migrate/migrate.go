// Package migrate maps Trello cards onto Jira import rows.
package migrate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gerunddev/cardbridge/internal/attachments"
	"github.com/gerunddev/cardbridge/internal/config"
	"github.com/gerunddev/cardbridge/internal/logger"
	"github.com/gerunddev/cardbridge/internal/markup"
	"github.com/gerunddev/cardbridge/internal/state"
	"github.com/gerunddev/cardbridge/internal/trello"
)

// CommentTimeLayout is the date format of comment prefixes and the Created
// column.
const CommentTimeLayout = "02/01/2006 15:04"

// Issue is one Jira import row.
type Issue struct {
	Summary        string
	Description    string
	Severity       string
	Assignee       string
	Collaborators  []string
	TrelloID       string
	Sections       map[string]string // column -> translated section
	IssueType      string
	Labels         []string
	Reporter       string
	Created        time.Time
	Status         string
	Comments       []string
	Attachments    []string
	FixVersion     string
	ChecklistItems []string
}

// CardSource fetches card-scope data. *trello.Client implements it.
type CardSource interface {
	CardCustomFieldItems(ctx context.Context, cardID string) ([]trello.CustomFieldItem, error)
	CardChecklists(ctx context.Context, cardID string) ([]trello.Checklist, error)
	CardComments(ctx context.Context, cardID string) ([]trello.Action, error)
	CardCreator(ctx context.Context, cardID string) (trello.Member, error)
	CardAttachments(ctx context.Context, cardID string) ([]trello.Attachment, error)
}

// Files caches uploaded attachments. *attachments.Cache implements it.
type Files interface {
	Fetch(ctx context.Context, att trello.Attachment) (string, error)
	URL(name string) string
	Remap(url string) (string, bool)
}

// Progress reports one finished card.
type Progress struct {
	Done  int
	Total int
	Card  string
	Err   error
}

// Option configures a Migrator.
type Option func(*Migrator)

// WithShortIDs restricts the run to cards with these short ids.
func WithShortIDs(ids []int) Option {
	return func(m *Migrator) {
		m.shortIDs = ids
	}
}

// WithIncremental leaves out cards whose rendering matches the last run.
func WithIncremental(on bool) Option {
	return func(m *Migrator) {
		m.incremental = on
	}
}

// WithProgress registers a callback invoked after every card. It is called
// from worker goroutines.
func WithProgress(fn func(Progress)) Option {
	return func(m *Migrator) {
		m.progress = fn
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Migrator) {
		m.now = now
	}
}

// Migrator maps cards to issues with a bounded worker pool.
type Migrator struct {
	config     *config.Config
	dir        *Directory
	src        CardSource
	files      Files
	state      *state.State
	logger     *logger.Logger
	translator *markup.Translator

	shortIDs    []int
	incremental bool
	progress    func(Progress)
	now         func() time.Time
}

// New creates a migrator. files may be nil, in which case uploads keep
// their remote URLs.
func New(cfg *config.Config, dir *Directory, src CardSource, files Files, st *state.State, log *logger.Logger, opts ...Option) *Migrator {
	if log == nil {
		log = logger.Discard()
	}
	if st == nil {
		st = state.NewState()
	}

	lookups := markup.Lookups{
		Members:    markup.MemberMap(dir.Handles()),
		ShortCodes: markup.ShortCodeMap(cfg.Members),
	}
	if files != nil {
		lookups.Attachments = files
	}

	m := &Migrator{
		config: cfg,
		dir:    dir,
		src:    src,
		files:  files,
		state:  st,
		logger: log,
		translator: markup.New(lookups,
			markup.WithImageWidth(cfg.Attachments.ImageWidth),
			markup.WithMissHandler(log.LookupMiss)),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Failure is a card left out of the import.
type Failure struct {
	TrelloID string
	Name     string
	Err      error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s (%s): %v", f.TrelloID, f.Name, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Result represents the result of a migration run
type Result struct {
	Issues    []Issue
	Failures  []Failure
	Skipped   int
	StartTime time.Time
	EndTime   time.Time
}

// String returns a human-readable summary of the migration result
func (r *Result) String() string {
	duration := r.EndTime.Sub(r.StartTime)
	return fmt.Sprintf(
		"Migration complete: %d cards migrated, %d skipped, %d failed (took %v)",
		len(r.Issues),
		r.Skipped,
		len(r.Failures),
		duration.Round(time.Millisecond),
	)
}

func (m *Migrator) trelloID(card trello.Card) string {
	return fmt.Sprintf("%s-%d", m.config.Jira.KeyPrefix, card.IDShort)
}

// selected reports whether the card takes part in the run, with the reason
// when it does not.
func (m *Migrator) selected(card trello.Card) (bool, string) {
	if card.Closed {
		return false, "archived"
	}
	if len(m.shortIDs) > 0 && !slices.Contains(m.shortIDs, card.IDShort) {
		return false, "not selected"
	}
	return true, ""
}

// Run migrates cards. Issues come back in input order. A failing card is
// recorded in Result.Failures and does not stop the others; only a
// cancelled context aborts the run.
func (m *Migrator) Run(ctx context.Context, cards []trello.Card) (*Result, error) {
	result := &Result{StartTime: m.now()}

	var todo []trello.Card
	for _, card := range cards {
		if ok, reason := m.selected(card); !ok {
			m.logger.Skipped(m.trelloID(card), reason)
			result.Skipped++
			continue
		}
		todo = append(todo, card)
	}

	workers := m.config.Workers
	if workers < 1 {
		workers = 1
	}
	m.logger.MigrationStarted(m.config.Trello.BoardID, len(todo), workers)

	issues := make([]*Issue, len(todo))
	errs := make([]error, len(todo))
	unchanged := make([]bool, len(todo))

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, card := range todo {
		i, card := i, card
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			issue, err := m.MigrateCard(gctx, card)
			if err == nil && m.incremental {
				unchanged[i] = !m.state.CardChanged(card.ID, fingerprint(issue))
			}
			issues[i], errs[i] = issue, err
			if m.progress != nil {
				m.progress(Progress{Done: int(done.Add(1)), Total: len(todo), Card: card.Name, Err: err})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		result.EndTime = m.now()
		return result, err
	}
	if err := ctx.Err(); err != nil {
		result.EndTime = m.now()
		return result, err
	}

	for i, card := range todo {
		id := m.trelloID(card)
		switch {
		case errs[i] != nil:
			m.logger.CardFailed(id, errs[i])
			result.Failures = append(result.Failures, Failure{TrelloID: id, Name: card.Name, Err: errs[i]})
		case unchanged[i]:
			m.logger.Skipped(id, "unchanged")
			result.Skipped++
		default:
			m.logger.CardMigrated(id, card.Name, issues[i].IssueType)
			m.state.MarkCard(card.ID, fingerprint(issues[i]), m.now())
			result.Issues = append(result.Issues, *issues[i])
		}
	}

	result.EndTime = m.now()
	m.logger.MigrationCompleted(len(result.Issues), len(result.Failures), result.Skipped, result.EndTime.Sub(result.StartTime))
	return result, nil
}

// fingerprint is the content an incremental run compares.
func fingerprint(issue *Issue) string {
	data, err := json.Marshal(issue)
	if err != nil {
		return ""
	}
	return string(data)
}

// MigrateCard maps one card. Unsupported markdown in the description and
// source API errors fail the card; problems in secondary fields fall back
// to raw values and are logged.
func (m *Migrator) MigrateCard(ctx context.Context, card trello.Card) (*Issue, error) {
	id := m.trelloID(card)
	labels := card.LabelNames()
	issueType := IssueType(labels)
	column := m.dir.Lists[card.IDList]

	issue := &Issue{
		Summary:    card.Name,
		TrelloID:   id,
		IssueType:  issueType,
		FixVersion: FixVersion(labels, m.config.Jira.VersionPrefix),
		Labels:     Labels(labels, m.config.Labels, m.config.Jira.VersionPrefix, m.config.Jira.ExtraLabels),
		Status:     Status(m.config.Jira.Statuses, issueType, column),
		Sections:   make(map[string]string, len(m.config.Sections)),
	}

	// Uploads are cached before the description is translated so embedded
	// images already remap to the local copy.
	atts, err := m.src.CardAttachments(ctx, card.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch attachments: %w", err)
	}
	var links []trello.Attachment
	for _, att := range atts {
		if !att.IsUpload {
			links = append(links, att)
			continue
		}
		issue.Attachments = append(issue.Attachments, m.attachment(ctx, id, att)...)
	}

	description, err := m.translator.Translate(card.Desc)
	if err != nil {
		return nil, fmt.Errorf("description: %w", err)
	}
	issue.Description = description + linksBlock(links)

	for col, heading := range m.config.Sections {
		section, ok := markup.ExtractSection(card.Desc, heading)
		if !ok {
			continue
		}
		translated, err := m.translator.Translate(section)
		if err != nil {
			m.logger.FieldFallback(id, col, err)
			translated = section
		}
		issue.Sections[col] = translated
	}

	issue.Assignee, issue.Collaborators = m.assignees(card.IDMembers)

	creator, err := m.src.CardCreator(ctx, card.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch creator: %w", err)
	}
	if creator.ID != "" {
		issue.Reporter = m.shortCode(creator.ID)
	}

	if created, err := trello.CreatedAt(card.ID); err != nil {
		m.logger.FieldFallback(id, "created", err)
	} else {
		issue.Created = created
	}

	items := card.CustomFieldItems
	if items == nil {
		items, err = m.src.CardCustomFieldItems(ctx, card.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch custom fields: %w", err)
		}
	}
	issue.Severity, _ = m.dir.FieldOption(items, "severity")

	comments, err := m.src.CardComments(ctx, card.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch comments: %w", err)
	}
	issue.Comments = m.comments(id, comments)

	checklists, err := m.src.CardChecklists(ctx, card.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch checklists: %w", err)
	}
	issue.ChecklistItems = ChecklistItems(checklists)

	return issue, nil
}

// attachment returns the import reference of an upload: the local copy when
// the cache holds it, else the remote URL. Excluded uploads yield nothing.
func (m *Migrator) attachment(ctx context.Context, id string, att trello.Attachment) []string {
	if m.files == nil {
		return []string{att.URL}
	}
	name, err := m.files.Fetch(ctx, att)
	switch {
	case errors.Is(err, attachments.ErrExcluded):
		return nil
	case err != nil:
		m.logger.FieldFallback(id, "attachment", err)
		return []string{att.URL}
	}
	return []string{m.files.URL(name)}
}

func (m *Migrator) shortCode(memberID string) string {
	code, ok := m.config.Members[memberID]
	if !ok || code == "" {
		m.logger.LookupMiss("member", memberID)
		return ""
	}
	return code
}

// assignees resolves card members: the first becomes the assignee, the rest
// collaborators. Members without a short code are left out.
func (m *Migrator) assignees(memberIDs []string) (string, []string) {
	var codes []string
	for _, mid := range memberIDs {
		if code := m.shortCode(mid); code != "" {
			codes = append(codes, code)
		}
	}
	if len(codes) == 0 {
		return "", nil
	}
	return codes[0], codes[1:]
}

// comments renders comments oldest first as "date;author;body", the form
// the Jira CSV importer reads.
func (m *Migrator) comments(id string, actions []trello.Action) []string {
	out := make([]string, 0, len(actions))
	for i := len(actions) - 1; i >= 0; i-- {
		a := actions[i]

		date := a.Date
		if t, err := time.Parse(time.RFC3339, a.Date); err == nil {
			date = t.UTC().Format(CommentTimeLayout)
		}

		author := a.MemberCreator.Username
		creatorID := a.MemberCreator.ID
		if creatorID == "" {
			creatorID = a.IDMemberCreator
		}
		if code, ok := m.config.Members[creatorID]; ok && code != "" {
			author = code
		}

		body, err := m.translator.Translate(a.Data.Text)
		if err != nil {
			m.logger.FieldFallback(id, "comment", err)
			body = a.Data.Text
		}

		out = append(out, date+";"+author+";"+body)
	}
	return out
}

// ChecklistItems flattens checklists in board order into "[x] item" and
// "[ ] item" entries.
func ChecklistItems(checklists []trello.Checklist) []string {
	lists := slices.Clone(checklists)
	sort.SliceStable(lists, func(i, j int) bool { return lists[i].Pos < lists[j].Pos })

	var out []string
	for _, cl := range lists {
		items := slices.Clone(cl.CheckItems)
		sort.SliceStable(items, func(i, j int) bool { return items[i].Pos < items[j].Pos })
		for _, item := range items {
			box := "[ ] "
			if item.Complete() {
				box = "[x] "
			}
			out = append(out, box+item.Name)
		}
	}
	return out
}

// linksBlock renders link attachments as a trailing "Links" section.
func linksBlock(links []trello.Attachment) string {
	if len(links) == 0 {
		return ""
	}
	block := "\n\nh3. Links"
	for _, l := range links {
		if l.Name == "" || l.Name == l.URL {
			block += "\n* [" + l.URL + "]"
		} else {
			block += "\n* [" + l.Name + "|" + l.URL + "]"
		}
	}
	return block
}
