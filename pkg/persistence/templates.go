package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const timeFormat = time.RFC3339

func now() string {
	return time.Now().UTC().Format(timeFormat)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func marshalMetadata(m map[string]any) string {
	if len(m) == 0 {
		return "{}"
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func marshalTags(tags []string) string {
	if len(tags) == 0 {
		return "[]"
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func unmarshalMetadata(s sql.NullString) map[string]any {
	m := map[string]any{}
	if s.Valid && s.String != "" {
		_ = json.Unmarshal([]byte(s.String), &m)
	}
	return m
}

func unmarshalTags(s sql.NullString) []string {
	tags := []string{}
	if s.Valid && s.String != "" {
		_ = json.Unmarshal([]byte(s.String), &tags)
	}
	return tags
}

func nullableID(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

// SaveStrategicInitiativeTemplate stores a new strategic initiative template
// and returns its ID.
func (s *Store) SaveStrategicInitiativeTemplate(t *StrategicInitiativeTemplate) (int64, error) {
	ts := now()
	res, err := s.db.Exec(`
		INSERT INTO strategic_initiative_templates
			(name, content, strategic_context, customer_segment, desired_outcomes,
			 leading_indicators, created_at, updated_at, metadata, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Name, t.Content, t.StrategicContext, t.CustomerSegment, t.DesiredOutcomes,
		t.LeadingIndicators, ts, ts, marshalMetadata(t.Metadata), marshalTags(t.Tags))
	if err != nil {
		return 0, fmt.Errorf("failed to save strategic initiative template: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read template id: %w", err)
	}
	s.logger.Debug("saved strategic initiative template %q (id %d)", t.Name, id)
	return id, nil
}

// GetStrategicInitiativeTemplate fetches one template by ID. Returns
// (nil, nil) when no such template exists.
func (s *Store) GetStrategicInitiativeTemplate(id int64) (*StrategicInitiativeTemplate, error) {
	var t StrategicInitiativeTemplate
	var ctx, seg, out, ind, meta, tags sql.NullString
	var createdAt, updatedAt string
	err := s.db.QueryRow(`
		SELECT id, name, content, strategic_context, customer_segment, desired_outcomes,
		       leading_indicators, created_at, updated_at, metadata, tags
		FROM strategic_initiative_templates WHERE id = ?`, id).Scan(
		&t.ID, &t.Name, &t.Content, &ctx, &seg, &out, &ind, &createdAt, &updatedAt, &meta, &tags)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get strategic initiative template %d: %w", id, err)
	}
	t.StrategicContext = ctx.String
	t.CustomerSegment = seg.String
	t.DesiredOutcomes = out.String
	t.LeadingIndicators = ind.String
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	t.Metadata = unmarshalMetadata(meta)
	t.Tags = unmarshalTags(tags)
	return &t, nil
}

// SaveEpicTemplate stores a new epic template and returns its ID.
func (s *Store) SaveEpicTemplate(t *EpicTemplate) (int64, error) {
	ts := now()
	res, err := s.db.Exec(`
		INSERT INTO epic_templates
			(name, strategic_initiative_id, content, epic_hypothesis_statement,
			 business_outcome, leading_indicators, created_at, updated_at, metadata, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Name, t.StrategicInitiativeID, t.Content, t.EpicHypothesisStatement,
		t.BusinessOutcome, t.LeadingIndicators, ts, ts,
		marshalMetadata(t.Metadata), marshalTags(t.Tags))
	if err != nil {
		return 0, fmt.Errorf("failed to save epic template: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read template id: %w", err)
	}
	s.logger.Debug("saved epic template %q (id %d)", t.Name, id)
	return id, nil
}

// GetEpicTemplate fetches one epic template by ID. Returns (nil, nil) when no
// such template exists.
func (s *Store) GetEpicTemplate(id int64) (*EpicTemplate, error) {
	var t EpicTemplate
	var parent sql.NullInt64
	var hyp, out, ind, meta, tags sql.NullString
	var createdAt, updatedAt string
	err := s.db.QueryRow(`
		SELECT id, name, strategic_initiative_id, content, epic_hypothesis_statement,
		       business_outcome, leading_indicators, created_at, updated_at, metadata, tags
		FROM epic_templates WHERE id = ?`, id).Scan(
		&t.ID, &t.Name, &parent, &t.Content, &hyp, &out, &ind, &createdAt, &updatedAt, &meta, &tags)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get epic template %d: %w", id, err)
	}
	t.StrategicInitiativeID = nullableID(parent)
	t.EpicHypothesisStatement = hyp.String
	t.BusinessOutcome = out.String
	t.LeadingIndicators = ind.String
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	t.Metadata = unmarshalMetadata(meta)
	t.Tags = unmarshalTags(tags)
	return &t, nil
}

// SaveFeatureTemplate stores a new feature template and returns its ID.
func (s *Store) SaveFeatureTemplate(t *FeatureTemplate) (int64, error) {
	ts := now()
	res, err := s.db.Exec(`
		INSERT INTO feature_templates
			(name, epic_id, content, benefit_hypothesis, acceptance_criteria, wsjf,
			 created_at, updated_at, metadata, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Name, t.EpicID, t.Content, t.BenefitHypothesis, t.AcceptanceCriteria, t.WSJF,
		ts, ts, marshalMetadata(t.Metadata), marshalTags(t.Tags))
	if err != nil {
		return 0, fmt.Errorf("failed to save feature template: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read template id: %w", err)
	}
	s.logger.Debug("saved feature template %q (id %d)", t.Name, id)
	return id, nil
}

// GetFeatureTemplate fetches one feature template by ID. Returns (nil, nil)
// when no such template exists.
func (s *Store) GetFeatureTemplate(id int64) (*FeatureTemplate, error) {
	var t FeatureTemplate
	var parent sql.NullInt64
	var ben, acc, wsjf, meta, tags sql.NullString
	var createdAt, updatedAt string
	err := s.db.QueryRow(`
		SELECT id, name, epic_id, content, benefit_hypothesis, acceptance_criteria, wsjf,
		       created_at, updated_at, metadata, tags
		FROM feature_templates WHERE id = ?`, id).Scan(
		&t.ID, &t.Name, &parent, &t.Content, &ben, &acc, &wsjf, &createdAt, &updatedAt, &meta, &tags)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feature template %d: %w", id, err)
	}
	t.EpicID = nullableID(parent)
	t.BenefitHypothesis = ben.String
	t.AcceptanceCriteria = acc.String
	t.WSJF = wsjf.String
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	t.Metadata = unmarshalMetadata(meta)
	t.Tags = unmarshalTags(tags)
	return &t, nil
}

// SaveStoryTemplate stores a new story template and returns its ID.
func (s *Store) SaveStoryTemplate(t *StoryTemplate) (int64, error) {
	ts := now()
	res, err := s.db.Exec(`
		INSERT INTO story_templates
			(name, feature_id, content, description, acceptance_criteria,
			 created_at, updated_at, metadata, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Name, t.FeatureID, t.Content, t.Description, t.AcceptanceCriteria,
		ts, ts, marshalMetadata(t.Metadata), marshalTags(t.Tags))
	if err != nil {
		return 0, fmt.Errorf("failed to save story template: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read template id: %w", err)
	}
	s.logger.Debug("saved story template %q (id %d)", t.Name, id)
	return id, nil
}

// GetStoryTemplate fetches one story template by ID. Returns (nil, nil) when
// no such template exists.
func (s *Store) GetStoryTemplate(id int64) (*StoryTemplate, error) {
	var t StoryTemplate
	var parent sql.NullInt64
	var desc, acc, meta, tags sql.NullString
	var createdAt, updatedAt string
	err := s.db.QueryRow(`
		SELECT id, name, feature_id, content, description, acceptance_criteria,
		       created_at, updated_at, metadata, tags
		FROM story_templates WHERE id = ?`, id).Scan(
		&t.ID, &t.Name, &parent, &t.Content, &desc, &acc, &createdAt, &updatedAt, &meta, &tags)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get story template %d: %w", id, err)
	}
	t.FeatureID = nullableID(parent)
	t.Description = desc.String
	t.AcceptanceCriteria = acc.String
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	t.Metadata = unmarshalMetadata(meta)
	t.Tags = unmarshalTags(tags)
	return &t, nil
}

// TemplateUpdate holds the fields an update may change. Nil fields are left
// untouched; an update with no fields set is a no-op and reports false.
type TemplateUpdate struct {
	Name     *string
	Content  *string
	ParentID *int64
	Fields   map[string]string // extra type-specific columns, e.g. "business_outcome"
	Metadata map[string]any
	Tags     []string
}

// Columns each template table accepts through TemplateUpdate.Fields.
var templateFieldColumns = map[string]map[string]bool{
	"strategic_initiative_templates": {
		"strategic_context": true, "customer_segment": true,
		"desired_outcomes": true, "leading_indicators": true,
	},
	"epic_templates": {
		"epic_hypothesis_statement": true, "business_outcome": true,
		"leading_indicators": true,
	},
	"feature_templates": {
		"benefit_hypothesis": true, "acceptance_criteria": true, "wsjf": true,
	},
	"story_templates": {
		"description": true, "acceptance_criteria": true,
	},
}

var templateParentColumns = map[string]string{
	"epic_templates":    "strategic_initiative_id",
	"feature_templates": "epic_id",
	"story_templates":   "feature_id",
}

// UpdateStrategicInitiativeTemplate applies a partial update. Reports whether
// a row changed.
func (s *Store) UpdateStrategicInitiativeTemplate(id int64, u TemplateUpdate) (bool, error) {
	return s.updateTemplate("strategic_initiative_templates", id, u)
}

// UpdateEpicTemplate applies a partial update. Reports whether a row changed.
func (s *Store) UpdateEpicTemplate(id int64, u TemplateUpdate) (bool, error) {
	return s.updateTemplate("epic_templates", id, u)
}

// UpdateFeatureTemplate applies a partial update. Reports whether a row changed.
func (s *Store) UpdateFeatureTemplate(id int64, u TemplateUpdate) (bool, error) {
	return s.updateTemplate("feature_templates", id, u)
}

// UpdateStoryTemplate applies a partial update. Reports whether a row changed.
func (s *Store) UpdateStoryTemplate(id int64, u TemplateUpdate) (bool, error) {
	return s.updateTemplate("story_templates", id, u)
}

func (s *Store) updateTemplate(table string, id int64, u TemplateUpdate) (bool, error) {
	var sets []string
	var params []any

	if u.Name != nil {
		sets = append(sets, "name = ?")
		params = append(params, *u.Name)
	}
	if u.Content != nil {
		sets = append(sets, "content = ?")
		params = append(params, *u.Content)
	}
	if u.ParentID != nil {
		col, ok := templateParentColumns[table]
		if !ok {
			return false, fmt.Errorf("%s has no parent column", table)
		}
		sets = append(sets, col+" = ?")
		params = append(params, *u.ParentID)
	}
	allowed := templateFieldColumns[table]
	for col, val := range u.Fields {
		if !allowed[col] {
			return false, fmt.Errorf("unknown column %q for %s", col, table)
		}
		sets = append(sets, col+" = ?")
		params = append(params, val)
	}
	if u.Metadata != nil {
		sets = append(sets, "metadata = ?")
		params = append(params, marshalMetadata(u.Metadata))
	}
	if u.Tags != nil {
		sets = append(sets, "tags = ?")
		params = append(params, marshalTags(u.Tags))
	}

	if len(sets) == 0 {
		return false, nil
	}

	sets = append(sets, "updated_at = ?")
	params = append(params, now(), id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", table, strings.Join(sets, ", "))
	res, err := s.db.Exec(query, params...)
	if err != nil {
		return false, fmt.Errorf("failed to update %s %d: %w", table, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read update result: %w", err)
	}
	return n > 0, nil
}

// DeleteStrategicInitiativeTemplate removes a template. Reports whether a row
// was deleted.
func (s *Store) DeleteStrategicInitiativeTemplate(id int64) (bool, error) {
	return s.deleteByID("strategic_initiative_templates", id)
}

// DeleteEpicTemplate removes a template. Reports whether a row was deleted.
func (s *Store) DeleteEpicTemplate(id int64) (bool, error) {
	return s.deleteByID("epic_templates", id)
}

// DeleteFeatureTemplate removes a template. Reports whether a row was deleted.
func (s *Store) DeleteFeatureTemplate(id int64) (bool, error) {
	return s.deleteByID("feature_templates", id)
}

// DeleteStoryTemplate removes a template. Reports whether a row was deleted.
func (s *Store) DeleteStoryTemplate(id int64) (bool, error) {
	return s.deleteByID("story_templates", id)
}

func (s *Store) deleteByID(table string, id int64) (bool, error) {
	res, err := s.db.Exec(fmt.Sprintf("DELETE FROM %s WHERE id = ?", table), id)
	if err != nil {
		return false, fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}
	return n > 0, nil
}

// ListStrategicInitiativeTemplates lists template summaries, most recently
// updated first.
func (s *Store) ListStrategicInitiativeTemplates(f ListFilter) ([]TemplateSummary, error) {
	return s.listTemplates("strategic_initiative_templates", "", f)
}

// ListEpicTemplates lists epic template summaries, most recently updated
// first. Filter by ParentID to list the epics of one strategic initiative.
func (s *Store) ListEpicTemplates(f ListFilter) ([]TemplateSummary, error) {
	return s.listTemplates("epic_templates", "strategic_initiative_id", f)
}

// ListFeatureTemplates lists feature template summaries, most recently
// updated first. Filter by ParentID to list the features of one epic.
func (s *Store) ListFeatureTemplates(f ListFilter) ([]TemplateSummary, error) {
	return s.listTemplates("feature_templates", "epic_id", f)
}

// ListStoryTemplates lists story template summaries, most recently updated
// first. Filter by ParentID to list the stories of one feature.
func (s *Store) ListStoryTemplates(f ListFilter) ([]TemplateSummary, error) {
	return s.listTemplates("story_templates", "feature_id", f)
}

func (s *Store) listTemplates(table, parentCol string, f ListFilter) ([]TemplateSummary, error) {
	parentSelect := "NULL"
	if parentCol != "" {
		parentSelect = parentCol
	}

	query := fmt.Sprintf(
		"SELECT id, name, %s, created_at, updated_at, tags FROM %s", parentSelect, table)
	var params []any

	switch {
	case f.ParentID != nil && parentCol != "":
		query += fmt.Sprintf(" WHERE %s = ?", parentCol)
		params = append(params, *f.ParentID)
	case f.Search != "":
		query += " WHERE name LIKE ? OR content LIKE ?"
		pattern := "%" + f.Search + "%"
		params = append(params, pattern, pattern)
	}

	query += " ORDER BY updated_at DESC LIMIT ? OFFSET ?"
	params = append(params, f.limit(), f.Offset)

	rows, err := s.db.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []TemplateSummary
	for rows.Next() {
		var (
			sum                  TemplateSummary
			parent               sql.NullInt64
			tags                 sql.NullString
			createdAt, updatedAt string
		)
		if err := rows.Scan(&sum.ID, &sum.Name, &parent, &createdAt, &updatedAt, &tags); err != nil {
			return nil, fmt.Errorf("failed to scan %s summary: %w", table, err)
		}
		sum.ParentID = nullableID(parent)
		sum.CreatedAt = parseTime(createdAt)
		sum.UpdatedAt = parseTime(updatedAt)
		sum.Tags = unmarshalTags(tags)
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s rows error: %w", table, err)
	}
	return summaries, nil
}

// ExportAllEpicTemplates returns every epic template in full, most recently
// updated first, for JSON export.
func (s *Store) ExportAllEpicTemplates() ([]EpicTemplate, error) {
	ids, err := s.allIDs("epic_templates")
	if err != nil {
		return nil, err
	}
	out := make([]EpicTemplate, 0, len(ids))
	for _, id := range ids {
		t, err := s.GetEpicTemplate(id)
		if err != nil {
			return nil, err
		}
		if t != nil {
			out = append(out, *t)
		}
	}
	return out, nil
}

// ExportAllFeatureTemplates returns every feature template in full, most
// recently updated first, for JSON export.
func (s *Store) ExportAllFeatureTemplates() ([]FeatureTemplate, error) {
	ids, err := s.allIDs("feature_templates")
	if err != nil {
		return nil, err
	}
	out := make([]FeatureTemplate, 0, len(ids))
	for _, id := range ids {
		t, err := s.GetFeatureTemplate(id)
		if err != nil {
			return nil, err
		}
		if t != nil {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *Store) allIDs(table string) ([]int64, error) {
	rows, err := s.db.Query(fmt.Sprintf(
		"SELECT id FROM %s ORDER BY updated_at DESC", table))
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s id rows error: %w", table, err)
	}
	return ids, nil
}
