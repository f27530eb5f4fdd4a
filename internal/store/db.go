package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Database wraps the GORM DB handle and exposes repository helpers.
type Database struct {
	gorm *gorm.DB
	mu   sync.Mutex
}

// Open initializes the SQLite-backed database at the provided path.
func Open(path string, silent bool) (*Database, error) {
	cfg := &gorm.Config{}
	if silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&RegistryRecord{}, &CheckSession{}, &SessionProduct{}, &Assessment{}, &JobState{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		logrus.WithError(err).Warn("enable WAL mode")
	}
	if err := db.Exec("PRAGMA synchronous=NORMAL").Error; err != nil {
		logrus.WithError(err).Warn("set synchronous pragma")
	}
	if err := applyIndexes(db); err != nil {
		return nil, fmt.Errorf("apply indexes: %w", err)
	}
	return &Database{gorm: db}, nil
}

// GORM exposes the raw gorm.DB handle.
func (d *Database) GORM() *gorm.DB {
	return d.gorm
}

// Close closes the underlying database connection.
func (d *Database) Close() error {
	if d == nil {
		return nil
	}
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func applyIndexes(db *gorm.DB) error {
	stmts := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_registry_identity ON registry_records(registration, text_normalized)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_assessments_session_article ON assessments(session_id, article)",
		"CREATE INDEX IF NOT EXISTS idx_assessments_status ON assessments(session_id, overall_status)",
		"CREATE INDEX IF NOT EXISTS idx_session_products_order ON session_products(session_id, row_index)",
		"CREATE INDEX IF NOT EXISTS idx_job_states_status_updated ON job_states(status, updated_at)",
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// UpsertRegistryRecord inserts or refreshes a registry entry keyed by the
// (registration, normalized text) identity.
func (d *Database) UpsertRegistryRecord(rec *RegistryRecord) error {
	if rec == nil {
		return errors.New("registry record is nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "registration"}, {Name: "text_normalized"}},
		DoUpdates: clause.AssignmentColumns([]string{"text", "text_no_spaces", "classes_json", "status", "holder", "updated_at"}),
	}).Create(rec).Error
}

// BulkUpsertRegistryRecords inserts records in batches inside one transaction.
func (d *Database) BulkUpsertRegistryRecords(recs []RegistryRecord) error {
	if len(recs) == 0 {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Transaction(func(tx *gorm.DB) error {
		const batchSize = 250
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "registration"}, {Name: "text_normalized"}},
			DoUpdates: clause.AssignmentColumns([]string{"text", "text_no_spaces", "classes_json", "status", "holder", "updated_at"}),
		}).CreateInBatches(recs, batchSize).Error
	})
}

// SearchRegistryRecords returns records whose normalized or space-stripped
// text contains the query.
func (d *Database) SearchRegistryRecords(normalized, noSpaces string, limit int) ([]RegistryRecord, error) {
	if strings.TrimSpace(normalized) == "" {
		return nil, nil
	}
	query := d.gorm.Model(&RegistryRecord{}).
		Where("text_normalized LIKE ? OR text_no_spaces LIKE ?",
			fmt.Sprintf("%%%s%%", normalized), fmt.Sprintf("%%%s%%", noSpaces))
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []RegistryRecord
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountRegistryRecords returns the number of stored registry entries.
func (d *Database) CountRegistryRecords() (int64, error) {
	var count int64
	if err := d.gorm.Model(&RegistryRecord{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CreateSession persists a new check session.
func (d *Database) CreateSession(session *CheckSession) error {
	if session == nil {
		return errors.New("session is nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Create(session).Error
}

// GetSession retrieves a session by ID.
func (d *Database) GetSession(id string) (*CheckSession, error) {
	var session CheckSession
	if err := d.gorm.First(&session, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessions returns sessions newest first.
func (d *Database) ListSessions(offset, limit int) ([]CheckSession, int64, error) {
	var total int64
	if err := d.gorm.Model(&CheckSession{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query := d.gorm.Model(&CheckSession{}).Order("created_at DESC")
	if limit > 0 {
		query = query.Offset(offset).Limit(limit)
	}
	var sessions []CheckSession
	if err := query.Find(&sessions).Error; err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

// UpdateSessionStatus sets the session lifecycle state.
func (d *Database) UpdateSessionStatus(id, status string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Model(&CheckSession{}).Where("id = ?", id).
		Update("status", status).Error
}

// DeleteSession removes a session and its products and assessments.
func (d *Database) DeleteSession(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&Assessment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", id).Delete(&SessionProduct{}).Error; err != nil {
			return err
		}
		return tx.Delete(&CheckSession{}, "id = ?", id).Error
	})
}

// AddSessionProducts appends products to a session and bumps its total.
func (d *Database) AddSessionProducts(sessionID string, products []SessionProduct) error {
	if len(products) == 0 {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Transaction(func(tx *gorm.DB) error {
		if err := tx.CreateInBatches(products, 250).Error; err != nil {
			return err
		}
		return tx.Model(&CheckSession{}).Where("id = ?", sessionID).
			Update("total_items", gorm.Expr("total_items + ?", len(products))).Error
	})
}

// ListSessionProducts returns a session's products in submission order.
func (d *Database) ListSessionProducts(sessionID string, offset, limit int) ([]SessionProduct, int64, error) {
	var total int64
	if err := d.gorm.Model(&SessionProduct{}).Where("session_id = ?", sessionID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query := d.gorm.Model(&SessionProduct{}).
		Where("session_id = ?", sessionID).Order("row_index ASC")
	if limit > 0 {
		query = query.Offset(offset).Limit(limit)
	}
	var rows []SessionProduct
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// SaveAssessment inserts or refreshes the per-product verdict, keyed by the
// (session, article) identity.
func (d *Database) SaveAssessment(a *Assessment) error {
	if a == nil {
		return errors.New("assessment is nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "session_id"}, {Name: "article"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "overall_status", "overall_score", "factors_json", "summary",
			"recommendations_json", "manual_items_json", "requires_manual_check",
			"trademark_json", "processing_time_ms", "updated_at",
		}),
	}).Create(a).Error
}

// AssessmentQuery encapsulates filters and pagination for listing verdicts.
type AssessmentQuery struct {
	SessionID string
	Status    string
	Query     string
	Sort      string
	Offset    int
	Limit     int
}

// ListAssessments returns paginated verdicts applying optional filters.
func (d *Database) ListAssessments(opts AssessmentQuery) ([]Assessment, int64, error) {
	base := d.gorm.Model(&Assessment{})
	if opts.SessionID != "" {
		base = base.Where("session_id = ?", opts.SessionID)
	}
	if status := strings.ToLower(strings.TrimSpace(opts.Status)); status != "" {
		base = base.Where("overall_status = ?", status)
	}
	if opts.Query != "" {
		like := fmt.Sprintf("%%%s%%", opts.Query)
		base = base.Where("article LIKE ? OR name LIKE ?", like, like)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := base.Order(orderForSort(opts.Sort)).Offset(opts.Offset)
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	var rows []Assessment
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func orderForSort(sort string) string {
	switch strings.ToLower(strings.TrimSpace(sort)) {
	case "score_asc":
		return "assessments.overall_score ASC, assessments.id ASC"
	case "score_desc":
		return "assessments.overall_score DESC, assessments.id ASC"
	case "article_asc":
		return "assessments.article ASC"
	case "article_desc":
		return "assessments.article DESC"
	case "created_asc":
		return "assessments.created_at ASC"
	case "created_desc":
		return "assessments.created_at DESC"
	default:
		return "assessments.id ASC"
	}
}

// AssessedArticles returns the articles already holding a verdict in the
// session.
func (d *Database) AssessedArticles(sessionID string) ([]string, error) {
	var articles []string
	if err := d.gorm.Model(&Assessment{}).
		Where("session_id = ?", sessionID).
		Pluck("article", &articles).Error; err != nil {
		return nil, err
	}
	return articles, nil
}

// RefreshSessionStats recomputes the session's checked and traffic-light
// counters from the stored assessments.
func (d *Database) RefreshSessionStats(sessionID string) error {
	type statusCount struct {
		OverallStatus string
		Total         int
	}
	var counts []statusCount
	if err := d.gorm.Model(&Assessment{}).
		Select("overall_status, COUNT(*) AS total").
		Where("session_id = ?", sessionID).
		Group("overall_status").
		Scan(&counts).Error; err != nil {
		return err
	}
	updates := map[string]any{
		"checked_items": 0,
		"red_count":     0,
		"yellow_count":  0,
		"green_count":   0,
		"updated_at":    time.Now(),
	}
	checked := 0
	for _, c := range counts {
		checked += c.Total
		switch c.OverallStatus {
		case "red":
			updates["red_count"] = c.Total
		case "yellow":
			updates["yellow_count"] = c.Total
		case "green":
			updates["green_count"] = c.Total
		}
	}
	updates["checked_items"] = checked
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Model(&CheckSession{}).Where("id = ?", sessionID).Updates(updates).Error
}

// SaveJobState upserts evaluation job metadata.
func (d *Database) SaveJobState(state *JobState) error {
	if state == nil {
		return errors.New("job state is nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "job_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"session_id", "status", "message", "processed", "total", "last_event_json", "updated_at"}),
	}).Create(state).Error
}

// GetJobState fetches a job record by ID.
func (d *Database) GetJobState(jobID string) (*JobState, error) {
	var state JobState
	if err := d.gorm.First(&state, "job_id = ?", jobID).Error; err != nil {
		return nil, err
	}
	return &state, nil
}
