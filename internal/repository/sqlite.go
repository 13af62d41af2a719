package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/makolaonline/whatsapp-router/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store and migrates its schema.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", withConnParams(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// connParams are applied by the driver on every new pooled connection.
// Each entry lists the accepted spellings of a key and the default setting.
var connParams = []struct {
	keys  []string
	value string
}{
	{keys: []string{"_foreign_keys", "_fk"}, value: "_foreign_keys=on"},
	{keys: []string{"_busy_timeout", "_timeout"}, value: "_busy_timeout=5000"},
}

// withConnParams appends the default connection parameters that dsn does not
// already set.
func withConnParams(dsn string) string {
	var query string
	if i := strings.IndexByte(dsn, '?'); i >= 0 {
		query = dsn[i+1:]
	}
	values, _ := url.ParseQuery(query)

	for _, p := range connParams {
		set := false
		for _, key := range p.keys {
			if _, ok := values[key]; ok {
				set = true
				break
			}
		}
		if set {
			continue
		}
		if strings.Contains(dsn, "?") {
			dsn += "&" + p.value
		} else {
			dsn += "?" + p.value
		}
	}
	return dsn
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			sender_id TEXT NOT NULL UNIQUE,
			created_at DATETIME NOT NULL,
			last_activity_at DATETIME NOT NULL,
			state TEXT NOT NULL DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS sellers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			whatsapp TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sellers_whatsapp ON sellers(whatsapp)`,
		`CREATE TABLE IF NOT EXISTS riders (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			whatsapp TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_riders_whatsapp ON riders(whatsapp)`,
		`CREATE TABLE IF NOT EXISTS whatsapp_uploads (
			id TEXT PRIMARY KEY,
			seller_id TEXT NOT NULL,
			whatsapp_number TEXT NOT NULL,
			message_text TEXT NOT NULL,
			images TEXT NOT NULL DEFAULT '[]',
			parsed_title TEXT NOT NULL DEFAULT '',
			parsed_price REAL NOT NULL DEFAULT 0,
			parsed_description TEXT NOT NULL DEFAULT '',
			parsed_category TEXT NOT NULL DEFAULT 'General',
			status TEXT NOT NULL DEFAULT 'pending',
			created_at DATETIME NOT NULL,
			FOREIGN KEY (seller_id) REFERENCES sellers(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_uploads_seller ON whatsapp_uploads(seller_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS delivery_jobs (
			id TEXT PRIMARY KEY,
			seller_id TEXT NOT NULL DEFAULT '',
			pickup_location TEXT NOT NULL,
			dropoff_location TEXT NOT NULL,
			buyer_contact TEXT NOT NULL DEFAULT '',
			quoted_fee REAL NOT NULL DEFAULT 0,
			delivery_note TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'requested',
			rider_id TEXT,
			proof_photo TEXT NOT NULL DEFAULT '',
			proof_otp TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			accepted_at DATETIME,
			picked_up_at DATETIME,
			delivered_at DATETIME,
			completed_at DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_status_created ON delivery_jobs(status, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_rider ON delivery_jobs(rider_id, status)`,
		`CREATE TABLE IF NOT EXISTS job_events (
			event_id TEXT PRIMARY KEY,
			job_id TEXT NOT NULL,
			ts INTEGER NOT NULL,
			type TEXT NOT NULL,
			payload TEXT,
			FOREIGN KEY (job_id) REFERENCES delivery_jobs(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_job_events_job ON job_events(job_id, ts)`,
		`CREATE TABLE IF NOT EXISTS rider_commands (
			id TEXT PRIMARY KEY,
			rider_id TEXT NOT NULL,
			job_id TEXT,
			command TEXT NOT NULL,
			raw_text TEXT NOT NULL,
			outcome TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rider_commands_rider ON rider_commands(rider_id, created_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}

	// accept_attempts arrived after the first deployments of delivery_jobs.
	if err := s.ensureColumn("delivery_jobs", "accept_attempts", "ALTER TABLE delivery_jobs ADD COLUMN accept_attempts INTEGER NOT NULL DEFAULT 0"); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteStore) ensureColumn(tableName, columnName, ddl string) error {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull int
		var dfltValue sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return err
		}
		if name == columnName {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	_, err = s.db.Exec(ddl)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetOrCreateSession returns the sender's session, creating it on first
// contact. The insert is keyed on sender_id so concurrent callers converge
// on one row.
func (s *SQLiteStore) GetOrCreateSession(ctx context.Context, senderID string) (*domain.Session, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, sender_id, created_at, last_activity_at, state) VALUES (?, ?, ?, ?, '{}')
		ON CONFLICT(sender_id) DO NOTHING`,
		"ses_"+uuid.New().String()[:8], senderID, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}

	var session domain.Session
	var state string
	err = s.db.QueryRowContext(ctx,
		`SELECT id, sender_id, created_at, last_activity_at, state FROM sessions WHERE sender_id = ?`,
		senderID).Scan(&session.ID, &session.SenderID, &session.CreatedAt, &session.LastActivityAt, &state)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	session.State = json.RawMessage(state)
	return &session, nil
}

// TouchSession records activity on a session.
func (s *SQLiteStore) TouchSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET last_activity_at = ? WHERE id = ?`,
		time.Now().UTC(), sessionID)
	return err
}

// FindSellerByContact finds the seller registered with the given WhatsApp number.
func (s *SQLiteStore) FindSellerByContact(ctx context.Context, contact string) (*domain.Seller, error) {
	var seller domain.Seller
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, whatsapp FROM sellers WHERE whatsapp = ? ORDER BY created_at, id LIMIT 1`,
		contact).Scan(&seller.ID, &seller.Name, &seller.WhatsApp)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &seller, nil
}

// FindRiderByContact finds the rider registered with the given WhatsApp number.
func (s *SQLiteStore) FindRiderByContact(ctx context.Context, contact string) (*domain.Rider, error) {
	var rider domain.Rider
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, whatsapp, status FROM riders WHERE whatsapp = ? ORDER BY created_at, id LIMIT 1`,
		contact).Scan(&rider.ID, &rider.Name, &rider.WhatsApp, &rider.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rider, nil
}

// GetRider retrieves a rider by ID. It returns nil when none exists.
func (s *SQLiteStore) GetRider(ctx context.Context, riderID string) (*domain.Rider, error) {
	var rider domain.Rider
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, whatsapp, status FROM riders WHERE id = ?`,
		riderID).Scan(&rider.ID, &rider.Name, &rider.WhatsApp, &rider.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rider, nil
}

// UpsertSeller creates or updates a seller.
func (s *SQLiteStore) UpsertSeller(ctx context.Context, seller *domain.Seller) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sellers (id, name, whatsapp) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, whatsapp = excluded.whatsapp`,
		seller.ID, seller.Name, seller.WhatsApp)
	return err
}

// UpsertRider creates or updates a rider.
func (s *SQLiteStore) UpsertRider(ctx context.Context, rider *domain.Rider) error {
	status := rider.Status
	if status == "" {
		status = domain.RiderStatusActive
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO riders (id, name, whatsapp, status) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, whatsapp = excluded.whatsapp, status = excluded.status`,
		rider.ID, rider.Name, rider.WhatsApp, status)
	return err
}

// InsertProductDraft stores a product upload draft.
func (s *SQLiteStore) InsertProductDraft(ctx context.Context, draft *domain.ProductUploadDraft) error {
	images := draft.ImageRefs
	if images == nil {
		images = []string{}
	}
	imagesJSON, _ := json.Marshal(images)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO whatsapp_uploads (id, seller_id, whatsapp_number, message_text, images, parsed_title,
			parsed_price, parsed_description, parsed_category, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		draft.ID, draft.SellerID, draft.SenderID, draft.RawText, string(imagesJSON), draft.ParsedTitle,
		draft.ParsedPrice, draft.ParsedDescription, draft.ParsedCategory, draft.Status, draft.CreatedAt.UTC())
	return err
}

// ListProductDrafts lists drafts, newest first. Empty filters match everything.
func (s *SQLiteStore) ListProductDrafts(ctx context.Context, sellerID string, status domain.UploadStatus, limit int) ([]domain.ProductUploadDraft, error) {
	query := `SELECT id, seller_id, whatsapp_number, message_text, images, parsed_title, parsed_price,
		parsed_description, parsed_category, status, created_at FROM whatsapp_uploads WHERE 1 = 1`
	var args []interface{}
	if sellerID != "" {
		query += ` AND seller_id = ?`
		args = append(args, sellerID)
	}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drafts []domain.ProductUploadDraft
	for rows.Next() {
		var d domain.ProductUploadDraft
		var images string
		if err := rows.Scan(&d.ID, &d.SellerID, &d.SenderID, &d.RawText, &images, &d.ParsedTitle, &d.ParsedPrice,
			&d.ParsedDescription, &d.ParsedCategory, &d.Status, &d.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(images), &d.ImageRefs); err != nil {
			return nil, fmt.Errorf("failed to decode images for upload %s: %w", d.ID, err)
		}
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}

const jobColumns = `id, seller_id, pickup_location, dropoff_location, buyer_contact, quoted_fee, delivery_note,
	status, rider_id, accept_attempts, proof_photo, proof_otp, created_at, accepted_at, picked_up_at,
	delivered_at, completed_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*domain.DeliveryJob, error) {
	var job domain.DeliveryJob
	var riderID sql.NullString
	var acceptedAt, pickedUpAt, deliveredAt, completedAt sql.NullTime
	err := row.Scan(&job.ID, &job.SellerID, &job.PickupLocation, &job.DropoffLocation, &job.BuyerContact,
		&job.QuotedFee, &job.DeliveryNote, &job.Status, &riderID, &job.AcceptAttempts, &job.ProofPhoto,
		&job.ProofOTP, &job.CreatedAt, &acceptedAt, &pickedUpAt, &deliveredAt, &completedAt)
	if err != nil {
		return nil, err
	}
	if riderID.Valid {
		job.RiderID = &riderID.String
	}
	job.AcceptedAt = nullTime(acceptedAt)
	job.PickedUpAt = nullTime(pickedUpAt)
	job.DeliveredAt = nullTime(deliveredAt)
	job.CompletedAt = nullTime(completedAt)
	return &job, nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func (s *SQLiteStore) queryJobs(ctx context.Context, query string, args ...interface{}) ([]domain.DeliveryJob, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.DeliveryJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// CreateJob creates a delivery job.
func (s *SQLiteStore) CreateJob(ctx context.Context, job *domain.DeliveryJob) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO delivery_jobs (id, seller_id, pickup_location, dropoff_location, buyer_contact, quoted_fee,
			delivery_note, status, rider_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.SellerID, job.PickupLocation, job.DropoffLocation, job.BuyerContact, job.QuotedFee,
		job.DeliveryNote, job.Status, job.RiderID, job.CreatedAt.UTC())
	return err
}

// GetJob retrieves a delivery job by ID.
func (s *SQLiteStore) GetJob(ctx context.Context, jobID string) (*domain.DeliveryJob, error) {
	job, err := scanJob(s.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM delivery_jobs WHERE id = ?`, jobID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// FindJobsByPrefix returns jobs whose id starts with prefix.
func (s *SQLiteStore) FindJobsByPrefix(ctx context.Context, prefix string, limit int) ([]domain.DeliveryJob, error) {
	if limit <= 0 {
		limit = 2
	}
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)
	return s.queryJobs(ctx,
		`SELECT `+jobColumns+` FROM delivery_jobs WHERE id LIKE ? ESCAPE '\' ORDER BY created_at LIMIT ?`,
		escaped+"%", limit)
}

// ListJobs lists jobs matching the filter, oldest first.
func (s *SQLiteStore) ListJobs(ctx context.Context, filter domain.JobFilter) ([]domain.DeliveryJob, error) {
	query := `SELECT ` + jobColumns + ` FROM delivery_jobs WHERE 1 = 1`
	var args []interface{}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, st)
		}
		query += ` AND status IN (` + strings.Join(placeholders, ", ") + `)`
	}
	if filter.RiderID != "" {
		query += ` AND rider_id = ?`
		args = append(args, filter.RiderID)
	}
	if filter.Unassigned {
		query += ` AND rider_id IS NULL`
	}
	query += ` ORDER BY created_at ASC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	return s.queryJobs(ctx, query, args...)
}

// ListOpenJobs lists jobs waiting for a rider.
func (s *SQLiteStore) ListOpenJobs(ctx context.Context, limit int) ([]domain.DeliveryJob, error) {
	return s.ListJobs(ctx, domain.JobFilter{
		Statuses:   []domain.JobStatus{domain.JobStatusRequested},
		Unassigned: true,
		Limit:      limit,
	})
}

// ListRiderActiveJobs lists the accepted and picked up jobs of a rider.
func (s *SQLiteStore) ListRiderActiveJobs(ctx context.Context, riderID string) ([]domain.DeliveryJob, error) {
	return s.ListJobs(ctx, domain.JobFilter{
		Statuses: []domain.JobStatus{domain.JobStatusAccepted, domain.JobStatusPickedUp},
		RiderID:  riderID,
	})
}

// ConditionalAcceptJob assigns riderID to the job if it is still requested
// and unassigned. Every attempt is counted, won or lost.
func (s *SQLiteStore) ConditionalAcceptJob(ctx context.Context, jobID, riderID string, at time.Time) (bool, error) {
	if strings.TrimSpace(riderID) == "" {
		return false, errors.New("rider is required to accept a job")
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE delivery_jobs SET accept_attempts = accept_attempts + 1 WHERE id = ?`, jobID); err != nil {
		return false, fmt.Errorf("failed to count accept attempt: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE delivery_jobs SET rider_id = ?, status = ?, accepted_at = ?
		WHERE id = ? AND status = ? AND rider_id IS NULL`,
		riderID, domain.JobStatusAccepted, at.UTC(), jobID, domain.JobStatusRequested)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

var transitionColumns = map[domain.JobStatus]string{
	domain.JobStatusAccepted:  "accepted_at",
	domain.JobStatusPickedUp:  "picked_up_at",
	domain.JobStatusDelivered: "delivered_at",
	domain.JobStatusCompleted: "completed_at",
}

// UpdateJobStatus applies a guarded status transition.
func (s *SQLiteStore) UpdateJobStatus(ctx context.Context, u JobStatusUpdate) (bool, error) {
	column, ok := transitionColumns[u.To]
	if !ok {
		return false, fmt.Errorf("no transition into status %q", u.To)
	}
	if u.RequireRider && strings.TrimSpace(u.RiderID) == "" {
		return false, errors.New("rider is required for this transition")
	}

	set := []string{"status = ?", column + " = ?"}
	args := []interface{}{u.To, u.At.UTC()}
	if u.Proof != nil {
		set = append(set, "proof_photo = ?", "proof_otp = ?")
		args = append(args, u.Proof.Photo, u.Proof.OTP)
	}

	query := `UPDATE delivery_jobs SET ` + strings.Join(set, ", ") + ` WHERE id = ? AND status = ?`
	args = append(args, u.JobID, u.From)
	if u.RequireRider {
		query += ` AND rider_id = ?`
		args = append(args, u.RiderID)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// CreateJobEvent creates a job event.
func (s *SQLiteStore) CreateJobEvent(ctx context.Context, event *domain.JobEvent) error {
	var payload sql.NullString
	if event.Payload != nil {
		payload = sql.NullString{String: string(event.Payload), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO job_events (event_id, job_id, ts, type, payload) VALUES (?, ?, ?, ?, ?)`,
		event.EventID, event.JobID, event.Ts, event.Type, payload)
	return err
}

// GetJobEvents retrieves the events of a job in order.
func (s *SQLiteStore) GetJobEvents(ctx context.Context, jobID string, limit int) ([]domain.JobEvent, error) {
	query := `SELECT event_id, job_id, ts, type, payload FROM job_events WHERE job_id = ? ORDER BY ts ASC, rowid ASC`
	args := []interface{}{jobID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.JobEvent
	for rows.Next() {
		var e domain.JobEvent
		var payload sql.NullString
		if err := rows.Scan(&e.EventID, &e.JobID, &e.Ts, &e.Type, &payload); err != nil {
			return nil, err
		}
		if payload.Valid {
			e.Payload = json.RawMessage(payload.String)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// CreateCommandLog appends to the rider command log.
func (s *SQLiteStore) CreateCommandLog(ctx context.Context, entry *domain.CommandLog) error {
	var jobID sql.NullString
	if entry.JobID != "" {
		jobID = sql.NullString{String: entry.JobID, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rider_commands (id, rider_id, job_id, command, raw_text, outcome, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.RiderID, jobID, entry.Command, entry.RawText, entry.Outcome, entry.CreatedAt.UTC())
	return err
}

// ListCommandLogs lists a rider's commands, newest first.
func (s *SQLiteStore) ListCommandLogs(ctx context.Context, riderID string, limit int) ([]domain.CommandLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, rider_id, job_id, command, raw_text, outcome, created_at FROM rider_commands
		WHERE rider_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		riderID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.CommandLog
	for rows.Next() {
		var e domain.CommandLog
		var jobID sql.NullString
		if err := rows.Scan(&e.ID, &e.RiderID, &jobID, &e.Command, &e.RawText, &e.Outcome, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.JobID = jobID.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
