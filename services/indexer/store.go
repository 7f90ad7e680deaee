// Package indexer persists committed events to a SQL database so clients can
// page through issuer, membership and activity history.
package indexer

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"lukechampine.com/blake3"

	"passmint/core/events"
	"passmint/core/types"
	"passmint/observability"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	defaultPageSize = 50
	maxPageSize     = 500
)

// Store writes events to the index and answers list queries.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger

	mu   sync.Mutex
	next uint64
}

// Open connects to the index database and runs migrations.
func Open(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverSQLite, "":
		if dsn == "" {
			return nil, fmt.Errorf("indexer: sqlite dsn required")
		}
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("indexer: unsupported driver %q", driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("indexer: open: %w", err)
	}
	return New(db)
}

// New wraps an open gorm handle.
func New(db *gorm.DB) (*Store, error) {
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("indexer: migrate: %w", err)
	}
	var last Event
	err := db.Order("sequence desc").Limit(1).Take(&last).Error
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		last.Sequence = 0
	default:
		return nil, fmt.Errorf("indexer: load head: %w", err)
	}
	return &Store{db: db, logger: slog.Default(), next: last.Sequence + 1}, nil
}

func (s *Store) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Digest fingerprints an event at a sequence number. Attributes are hashed in
// key order.
func Digest(sequence uint64, evt *types.Event) string {
	h := blake3.New(32, nil)
	var seq [8]byte
	binary.BigEndian.PutUint64(seq[:], sequence)
	h.Write(seq[:])
	writeField(h, evt.Type)
	keys := make([]string, 0, len(evt.Attributes))
	for k := range evt.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		writeField(h, k)
		writeField(h, evt.Attributes[k])
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeField(h *blake3.Hasher, v string) {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(v)))
	h.Write(n[:])
	h.Write([]byte(v))
}

// Index stores evt at the next sequence number.
func (s *Store) Index(ctx context.Context, evt *types.Event) (*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, err := s.IndexAt(ctx, s.next, evt)
	if err != nil {
		return nil, err
	}
	if row.Sequence >= s.next {
		s.next = row.Sequence + 1
		observability.Events().SetIndexSequence(row.Sequence)
	}
	return row, nil
}

// IndexAt stores evt at sequence. Replaying an identical event at the same
// sequence returns the stored row unchanged.
func (s *Store) IndexAt(ctx context.Context, sequence uint64, evt *types.Event) (*Event, error) {
	if evt == nil || evt.Type == "" {
		return nil, fmt.Errorf("indexer: event type required")
	}
	row := Event{
		ID:        uuid.New(),
		Sequence:  sequence,
		Type:      evt.Type,
		Digest:    Digest(sequence, evt),
		CreatedAt: time.Now().UTC(),
	}
	for k, v := range evt.Attributes {
		row.Attributes = append(row.Attributes, Attribute{EventID: row.ID, Key: k, Value: v})
	}
	sort.Slice(row.Attributes, func(i, j int) bool { return row.Attributes[i].Key < row.Attributes[j].Key })

	outcome := observability.IndexStored
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Event
		err := tx.Preload("Attributes").First(&existing, "digest = ?", row.Digest).Error
		if err == nil {
			row = existing
			outcome = observability.IndexReplayed
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
	})
	if err != nil {
		observability.Events().RecordIndexed(evt.Type, observability.IndexFailed)
		return nil, fmt.Errorf("indexer: store %s: %w", evt.Type, err)
	}
	observability.Events().RecordIndexed(evt.Type, outcome)
	return &row, nil
}

// Emit implements events.Emitter. Events without a wire form are skipped.
func (s *Store) Emit(evt events.Event) {
	wire, ok := evt.(events.Wire)
	if !ok {
		return
	}
	payload := wire.Event()
	if payload == nil {
		return
	}
	if _, err := s.Index(context.Background(), payload); err != nil {
		s.logger.Error("index event", slog.String("type", payload.Type), slog.Any("error", err))
	}
}

// Filter narrows a List query. Zero values match everything.
type Filter struct {
	Type     string
	Key      string
	Value    string
	AfterSeq uint64
	Limit    int
}

// List returns events in sequence order.
func (s *Store) List(ctx context.Context, f Filter) ([]Event, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	query := s.db.WithContext(ctx).Model(&Event{}).Preload("Attributes").
		Where("sequence > ?", f.AfterSeq)
	if f.Type != "" {
		query = query.Where("type = ?", f.Type)
	}
	if f.Key != "" {
		sub := s.db.Model(&Attribute{}).Select("event_id").Where("key = ? AND value = ?", f.Key, f.Value)
		query = query.Where("id IN (?)", sub)
	}
	var out []Event
	if err := query.Order("sequence asc").Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("indexer: list: %w", err)
	}
	return out, nil
}

// ByDigest returns the event with the given digest.
func (s *Store) ByDigest(ctx context.Context, digest string) (*Event, error) {
	var out Event
	err := s.db.WithContext(ctx).Preload("Attributes").First(&out, "digest = ?", strings.ToLower(digest)).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}
