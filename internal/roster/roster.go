// Package roster keeps the bed and water crew name lists used to fill staff
// pickers. The roster is advisory: records may carry names that are not on it.
package roster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"roomcheck/internal/config"
	"roomcheck/internal/inspection"
	"roomcheck/internal/logging"
	"roomcheck/internal/store"
)

// All targets both crew lists.
const All inspection.StaffSlot = "all"

// ErrEmptyName rejects blank additions.
var ErrEmptyName = errors.New("staff name is required")

// ParseTarget accepts bed, water or all.
func ParseTarget(value string) (inspection.StaffSlot, error) {
	if strings.EqualFold(strings.TrimSpace(value), string(All)) {
		return All, nil
	}
	return inspection.ParseSlot(value)
}

// Roster is the persisted staff list document.
type Roster struct {
	Bed   []string `json:"bed"`
	Water []string `json:"water"`
}

// Names returns the list for slot. All yields the sorted union.
func (r Roster) Names(slot inspection.StaffSlot) []string {
	switch slot {
	case inspection.SlotBed:
		return slices.Clone(r.Bed)
	case inspection.SlotWater:
		return slices.Clone(r.Water)
	default:
		union := slices.Clone(r.Bed)
		for _, name := range r.Water {
			if !slices.Contains(union, name) {
				union = append(union, name)
			}
		}
		sortNames(union)
		return union
	}
}

// Search filters the names for slot by a case-insensitive substring match.
func (r Roster) Search(slot inspection.StaffSlot, query string) []string {
	names := r.Names(slot)
	query = strings.TrimSpace(query)
	if query == "" {
		return names
	}
	fold := cases.Fold()
	needle := fold.String(query)
	out := names[:0]
	for _, name := range names {
		if strings.Contains(fold.String(name), needle) {
			out = append(out, name)
		}
	}
	return out
}

var (
	collatorMu sync.Mutex
	collator   = collate.New(language.TraditionalChinese)
)

// sortNames orders names the way a zh-TW reader expects.
func sortNames(names []string) {
	collatorMu.Lock()
	defer collatorMu.Unlock()
	collator.SortStrings(names)
}

func normalize(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || slices.Contains(out, name) {
			continue
		}
		out = append(out, name)
	}
	sortNames(out)
	return out
}

// DocumentStore is the slice of the store the roster needs.
type DocumentStore interface {
	Get(ctx context.Context, collection, id string) (store.Document, error)
	Set(ctx context.Context, collection, id string, data json.RawMessage) error
}

// Service reads and edits the roster document.
type Service struct {
	store      DocumentStore
	collection string
	seed       Roster
	timeout    time.Duration
	gate       func() error
	logger     *slog.Logger

	mu sync.Mutex
}

// Option customizes a Service.
type Option func(*Service)

// WithWriteGate refuses writes while gate returns an error.
func WithWriteGate(gate func() error) Option {
	return func(s *Service) { s.gate = gate }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logging.NewComponentLogger(logger, "roster") }
}

// New builds a roster service. The [roster] section seeds a missing document.
func New(st DocumentStore, cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		store:      st,
		collection: store.SettingsCollection(cfg.Store.AppID),
		seed:       Roster{Bed: normalize(cfg.Roster.Bed), Water: normalize(cfg.Roster.Water)},
		timeout:    cfg.StoreTimeout(),
		gate:       func() error { return nil },
		logger:     logging.NewComponentLogger(nil, "roster"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the stored roster, or the configured seed when none is stored.
func (s *Service) Load(ctx context.Context) (Roster, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	doc, err := s.store.Get(ctx, s.collection, store.StaffListID)
	if errors.Is(err, store.ErrNotFound) {
		return Roster{Bed: slices.Clone(s.seed.Bed), Water: slices.Clone(s.seed.Water)}, nil
	}
	if err != nil {
		return Roster{}, fmt.Errorf("load roster: %w", err)
	}
	var r Roster
	if err := json.Unmarshal(doc.Data, &r); err != nil {
		return Roster{}, fmt.Errorf("decode roster: %w", err)
	}
	r.Bed = normalize(r.Bed)
	r.Water = normalize(r.Water)
	return r, nil
}

// Add puts name on the target list, or both for All. A name already present
// is left alone.
func (s *Service) Add(ctx context.Context, name string, target inspection.StaffSlot) (Roster, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Roster{}, ErrEmptyName
	}
	return s.modify(ctx, func(r *Roster) {
		if target == inspection.SlotBed || target == All {
			r.Bed = append(r.Bed, name)
		}
		if target == inspection.SlotWater || target == All {
			r.Water = append(r.Water, name)
		}
	})
}

// Remove deletes name from both lists.
func (s *Service) Remove(ctx context.Context, name string) (Roster, error) {
	name = strings.TrimSpace(name)
	return s.modify(ctx, func(r *Roster) {
		drop := func(n string) bool { return n == name }
		r.Bed = slices.DeleteFunc(r.Bed, drop)
		r.Water = slices.DeleteFunc(r.Water, drop)
	})
}

func (s *Service) modify(ctx context.Context, change func(*Roster)) (Roster, error) {
	if err := s.gate(); err != nil {
		return Roster{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.Load(ctx)
	if err != nil {
		return Roster{}, err
	}
	change(&r)
	r.Bed = normalize(r.Bed)
	r.Water = normalize(r.Water)

	body, err := json.Marshal(r)
	if err != nil {
		return Roster{}, fmt.Errorf("encode roster: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.store.Set(ctx, s.collection, store.StaffListID, body); err != nil {
		return Roster{}, fmt.Errorf("save roster: %w", err)
	}
	s.logger.Info("roster updated", logging.Int("bed", len(r.Bed)), logging.Int("water", len(r.Water)))
	return r, nil
}
