package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"hbnb/internal/models"
)

type memTable struct {
	rows  map[string]models.Record
	order []string
}

func (t *memTable) clone() *memTable {
	rows := make(map[string]models.Record, len(t.rows))
	for k, v := range t.rows {
		rows[k] = v
	}
	return &memTable{rows: rows, order: slices.Clone(t.order)}
}

// memoryState is shared by a MemoryStore and every repository it hands out.
// Stored records are never mutated in place: writes replace the map entry
// with a fresh copy, so a snapshot only needs to copy the maps.
type memoryState struct {
	mu     sync.RWMutex
	tables map[models.Kind]*memTable
	links  map[string][]string // place id -> amenity ids
}

func newMemoryState() *memoryState {
	s := &memoryState{}
	s.clear()
	return s
}

func (s *memoryState) clear() {
	s.tables = make(map[models.Kind]*memTable, len(models.Kinds))
	for _, k := range models.Kinds {
		s.tables[k] = &memTable{rows: map[string]models.Record{}}
	}
	s.links = map[string][]string{}
}

func (s *memoryState) snapshot() (map[models.Kind]*memTable, map[string][]string) {
	tables := make(map[models.Kind]*memTable, len(s.tables))
	for k, t := range s.tables {
		tables[k] = t.clone()
	}
	links := make(map[string][]string, len(s.links))
	for k, v := range s.links {
		links[k] = slices.Clone(v)
	}
	return tables, links
}

// MemoryStore keeps every record in process memory. It is safe for
// concurrent use; a single RW mutex serializes writers.
type MemoryStore struct {
	state *memoryState
	held  bool // true inside Atomic, where the write lock is already taken
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemoryState()}
}

func (s *MemoryStore) Users() Repository[*models.User] {
	return newMemoryRepository[models.User](s, models.KindUser, []string{"email"})
}

func (s *MemoryStore) Places() PlaceRepository {
	repo := newMemoryRepository[models.Place](s, models.KindPlace)
	repo.hydrate = s.hydratePlace
	repo.onAdd = func(p *models.Place) {
		var ids []string
		for _, id := range p.AmenityIDs() {
			if a, ok := s.state.tables[models.KindAmenity].rows[id]; ok && !slices.Contains(ids, id) {
				ids = append(ids, a.GetID())
			}
		}
		if len(ids) > 0 {
			s.state.links[p.ID] = ids
		}
	}
	repo.onDelete = func(id string) {
		delete(s.state.links, id)
	}
	return &memoryPlaceRepository{memoryRepository: repo}
}

func (s *MemoryStore) Reviews() Repository[*models.Review] {
	return newMemoryRepository[models.Review](s, models.KindReview, []string{"user_id", "place_id"})
}

func (s *MemoryStore) Amenities() Repository[*models.Amenity] {
	return newMemoryRepository[models.Amenity](s, models.KindAmenity)
}

// Atomic holds the write lock for the duration of fn and rolls every table
// back to its prior contents when fn fails or panics.
func (s *MemoryStore) Atomic(_ context.Context, fn func(Store) error) error {
	if s.held {
		return fn(s)
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	tables, links := s.state.snapshot()
	committed := false
	defer func() {
		if !committed {
			s.state.tables, s.state.links = tables, links
		}
	}()

	if err := fn(&MemoryStore{state: s.state, held: true}); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *MemoryStore) Reset(context.Context) error {
	unlock := s.lock()
	defer unlock()
	s.state.clear()
	return nil
}

func (s *MemoryStore) lock() func() {
	if s.held {
		return func() {}
	}
	s.state.mu.Lock()
	return s.state.mu.Unlock
}

func (s *MemoryStore) rlock() func() {
	if s.held {
		return func() {}
	}
	s.state.mu.RLock()
	return s.state.mu.RUnlock
}

// hydratePlace fills Amenities from the link table. Callers hold the lock.
func (s *MemoryStore) hydratePlace(p *models.Place) {
	ids := s.state.links[p.ID]
	p.Amenities = make([]models.Amenity, 0, len(ids))
	amenities := s.state.tables[models.KindAmenity].rows
	for _, id := range ids {
		if a, ok := amenities[id].(*models.Amenity); ok {
			p.Amenities = append(p.Amenities, *a)
		}
	}
}

type memoryRepository[T any, P recordPtr[T]] struct {
	store   *MemoryStore
	kind    models.Kind
	uniques [][]string

	hydrate  func(P)
	onAdd    func(P)
	onDelete func(id string)
}

func newMemoryRepository[T any, P recordPtr[T]](s *MemoryStore, kind models.Kind, uniques ...[]string) *memoryRepository[T, P] {
	return &memoryRepository[T, P]{store: s, kind: kind, uniques: uniques}
}

func (r *memoryRepository[T, P]) table() *memTable {
	return r.store.state.tables[r.kind]
}

func copyOf[T any, P recordPtr[T]](rec P) P {
	c := *rec
	return P(&c)
}

// view returns a caller-owned copy of a stored row.
func (r *memoryRepository[T, P]) view(row models.Record) P {
	out := copyOf[T, P](row.(P))
	if r.hydrate != nil {
		r.hydrate(out)
	}
	return out
}

func (r *memoryRepository[T, P]) violatesUnique(rec P) bool {
	for _, cols := range r.uniques {
		for id, row := range r.table().rows {
			if id == rec.GetID() {
				continue
			}
			if sameColumns(rec, row, cols) {
				return true
			}
		}
	}
	return false
}

func sameColumns(a, b models.Record, cols []string) bool {
	for _, col := range cols {
		av, _ := a.Attr(col)
		bv, _ := b.Attr(col)
		if av != bv {
			return false
		}
	}
	return true
}

func (r *memoryRepository[T, P]) Add(_ context.Context, rec P) (P, error) {
	unlock := r.store.lock()
	defer unlock()

	rec.Meta().Stamp(time.Now())
	t := r.table()
	if _, exists := t.rows[rec.GetID()]; exists {
		return nil, models.NewConflictError(r.kind.Label() + " already exists")
	}
	if r.violatesUnique(rec) {
		return nil, conflictFor(r.kind)
	}

	stored := copyOf[T, P](rec)
	t.rows[stored.GetID()] = stored
	t.order = append(t.order, stored.GetID())
	if r.onAdd != nil {
		r.onAdd(stored)
	}
	return r.view(stored), nil
}

func (r *memoryRepository[T, P]) Get(_ context.Context, id string) (P, bool, error) {
	unlock := r.store.rlock()
	defer unlock()

	row, ok := r.table().rows[id]
	if !ok {
		return nil, false, nil
	}
	return r.view(row), true, nil
}

func (r *memoryRepository[T, P]) GetAll(_ context.Context) ([]P, error) {
	unlock := r.store.rlock()
	defer unlock()

	t := r.table()
	out := make([]P, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, r.view(t.rows[id]))
	}
	return out, nil
}

func (r *memoryRepository[T, P]) Update(_ context.Context, id string, changes map[string]any) (P, bool, error) {
	unlock := r.store.lock()
	defer unlock()

	t := r.table()
	row, ok := t.rows[id]
	if !ok {
		return nil, false, nil
	}

	next := copyOf[T, P](row.(P))
	if err := next.Apply(changes); err != nil {
		return nil, true, err
	}
	next.Meta().Touch(time.Now())
	if r.violatesUnique(next) {
		return nil, true, conflictFor(r.kind)
	}

	// Key by the stored id: id may alias a request buffer.
	t.rows[next.GetID()] = next
	return r.view(next), true, nil
}

func (r *memoryRepository[T, P]) Delete(_ context.Context, id string) (bool, error) {
	unlock := r.store.lock()
	defer unlock()

	t := r.table()
	if _, ok := t.rows[id]; !ok {
		return false, nil
	}
	delete(t.rows, id)
	t.order = slices.DeleteFunc(t.order, func(v string) bool { return v == id })
	if r.onDelete != nil {
		r.onDelete(id)
	}
	return true, nil
}

func (r *memoryRepository[T, P]) FindBy(_ context.Context, conds ...Cond) ([]P, error) {
	if err := checkColumns[T, P](conds); err != nil {
		return nil, err
	}

	unlock := r.store.rlock()
	defer unlock()

	t := r.table()
	var out []P
	for _, id := range t.order {
		row := t.rows[id]
		if matches(row, conds) {
			out = append(out, r.view(row))
		}
	}
	return out, nil
}

func matches(rec models.Record, conds []Cond) bool {
	for _, c := range conds {
		v, ok := rec.Attr(c.Column)
		if !ok || v != c.Value {
			return false
		}
	}
	return true
}

type memoryPlaceRepository struct {
	*memoryRepository[models.Place, *models.Place]
}

func (r *memoryPlaceRepository) AddAmenity(_ context.Context, placeID, amenityID string) (*models.Place, error) {
	s := r.store
	unlock := s.lock()
	defer unlock()

	row, ok := r.table().rows[placeID]
	if !ok {
		return nil, models.NewNotFoundError("Place")
	}
	amenity, ok := s.state.tables[models.KindAmenity].rows[amenityID]
	if !ok {
		return nil, models.NewNotFoundError("Amenity")
	}

	// Retained keys come from stored records, never from the arguments.
	placeKey, amenityKey := row.GetID(), amenity.GetID()
	if slices.Contains(s.state.links[placeKey], amenityKey) {
		return r.view(row), nil
	}
	s.state.links[placeKey] = append(slices.Clone(s.state.links[placeKey]), amenityKey)

	next := copyOf[models.Place](row.(*models.Place))
	next.Touch(time.Now())
	r.table().rows[placeKey] = next
	return r.view(next), nil
}

func (r *memoryPlaceRepository) DetachAmenity(_ context.Context, amenityID string) error {
	s := r.store
	unlock := s.lock()
	defer unlock()

	for placeID, ids := range s.state.links {
		if slices.Contains(ids, amenityID) {
			s.state.links[placeID] = slices.DeleteFunc(slices.Clone(ids), func(v string) bool { return v == amenityID })
		}
	}
	return nil
}
