package carousel

import (
	stderrors "errors"
	"fmt"
	"sync"
)

var (
	ErrSlideNotFound = stderrors.New("slide not found")

	// ErrStaleRef is returned for a Ref taken before the store was last
	// seeded or reset.
	ErrStaleRef = stderrors.New("slide reference is stale")
)

// Ref points at one record of one seeding of the store. Work that started
// before a reseed holds a stale Ref and can no longer touch the new plan,
// even when the new plan reuses the same id.
type Ref struct {
	ID    int
	epoch uint64
}

// Store is the ordered set of slide records of one carousel. Order is the
// display order; page numbers derive from position. All mutations go
// through the store lock, so there is exactly one record per id.
type Store struct {
	mu     sync.RWMutex
	slides []Slide
	maxID  int
	epoch  uint64
}

func NewStore() *Store {
	return &Store{}
}

// Seed discards the current records and creates one pending record per
// spec, in plan order. Zero or repeated plan ids are renumbered so ids stay
// unique. Refs taken before the call go stale.
func (s *Store) Seed(specs []SlideSpec) []Slide {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[int]bool, len(specs))
	renumber := false
	for _, spec := range specs {
		if spec.ID <= 0 || seen[spec.ID] {
			renumber = true
			break
		}
		seen[spec.ID] = true
	}

	s.epoch++
	s.slides = make([]Slide, 0, len(specs))
	s.maxID = 0
	for i, spec := range specs {
		if renumber {
			spec.ID = i + 1
		}
		if spec.ID > s.maxID {
			s.maxID = spec.ID
		}
		s.slides = append(s.slides, Slide{SlideSpec: spec, Status: StatusPending})
	}
	return s.snapshotLocked()
}

func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.slides = nil
}

func (s *Store) Snapshot() []Slide {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() []Slide {
	out := make([]Slide, len(s.slides))
	copy(out, s.slides)
	return out
}

// Ref returns a reference to the current record of id.
func (s *Store) Ref(id int) (Ref, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.indexLocked(id) < 0 {
		return Ref{}, false
	}
	return Ref{ID: id, epoch: s.epoch}, true
}

// Position is the zero-based index of id, or -1.
func (s *Store) Position(id int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexLocked(id)
}

func (s *Store) indexLocked(id int) int {
	for i := range s.slides {
		if s.slides[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) resolveLocked(ref Ref) (int, error) {
	if ref.epoch != s.epoch {
		return -1, fmt.Errorf("%w: %d", ErrStaleRef, ref.ID)
	}
	i := s.indexLocked(ref.ID)
	if i < 0 {
		return -1, fmt.Errorf("%w: %d", ErrSlideNotFound, ref.ID)
	}
	return i, nil
}

// Transition moves a record to the next status and applies mutate to it
// while the lock is held.
func (s *Store) Transition(ref Ref, to Status, mutate func(*Slide)) (Slide, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.resolveLocked(ref)
	if err != nil {
		return Slide{}, err
	}
	cur := &s.slides[i]
	if !cur.Status.CanTransition(to) {
		return *cur, fmt.Errorf("%w: slide %d %s -> %s", ErrInvalidTransition, ref.ID, cur.Status, to)
	}
	cur.Status = to
	if mutate != nil {
		mutate(cur)
	}
	return *cur, nil
}

// Renew replaces a terminal record with a fresh pending record under the
// same id, keeping its spec. Pending records are left as they are; a
// record that is generating cannot be renewed.
func (s *Store) Renew(id int) (Ref, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return Ref{}, fmt.Errorf("%w: %d", ErrSlideNotFound, id)
	}
	ref := Ref{ID: id, epoch: s.epoch}
	cur := s.slides[i]
	switch cur.Status {
	case StatusPending:
		return ref, nil
	case StatusGenerating:
		return Ref{}, fmt.Errorf("%w: slide %d is generating", ErrInvalidTransition, id)
	}
	s.slides[i] = Slide{SlideSpec: cur.SlideSpec, Status: StatusPending}
	return ref, nil
}

// InsertPlaceholder mints a fresh id and inserts a generating placeholder
// right after position after. A negative position inserts at the front and
// a position past the end appends.
func (s *Store) InsertPlaceholder(after int, spec SlideSpec) Ref {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := after + 1
	if at < 0 {
		at = 0
	}
	if at > len(s.slides) {
		at = len(s.slides)
	}

	spec.ID = s.mintLocked()
	placeholder := Slide{SlideSpec: spec, Status: StatusGenerating}

	s.slides = append(s.slides, Slide{})
	copy(s.slides[at+1:], s.slides[at:])
	s.slides[at] = placeholder
	return Ref{ID: spec.ID, epoch: s.epoch}
}

func (s *Store) AppendPlaceholder(spec SlideSpec) Ref {
	s.mu.Lock()
	defer s.mu.Unlock()

	spec.ID = s.mintLocked()
	s.slides = append(s.slides, Slide{SlideSpec: spec, Status: StatusGenerating})
	return Ref{ID: spec.ID, epoch: s.epoch}
}

func (s *Store) mintLocked() int {
	for _, sl := range s.slides {
		if sl.ID > s.maxID {
			s.maxID = sl.ID
		}
	}
	s.maxID++
	return s.maxID
}

// Merge replaces the spec of the record with spec, keeping the id.
func (s *Store) Merge(ref Ref, spec SlideSpec) (Slide, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.resolveLocked(ref)
	if err != nil {
		return Slide{}, err
	}
	spec.ID = ref.ID
	s.slides[i].SlideSpec = spec
	return s.slides[i], nil
}

// Remove drops the record. It reports false for a stale or unknown Ref.
func (s *Store) Remove(ref Ref) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.resolveLocked(ref)
	if err != nil {
		return false
	}
	s.slides = append(s.slides[:i], s.slides[i+1:]...)
	return true
}

func (s *Store) CountStatus(status Status) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, sl := range s.slides {
		if sl.Status == status {
			n++
		}
	}
	return n
}
