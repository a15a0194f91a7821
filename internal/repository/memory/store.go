package memory

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"ai-masterbrain-be/internal/entity"
	"ai-masterbrain-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Store is an in-process datastore implementing every brain repository with
// brute-force cosine similarity. It backs DB_DRIVER=memory and the tests.
type Store struct {
	mu          sync.RWMutex
	domains     map[uuid.UUID]*entity.Domain
	knowledge   map[uuid.UUID]*entity.Knowledge
	decisions   []*entity.RoutingDecision
	performance map[perfKey]*entity.RoutingPerformance
	sessions    map[uuid.UUID]*entity.MasterSession
	contexts    []*entity.SessionContext
	coreLogic   []*entity.CoreLogic
	states      *cache.Cache
}

type perfKey struct {
	domainId uuid.UUID
	userId   uuid.UUID
}

const (
	stateExpiration = 24 * time.Hour
	stateCleanup    = 30 * time.Minute
)

func NewStore() *Store {
	return &Store{
		domains:     make(map[uuid.UUID]*entity.Domain),
		knowledge:   make(map[uuid.UUID]*entity.Knowledge),
		performance: make(map[perfKey]*entity.RoutingPerformance),
		sessions:    make(map[uuid.UUID]*entity.MasterSession),
		states:      cache.New(stateExpiration, stateCleanup),
	}
}

type snapshot struct {
	domains     map[uuid.UUID]*entity.Domain
	knowledge   map[uuid.UUID]*entity.Knowledge
	decisions   []*entity.RoutingDecision
	performance map[perfKey]*entity.RoutingPerformance
	sessions    map[uuid.UUID]*entity.MasterSession
	contexts    []*entity.SessionContext
	coreLogic   []*entity.CoreLogic
	states      map[string]cache.Item
}

// Stored values are never mutated in place, so a shallow copy of the
// containers is enough to restore them.
func (s *Store) snapshot() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &snapshot{
		domains:     make(map[uuid.UUID]*entity.Domain, len(s.domains)),
		knowledge:   make(map[uuid.UUID]*entity.Knowledge, len(s.knowledge)),
		decisions:   append([]*entity.RoutingDecision(nil), s.decisions...),
		performance: make(map[perfKey]*entity.RoutingPerformance, len(s.performance)),
		sessions:    make(map[uuid.UUID]*entity.MasterSession, len(s.sessions)),
		contexts:    append([]*entity.SessionContext(nil), s.contexts...),
		coreLogic:   append([]*entity.CoreLogic(nil), s.coreLogic...),
		states:      s.states.Items(),
	}
	for k, v := range s.domains {
		snap.domains[k] = v
	}
	for k, v := range s.knowledge {
		snap.knowledge[k] = v
	}
	for k, v := range s.performance {
		snap.performance[k] = v
	}
	for k, v := range s.sessions {
		snap.sessions[k] = v
	}
	return snap
}

func (s *Store) restore(snap *snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.domains = snap.domains
	s.knowledge = snap.knowledge
	s.decisions = snap.decisions
	s.performance = snap.performance
	s.sessions = snap.sessions
	s.contexts = snap.contexts
	s.coreLogic = snap.coreLogic
	s.states = cache.NewFrom(stateExpiration, stateCleanup, snap.states)
}

// cosine returns the cosine similarity of a and b, 0 for mismatched or zero vectors.
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// fieldFunc exposes the column values of one record to the specification evaluator.
type fieldFunc[T any] func(item T, column string) interface{}

// query evaluates gorm specifications against in-memory records. Filters run
// first, then ordering, then pagination. Unknown specifications are an error.
func query[T any](items []T, field fieldFunc[T], specs ...specification.Specification) ([]T, error) {
	var (
		orders []specification.OrderBy
		page   *specification.Pagination
	)

	filtered := make([]T, 0, len(items))
	for _, item := range items {
		keep := true
		for _, spec := range specs {
			ok, err := matches(spec, item, field)
			if err != nil {
				return nil, err
			}
			if !ok {
				keep = false
				break
			}
		}
		if keep {
			filtered = append(filtered, item)
		}
	}

	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.OrderBy:
			orders = append(orders, s)
		case specification.Pagination:
			p := s
			page = &p
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		for _, o := range orders {
			a, b := field(filtered[i], o.Field), field(filtered[j], o.Field)
			if c := compare(a, b); c != 0 {
				if o.Desc {
					return c > 0
				}
				return c < 0
			}
		}
		return false
	})

	if page != nil {
		if page.Offset >= len(filtered) {
			return []T{}, nil
		}
		filtered = filtered[page.Offset:]
		if page.Limit > 0 && page.Limit < len(filtered) {
			filtered = filtered[:page.Limit]
		}
	}
	return filtered, nil
}

func matches[T any](spec specification.Specification, item T, field fieldFunc[T]) (bool, error) {
	switch s := spec.(type) {
	case specification.ByID:
		return field(item, "id") == s.ID, nil
	case specification.ByIDs:
		id := field(item, "id")
		for _, candidate := range s.IDs {
			if id == candidate {
				return true, nil
			}
		}
		return false, nil
	case specification.UserOwnedBy:
		return field(item, "user_id") == s.UserID, nil
	case specification.InDomain:
		return field(item, "domain_id") == s.DomainID, nil
	case specification.BySession:
		return field(item, "session_id") == s.SessionID, nil
	case specification.ByStatus:
		return field(item, "status") == s.Status, nil
	case specification.FilterBy:
		return field(item, s.Field) == s.Value, nil
	case specification.KeywordMatch:
		keyword := strings.ToLower(s.Keyword)
		title, _ := field(item, "title").(string)
		content, _ := field(item, "content").(string)
		return strings.Contains(strings.ToLower(title), keyword) ||
			strings.Contains(strings.ToLower(content), keyword), nil
	case specification.OrderBy, specification.Pagination:
		return true, nil
	default:
		return false, fmt.Errorf("memory store: unsupported specification %T", spec)
	}
}

func compare(a, b interface{}) int {
	switch av := a.(type) {
	case time.Time:
		bv, _ := b.(time.Time)
		return av.Compare(bv)
	case int:
		bv, _ := b.(int)
		return av - bv
	case float64:
		bv, _ := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case string:
		bv, _ := b.(string)
		return strings.Compare(av, bv)
	case uuid.UUID:
		bv, _ := b.(uuid.UUID)
		return strings.Compare(av.String(), bv.String())
	}
	return 0
}
