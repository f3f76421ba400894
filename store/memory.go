package store

import (
	"context"
	"sort"
	"sync"

	"go-storefront/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryProductStore is an in-memory Catalog Store. Natural order is
// insertion order.
type MemoryProductStore struct {
	mu       sync.RWMutex
	order    []primitive.ObjectID
	products map[primitive.ObjectID]models.Product
}

// NewMemoryProductStore creates an empty MemoryProductStore.
func NewMemoryProductStore() *MemoryProductStore {
	return &MemoryProductStore{products: make(map[primitive.ObjectID]models.Product)}
}

func (s *MemoryProductStore) List(_ context.Context, q ListingQuery) ([]models.Product, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]models.Product, 0, len(s.order))
	for _, id := range s.order {
		if p := s.products[id]; q.Matches(p) {
			matched = append(matched, copyProduct(p))
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return q.Less(matched[i], matched[j]) })

	count := int64(len(matched))
	if q.Skip >= count {
		return []models.Product{}, count, nil
	}
	end := count
	if q.Limit < count-q.Skip {
		end = q.Skip + q.Limit
	}
	return matched[q.Skip:end], count, nil
}

func (s *MemoryProductStore) Get(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	p = copyProduct(p)
	return &p, nil
}

func (s *MemoryProductStore) Categories(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	categories := []string{}
	for _, id := range s.order {
		c := s.products[id].Category
		if !seen[c] {
			seen[c] = true
			categories = append(categories, c)
		}
	}
	return categories, nil
}

func (s *MemoryProductStore) Create(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	*p = normalize(*p)
	s.products[p.ID] = copyProduct(*p)
	s.order = append(s.order, p.ID)
	return nil
}

func (s *MemoryProductStore) Update(_ context.Context, id primitive.ObjectID, u models.ProductUpdate) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	u.Apply(&p)
	s.products[id] = p
	p = copyProduct(p)
	return &p, nil
}

func (s *MemoryProductStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return ErrNotFound
	}
	delete(s.products, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryProductStore) AppendReview(_ context.Context, productID, reviewID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return ErrNotFound
	}
	p.ReviewIDs = append(append([]primitive.ObjectID{}, p.ReviewIDs...), reviewID)
	s.products[productID] = p
	return nil
}

func (s *MemoryProductStore) Ping(context.Context) error { return nil }

func copyProduct(p models.Product) models.Product {
	p.ReviewIDs = append([]primitive.ObjectID{}, p.ReviewIDs...)
	p.Reviews = []models.Review{}
	return p
}

// MemoryReviewStore is an in-memory ReviewStore.
type MemoryReviewStore struct {
	mu      sync.RWMutex
	reviews map[primitive.ObjectID]models.Review
}

func NewMemoryReviewStore() *MemoryReviewStore {
	return &MemoryReviewStore{reviews: make(map[primitive.ObjectID]models.Review)}
}

func (s *MemoryReviewStore) Create(_ context.Context, r *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	s.reviews[r.ID] = *r
	return nil
}

func (s *MemoryReviewStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reviews[id]; !ok {
		return ErrNotFound
	}
	delete(s.reviews, id)
	return nil
}

func (s *MemoryReviewStore) DeleteByProduct(_ context.Context, productID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, r := range s.reviews {
		if r.ProductID == productID {
			delete(s.reviews, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryReviewStore) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reviews := []models.Review{}
	for _, id := range ids {
		if r, ok := s.reviews[id]; ok {
			reviews = append(reviews, r)
		}
	}
	return reviews, nil
}

// Count returns how many reviews are stored.
func (s *MemoryReviewStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reviews)
}

// MemoryUserStore is an in-memory UserStore with unique emails.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]models.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[primitive.ObjectID]models.User)}
}

func (s *MemoryUserStore) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.emailTaken(u.Email, primitive.NilObjectID) {
		return ErrDuplicateEmail
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	s.users[u.ID] = *u
	return nil
}

func (s *MemoryUserStore) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryUserStore) Update(_ context.Context, id primitive.ObjectID, upd models.ProfileUpdate) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Email != nil && s.emailTaken(*upd.Email, id) {
		return nil, ErrDuplicateEmail
	}
	if upd.Username != nil {
		u.Username = *upd.Username
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.Password != nil {
		u.Password = *upd.Password
	}
	s.users[id] = u
	return &u, nil
}

func (s *MemoryUserStore) emailTaken(email string, except primitive.ObjectID) bool {
	for id, u := range s.users {
		if u.Email == email && id != except {
			return true
		}
	}
	return false
}
