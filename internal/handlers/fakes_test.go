package handlers_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"polli-ahaar/internal/cart"
	"polli-ahaar/internal/mailer"
	"polli-ahaar/internal/models"
	"polli-ahaar/internal/repository"
)

func parseID(id string) (primitive.ObjectID, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, repository.ErrInvalidID
	}
	return objID, nil
}

// newestFirst orders ids the way the repositories sort on _id desc.
func newestFirst(ids []primitive.ObjectID) {
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].Hex() > ids[j].Hex()
	})
}

func page[T any](items []T, p repository.Page) []T {
	start := int(p.Skip())
	if start >= len(items) {
		return []T{}
	}
	end := min(start+p.Limit, len(items))
	return items[start:end]
}

type fakeUsers struct {
	mu    sync.Mutex
	byID  map[primitive.ObjectID]*models.User
	err   error
	calls int
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[primitive.ObjectID]*models.User{}}
}

func (f *fakeUsers) add(email, role string) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &models.User{ID: primitive.NewObjectID(), Email: email, Name: email, Role: role}
	f.byID[u.ID] = u
	return u
}

func (f *fakeUsers) byEmail(email string) *models.User {
	for _, u := range f.byID {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (f *fakeUsers) CreateIfAbsent(_ context.Context, user *models.User) (*primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.byEmail(user.Email) != nil {
		return nil, nil
	}
	u := *user
	u.ID = primitive.NewObjectID()
	u.Role = models.RoleUser
	f.byID[u.ID] = &u
	return &u.ID, nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u := f.byEmail(email); u != nil {
		cp := *u
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	objID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[objID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) Role(_ context.Context, email string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if u := f.byEmail(email); u != nil {
		return u.Role, nil
	}
	return "", nil
}

func (f *fakeUsers) List(_ context.Context, q repository.UserQuery) ([]models.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]primitive.ObjectID, 0, len(f.byID))
	for id, u := range f.byID {
		if q.Role == "" || u.Role == q.Role {
			ids = append(ids, id)
		}
	}
	newestFirst(ids)
	all := make([]models.User, 0, len(ids))
	for _, id := range ids {
		all = append(all, *f.byID[id])
	}
	return page(all, q.Page), int64(len(all)), nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id string, p models.Profile) (*repository.WriteResult, error) {
	return f.update(id, func(u *models.User) {
		u.Name, u.Image, u.Address, u.Phone = p.Name, p.Image, p.Address, p.Phone
	})
}

func (f *fakeUsers) UpdateRole(_ context.Context, id string, role string) (*repository.WriteResult, error) {
	return f.update(id, func(u *models.User) { u.Role = role })
}

func (f *fakeUsers) update(id string, fn func(*models.User)) (*repository.WriteResult, error) {
	objID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[objID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	fn(u)
	return &repository.WriteResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (f *fakeUsers) role(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u := f.byEmail(email); u != nil {
		return u.Role
	}
	return ""
}

type fakeProducts struct {
	mu        sync.Mutex
	byID      map[primitive.ObjectID]*models.Product
	listCalls int
	findCalls int
	applyErr  error
}

func newFakeProducts() *fakeProducts {
	return &fakeProducts{byID: map[primitive.ObjectID]*models.Product{}}
}

func (f *fakeProducts) add(p models.Product) primitive.ObjectID {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.Status == "" {
		p.Status = models.ProductActive
	}
	f.byID[p.ID] = &p
	return p.ID
}

func (f *fakeProducts) get(id primitive.ObjectID) models.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.byID[id]
}

func (f *fakeProducts) Create(_ context.Context, p *models.Product) error {
	p.ID = primitive.NewObjectID()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	f.add(*p)
	return nil
}

func (f *fakeProducts) FindByID(_ context.Context, id string) (*models.Product, error) {
	objID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findCalls++
	p, ok := f.byID[objID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[primitive.ObjectID]models.Product{}
	for _, id := range ids {
		if p, ok := f.byID[id]; ok {
			out[id] = *p
		}
	}
	return out, nil
}

func (f *fakeProducts) List(_ context.Context, q repository.ProductQuery) ([]models.Product, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	ids := make([]primitive.ObjectID, 0, len(f.byID))
	for id, p := range f.byID {
		if q.Category == "" || p.Category == q.Category {
			ids = append(ids, id)
		}
	}
	newestFirst(ids)
	all := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		all = append(all, *f.byID[id])
	}
	return page(all, q.Page), int64(len(all)), nil
}

func (f *fakeProducts) Upsert(_ context.Context, id string, p *models.Product) (*repository.WriteResult, error) {
	objID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	cp.ID = objID
	cp.OrderCount = 0
	existing, existed := f.byID[objID]
	if existed {
		cp.OrderCount = existing.OrderCount
		cp.CreatedAt = existing.CreatedAt
	}
	f.byID[objID] = &cp
	if existed {
		return &repository.WriteResult{MatchedCount: 1, ModifiedCount: 1}, nil
	}
	return &repository.WriteResult{UpsertedID: objID}, nil
}

func (f *fakeProducts) Delete(_ context.Context, id string) (int64, error) {
	objID, err := parseID(id)
	if err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[objID]; !ok {
		return 0, repository.ErrNotFound
	}
	delete(f.byID, objID)
	return 1, nil
}

// ApplyOrder mirrors the two bulk writes: missing products are skipped and
// stock may go negative.
func (f *fakeProducts) ApplyOrder(_ context.Context, items []models.OrderItem) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range items {
		p, ok := f.byID[it.ProductID]
		if !ok {
			continue
		}
		p.OrderCount += it.Qty
		for i := range p.Variants {
			if it.Label != "" && p.Variants[i].Label == it.Label {
				p.Variants[i].Stock -= it.Qty
			}
		}
	}
	return nil
}

type fakeOrders struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*models.Order
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{byID: map[primitive.ObjectID]*models.Order{}}
}

func (f *fakeOrders) add(o models.Order) primitive.ObjectID {
	f.mu.Lock()
	defer f.mu.Unlock()
	o.ID = primitive.NewObjectID()
	f.byID[o.ID] = &o
	return o.ID
}

func (f *fakeOrders) get(id primitive.ObjectID) models.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.byID[id]
}

func (f *fakeOrders) all() []models.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Order, 0, len(f.byID))
	for _, o := range f.byID {
		out = append(out, *o)
	}
	return out
}

func (f *fakeOrders) Create(_ context.Context, o *models.Order) error {
	o.ID = primitive.NewObjectID()
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *o
	f.byID[o.ID] = &cp
	return nil
}

func (f *fakeOrders) FindByID(_ context.Context, id string) (*models.Order, error) {
	objID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byID[objID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) List(_ context.Context, q repository.OrderQuery) ([]models.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []primitive.ObjectID
	for id, o := range f.byID {
		if q.UserEmail != "" && o.UserEmail != q.UserEmail {
			continue
		}
		if q.Status != "" && string(o.Status) != q.Status {
			continue
		}
		ids = append(ids, id)
	}
	newestFirst(ids)
	all := make([]models.Order, 0, len(ids))
	for _, id := range ids {
		all = append(all, *f.byID[id])
	}
	return page(all, q.Page), int64(len(all)), nil
}

func (f *fakeOrders) UpdateShipping(_ context.Context, id string, s models.Shipping) error {
	return f.updatePending(id, func(o *models.Order) { o.Shipping = s })
}

func (f *fakeOrders) Cancel(_ context.Context, id string) error {
	return f.updatePending(id, func(o *models.Order) { o.Status = models.OrderCancelled })
}

func (f *fakeOrders) updatePending(id string, fn func(*models.Order)) error {
	objID, err := parseID(id)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byID[objID]
	if !ok {
		return repository.ErrNotFound
	}
	if o.Status != models.OrderPending {
		return repository.ErrNotPending
	}
	fn(o)
	return nil
}

func (f *fakeOrders) SetStatus(_ context.Context, id string, status models.OrderStatus) (*repository.WriteResult, error) {
	objID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byID[objID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	o.Status = status
	return &repository.WriteResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (f *fakeOrders) MarkReviewed(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.byID[id]; ok {
		o.Reviewed = true
	}
	return nil
}

func (f *fakeOrders) Delete(_ context.Context, id string) (int64, error) {
	objID, err := parseID(id)
	if err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[objID]; !ok {
		return 0, repository.ErrNotFound
	}
	delete(f.byID, objID)
	return 1, nil
}

type fakeReviews struct {
	mu      sync.Mutex
	reviews []models.Review
}

func (f *fakeReviews) Create(_ context.Context, r *models.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.ID = primitive.NewObjectID()
	r.CreatedAt = time.Now()
	f.reviews = append(f.reviews, *r)
	return nil
}

func (f *fakeReviews) List(context.Context) ([]models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Review, len(f.reviews))
	for i, r := range f.reviews {
		out[len(out)-1-i] = r
	}
	return out, nil
}

type fakeCarts struct {
	mu    sync.Mutex
	carts map[string]cart.Cart
}

func (f *fakeCarts) Load(_ context.Context, email string) (cart.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.carts[email]; ok {
		return c, nil
	}
	return cart.Cart{Items: []cart.Item{}}, nil
}

func (f *fakeCarts) Save(_ context.Context, email string, c cart.Cart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.carts == nil {
		f.carts = map[string]cart.Cart{}
	}
	f.carts[email] = c
	return nil
}

type fakeStats struct {
	stats *models.AdminStats
	err   error
	now   time.Time
}

func (f *fakeStats) AdminStats(_ context.Context, now time.Time) (*models.AdminStats, error) {
	f.now = now
	return f.stats, f.err
}

type fakeMailer struct {
	sent []mailer.ContactMessage
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg mailer.ContactMessage) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

var errBoom = errors.New("boom")
