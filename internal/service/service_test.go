package service_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/iliyamo/bookstore/internal/model"
	"github.com/iliyamo/bookstore/internal/queue"
	"github.com/iliyamo/bookstore/internal/repository"
	"github.com/iliyamo/bookstore/internal/service"
	"github.com/iliyamo/bookstore/internal/testutil"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.OrderEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

type fixture struct {
	db       *sql.DB
	store    *repository.Store
	events   *recordingPublisher
	cart     *service.CartService
	orders   *service.OrderService
	comments *service.CommentService
	catalog  *service.CatalogService
	users    *service.CustomerService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	store := repository.NewStore(db)
	events := &recordingPublisher{}
	return &fixture{
		db:       db,
		store:    store,
		events:   events,
		cart:     service.NewCartService(store),
		orders:   service.NewOrderService(store, events, zap.NewNop()),
		comments: service.NewCommentService(store),
		catalog:  service.NewCatalogService(store),
		users:    service.NewCustomerService(store),
	}
}

func (f *fixture) actor(t *testing.T, name string, role model.Role) service.Actor {
	t.Helper()
	u := testutil.CreateUser(t, f.db, name, role)
	return service.Actor{ID: u.ID, Role: u.Role}
}
