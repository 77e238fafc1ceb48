package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/senyabanana/gig-market/internal/models"
	"github.com/senyabanana/gig-market/internal/notify"
	mock_notify "github.com/senyabanana/gig-market/internal/notify/mocks"

	"github.com/google/uuid"
	"go.uber.org/mock/gomock"
)

// memBidStore - репозиторий предложений в памяти. Один мьютекс
// сериализует все операции, то есть дает тот же контракт, что
// serializable-транзакции реального хранилища: конкурентные наймы по
// одному заказу не перемешиваются, и все попытки после первой видят
// состояние после коммита.
type memBidStore struct {
	mu    sync.Mutex
	gigs  map[string]*models.Gig
	bids  map[string]*models.Bid
	users map[string]string
	clock time.Time
}

func newMemBidStore() *memBidStore {
	return &memBidStore{
		gigs:  make(map[string]*models.Gig),
		bids:  make(map[string]*models.Bid),
		users: make(map[string]string),
		clock: time.Now().UTC(),
	}
}

func (m *memBidStore) addUser(name string) string {
	id := uuid.New().String()
	m.users[id] = name
	return id
}

func (m *memBidStore) addGig(ownerId, title string, budget float64) string {
	id := uuid.New().String()
	m.gigs[id] = &models.Gig{
		ID:      id,
		OwnerID: ownerId,
		Title:   title,
		Budget:  budget,
		Status:  models.OpenGig,
	}
	return id
}

func (m *memBidStore) nextTime() time.Time {
	m.clock = m.clock.Add(time.Millisecond)
	return m.clock
}

func (m *memBidStore) gigSummary(gigId string) *models.GigSummary {
	gig := m.gigs[gigId]
	return &models.GigSummary{
		ID:          gig.ID,
		Title:       gig.Title,
		Description: gig.Description,
		Budget:      gig.Budget,
		Status:      gig.Status,
	}
}

func (m *memBidStore) CreateBid(_ context.Context, bidReq models.BidRequest) (*models.Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	gig, ok := m.gigs[bidReq.GigID]
	if !ok {
		return nil, models.NewErrorResponse(models.NotFoundError, "gig not found")
	}
	if gig.OwnerID == bidReq.FreelancerID {
		return nil, models.NewErrorResponse(models.ForbiddenError, "cannot bid on your own gig")
	}
	if gig.Status != models.OpenGig {
		return nil, models.NewErrorResponse(models.ConflictError, "this gig is no longer accepting bids")
	}
	for _, bid := range m.bids {
		if bid.GigID == bidReq.GigID && bid.FreelancerID == bidReq.FreelancerID {
			return nil, models.NewErrorResponse(models.ConflictError, "you have already submitted a bid for this gig")
		}
	}

	newBid := &models.Bid{
		ID:             uuid.New().String(),
		GigID:          bidReq.GigID,
		FreelancerID:   bidReq.FreelancerID,
		FreelancerName: m.users[bidReq.FreelancerID],
		Message:        bidReq.Message,
		Price:          bidReq.Price,
		Status:         models.PendingBid,
		CreatedAt:      m.nextTime(),
	}
	m.bids[newBid.ID] = newBid

	out := *newBid
	out.Gig = m.gigSummary(newBid.GigID)
	return &out, nil
}

func (m *memBidStore) GetGigBids(_ context.Context, gigId, requesterId string) ([]models.Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	gig, ok := m.gigs[gigId]
	if !ok {
		return nil, models.NewErrorResponse(models.NotFoundError, "gig not found")
	}
	if gig.OwnerID != requesterId {
		return nil, models.NewErrorResponse(models.ForbiddenError, "not authorized to view bids for this gig")
	}

	var bids []models.Bid
	for _, bid := range m.bids {
		if bid.GigID == gigId {
			bids = append(bids, *bid)
		}
	}
	sortNewestFirst(bids)
	return bids, nil
}

func (m *memBidStore) GetUserBids(_ context.Context, freelancerId string) ([]models.Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var bids []models.Bid
	for _, bid := range m.bids {
		if bid.FreelancerID == freelancerId {
			out := *bid
			out.Gig = m.gigSummary(bid.GigID)
			bids = append(bids, out)
		}
	}
	sortNewestFirst(bids)
	return bids, nil
}

func (m *memBidStore) RejectBid(_ context.Context, bidId, requesterId string) (*models.Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bid, ok := m.bids[bidId]
	if !ok {
		return nil, models.NewErrorResponse(models.NotFoundError, "bid not found")
	}
	gig := m.gigs[bid.GigID]
	if gig.OwnerID != requesterId {
		return nil, models.NewErrorResponse(models.ForbiddenError, "not authorized to reject this bid")
	}
	if bid.Status != models.PendingBid {
		return nil, models.NewErrorResponse(models.ConflictError, "only pending bids can be rejected")
	}
	if gig.Status != models.OpenGig {
		return nil, models.NewErrorResponse(models.ConflictError, "cannot reject bids for closed gigs")
	}

	bid.Status = models.RejectedBid
	out := *bid
	out.Gig = m.gigSummary(bid.GigID)
	return &out, nil
}

func (m *memBidStore) HireBid(_ context.Context, bidId, requesterId string) (*models.Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bid, ok := m.bids[bidId]
	if !ok {
		return nil, models.NewErrorResponse(models.NotFoundError, "bid not found")
	}
	gig := m.gigs[bid.GigID]
	if gig.OwnerID != requesterId {
		return nil, models.NewErrorResponse(models.ForbiddenError, "not authorized to hire for this gig")
	}
	if gig.Status != models.OpenGig {
		return nil, models.NewErrorResponse(models.ConflictError, "this gig is no longer accepting hires")
	}
	if bid.Status != models.PendingBid {
		return nil, models.NewErrorResponse(models.ConflictError, "this bid is no longer available for hiring")
	}

	gig.Status = models.AssignedGig
	bid.Status = models.HiredBid
	for _, other := range m.bids {
		if other.GigID == bid.GigID && other.ID != bid.ID && other.Status == models.PendingBid {
			other.Status = models.RejectedBid
		}
	}

	out := *bid
	out.FreelancerName = m.users[bid.FreelancerID]
	out.Gig = m.gigSummary(bid.GigID)
	return &out, nil
}

func sortNewestFirst(bids []models.Bid) {
	sort.Slice(bids, func(i, j int) bool {
		return bids[i].CreatedAt.After(bids[j].CreatedAt)
	})
}

// checkInvariant проверяет ключевую связь: у заказа не больше одного
// нанятого предложения, и ровно одно, если заказ закреплен.
func (m *memBidStore) checkInvariant(t *testing.T) {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()

	for gigId, gig := range m.gigs {
		hired := 0
		for _, bid := range m.bids {
			if bid.GigID == gigId && bid.Status == models.HiredBid {
				hired++
			}
		}
		if hired > 1 {
			t.Fatalf("gig %s has %d hired bids", gigId, hired)
		}
		if gig.Status == models.AssignedGig && hired != 1 {
			t.Fatalf("assigned gig %s has %d hired bids, expected 1", gigId, hired)
		}
		if gig.Status == models.OpenGig && hired != 0 {
			t.Fatalf("open gig %s has a hired bid", gigId)
		}
	}
}

func expectKind(t *testing.T, err error, kind models.ErrorKind) {
	t.Helper()
	var errResp *models.ErrorResponse
	if !errors.As(err, &errResp) {
		t.Fatalf("expected *models.ErrorResponse, got %v", err)
	}
	if errResp.Kind != kind {
		t.Fatalf("expected %s, got %s (%s)", kind, errResp.Kind, errResp.Message)
	}
}

func TestBidService_CreateBid_Validations(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	svc := NewBidService(newMemBidStore(), mock_notify.NewMockDispatcher(ctrl))

	t.Run("missing fields", func(t *testing.T) {
		_, err := svc.CreateBid(context.Background(), models.BidRequest{GigID: "g", Price: 10})
		expectKind(t, err, models.ValidationError)
	})

	t.Run("non-positive price", func(t *testing.T) {
		_, err := svc.CreateBid(context.Background(), models.BidRequest{
			GigID: "g", FreelancerID: "f", Message: "hello", Price: 0,
		})
		expectKind(t, err, models.ValidationError)
	})
}

func TestBidService_CreateBid_Preconditions(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := newMemBidStore()
	svc := NewBidService(store, mock_notify.NewMockDispatcher(ctrl))

	owner := store.addUser("Olga")
	freelancer := store.addUser("Fedor")
	gig := store.addGig(owner, "Build a site", 500)

	t.Run("gig not found", func(t *testing.T) {
		_, err := svc.CreateBid(context.Background(), models.BidRequest{
			GigID: uuid.New().String(), FreelancerID: freelancer, Message: "hi", Price: 100,
		})
		expectKind(t, err, models.NotFoundError)
	})

	t.Run("self bid", func(t *testing.T) {
		_, err := svc.CreateBid(context.Background(), models.BidRequest{
			GigID: gig, FreelancerID: owner, Message: "me please", Price: 100,
		})
		expectKind(t, err, models.ForbiddenError)
	})

	t.Run("first bid succeeds", func(t *testing.T) {
		bid, err := svc.CreateBid(context.Background(), models.BidRequest{
			GigID: gig, FreelancerID: freelancer, Message: "I can do this", Price: 400,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if bid.Status != models.PendingBid {
			t.Fatalf("expected pending status, got %s", bid.Status)
		}
		if bid.FreelancerName != "Fedor" || bid.Gig == nil || bid.Gig.Title != "Build a site" {
			t.Fatalf("expected resolved display identity, got %+v", bid)
		}
	})

	t.Run("duplicate bid on the same gig", func(t *testing.T) {
		_, err := svc.CreateBid(context.Background(), models.BidRequest{
			GigID: gig, FreelancerID: freelancer, Message: "again", Price: 300,
		})
		expectKind(t, err, models.ConflictError)
	})

	t.Run("same freelancer on a different gig succeeds", func(t *testing.T) {
		otherGig := store.addGig(owner, "Another gig", 800)
		if _, err := svc.CreateBid(context.Background(), models.BidRequest{
			GigID: otherGig, FreelancerID: freelancer, Message: "this one too", Price: 600,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestBidService_SubmitThenGetUserBids(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := newMemBidStore()
	svc := NewBidService(store, mock_notify.NewMockDispatcher(ctrl))

	owner := store.addUser("Olga")
	freelancer := store.addUser("Fedor")
	gig := store.addGig(owner, "Build a site", 500)

	submitted, err := svc.CreateBid(context.Background(), models.BidRequest{
		GigID: gig, FreelancerID: freelancer, Message: "I can do this", Price: 400,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bids, err := svc.GetUserBids(context.Background(), freelancer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bids) != 1 {
		t.Fatalf("expected 1 bid, got %d", len(bids))
	}
	if bids[0].ID != submitted.ID || bids[0].Status != models.PendingBid {
		t.Fatalf("expected the submitted pending bid, got %+v", bids[0])
	}
	if bids[0].Gig == nil || bids[0].Gig.Title != "Build a site" || bids[0].Gig.Budget != 500 {
		t.Fatalf("expected the parent gig summary attached, got %+v", bids[0].Gig)
	}
}

func TestBidService_GetGigBids_OwnerOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := newMemBidStore()
	svc := NewBidService(store, mock_notify.NewMockDispatcher(ctrl))

	owner := store.addUser("Olga")
	freelancer := store.addUser("Fedor")
	gig := store.addGig(owner, "Build a site", 500)

	if _, err := svc.CreateBid(context.Background(), models.BidRequest{
		GigID: gig, FreelancerID: freelancer, Message: "hi", Price: 100,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.GetGigBids(context.Background(), gig, freelancer)
	expectKind(t, err, models.ForbiddenError)

	bids, err := svc.GetGigBids(context.Background(), gig, owner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bids) != 1 {
		t.Fatalf("expected 1 bid, got %d", len(bids))
	}
}

func TestBidService_GetGigBids_ReturnsEveryBid(t *testing.T) {
	const bidders = 60

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := newMemBidStore()
	svc := NewBidService(store, mock_notify.NewMockDispatcher(ctrl))

	owner := store.addUser("Olga")
	gig := store.addGig(owner, "Build a site", 500)

	for i := 0; i < bidders; i++ {
		freelancer := store.addUser(fmt.Sprintf("Freelancer %d", i))
		if _, err := svc.CreateBid(context.Background(), models.BidRequest{
			GigID: gig, FreelancerID: freelancer, Message: "pick me", Price: 100,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	bids, err := svc.GetGigBids(context.Background(), gig, owner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bids) != bidders {
		t.Fatalf("expected all %d bids, got %d", bidders, len(bids))
	}
	for i := 1; i < len(bids); i++ {
		if bids[i].CreatedAt.After(bids[i-1].CreatedAt) {
			t.Fatal("expected bids ordered newest first")
		}
	}
}

func TestBidService_HireBid(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := newMemBidStore()
	dispatcher := mock_notify.NewMockDispatcher(ctrl)
	svc := NewBidService(store, dispatcher)

	owner := store.addUser("Olga")
	f1 := store.addUser("Fedor")
	f2 := store.addUser("Galina")
	gig := store.addGig(owner, "Build a site", 500)

	bid1, err := svc.CreateBid(context.Background(), models.BidRequest{
		GigID: gig, FreelancerID: f1, Message: "I can do this", Price: 400,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bid2, err := svc.CreateBid(context.Background(), models.BidRequest{
		GigID: gig, FreelancerID: f2, Message: "pick me", Price: 450,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("non-owner cannot hire", func(t *testing.T) {
		_, err := svc.HireBid(context.Background(), bid1.ID, f2)
		expectKind(t, err, models.ForbiddenError)
	})

	t.Run("unknown bid", func(t *testing.T) {
		_, err := svc.HireBid(context.Background(), uuid.New().String(), owner)
		expectKind(t, err, models.NotFoundError)
	})

	t.Run("hire closes the gig and sweeps siblings", func(t *testing.T) {
		dispatcher.EXPECT().Notify(f1, gomock.Cond(func(e notify.Event) bool {
			return e.Kind == notify.HiredEvent && e.GigID == gig && e.BidID == bid1.ID
		})).Times(1)

		hired, err := svc.HireBid(context.Background(), bid1.ID, owner)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if hired.Status != models.HiredBid {
			t.Fatalf("expected hired status, got %s", hired.Status)
		}
		if hired.Gig.Status != models.AssignedGig {
			t.Fatalf("expected assigned gig, got %s", hired.Gig.Status)
		}
		if store.bids[bid2.ID].Status != models.RejectedBid {
			t.Fatalf("expected sibling bid to be rejected, got %s", store.bids[bid2.ID].Status)
		}
		store.checkInvariant(t)
	})

	t.Run("second hire on the same gig conflicts", func(t *testing.T) {
		_, err := svc.HireBid(context.Background(), bid2.ID, owner)
		expectKind(t, err, models.ConflictError)
		store.checkInvariant(t)
	})
}

func TestBidService_HireBid_SweepIsIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := newMemBidStore()
	dispatcher := mock_notify.NewMockDispatcher(ctrl)
	svc := NewBidService(store, dispatcher)

	owner := store.addUser("Olga")
	f1 := store.addUser("Fedor")
	f2 := store.addUser("Galina")
	gig := store.addGig(owner, "Build a site", 500)

	bid1, _ := svc.CreateBid(context.Background(), models.BidRequest{
		GigID: gig, FreelancerID: f1, Message: "one", Price: 100,
	})
	bid2, _ := svc.CreateBid(context.Background(), models.BidRequest{
		GigID: gig, FreelancerID: f2, Message: "two", Price: 200,
	})

	dispatcher.EXPECT().Notify(f2, gomock.Any()).Times(1)
	if _, err := svc.RejectBid(context.Background(), bid2.ID, owner); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dispatcher.EXPECT().Notify(f1, gomock.Any()).Times(1)
	if _, err := svc.HireBid(context.Background(), bid1.ID, owner); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.bids[bid2.ID].Status != models.RejectedBid {
		t.Fatalf("expected previously rejected bid to stay rejected, got %s", store.bids[bid2.ID].Status)
	}
	store.checkInvariant(t)
}

func TestBidService_ConcurrentHires_ExactlyOneWins(t *testing.T) {
	const workers = 8

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := newMemBidStore()
	dispatcher := mock_notify.NewMockDispatcher(ctrl)
	svc := NewBidService(store, dispatcher)

	owner := store.addUser("Olga")
	gig := store.addGig(owner, "Build a site", 500)

	bidIds := make([]string, workers)
	for i := 0; i < workers; i++ {
		freelancer := store.addUser(fmt.Sprintf("Freelancer %d", i))
		bid, err := svc.CreateBid(context.Background(), models.BidRequest{
			GigID: gig, FreelancerID: freelancer, Message: "pick me", Price: 100,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		bidIds[i] = bid.ID
	}

	// Ровно одно уведомление о найме, какая бы попытка ни выиграла.
	dispatcher.EXPECT().Notify(gomock.Any(), gomock.Cond(func(e notify.Event) bool {
		return e.Kind == notify.HiredEvent
	})).Times(1)

	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(bidId string) {
			defer wg.Done()
			_, err := svc.HireBid(context.Background(), bidId, owner)
			results <- err
		}(bidIds[i])
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		var errResp *models.ErrorResponse
		if !errors.As(err, &errResp) || errResp.Kind != models.ConflictError {
			t.Fatalf("expected ConflictError for losing attempts, got %v", err)
		}
		conflicts++
	}
	if wins != 1 || conflicts != workers-1 {
		t.Fatalf("expected 1 win and %d conflicts, got %d and %d", workers-1, wins, conflicts)
	}
	store.checkInvariant(t)
}

func TestBidService_RejectBid(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := newMemBidStore()
	dispatcher := mock_notify.NewMockDispatcher(ctrl)
	svc := NewBidService(store, dispatcher)

	owner := store.addUser("Olga")
	f1 := store.addUser("Fedor")
	f2 := store.addUser("Galina")
	gig := store.addGig(owner, "Build a site", 500)

	bid1, _ := svc.CreateBid(context.Background(), models.BidRequest{
		GigID: gig, FreelancerID: f1, Message: "one", Price: 100,
	})
	bid2, _ := svc.CreateBid(context.Background(), models.BidRequest{
		GigID: gig, FreelancerID: f2, Message: "two", Price: 200,
	})

	t.Run("non-owner cannot reject", func(t *testing.T) {
		_, err := svc.RejectBid(context.Background(), bid1.ID, f2)
		expectKind(t, err, models.ForbiddenError)
	})

	t.Run("owner rejects a pending bid", func(t *testing.T) {
		dispatcher.EXPECT().Notify(f2, gomock.Cond(func(e notify.Event) bool {
			return e.Kind == notify.BidRejectedEvent && e.BidID == bid2.ID
		})).Times(1)

		rejected, err := svc.RejectBid(context.Background(), bid2.ID, owner)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rejected.Status != models.RejectedBid {
			t.Fatalf("expected rejected status, got %s", rejected.Status)
		}
	})

	t.Run("rejecting twice conflicts", func(t *testing.T) {
		_, err := svc.RejectBid(context.Background(), bid2.ID, owner)
		expectKind(t, err, models.ConflictError)
	})

	t.Run("reject fails once the gig is assigned", func(t *testing.T) {
		f3 := store.addUser("Hanna")
		bid3, _ := svc.CreateBid(context.Background(), models.BidRequest{
			GigID: gig, FreelancerID: f3, Message: "three", Price: 300,
		})

		dispatcher.EXPECT().Notify(f1, gomock.Any()).Times(1)
		if _, err := svc.HireBid(context.Background(), bid1.ID, owner); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, err := svc.RejectBid(context.Background(), bid3.ID, owner)
		expectKind(t, err, models.ConflictError)
	})
}

func TestBidService_BidOnAssignedGigConflicts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := newMemBidStore()
	dispatcher := mock_notify.NewMockDispatcher(ctrl)
	svc := NewBidService(store, dispatcher)

	owner := store.addUser("Olga")
	f1 := store.addUser("Fedor")
	f2 := store.addUser("Galina")
	gig := store.addGig(owner, "Build a site", 500)

	bid1, _ := svc.CreateBid(context.Background(), models.BidRequest{
		GigID: gig, FreelancerID: f1, Message: "one", Price: 100,
	})

	dispatcher.EXPECT().Notify(f1, gomock.Any()).Times(1)
	if _, err := svc.HireBid(context.Background(), bid1.ID, owner); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.CreateBid(context.Background(), models.BidRequest{
		GigID: gig, FreelancerID: f2, Message: "too late", Price: 200,
	})
	expectKind(t, err, models.ConflictError)
}
