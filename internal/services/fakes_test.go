package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"rentease/internal/models"
)

type txKey struct{}

// memDB is an in-memory stand-in for the database. Transactions are
// serialised and roll back by restoring a snapshot.
type memDB struct {
	txMu sync.Mutex
	mu   sync.Mutex

	nextID    int
	rooms     map[int]models.Room
	units     map[int]models.RentedUnit
	reminders map[int]models.PaymentReminder
	payments  []models.Payment
}

func newMemDB() *memDB {
	return &memDB{
		rooms:     map[int]models.Room{},
		units:     map[int]models.RentedUnit{},
		reminders: map[int]models.PaymentReminder{},
	}
}

type memSnapshot struct {
	nextID    int
	rooms     map[int]models.Room
	units     map[int]models.RentedUnit
	reminders map[int]models.PaymentReminder
	payments  []models.Payment
}

func (db *memDB) snapshot() memSnapshot {
	db.mu.Lock()
	defer db.mu.Unlock()
	s := memSnapshot{
		nextID:    db.nextID,
		rooms:     make(map[int]models.Room, len(db.rooms)),
		units:     make(map[int]models.RentedUnit, len(db.units)),
		reminders: make(map[int]models.PaymentReminder, len(db.reminders)),
		payments:  append([]models.Payment(nil), db.payments...),
	}
	for k, v := range db.rooms {
		s.rooms[k] = v
	}
	for k, v := range db.units {
		s.units[k] = v
	}
	for k, v := range db.reminders {
		s.reminders[k] = v
	}
	return s
}

func (db *memDB) restore(s memSnapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.nextID = s.nextID
	db.rooms = s.rooms
	db.units = s.units
	db.reminders = s.reminders
	db.payments = s.payments
}

func (db *memDB) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	db.txMu.Lock()
	defer db.txMu.Unlock()
	snap := db.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		db.restore(snap)
		return err
	}
	return nil
}

func (db *memDB) id() int {
	db.nextID++
	return db.nextID
}

func (db *memDB) addRoom(r models.Room) models.Room {
	db.mu.Lock()
	defer db.mu.Unlock()
	if r.ID == 0 {
		r.ID = db.id()
	}
	if r.Status == "" {
		r.Status = models.RoomStatusAvailable
	}
	db.rooms[r.ID] = r
	return r
}

func (db *memDB) room(id int) models.Room {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.rooms[id]
}

func (db *memDB) counts() (units, reminders, payments int) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.units), len(db.reminders), len(db.payments)
}

type fakeRooms struct {
	db        *memDB
	createErr error
}

func (f fakeRooms) GetByID(_ context.Context, id int) (models.Room, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	r, ok := f.db.rooms[id]
	if !ok {
		return models.Room{}, models.ErrRoomNotFound
	}
	return r, nil
}

func (f fakeRooms) CompareAndSwapStatus(_ context.Context, id int, from, to string) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	r, ok := f.db.rooms[id]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	f.db.rooms[id] = r
	return true, nil
}

func (f fakeRooms) SetStatus(_ context.Context, id int, status string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if r, ok := f.db.rooms[id]; ok {
		r.Status = status
		f.db.rooms[id] = r
	}
	return nil
}

func (f fakeRooms) Create(_ context.Context, r models.Room) (models.Room, error) {
	if f.createErr != nil {
		return models.Room{}, f.createErr
	}
	return f.db.addRoom(r), nil
}

func (f fakeRooms) List(_ context.Context, status string) ([]models.Room, error) {
	return f.filter(func(r models.Room) bool { return status == "" || r.Status == status }), nil
}

func (f fakeRooms) ListByOwner(_ context.Context, ownerID int, status string) ([]models.Room, error) {
	return f.filter(func(r models.Room) bool {
		return r.OwnerID == ownerID && (status == "" || r.Status == status)
	}), nil
}

func (f fakeRooms) filter(keep func(models.Room) bool) []models.Room {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := []models.Room{}
	for _, r := range f.db.rooms {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f fakeRooms) Update(_ context.Context, r models.Room) (models.Room, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.rooms[r.ID]; !ok {
		return models.Room{}, models.ErrRoomNotFound
	}
	f.db.rooms[r.ID] = r
	return r, nil
}

func (f fakeRooms) ReplaceImages(_ context.Context, id int, paths []string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	r := f.db.rooms[id]
	r.ImagePaths = paths
	f.db.rooms[id] = r
	return nil
}

func (f fakeRooms) Delete(_ context.Context, id int) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.rooms[id]; !ok {
		return models.ErrRoomNotFound
	}
	for _, u := range f.db.units {
		if u.RoomID == id {
			return models.ErrConflict
		}
	}
	delete(f.db.rooms, id)
	return nil
}

func (f fakeRooms) Stats(_ context.Context, ownerID int) (models.RoomStats, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var s models.RoomStats
	for _, r := range f.db.rooms {
		if r.OwnerID != ownerID {
			continue
		}
		s.Total++
		switch r.Status {
		case models.RoomStatusAvailable:
			s.Available++
		case models.RoomStatusRented:
			s.Rented++
		}
	}
	return s, nil
}

type fakeUnits struct{ db *memDB }

func (f fakeUnits) Create(_ context.Context, u models.RentedUnit) (models.RentedUnit, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u.ID = f.db.id()
	u.CreatedAt = time.Now().UTC()
	f.db.units[u.ID] = u
	return u, nil
}

func (f fakeUnits) GetByID(_ context.Context, id int) (models.RentedUnit, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.units[id]
	if !ok {
		return models.RentedUnit{}, models.ErrRentedUnitNotFound
	}
	return u, nil
}

func (f fakeUnits) GetByIDForUpdate(ctx context.Context, id int) (models.RentedUnit, error) {
	return f.GetByID(ctx, id)
}

func (f fakeUnits) List(context.Context) ([]models.RentedUnit, error) {
	return f.filter(func(models.RentedUnit) bool { return true }), nil
}

func (f fakeUnits) ListByRenter(_ context.Context, renterID int) ([]models.RentedUnit, error) {
	return f.filter(func(u models.RentedUnit) bool { return u.RenterID == renterID }), nil
}

func (f fakeUnits) ListByRoom(_ context.Context, roomID int) ([]models.RentedUnit, error) {
	return f.filter(func(u models.RentedUnit) bool { return u.RoomID == roomID }), nil
}

func (f fakeUnits) HasActive(_ context.Context, roomID, renterID int) (bool, error) {
	return len(f.filter(func(u models.RentedUnit) bool { return u.RoomID == roomID && u.RenterID == renterID })) > 0, nil
}

func (f fakeUnits) filter(keep func(models.RentedUnit) bool) []models.RentedUnit {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := []models.RentedUnit{}
	for _, u := range f.db.units {
		if keep(u) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f fakeUnits) Delete(_ context.Context, id int) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.units[id]; !ok {
		return models.ErrRentedUnitNotFound
	}
	delete(f.db.units, id)
	return nil
}

// fakeReminders joins the room on read. ListByOwner filters on the stored
// owner snapshot so the service-side room filter can be observed.
type fakeReminders struct{ db *memDB }

func (f fakeReminders) withRoom(r models.PaymentReminder) models.PaymentReminder {
	if room, ok := f.db.rooms[r.RoomID]; ok {
		r.Room = &room
	}
	return r
}

func (f fakeReminders) Create(_ context.Context, r models.PaymentReminder) (models.PaymentReminder, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	r.ID = f.db.id()
	if r.ApprovalStatus == "" {
		r.ApprovalStatus = models.ApprovalPending
	}
	r.CreatedAt = time.Now().UTC()
	r.Room = nil
	f.db.reminders[r.ID] = r
	return r, nil
}

func (f fakeReminders) GetByID(_ context.Context, id int) (models.PaymentReminder, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	r, ok := f.db.reminders[id]
	if !ok {
		return models.PaymentReminder{}, models.ErrReminderNotFound
	}
	return f.withRoom(r), nil
}

func (f fakeReminders) List(context.Context) ([]models.PaymentReminder, error) {
	return f.filter(func(models.PaymentReminder) bool { return true }), nil
}

func (f fakeReminders) ListByRenter(_ context.Context, renterID int) ([]models.PaymentReminder, error) {
	return f.filter(func(r models.PaymentReminder) bool { return r.RenterID == renterID }), nil
}

func (f fakeReminders) ListByOwner(_ context.Context, ownerID int) ([]models.PaymentReminder, error) {
	return f.filter(func(r models.PaymentReminder) bool { return r.OwnerID == ownerID }), nil
}

func (f fakeReminders) ListByRoom(_ context.Context, roomID int) ([]models.PaymentReminder, error) {
	return f.filter(func(r models.PaymentReminder) bool { return r.RoomID == roomID }), nil
}

func (f fakeReminders) filter(keep func(models.PaymentReminder) bool) []models.PaymentReminder {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := []models.PaymentReminder{}
	for _, r := range f.db.reminders {
		if keep(r) {
			out = append(out, f.withRoom(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f fakeReminders) HasPending(_ context.Context, roomID, renterID int) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, r := range f.db.reminders {
		if r.RoomID == roomID && r.RenterID == renterID && r.ApprovalStatus == models.ApprovalPending {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeReminders) RejectPending(_ context.Context, roomID, renterID int) (int, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	n := 0
	for id, r := range f.db.reminders {
		if r.RoomID == roomID && r.RenterID == renterID && r.ApprovalStatus == models.ApprovalPending {
			r.ApprovalStatus = models.ApprovalRejected
			f.db.reminders[id] = r
			n++
		}
	}
	return n, nil
}

func (f fakeReminders) CompareAndSwapApproval(_ context.Context, id int, from, to string) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	r, ok := f.db.reminders[id]
	if !ok || r.ApprovalStatus != from {
		return false, nil
	}
	r.ApprovalStatus = to
	f.db.reminders[id] = r
	return true, nil
}

func (f fakeReminders) Delete(_ context.Context, id int) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.reminders[id]; !ok {
		return models.ErrReminderNotFound
	}
	delete(f.db.reminders, id)
	return nil
}

type fakePayments struct{ db *memDB }

func (f fakePayments) Create(_ context.Context, p models.Payment) (models.Payment, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p.ID = f.db.id()
	f.db.payments = append(f.db.payments, p)
	return p, nil
}

func (f fakePayments) GetByIntentID(_ context.Context, intentID string) (models.Payment, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for i := len(f.db.payments) - 1; i >= 0; i-- {
		if f.db.payments[i].PaymentIntentID == intentID {
			return f.db.payments[i], nil
		}
	}
	return models.Payment{}, models.ErrPaymentNotFound
}

func (f fakePayments) MarkPaid(_ context.Context, intentID string, amount float64, paidDate models.Date) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	found := false
	for i := range f.db.payments {
		if f.db.payments[i].PaymentIntentID == intentID {
			f.db.payments[i].Status = models.PaymentStatusPaid
			f.db.payments[i].Amount = amount
			f.db.payments[i].PaidDate = paidDate
			found = true
		}
	}
	return found, nil
}

type fakeGateway struct {
	mu      sync.Mutex
	err     error
	intent  models.PaymentIntent
	amounts []int
}

func (g *fakeGateway) CreateIntent(_ context.Context, amount int) (models.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.amounts = append(g.amounts, amount)
	if g.err != nil {
		return models.PaymentIntent{}, g.err
	}
	pi := g.intent
	if pi.ID == "" {
		pi = models.PaymentIntent{ID: "pi_test", ClientKey: "pi_test_key", CheckoutURL: "https://pay.test/pi_test", Status: "awaiting_payment_method"}
	}
	pi.Amount = amount * 100
	return pi, nil
}

func (g *fakeGateway) RetrieveIntent(_ context.Context, id string) (models.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return models.PaymentIntent{}, g.err
	}
	pi := g.intent
	pi.ID = id
	return pi, nil
}

func (g *fakeGateway) AttachIntent(_ context.Context, id string, req models.AttachRequest) (models.PaymentIntent, error) {
	if g.err != nil {
		return models.PaymentIntent{}, g.err
	}
	return models.PaymentIntent{ID: id, ClientKey: req.ClientKey, CheckoutURL: req.ReturnURL}, nil
}

func (g *fakeGateway) CreateMethod(_ context.Context, req models.PaymentMethodRequest) (models.PaymentMethod, error) {
	if g.err != nil {
		return models.PaymentMethod{}, g.err
	}
	return models.PaymentMethod{ID: "pm_test", Type: req.Type}, nil
}

type sentNotification struct {
	to models.Principal
	n  models.Notification
}

type recordingNotifier struct {
	mu   sync.Mutex
	err  error
	sent []sentNotification
}

func (r *recordingNotifier) Notify(_ context.Context, to models.Principal, n models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentNotification{to: to, n: n})
	return r.err
}

func (r *recordingNotifier) all() []sentNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentNotification(nil), r.sent...)
}

var errGatewayDown = errors.New("gateway down")

func owner(id int) models.Principal  { return models.Principal{Kind: models.PrincipalOwner, ID: id} }
func renter(id int) models.Principal { return models.Principal{Kind: models.PrincipalRenter, ID: id} }
