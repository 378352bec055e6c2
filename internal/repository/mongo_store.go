package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iliyamo/bakery-bookings/internal/model"
)

// MongoStore keeps one document per date holding that date's
// reservations.  Every write is a single-document compare-and-swap on
// the version field, which gives InsertIfFree its atomicity without
// multi-document transactions.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type dayDoc struct {
	Date         string              `bson:"_id"`
	Version      int64               `bson:"version"`
	Reservations []model.Reservation `bson:"reservations"`
}

func (d dayDoc) list() []model.Reservation {
	date, err := model.ParseDate(d.Date)
	if err != nil {
		return nil
	}
	out := make([]model.Reservation, 0, len(d.Reservations))
	for _, r := range d.Reservations {
		r.Date = date
		out = append(out, r)
	}
	return out
}

func NewMongoStore(client *mongo.Client, database, collection string) *MongoStore {
	if collection == "" {
		collection = "reservation_days"
	}
	return &MongoStore{client: client, coll: client.Database(database).Collection(collection)}
}

// EnsureIndexes creates the lookup indexes used by GetByID and ListByUser.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "reservations.id", Value: 1}}},
		{Keys: bson.D{{Key: "reservations.user_id", Value: 1}}},
	})
	return err
}

func (s *MongoStore) InsertIfFree(ctx context.Context, res *model.Reservation, check ConflictCheck) error {
	key := res.Date.String()
	var doc dayDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		doc = dayDoc{Date: key}
	case err != nil:
		return err
	}
	existing := doc.list()
	for _, r := range existing {
		if r.ID == res.ID {
			return ErrConflict
		}
	}
	if err := runCheck(check, existing); err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	res.CreatedAt, res.UpdatedAt = now, now

	if doc.Version == 0 {
		_, err := s.coll.InsertOne(ctx, dayDoc{Date: key, Version: 1, Reservations: []model.Reservation{*res}})
		if mongo.IsDuplicateKeyError(err) {
			return errors.Join(ErrContention, err)
		}
		return err
	}
	upd, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": key, "version": doc.Version},
		bson.M{"$push": bson.M{"reservations": res}, "$inc": bson.M{"version": 1}})
	if err != nil {
		return err
	}
	if upd.MatchedCount == 0 {
		return ErrContention
	}
	return nil
}

func (s *MongoStore) ListByDate(ctx context.Context, date model.Date) ([]model.Reservation, error) {
	var doc dayDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": date.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return []model.Reservation{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := doc.list()
	sortReservations(out)
	return out, nil
}

func (s *MongoStore) ListByDateRange(ctx context.Context, from, to model.Date) ([]model.Reservation, error) {
	return s.find(ctx, bson.M{"_id": bson.M{"$gte": from.String(), "$lte": to.String()}}, ReservationFilter{})
}

func (s *MongoStore) find(ctx context.Context, filter bson.M, f ReservationFilter) ([]model.Reservation, error) {
	cur, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := make([]model.Reservation, 0)
	for cur.Next(ctx) {
		var doc dayDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		for _, r := range doc.list() {
			if f.match(r) {
				out = append(out, r)
			}
		}
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	sortReservations(out)
	return out, nil
}

func (s *MongoStore) GetByID(ctx context.Context, id string) (model.Reservation, error) {
	var doc dayDoc
	err := s.coll.FindOne(ctx,
		bson.M{"reservations.id": id},
		options.FindOne().SetProjection(bson.M{"version": 1, "reservations.$": 1}),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Reservation{}, ErrReservationNotFound
	}
	if err != nil {
		return model.Reservation{}, err
	}
	for _, r := range doc.list() {
		if r.ID == id {
			return r, nil
		}
	}
	return model.Reservation{}, ErrReservationNotFound
}

func (s *MongoStore) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	return s.find(ctx, bson.M{"reservations.user_id": userID}, ReservationFilter{UserID: userID})
}

func (s *MongoStore) List(ctx context.Context, f ReservationFilter) ([]model.Reservation, error) {
	filter := bson.M{}
	rng := bson.M{}
	if !f.From.IsZero() {
		rng["$gte"] = f.From.String()
	}
	if !f.To.IsZero() {
		rng["$lte"] = f.To.String()
	}
	if len(rng) > 0 {
		filter["_id"] = rng
	}
	if f.UserID != 0 {
		filter["reservations.user_id"] = f.UserID
	}
	return s.find(ctx, filter, f)
}

func (s *MongoStore) UpdateStatus(ctx context.Context, id string, from, to model.ReservationStatus, note string) error {
	set := bson.M{
		"reservations.$.status":     to,
		"reservations.$.updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}
	if note != "" {
		set["reservations.$.admin_note"] = note
	}
	upd, err := s.coll.UpdateOne(ctx,
		bson.M{"reservations": bson.M{"$elemMatch": bson.M{"id": id, "status": from}}},
		bson.M{"$set": set, "$inc": bson.M{"version": 1}})
	if err != nil {
		return err
	}
	if upd.MatchedCount == 1 {
		return nil
	}
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrConflict
}

func (s *MongoStore) DeletePending(ctx context.Context, id string, userID uint64) error {
	upd, err := s.coll.UpdateOne(ctx,
		bson.M{"reservations": bson.M{"$elemMatch": bson.M{"id": id, "user_id": userID, "status": model.StatusPending}}},
		bson.M{"$pull": bson.M{"reservations": bson.M{"id": id}}, "$inc": bson.M{"version": 1}})
	if err != nil {
		return err
	}
	if upd.MatchedCount == 1 {
		return nil
	}
	r, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if r.UserID != userID {
		return ErrForbidden
	}
	return ErrConflict
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
