package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	catalog "github.com/phillip/eventhub-go/catalog"
	models "github.com/phillip/eventhub-go/models"
)

const eventsCollection = "events"

// eventDoc adds the storage-only fields. RegisteredEmails holds the
// normalised key of every registrant so duplicates match case-insensitively
// while the submitted address is kept as entered.
type eventDoc struct {
	ID           primitive.ObjectID `bson:"_id"`
	models.Event `bson:",inline"`

	RegisteredEmails []string `bson:"registeredEmails"`
}

func (d eventDoc) toModel() models.Event {
	ev := d.Event
	ev.ID = d.ID.Hex()
	return withDefaults(ev)
}

type MongoStore struct {
	client *mongo.Client
	col    *mongo.Collection
}

// NewMongoStore connects and pings the server before returning.
func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &MongoStore{
		client: client,
		col:    client.Database(dbName).Collection(eventsCollection),
	}, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) List(ctx context.Context) ([]models.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := s.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find events: %w", err)
	}
	var docs []eventDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}

	events := make([]models.Event, 0, len(docs))
	for _, d := range docs {
		events = append(events, d.toModel())
	}
	return events, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (models.Event, error) {
	oid, err := parseID(id)
	if err != nil {
		return models.Event{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.findOne(ctx, oid)
}

func (s *MongoStore) findOne(ctx context.Context, oid primitive.ObjectID) (models.Event, error) {
	var doc eventDoc
	if err := s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Event{}, ErrNotFound
		}
		return models.Event{}, fmt.Errorf("find event: %w", err)
	}
	return doc.toModel(), nil
}

func (s *MongoStore) Create(ctx context.Context, in models.EventInput) (models.Event, error) {
	now := time.Now().UTC()
	doc := eventDoc{
		ID: primitive.NewObjectID(),
		Event: models.Event{
			Name:            in.Name,
			Venue:           in.Venue,
			Date:            in.Date,
			Time:            in.Time,
			Capacity:        in.Capacity,
			Description:     in.Description,
			Status:          in.Status,
			RegisteredUsers: []models.Registrant{},
			Photos:          []string{},
			CreatedAt:       now,
			UpdatedAt:       now,
		},
		RegisteredEmails: []string{},
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := s.col.InsertOne(ctx, doc); err != nil {
		return models.Event{}, fmt.Errorf("insert event: %w", err)
	}
	return doc.toModel(), nil
}

func (s *MongoStore) Update(ctx context.Context, id string, in models.EventInput) (models.Event, error) {
	oid, err := parseID(id)
	if err != nil {
		return models.Event{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{
		"name":        in.Name,
		"venue":       in.Venue,
		"date":        in.Date,
		"time":        in.Time,
		"capacity":    in.Capacity,
		"description": in.Description,
		"status":      in.Status,
		"updatedAt":   time.Now().UTC(),
	}
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": update})
	if err != nil {
		return models.Event{}, fmt.Errorf("update event: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.Event{}, ErrNotFound
	}
	return s.findOne(ctx, oid)
}

func (s *MongoStore) Delete(ctx context.Context, id string) (models.Event, error) {
	oid, err := parseID(id)
	if err != nil {
		return models.Event{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var doc eventDoc
	if err := s.col.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Event{}, ErrNotFound
		}
		return models.Event{}, fmt.Errorf("delete event: %w", err)
	}
	return doc.toModel(), nil
}

func (s *MongoStore) Register(ctx context.Context, id string, r models.Registrant) (models.Event, error) {
	oid, err := parseID(id)
	if err != nil {
		return models.Event{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	r.Email = strings.TrimSpace(r.Email)
	key := NormalizeEmail(r.Email)
	if r.RegisteredAt.IsZero() {
		r.RegisteredAt = time.Now().UTC()
	}

	// The filter only matches while there is room and the email is new, so
	// the push cannot overshoot capacity under concurrent requests.
	filter := bson.M{
		"_id":                   oid,
		"registeredEmails":      bson.M{"$ne": key},
		"registeredUsers.email": bson.M{"$ne": r.Email},
		"$expr": bson.M{"$lt": bson.A{
			bson.M{"$size": bson.M{"$ifNull": bson.A{"$registeredUsers", bson.A{}}}},
			"$capacity",
		}},
	}
	update := bson.M{
		"$push": bson.M{"registeredUsers": r, "registeredEmails": key},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	res, err := s.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return models.Event{}, fmt.Errorf("register: %w", err)
	}

	ev, err := s.findOne(ctx, oid)
	if err != nil {
		return models.Event{}, err
	}
	if res.MatchedCount == 0 {
		for _, u := range ev.RegisteredUsers {
			if NormalizeEmail(u.Email) == key {
				return models.Event{}, ErrAlreadyRegistered
			}
		}
		return models.Event{}, ErrEventFull
	}
	return ev, nil
}

func (s *MongoStore) AddPhotos(ctx context.Context, id string, uris []string) (models.Event, error) {
	oid, err := parseID(id)
	if err != nil {
		return models.Event{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{
		"$push": bson.M{"photos": bson.M{"$each": uris}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return models.Event{}, fmt.Errorf("add photos: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.Event{}, ErrNotFound
	}
	return s.findOne(ctx, oid)
}

func (s *MongoStore) RemovePhoto(ctx context.Context, id string, index int) (string, error) {
	oid, err := parseID(id)
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	ev, err := s.findOne(ctx, oid)
	if err != nil {
		return "", err
	}
	photos, removed, err := catalog.RemovePhotoAt(ev.Photos, index)
	if err != nil {
		return "", err
	}

	// Match on the photo list we read so a concurrent upload or delete is
	// not overwritten with a stale list.
	filter := bson.M{"_id": oid, "photos": ev.Photos}
	update := bson.M{"$set": bson.M{"photos": photos, "updatedAt": time.Now().UTC()}}
	res, err := s.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return "", fmt.Errorf("remove photo: %w", err)
	}
	if res.MatchedCount == 0 {
		return "", ErrConflict
	}
	return removed, nil
}
