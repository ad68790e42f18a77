package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"tryst/internal/model"
)

const (
	contactsCollection            = "contacts"
	generalRegistrationCollection = "normalregistrations"
	eventRegistrationCollection   = "eventregistrations"
)

type contactDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	College   string             `bson:"college"`
	Course    string             `bson:"course"`
	Message   string             `bson:"message"`
	Status    string             `bson:"status,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

type generalRegistrationDoc struct {
	ID         primitive.ObjectID `bson:"_id"`
	Name       string             `bson:"name"`
	Email      string             `bson:"email"`
	Phone      string             `bson:"phone"`
	College    string             `bson:"college"`
	RollNumber string             `bson:"rollNumber"`
	Year       string             `bson:"year"`
	Course     string             `bson:"course"`
	CreatedAt  time.Time          `bson:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt"`
}

type eventRegistrationDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	Name        string             `bson:"name"`
	Email       string             `bson:"email"`
	Phone       string             `bson:"phone"`
	College     string             `bson:"college"`
	RollNumber  string             `bson:"rollNumber"`
	Event       string             `bson:"event"`
	TeamMembers string             `bson:"teamMembers,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

type mongoRepository struct {
	client *mongo.Client
	db     *mongo.Database
	log    *zerolog.Logger
}

func NewMongoRepository(ctx context.Context, uri, database string, log *zerolog.Logger) (Repository, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo uri cannot be empty")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	r := &mongoRepository{
		client: client,
		db:     client.Database(database),
		log:    log,
	}
	if err := r.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	log.Info().Str("database", database).Msg("MongoDB connected")
	return r, nil
}

func (r *mongoRepository) ensureIndexes(ctx context.Context) error {
	for _, name := range []string{generalRegistrationCollection, eventRegistrationCollection} {
		_, err := r.db.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		})
		if err != nil {
			return fmt.Errorf("failed to create email index on %s: %w", name, err)
		}
	}
	return nil
}

func (r *mongoRepository) collection(kind model.Kind) (*mongo.Collection, error) {
	switch kind {
	case model.KindContact:
		return r.db.Collection(contactsCollection), nil
	case model.KindGeneralRegistration:
		return r.db.Collection(generalRegistrationCollection), nil
	case model.KindEventRegistration:
		return r.db.Collection(eventRegistrationCollection), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

func (r *mongoRepository) insert(ctx context.Context, kind model.Kind, doc any) error {
	coll, err := r.collection(kind)
	if err != nil {
		return err
	}
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateKey, coll.Name())
		}
		return unavailable("insert into "+coll.Name(), err)
	}
	return nil
}

func (r *mongoRepository) findAll(ctx context.Context, kind model.Kind, out any) error {
	coll, err := r.collection(kind)
	if err != nil {
		return err
	}
	cur, err := coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return unavailable("find in "+coll.Name(), err)
	}
	if err := cur.All(ctx, out); err != nil {
		return unavailable("decode "+coll.Name(), err)
	}
	return nil
}

func (r *mongoRepository) CreateContactMessage(ctx context.Context, m *model.ContactMessage) error {
	if err := m.Validate(); err != nil {
		return validationError(err)
	}
	id := primitive.NewObjectID()
	now := stamp()
	doc := contactDoc{
		ID:        id,
		Name:      m.Name,
		Email:     m.Email,
		College:   m.College,
		Course:    m.Course,
		Message:   m.Message,
		Status:    m.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.insert(ctx, model.KindContact, doc); err != nil {
		return err
	}
	m.ID, m.CreatedAt, m.UpdatedAt = id.Hex(), now, now
	return nil
}

func (r *mongoRepository) CreateGeneralRegistration(ctx context.Context, reg *model.GeneralRegistration) error {
	if err := reg.Validate(); err != nil {
		return validationError(err)
	}
	id := primitive.NewObjectID()
	now := stamp()
	doc := generalRegistrationDoc{
		ID:         id,
		Name:       reg.Name,
		Email:      reg.Email,
		Phone:      reg.Phone,
		College:    reg.College,
		RollNumber: reg.RollNumber,
		Year:       reg.Year,
		Course:     reg.Course,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := r.insert(ctx, model.KindGeneralRegistration, doc); err != nil {
		return err
	}
	reg.ID, reg.CreatedAt, reg.UpdatedAt = id.Hex(), now, now
	return nil
}

func (r *mongoRepository) CreateEventRegistration(ctx context.Context, reg *model.EventRegistration) error {
	if err := reg.Validate(); err != nil {
		return validationError(err)
	}
	id := primitive.NewObjectID()
	now := stamp()
	doc := eventRegistrationDoc{
		ID:          id,
		Name:        reg.Name,
		Email:       reg.Email,
		Phone:       reg.Phone,
		College:     reg.College,
		RollNumber:  reg.RollNumber,
		Event:       reg.Event,
		TeamMembers: reg.TeamMembers,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.insert(ctx, model.KindEventRegistration, doc); err != nil {
		return err
	}
	reg.ID, reg.CreatedAt, reg.UpdatedAt = id.Hex(), now, now
	return nil
}

func (r *mongoRepository) ListContactMessages(ctx context.Context) ([]model.ContactMessage, error) {
	var docs []contactDoc
	if err := r.findAll(ctx, model.KindContact, &docs); err != nil {
		return nil, err
	}
	out := make([]model.ContactMessage, 0, len(docs))
	for _, d := range docs {
		out = append(out, model.ContactMessage{
			ID:        d.ID.Hex(),
			Name:      d.Name,
			Email:     d.Email,
			College:   d.College,
			Course:    d.Course,
			Message:   d.Message,
			Status:    d.Status,
			CreatedAt: d.CreatedAt,
			UpdatedAt: d.UpdatedAt,
		})
	}
	return out, nil
}

func (r *mongoRepository) ListGeneralRegistrations(ctx context.Context) ([]model.GeneralRegistration, error) {
	var docs []generalRegistrationDoc
	if err := r.findAll(ctx, model.KindGeneralRegistration, &docs); err != nil {
		return nil, err
	}
	out := make([]model.GeneralRegistration, 0, len(docs))
	for _, d := range docs {
		out = append(out, model.GeneralRegistration{
			ID:         d.ID.Hex(),
			Name:       d.Name,
			Email:      d.Email,
			Phone:      d.Phone,
			College:    d.College,
			RollNumber: d.RollNumber,
			Year:       d.Year,
			Course:     d.Course,
			CreatedAt:  d.CreatedAt,
			UpdatedAt:  d.UpdatedAt,
		})
	}
	return out, nil
}

func (r *mongoRepository) ListEventRegistrations(ctx context.Context) ([]model.EventRegistration, error) {
	var docs []eventRegistrationDoc
	if err := r.findAll(ctx, model.KindEventRegistration, &docs); err != nil {
		return nil, err
	}
	out := make([]model.EventRegistration, 0, len(docs))
	for _, d := range docs {
		out = append(out, model.EventRegistration{
			ID:          d.ID.Hex(),
			Name:        d.Name,
			Email:       d.Email,
			Phone:       d.Phone,
			College:     d.College,
			RollNumber:  d.RollNumber,
			Event:       d.Event,
			TeamMembers: d.TeamMembers,
			CreatedAt:   d.CreatedAt,
			UpdatedAt:   d.UpdatedAt,
		})
	}
	return out, nil
}

func (r *mongoRepository) EmailExists(ctx context.Context, kind model.Kind, email string) (bool, error) {
	if kind == model.KindContact {
		return false, fmt.Errorf("%w: %q has no email constraint", ErrUnknownKind, kind)
	}
	coll, err := r.collection(kind)
	if err != nil {
		return false, err
	}
	n, err := coll.CountDocuments(ctx, bson.D{{Key: "email", Value: email}}, options.Count().SetLimit(1))
	if err != nil {
		return false, unavailable("count in "+coll.Name(), err)
	}
	return n > 0, nil
}

func (r *mongoRepository) Stats(ctx context.Context) (model.Stats, error) {
	var (
		s   model.Stats
		err error
	)
	count := func(name string, filter bson.D) int64 {
		if err != nil {
			return 0
		}
		var n int64
		n, err = r.db.Collection(name).CountDocuments(ctx, filter)
		return n
	}

	s.TotalContacts = count(contactsCollection, bson.D{})
	s.TotalRegistrations = count(generalRegistrationCollection, bson.D{})
	s.TotalEventRegistrations = count(eventRegistrationCollection, bson.D{})
	s.NewContacts = count(contactsCollection, bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "status", Value: bson.D{{Key: "$exists", Value: false}}}},
		bson.D{{Key: "status", Value: model.ContactStatusNew}},
	}}})
	if err != nil {
		return model.Stats{}, unavailable("count records", err)
	}
	return s, nil
}

func (r *mongoRepository) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx, readpref.Primary()); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (r *mongoRepository) Close(ctx context.Context) error {
	if err := r.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect MongoDB: %w", err)
	}
	r.log.Info().Msg("MongoDB disconnected")
	return nil
}
