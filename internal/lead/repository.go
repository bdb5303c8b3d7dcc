package lead

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Create(ctx context.Context, lead Lead) error
	GetBySessionID(ctx context.Context, sessionID string) (Lead, error)
	Replace(ctx context.Context, lead Lead) (Lead, error)
	List(ctx context.Context, filter ListFilter, limit, offset int64) ([]Lead, error)
	Count(ctx context.Context, filter ListFilter) (int64, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, lead Lead) error {
	_, err := r.col.InsertOne(ctx, lead)
	return err
}

func (r *MongoRepository) GetBySessionID(ctx context.Context, sessionID string) (Lead, error) {
	var lead Lead
	if err := r.col.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&lead); err != nil {
		return Lead{}, err
	}
	return lead, nil
}

// Replace writes the whole merged record in one operation, so a completion
// (fields plus derived valuation) commits atomically or not at all.
func (r *MongoRepository) Replace(ctx context.Context, lead Lead) (Lead, error) {
	opts := options.FindOneAndReplace().SetReturnDocument(options.After)

	var updated Lead
	if err := r.col.FindOneAndReplace(ctx, bson.M{"_id": lead.SessionID}, lead, opts).Decode(&updated); err != nil {
		return Lead{}, err
	}
	return updated, nil
}

func (r *MongoRepository) List(ctx context.Context, filter ListFilter, limit, offset int64) ([]Lead, error) {
	query := r.filterToBSON(filter)
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]Lead, 0)
	for cursor.Next(ctx) {
		var lead Lead
		if err := cursor.Decode(&lead); err != nil {
			return nil, err
		}
		items = append(items, lead)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *MongoRepository) Count(ctx context.Context, filter ListFilter) (int64, error) {
	return r.col.CountDocuments(ctx, r.filterToBSON(filter))
}

func (r *MongoRepository) filterToBSON(filter ListFilter) bson.M {
	query := bson.M{}
	if filter.Complete != nil {
		query["is_complete"] = *filter.Complete
	}
	if filter.Role != "" {
		query["role"] = filter.Role
	}
	if filter.Tenure != "" {
		query["property_own_or_rent"] = filter.Tenure
	}
	if filter.Query != "" {
		regex := bson.M{"$regex": filter.Query, "$options": "i"}
		query["$or"] = bson.A{
			bson.M{"name": regex},
			bson.M{"email": regex},
			bson.M{"company_sector": regex},
		}
	}
	return query
}
