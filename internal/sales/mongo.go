package sales

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

const parsedDateKey = "_parsed_date"

// MongoStore aggregates sales documents with server-side pipelines.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore wraps the sales collection.
func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

type mongoRecord struct {
	BatchID string `bson:"batch_id"`
	Source  string `bson:"source,omitempty"`
	Record  `bson:",inline"`
}

// EnsureIndexes creates the indexes the report filters rely on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: string(FieldSalesType), Value: 1}, {Key: string(FieldZSM), Value: 1}}},
		{Keys: bson.D{{Key: string(FieldSalesType), Value: 1}, {Key: string(FieldTSE), Value: 1}}},
		{Keys: bson.D{{Key: string(FieldDealerCode), Value: 1}}},
		{Keys: bson.D{{Key: "batch_id", Value: 1}}},
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("sales: ensure indexes: %w", err)
	}
	return nil
}

// Sum implements Store.
func (s *MongoStore) Sum(ctx context.Context, q SumQuery) (map[string]int64, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	cursor, err := s.coll.Aggregate(ctx, sumPipeline(q))
	if err != nil {
		return nil, queryErr("sum", err)
	}
	var docs []struct {
		ID    string `bson:"_id"`
		Total int64  `bson:"total"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, queryErr("sum decode", err)
	}
	out := make(map[string]int64, len(docs))
	for _, doc := range docs {
		out[doc.ID] += doc.Total
	}
	return out, nil
}

// Distinct implements Store.
func (s *MongoStore) Distinct(ctx context.Context, filter []Constraint, field Field) ([]string, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	if !field.Valid() || field.Numeric() {
		return nil, fmt.Errorf("sales: invalid distinct field %q", field)
	}
	cursor, err := s.coll.Aggregate(ctx, distinctPipeline(filter, field))
	if err != nil {
		return nil, queryErr("distinct", err)
	}
	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, queryErr("distinct decode", err)
	}
	values := make([]string, 0, len(docs))
	for _, doc := range docs {
		values = append(values, doc.ID)
	}
	return values, nil
}

// Insert stores the batch documents tagged with the batch id.
func (s *MongoStore) Insert(ctx context.Context, batch Batch) (int64, error) {
	if len(batch.Records) == 0 {
		return 0, nil
	}
	if batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}
	res, err := s.coll.InsertMany(ctx, mongoDocuments(batch))
	if err != nil {
		return 0, fmt.Errorf("sales: insert documents: %w", err)
	}
	return int64(len(res.InsertedIDs)), nil
}

// mongoDocuments stores dates zero-padded; $dateFromString with %m/%d/%Y
// rejects single-digit months and days.
func mongoDocuments(batch Batch) []any {
	docs := make([]any, 0, len(batch.Records))
	for _, rec := range batch.Records {
		rec.Date = CanonicalDate(rec.Date)
		docs = append(docs, mongoRecord{BatchID: batch.ID.String(), Source: batch.Source, Record: rec})
	}
	return docs
}

func matchStage(filter []Constraint) bson.D {
	match := bson.D{}
	for _, c := range filter {
		match = append(match, bson.E{Key: string(c.Field), Value: c.Value})
	}
	return bson.D{{Key: "$match", Value: match}}
}

func sumPipeline(q SumQuery) mongo.Pipeline {
	from := Day(q.Window.From)
	until := Day(q.Window.To).AddDate(0, 0, 1)
	return mongo.Pipeline{
		matchStage(q.Filter),
		{{Key: "$addFields", Value: bson.D{
			{Key: parsedDateKey, Value: bson.D{{Key: "$dateFromString", Value: bson.D{
				{Key: "dateString", Value: "$" + string(FieldDate)},
				{Key: "format", Value: "%m/%d/%Y"},
				{Key: "timezone", Value: "UTC"},
				{Key: "onError", Value: nil},
				{Key: "onNull", Value: nil},
			}}}},
		}}},
		{{Key: "$match", Value: bson.D{
			{Key: parsedDateKey, Value: bson.D{{Key: "$gte", Value: from}, {Key: "$lt", Value: until}}},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + string(q.GroupBy)},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: bson.D{{Key: "$toLong", Value: bson.D{
				{Key: "$convert", Value: bson.D{
					{Key: "input", Value: "$" + string(q.Sum)},
					{Key: "to", Value: "double"},
					{Key: "onError", Value: 0},
					{Key: "onNull", Value: 0},
				}},
			}}}}}},
		}}},
	}
}

func distinctPipeline(filter []Constraint, field Field) mongo.Pipeline {
	return mongo.Pipeline{
		matchStage(filter),
		{{Key: "$match", Value: bson.D{
			{Key: string(field), Value: bson.D{{Key: "$nin", Value: bson.A{"", nil}}}},
		}}},
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$" + string(field)}}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
}
