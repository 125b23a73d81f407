// Package store provides MongoDB persistence for the audit log.
//
// Collections (all in database "leaddesk"):
//   - audit_entries – one document per entry, ordered by (time, seq) descending
package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"leaddesk/internal/audit"
)

const (
	dbName          = "leaddesk"
	auditCollection = "audit_entries"
)

// Client wraps a MongoDB client.
type Client struct {
	mc  *mongo.Client
	col *mongo.Collection
}

type auditDoc struct {
	Seq    int64     `bson:"seq"`
	Time   time.Time `bson:"time"`
	Actor  string    `bson:"actor"`
	Action string    `bson:"action"`
	Target string    `bson:"target"`
	Score  int       `bson:"score"`
	Risk   string    `bson:"risk"`
}

func toDoc(e audit.Entry, seq int64) auditDoc {
	return auditDoc{
		Seq:    seq,
		Time:   e.Time.UTC(),
		Actor:  e.Actor,
		Action: e.Action,
		Target: e.Target,
		Score:  e.Score,
		Risk:   e.Risk.String(),
	}
}

func (d auditDoc) entry() audit.Entry {
	var t time.Time
	if !d.Time.IsZero() {
		t = d.Time.Local()
	}
	return audit.Entry{
		Time:   t,
		Actor:  d.Actor,
		Action: d.Action,
		Target: d.Target,
		Score:  d.Score,
		Risk:   audit.ParseRisk(d.Risk),
	}
}

// New connects to MongoDB and returns a store Client.
func New(ctx context.Context, uri string) (*Client, error) {
	mc, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("store: mongo connect: %w", err)
	}
	if err := mc.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("store: mongo ping: %w", err)
	}

	c := &Client{mc: mc, col: mc.Database(dbName).Collection(auditCollection)}
	if err := c.ensureIndices(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Disconnect cleanly closes the MongoDB connection.
func (c *Client) Disconnect(ctx context.Context) error {
	return c.mc.Disconnect(ctx)
}

func (c *Client) ensureIndices(ctx context.Context) error {
	if _, err := c.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "seq", Value: -1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "actor", Value: 1}, {Key: "seq", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("store: audit indices: %w", err)
	}
	return nil
}

// Load returns every entry, most recent first.
func (c *Client) Load(ctx context.Context) ([]audit.Entry, error) {
	cur, err := c.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "seq", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("store: load audit log: %w", err)
	}
	defer cur.Close(ctx)

	var docs []auditDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("store: decode audit log: %w", err)
	}

	entries := make([]audit.Entry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, d.entry())
	}
	return entries, nil
}

// Save replaces the collection contents.
func (c *Client) Save(ctx context.Context, entries []audit.Entry) error {
	if _, err := c.col.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("store: clear audit log: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	docs := make([]any, 0, len(entries))
	n := int64(len(entries))
	for i, e := range entries {
		docs = append(docs, toDoc(e, n-int64(i)))
	}
	if _, err := c.col.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("store: save audit log: %w", err)
	}
	return nil
}

// Prepend inserts e with the next sequence number and deletes everything
// older than the newest limit entries.
func (c *Client) Prepend(ctx context.Context, e audit.Entry, limit int) error {
	seq, err := c.lastSeq(ctx)
	if err != nil {
		return err
	}
	seq++

	if _, err := c.col.InsertOne(ctx, toDoc(e, seq)); err != nil {
		return fmt.Errorf("store: insert audit entry: %w", err)
	}

	if limit > 0 && seq > int64(limit) {
		if _, err := c.col.DeleteMany(ctx, bson.M{"seq": bson.M{"$lte": seq - int64(limit)}}); err != nil {
			return fmt.Errorf("store: trim audit log: %w", err)
		}
	}
	return nil
}

func (c *Client) lastSeq(ctx context.Context) (int64, error) {
	var d auditDoc
	err := c.col.FindOne(ctx, bson.M{}, options.FindOne().SetSort(bson.D{{Key: "seq", Value: -1}})).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("store: read audit sequence: %w", err)
	}
	return d.Seq, nil
}
