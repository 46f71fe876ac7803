package server

import (
	"coinloyalty/internal/database"
	"coinloyalty/internal/model"
	"context"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"time"
)

// watchRetryDelay is how long to back off before reopening a broken change
// stream.
const watchRetryDelay = 5 * time.Second

var changeStreamPipeline = bson.A{
	bson.M{"$match": bson.M{
		"operationType": bson.M{"$in": bson.A{"insert", "update", "replace"}},
	}},
}

// WatchBills tails the bill collection's change stream and routes each event
// to the processor: inserts fan out to the admins, updates that left a bill
// decided trigger the wallet credit. Blocks until ctx is cancelled.
func (s Server) WatchBills(ctx context.Context) {
	type changeEvent struct {
		OperationType string     `bson:"operationType"`
		FullDocument  model.Bill `bson:"fullDocument"`
	}
	for ctx.Err() == nil {
		cs, err := s.DB.Collection(database.CollectionBills).Watch(
			ctx, changeStreamPipeline, options.ChangeStream().SetFullDocument(options.UpdateLookup))
		if err != nil {
			s.Logger.Errorf("WatchBills: Error opening change stream, retrying in %v, err: %v", watchRetryDelay, err)
			sleepCtx(ctx, watchRetryDelay)
			continue
		}
		s.Logger.Info("WatchBills: Watching Bills change stream")

		for cs.Next(ctx) {
			var ev changeEvent
			if err = cs.Decode(&ev); err != nil {
				s.Logger.Errorf("WatchBills: Error decoding change event, err: %v", err)
				continue
			}
			switch {
			case ev.OperationType == "insert":
				if err = s.ProcessBillInsert(ctx, ev.FullDocument); err != nil {
					s.Logger.Errorf("WatchBills: Error processing Bill insert, ID: %s, err: %v",
						ev.FullDocument.ID.Hex(), err)
				}
			case ev.FullDocument.Decided():
				if err = s.ProcessBillDecision(ctx, ev.FullDocument); err != nil {
					s.Logger.Errorf("WatchBills: Error processing Bill decision, ID: %s, err: %v",
						ev.FullDocument.ID.Hex(), err)
				}
			}
		}
		if err = cs.Err(); err != nil && ctx.Err() == nil {
			s.Logger.Errorf("WatchBills: Change stream broke, retrying in %v, err: %v", watchRetryDelay, err)
		}
		if err = cs.Close(context.Background()); err != nil {
			s.Logger.Errorf("WatchBills: Error closing change stream, err: %v", err)
		}
		sleepCtx(ctx, watchRetryDelay)
	}
}

// WatchSchemeRequests tails the scheme request collection's change stream.
// Blocks until ctx is cancelled.
func (s Server) WatchSchemeRequests(ctx context.Context) {
	type changeEvent struct {
		OperationType string              `bson:"operationType"`
		FullDocument  model.SchemeRequest `bson:"fullDocument"`
	}
	for ctx.Err() == nil {
		cs, err := s.DB.Collection(database.CollectionSchemeRequests).Watch(
			ctx, changeStreamPipeline, options.ChangeStream().SetFullDocument(options.UpdateLookup))
		if err != nil {
			s.Logger.Errorf("WatchSchemeRequests: Error opening change stream, retrying in %v, err: %v",
				watchRetryDelay, err)
			sleepCtx(ctx, watchRetryDelay)
			continue
		}
		s.Logger.Info("WatchSchemeRequests: Watching SchemeRequests change stream")

		for cs.Next(ctx) {
			var ev changeEvent
			if err = cs.Decode(&ev); err != nil {
				s.Logger.Errorf("WatchSchemeRequests: Error decoding change event, err: %v", err)
				continue
			}
			switch {
			case ev.OperationType == "insert":
				if err = s.ProcessSchemeRequestInsert(ctx, ev.FullDocument); err != nil {
					s.Logger.Errorf("WatchSchemeRequests: Error processing SchemeRequest insert, ID: %s, err: %v",
						ev.FullDocument.ID.Hex(), err)
				}
			case ev.FullDocument.Decided():
				if err = s.ProcessSchemeRequestDecision(ctx, ev.FullDocument); err != nil {
					s.Logger.Errorf("WatchSchemeRequests: Error processing SchemeRequest decision, ID: %s, err: %v",
						ev.FullDocument.ID.Hex(), err)
				}
			}
		}
		if err = cs.Err(); err != nil && ctx.Err() == nil {
			s.Logger.Errorf("WatchSchemeRequests: Change stream broke, retrying in %v, err: %v", watchRetryDelay, err)
		}
		if err = cs.Close(context.Background()); err != nil {
			s.Logger.Errorf("WatchSchemeRequests: Error closing change stream, err: %v", err)
		}
		sleepCtx(ctx, watchRetryDelay)
	}
}

// SweepInInterval periodically re-runs the processor over recently decided
// entities. The change streams deliver events only while the process is up;
// the sweep catches decisions made during downtime. Reprocessing is safe
// because the processor is idempotent, but bills with an existing marker are
// skipped up front to keep the sweep cheap.
func (s Server) SweepInInterval(ctx context.Context, ticker *time.Ticker, lookback time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		since := time.Now().Add(-lookback)
		s.Logger.Debugf("SweepInInterval: Sweeping decisions since %v", since)

		bs, err := s.DB.BillsFindDecidedSince(ctx, since, 500)
		if err != nil {
			s.Logger.Errorf("SweepInInterval: Error finding decided Bills, err: %v", err)
		}
		for _, b := range bs {
			markerColl := database.CollectionRejectedBills
			if b.Status == model.BillApproved {
				markerColl = database.CollectionApprovedBills
			}
			exists, err := s.DB.DecisionMarkerExists(ctx, markerColl, b.ID.Hex())
			if err != nil {
				s.Logger.Errorf("SweepInInterval: Error checking marker for Bill ID: %s, err: %v", b.ID.Hex(), err)
				continue
			}
			if exists {
				continue
			}
			s.Logger.Infof("SweepInInterval: Found unprocessed decided Bill ID: %s", b.ID.Hex())
			if err = s.ProcessBillDecision(ctx, b); err != nil {
				s.Logger.Errorf("SweepInInterval: Error processing Bill ID: %s, err: %v", b.ID.Hex(), err)
			}
		}

		rs, err := s.DB.SchemeRequestsFindDecidedSince(ctx, since, 500)
		if err != nil {
			s.Logger.Errorf("SweepInInterval: Error finding decided SchemeRequests, err: %v", err)
		}
		for _, r := range rs {
			if err = s.ProcessSchemeRequestDecision(ctx, r); err != nil {
				s.Logger.Errorf("SweepInInterval: Error processing SchemeRequest ID: %s, err: %v", r.ID.Hex(), err)
			}
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
