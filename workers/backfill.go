package workers

import (
	"context"
	"log"
	"time"

	"geoprecio/models"
	"geoprecio/predictor"
	"geoprecio/storage"
)

// BackfillWorker walks the stored listings that have no ensemble estimate
// yet and writes one back, so every candidate carries a predicted price
// the recommendation layer can compare against the asking price.
type BackfillWorker struct {
	store     storage.Store
	predictor *predictor.Predictor
	batchSize int
	triggerCh chan struct{}
}

func NewBackfillWorker(store storage.Store, p *predictor.Predictor, batchSize int) *BackfillWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &BackfillWorker{
		store:     store,
		predictor: p,
		batchSize: batchSize,
		triggerCh: make(chan struct{}, 1),
	}
}

// Trigger requests an immediate batch outside the regular interval.
func (w *BackfillWorker) Trigger() {
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

// Run processes batches on the interval until the context is cancelled.
func (w *BackfillWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Backfill worker stopping")
			return
		case <-w.triggerCh:
			w.ProcessBatch(ctx)
		case <-ticker.C:
			w.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch predicts one batch of unestimated listings. Returns how
// many rows were updated.
func (w *BackfillWorker) ProcessBatch(ctx context.Context) int {
	pending, err := w.store.PropertiesWithoutPrediction(ctx, w.batchSize)
	if err != nil {
		log.Printf("Backfill: query error: %v", err)
		return 0
	}
	if len(pending) == 0 {
		return 0
	}

	log.Printf("Backfill: processing %d properties", len(pending))

	updated := 0
	for _, p := range pending {
		attrs, ok := attributesOf(p)
		if !ok {
			continue
		}

		res, err := w.predictor.Predict(attrs, true)
		if err != nil {
			// Typically an out-of-area listing. Log and move on; the
			// row stays unpredicted.
			log.Printf("Backfill: skipping %s: %v", p.ID, err)
			continue
		}

		if err := w.store.UpdatePrediction(ctx, p.ID, res.PricePerM2, res.TotalPrice, res.Method); err != nil {
			log.Printf("Backfill: failed to update %s: %v", p.ID, err)
			continue
		}
		updated++
	}

	log.Printf("Backfill: updated %d of %d", updated, len(pending))
	return updated
}

func attributesOf(p models.Property) (models.PropertyAttributes, bool) {
	if p.UsableArea == nil || p.Lat == nil || p.Lng == nil {
		return models.PropertyAttributes{}, false
	}
	attrs := models.PropertyAttributes{
		UsableArea: *p.UsableArea,
		Lat:        *p.Lat,
		Lng:        *p.Lng,
	}
	if p.Bedrooms != nil {
		attrs.Bedrooms = *p.Bedrooms
	}
	if p.Bathrooms != nil {
		attrs.Bathrooms = *p.Bathrooms
	}
	if p.ParkingSpots != nil {
		attrs.ParkingSpots = *p.ParkingSpots
	}
	// Occupancy is not tracked per listing; approximate it from rooms.
	attrs.MaxOccupants = attrs.Bedrooms * 2
	return attrs, true
}
