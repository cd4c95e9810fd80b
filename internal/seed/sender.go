package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ecoquest/bioblitz/internal/domain/model"
	"github.com/ecoquest/bioblitz/pkg/logger"
)

// observationPayload mirrors the wire schema for POST /observations.
type observationPayload struct {
	EventID        string  `json:"event_id"`
	ID             int64   `json:"id"`
	ObservedOn     string  `json:"observed_on"`
	TimeObservedAt string  `json:"time_observed_at,omitempty"`
	Quality        string  `json:"quality_grade"`
	UserLogin      string  `json:"user_login"`
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
	TaxonID        int64   `json:"taxon_id,omitempty"`
	TaxonName      string  `json:"taxon_name,omitempty"`
	TaxonRank      string  `json:"taxon_rank,omitempty"`
	IconicTaxon    string  `json:"iconic_taxon,omitempty"`
	URI            string  `json:"uri,omitempty"`
}

type ackPayload struct {
	Status    string `json:"status"`
	EventID   string `json:"event_id"`
	Duplicate bool   `json:"duplicate"`
}

func payloadFor(e model.Event) observationPayload {
	p := observationPayload{
		EventID:     e.EventID,
		ID:          e.Obs.ID,
		ObservedOn:  e.Obs.ObservedOn,
		Quality:     string(e.Obs.Quality),
		UserLogin:   e.Obs.UserLogin,
		Lat:         e.Obs.Lat,
		Lng:         e.Obs.Lng,
		TaxonID:     e.Obs.TaxonID,
		TaxonName:   e.Obs.TaxonName,
		TaxonRank:   e.Obs.TaxonRank,
		IconicTaxon: e.Obs.IconicTaxon,
		URI:         e.Obs.URI,
	}
	if !e.Obs.TimeObservedAt.IsZero() {
		p.TimeObservedAt = e.Obs.TimeObservedAt.Format(time.RFC3339)
	}
	return p
}

// Submit posts the events to the service with a pool of workers and
// returns submission statistics.
func Submit(ctx context.Context, cfg Config, events []model.Event) (*Stats, error) {
	cfg = cfg.normalized()
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("missing base URL")
	}

	stats := &Stats{
		Generated: len(events),
		StartTime: time.Now(),
	}
	client := &http.Client{Timeout: cfg.Timeout}
	url := cfg.BaseURL + "/observations"

	var accepted, duplicates, failed atomic.Int64
	jobs := make(chan model.Event)

	var wg sync.WaitGroup
	workerCount := cfg.Workers
	if workerCount > len(events) {
		workerCount = len(events)
	}
	for w := 0; w < workerCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for e := range jobs {
				ok, dup := postOne(ctx, client, url, e, cfg.Verbose)
				switch {
				case !ok:
					failed.Add(1)
				case dup:
					duplicates.Add(1)
				default:
					accepted.Add(1)
				}
			}
		}()
	}

	for _, e := range events {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return stats, fmt.Errorf("submission cancelled: %w", ctx.Err())
		case jobs <- e:
		}
	}
	close(jobs)
	wg.Wait()

	stats.Submitted = len(events)
	stats.Accepted = int(accepted.Load())
	stats.Duplicates = int(duplicates.Load())
	stats.Failed = int(failed.Load())
	stats.Duration = time.Since(stats.StartTime)

	logger.Get().Info(ctx, "submission finished",
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("failed", stats.Failed),
		logger.Duration("took", stats.Duration),
	)
	return stats, nil
}

func postOne(ctx context.Context, client *http.Client, url string, e model.Event, verbose bool) (ok, duplicate bool) {
	body, err := json.Marshal(payloadFor(e))
	if err != nil {
		return false, false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false, false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		if verbose {
			logger.Get().Warn(ctx, "submit failed", logger.String("eventID", e.EventID), logger.Error(err))
		}
		return false, false
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusAccepted:
		return true, false
	case http.StatusOK:
		var ack ackPayload
		_ = json.NewDecoder(resp.Body).Decode(&ack)
		return true, ack.Duplicate
	default:
		if verbose {
			logger.Get().Warn(ctx, "submit rejected",
				logger.String("eventID", e.EventID),
				logger.Int("status", resp.StatusCode),
			)
		}
		return false, false
	}
}
