package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"travelog/internal/domain/entity"
	repo "travelog/internal/domain/repository"
	"travelog/pkg/validation"
)

// RandomTripLimit bounds the public random sample.
const RandomTripLimit = 7

// TripService owns the trip lifecycle: validation, photo reconciliation
// against object storage, persistence and search indexing.
type TripService struct {
	Repo         repo.TripRepository
	Users        repo.UserRepository
	Media        MediaStorage
	Logger       *logrus.Logger
	ES           *elasticsearch.Client
	ESTripsIndex string
}

func NewTripService(r repo.TripRepository, users repo.UserRepository, media MediaStorage, logger *logrus.Logger, es *elasticsearch.Client, esIndex string) *TripService {
	return &TripService{Repo: r, Users: users, Media: media, Logger: logger, ES: es, ESTripsIndex: esIndex}
}

// PhotoUpload is one inbound photo file.
type PhotoUpload struct {
	Filename    string
	ContentType string
	Reader      io.Reader
}

// CreateTrip validates, then uploads, then persists — in that order. No
// partial trip is written when an upload fails; objects that did land before
// the failure are logged as orphans for manual reconciliation.
func (s *TripService) CreateTrip(ctx context.Context, userID string, payload *validation.TripPayload, photos []PhotoUpload) (*entity.Trip, error) {
	if verrs := validation.ValidateTrip(payload); verrs != nil {
		return nil, verrs
	}

	trip := tripFromPayload(userID, payload)

	uploaded, err := s.uploadPhotos(ctx, userID, photos)
	if err != nil {
		s.logOrphans(userID, uploaded)
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	trip.Photos = uploaded

	if err := s.Repo.Create(ctx, trip); err != nil {
		s.logOrphans(userID, uploaded)
		return nil, err
	}
	s.indexTrip(ctx, trip)
	return trip, nil
}

func (s *TripService) ListRandomTrips(ctx context.Context) ([]*entity.Trip, error) {
	return s.Repo.ListRandom(ctx, RandomTripLimit)
}

func (s *TripService) ListAllTrips(ctx context.Context) ([]*entity.Trip, error) {
	return s.Repo.ListAll(ctx)
}

func (s *TripService) GetTrip(ctx context.Context, tripID string) (*entity.Trip, error) {
	if _, err := uuid.Parse(tripID); err != nil {
		return nil, ErrInvalidTripID
	}
	t, err := s.Repo.GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *TripService) ListTripsForUser(ctx context.Context, userID string) ([]*entity.Trip, error) {
	trips, err := s.Repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(trips) == 0 {
		return nil, ErrNoTrips
	}
	return trips, nil
}

func (s *TripService) ListTripsByUsername(ctx context.Context, username string) ([]*entity.Trip, error) {
	u, err := s.Users.GetByUsername(ctx, username)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}
	trips, err := s.Repo.ListByUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	if len(trips) == 0 {
		return nil, ErrNoTrips
	}
	return trips, nil
}

// UpdateTrip reconciles the photo set (deletions then additions) against the
// in-memory trip, then persists the merged document in a single write. Only
// the owner may update.
func (s *TripService) UpdateTrip(ctx context.Context, callerID, tripID string, payload *validation.TripPayload, newPhotos []PhotoUpload, deletedPhotoIDs []string) (*entity.Trip, error) {
	if _, err := uuid.Parse(tripID); err != nil {
		return nil, ErrInvalidTripID
	}
	t, err := s.Repo.GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	if t.UserID != callerID {
		return nil, ErrNotTripOwner
	}
	if verrs := validation.ValidateTrip(payload); verrs != nil {
		return nil, verrs
	}

	applyPayload(t, payload)

	if len(deletedPhotoIDs) > 0 {
		deleted := make(map[string]bool, len(deletedPhotoIDs))
		for _, id := range deletedPhotoIDs {
			deleted[id] = true
		}
		kept := t.Photos[:0]
		for _, p := range t.Photos {
			if !deleted[p.ObjectID] {
				kept = append(kept, p)
				continue
			}
			if dErr := s.Media.Delete(ctx, p.ObjectID); dErr != nil && s.Logger != nil {
				s.Logger.WithError(dErr).WithFields(logrus.Fields{
					"trip_id": t.ID,
					"object":  p.ObjectID,
				}).Warn("photo destroy failed, removing reference anyway")
			}
		}
		t.Photos = kept
	}

	uploaded, err := s.uploadPhotos(ctx, callerID, newPhotos)
	if err != nil {
		s.logOrphans(callerID, uploaded)
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	t.Photos = append(t.Photos, uploaded...)

	if err := s.Repo.Update(ctx, t); err != nil {
		return nil, err
	}
	s.indexTrip(ctx, t)
	return t, nil
}

// DeleteTrip destroys attached photos best-effort and removes the record.
// A destroy failure is logged and swallowed so a flaky media backend cannot
// block deletion and leave orphaned records.
func (s *TripService) DeleteTrip(ctx context.Context, callerID, tripID string) (*entity.Trip, error) {
	if _, err := uuid.Parse(tripID); err != nil {
		return nil, ErrInvalidTripID
	}
	t, err := s.Repo.GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	if t.UserID != callerID {
		return nil, ErrNotTripOwner
	}

	for _, p := range t.Photos {
		if dErr := s.Media.Delete(ctx, p.ObjectID); dErr != nil && s.Logger != nil {
			s.Logger.WithError(dErr).WithFields(logrus.Fields{
				"trip_id": t.ID,
				"object":  p.ObjectID,
			}).Warn("photo destroy failed, continuing trip deletion")
		}
	}

	if err := s.Repo.Delete(ctx, tripID); err != nil {
		return nil, err
	}
	s.removeFromIndex(ctx, tripID)
	return t, nil
}

// SearchTrips performs a multi_match query over country and place names.
func (s *TripService) SearchTrips(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESTripsIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"country^2", "places", "owner"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESTripsIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

// uploadPhotos pushes every file concurrently; the first failure cancels the
// rest. Successfully uploaded photos are returned even on error so the caller
// can log them as orphans.
func (s *TripService) uploadPhotos(ctx context.Context, userID string, photos []PhotoUpload) ([]entity.Photo, error) {
	if len(photos) == 0 {
		return []entity.Photo{}, nil
	}
	results := make([]entity.Photo, len(photos))
	g, gctx := errgroup.WithContext(ctx)
	for i, ph := range photos {
		g.Go(func() error {
			ext := strings.ToLower(filepath.Ext(ph.Filename))
			objectPath := filepath.ToSlash(filepath.Join("trips", userID, uuid.NewString()+ext))
			url, err := s.Media.Upload(gctx, objectPath, ph.ContentType, ph.Reader)
			if err != nil {
				return err
			}
			results[i] = entity.Photo{URL: url, ObjectID: objectPath}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		landed := make([]entity.Photo, 0, len(results))
		for _, p := range results {
			if p.ObjectID != "" {
				landed = append(landed, p)
			}
		}
		return landed, err
	}
	return results, nil
}

func (s *TripService) logOrphans(userID string, photos []entity.Photo) {
	if s.Logger == nil {
		return
	}
	for _, p := range photos {
		s.Logger.WithFields(logrus.Fields{
			"user_id": userID,
			"object":  p.ObjectID,
		}).Warn("orphaned photo object, needs manual reconciliation")
	}
}

func tripFromPayload(userID string, p *validation.TripPayload) *entity.Trip {
	// Dates were checked by ValidateTrip.
	start, _ := validation.ParseDate(p.TravelPeriod.StartDate)
	end, _ := validation.ParseDate(p.TravelPeriod.EndDate)

	t := &entity.Trip{
		UserID:        userID,
		Country:       p.Country,
		StartDate:     start,
		EndDate:       end,
		WeatherNotes:  p.WeatherNotes,
		ClothingNotes: p.ClothingNotes,
	}
	copyCollections(t, p)
	return t
}

func applyPayload(t *entity.Trip, p *validation.TripPayload) {
	start, _ := validation.ParseDate(p.TravelPeriod.StartDate)
	end, _ := validation.ParseDate(p.TravelPeriod.EndDate)
	t.Country = p.Country
	t.StartDate = start
	t.EndDate = end
	t.WeatherNotes = p.WeatherNotes
	t.ClothingNotes = p.ClothingNotes
	copyCollections(t, p)
}

func copyCollections(t *entity.Trip, p *validation.TripPayload) {
	t.VisitedPlaces = make([]entity.VisitedPlace, len(p.VisitedPlaces))
	for i, vp := range p.VisitedPlaces {
		t.VisitedPlaces[i] = entity.VisitedPlace(vp)
	}
	t.Accommodations = make([]entity.Accommodation, len(p.Accommodations))
	for i, a := range p.Accommodations {
		t.Accommodations[i] = entity.Accommodation(a)
	}
	t.Transportations = make([]entity.Transportation, len(p.Transportations))
	for i, tr := range p.Transportations {
		t.Transportations[i] = entity.Transportation(tr)
	}
	t.BudgetItems = make([]entity.BudgetItem, len(p.BudgetItems))
	for i, b := range p.BudgetItems {
		t.BudgetItems[i] = entity.BudgetItem(b)
	}
}

func (s *TripService) indexTrip(ctx context.Context, t *entity.Trip) {
	if s.ES == nil || s.ESTripsIndex == "" {
		return
	}
	places := make([]string, len(t.VisitedPlaces))
	for i, vp := range t.VisitedPlaces {
		places[i] = vp.Name
	}
	doc := map[string]any{
		"id":         t.ID,
		"user_id":    t.UserID,
		"country":    t.Country,
		"places":     places,
		"start_date": t.StartDate.Format(time.RFC3339),
		"end_date":   t.EndDate.Format(time.RFC3339),
	}
	if t.Owner != nil {
		doc["owner"] = t.Owner.Username
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESTripsIndex, DocumentID: t.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("trip_id", t.ID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("trip_id", t.ID).Warn("es index response error")
	}
}

func (s *TripService) removeFromIndex(ctx context.Context, tripID string) {
	if s.ES == nil || s.ESTripsIndex == "" {
		return
	}
	req := esapi.DeleteRequest{Index: s.ESTripsIndex, DocumentID: tripID}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("trip_id", tripID).Warn("es delete failed")
		}
		return
	}
	_ = res.Body.Close()
}
