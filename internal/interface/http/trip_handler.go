package handlers

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"travelog/internal/application"
	"travelog/internal/interface/middleware"
	"travelog/pkg/response"
	"travelog/pkg/validation"
)

// Trip endpoints accept multipart forms: the trip document travels as JSON in
// the "data" field, new files under "photos", and (on update) the object ids
// to delete as a JSON array in "deletedPhotos".

type TripHandler struct {
	Svc    *application.TripService
	Logger *logrus.Logger
}

func NewTripHandler(svc *application.TripService, logger *logrus.Logger) *TripHandler {
	return &TripHandler{Svc: svc, Logger: logger}
}

func parseTripForm(c *gin.Context) (*validation.TripPayload, []application.PhotoUpload, []multipart.File, bool) {
	raw := c.PostForm("data")
	if raw == "" {
		response.Error[any](c, http.StatusBadRequest, "missing trip data", nil)
		return nil, nil, nil, false
	}
	payload := &validation.TripPayload{}
	if err := json.Unmarshal([]byte(raw), payload); err != nil {
		response.Error[any](c, http.StatusBadRequest, "malformed trip data json", nil)
		return nil, nil, nil, false
	}

	var (
		uploads []application.PhotoUpload
		opened  []multipart.File
	)
	if form, err := c.MultipartForm(); err == nil && form != nil {
		for _, fh := range form.File["photos"] {
			f, err := fh.Open()
			if err != nil {
				closeAll(opened)
				response.Error[any](c, http.StatusBadRequest, "unreadable photo file", nil)
				return nil, nil, nil, false
			}
			opened = append(opened, f)
			uploads = append(uploads, application.PhotoUpload{
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Reader:      f,
			})
		}
	}
	return payload, uploads, opened, true
}

func closeAll(files []multipart.File) {
	for _, f := range files {
		_ = f.Close()
	}
}

// Create POST /api/tripDetail
func (h *TripHandler) Create(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	payload, uploads, opened, ok := parseTripForm(c)
	if !ok {
		return
	}
	defer closeAll(opened)

	trip, err := h.Svc.CreateTrip(c.Request.Context(), uid, payload, uploads)
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"trip": trip}, "trip created", nil)
}

// Random GET /api/tripDetail/random
func (h *TripHandler) Random(c *gin.Context) {
	trips, err := h.Svc.ListRandomTrips(c.Request.Context())
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"trips": trips}, "random trips", nil)
}

// All GET /api/tripDetail/all
func (h *TripHandler) All(c *gin.Context) {
	trips, err := h.Svc.ListAllTrips(c.Request.Context())
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"trips": trips}, "all trips", nil)
}

// Search GET /api/tripDetail/search?q=...&size=...
func (h *TripHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "missing query", nil)
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Svc.SearchTrips(c.Request.Context(), q, size)
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"trips": hits}, "search results", nil)
}

// ByID GET /api/tripDetail/:tripId
func (h *TripHandler) ByID(c *gin.Context) {
	trip, err := h.Svc.GetTrip(c.Request.Context(), c.Param("tripId"))
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"trip": trip}, "trip", nil)
}

// UserTrips GET /api/tripDetail/user/trips
func (h *TripHandler) UserTrips(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	trips, err := h.Svc.ListTripsForUser(c.Request.Context(), uid)
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"trips": trips}, "user trips", nil)
}

// ByUsername GET /api/tripDetail/user/:username
func (h *TripHandler) ByUsername(c *gin.Context) {
	trips, err := h.Svc.ListTripsByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		// Distinct message when the user exists but owns no trips.
		if err == application.ErrNoTrips {
			response.Error[any](c, http.StatusNotFound, "this user has no trips yet", nil)
			return
		}
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"trips": trips}, "user trips", nil)
}

// Update PUT /api/tripDetail/:tripId
func (h *TripHandler) Update(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	payload, uploads, opened, ok := parseTripForm(c)
	if !ok {
		return
	}
	defer closeAll(opened)

	var deletedIDs []string
	if raw := c.PostForm("deletedPhotos"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &deletedIDs); err != nil {
			response.Error[any](c, http.StatusBadRequest, "malformed deletedPhotos json", nil)
			return
		}
	}

	trip, err := h.Svc.UpdateTrip(c.Request.Context(), uid, c.Param("tripId"), payload, uploads, deletedIDs)
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"trip": trip}, "trip updated", nil)
}

// Delete DELETE /api/tripDetail/:id
func (h *TripHandler) Delete(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	trip, err := h.Svc.DeleteTrip(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"trip": trip}, "trip deleted", nil)
}
