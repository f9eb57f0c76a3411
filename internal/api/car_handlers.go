package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"carrental/internal/db"
	"carrental/internal/entities"
	apperrors "carrental/internal/errors"
	"github.com/gorilla/mux"
)

// formOverhead is room for the text fields sent alongside an image.
const formOverhead = 1 << 20

type CarCatalog interface {
	List(ctx context.Context, req entities.CarSearchRequest) (*entities.CarList, error)
	Get(ctx context.Context, id int64) (*entities.CarDetail, error)
	Create(ctx context.Context, req *entities.CarRequest, image *entities.Upload) (*db.Car, error)
	Update(ctx context.Context, id int64, req *entities.CarUpdateRequest, image *entities.Upload) (*db.Car, error)
	Delete(ctx context.Context, id int64) error
	CheckAvailability(ctx context.Context, id int64, req entities.AvailabilityRequest) (*entities.AvailabilityResponse, error)
}

type CarHandler struct {
	Service CarCatalog
	// MaxUpload bounds the image part of a multipart request.
	MaxUpload int64
}

func NewCarHandler(svc CarCatalog, maxUpload int64) *CarHandler {
	return &CarHandler{Service: svc, MaxUpload: maxUpload}
}

func (h *CarHandler) List(w http.ResponseWriter, r *http.Request) {
	req, err := carSearchFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := h.Service.List(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Cars retrieved successfully", list)
}

func (h *CarHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	detail, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Car retrieved successfully", detail)
}

func (h *CarHandler) Create(w http.ResponseWriter, r *http.Request) {
	var (
		req   entities.CarRequest
		image *entities.Upload
	)
	if isMultipart(r) {
		form, cleanup, err := h.parseForm(w, r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		defer cleanup()
		if err := form.fillCreate(&req); err != nil {
			writeError(w, r, err)
			return
		}
		image = form.image
	} else if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	car, err := h.Service.Create(r.Context(), &req, image)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Car created successfully", map[string]any{"car": car})
}

func (h *CarHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var (
		req   entities.CarUpdateRequest
		image *entities.Upload
	)
	if isMultipart(r) {
		form, cleanup, err := h.parseForm(w, r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		defer cleanup()
		if err := form.fillUpdate(&req); err != nil {
			writeError(w, r, err)
			return
		}
		image = form.image
	} else if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	car, err := h.Service.Update(r.Context(), id, &req, image)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Car updated successfully", map[string]any{"car": car})
}

func (h *CarHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Car deleted successfully", nil)
}

func (h *CarHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req entities.AvailabilityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := h.Service.CheckAvailability(r.Context(), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Availability checked successfully", resp)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id < 1 {
		return 0, apperrors.ErrBadRequest("Invalid ID")
	}
	return id, nil
}

func carSearchFromQuery(q url.Values) (entities.CarSearchRequest, error) {
	req := entities.CarSearchRequest{
		Brand:        q.Get("brand"),
		Transmission: q.Get("transmission"),
		FuelType:     q.Get("fuelType"),
		Search:       q.Get("search"),
		Status:       q.Get("status"),
		SortBy:       q.Get("sortBy"),
		SortOrder:    q.Get("sortOrder"),
	}
	var err error
	if req.MinPrice, err = optionalFloat(q, "minPrice"); err != nil {
		return req, err
	}
	if req.MaxPrice, err = optionalFloat(q, "maxPrice"); err != nil {
		return req, err
	}
	if req.Seats, err = optionalInt(q, "seats"); err != nil {
		return req, err
	}
	page, err := optionalInt(q, "page")
	if err != nil {
		return req, err
	}
	if page != nil {
		req.Page = *page
	}
	limit, err := optionalInt(q, "limit")
	if err != nil {
		return req, err
	}
	if limit != nil {
		req.Limit = *limit
	}
	return req, nil
}

func optionalInt(v url.Values, key string) (*int, error) {
	s := strings.TrimSpace(v.Get(key))
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, apperrors.ErrBadRequest(fmt.Sprintf("%s must be a number", key))
	}
	return &n, nil
}

func optionalFloat(v url.Values, key string) (*float64, error) {
	s := strings.TrimSpace(v.Get(key))
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, apperrors.ErrBadRequest(fmt.Sprintf("%s must be a number", key))
	}
	return &f, nil
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// carForm is a multipart car submission: text fields plus an optional image.
type carForm struct {
	values url.Values
	image  *entities.Upload
}

func (h *CarHandler) parseForm(w http.ResponseWriter, r *http.Request) (*carForm, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUpload+formOverhead)
	if err := r.ParseMultipartForm(formOverhead); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, nil, apperrors.ErrBadRequest(fmt.Sprintf("File size too large. Maximum size is %gMB.", float64(h.MaxUpload)/(1024*1024)))
		}
		return nil, nil, apperrors.ErrBadRequest("Invalid form data")
	}

	form := &carForm{values: url.Values(r.MultipartForm.Value)}
	var file multipart.File
	cleanup := func() {
		if file != nil {
			_ = file.Close()
		}
		_ = r.MultipartForm.RemoveAll()
	}

	f, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		cleanup()
		return nil, nil, apperrors.ErrBadRequest("Invalid form data")
	default:
		file = f
		form.image = &entities.Upload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        f,
		}
	}
	return form, cleanup, nil
}

func (f *carForm) has(key string) bool {
	_, ok := f.values[key]
	return ok
}

func (f *carForm) str(key string) *string {
	if !f.has(key) {
		return nil
	}
	s := strings.TrimSpace(f.values.Get(key))
	return &s
}

// features accepts a JSON array in one field or the field repeated.
func (f *carForm) features() ([]string, error) {
	raw := f.values["features"]
	if len(raw) == 1 && strings.HasPrefix(strings.TrimSpace(raw[0]), "[") {
		var out []string
		if err := json.Unmarshal([]byte(raw[0]), &out); err != nil {
			return nil, apperrors.ErrBadRequest("Features must be a list of strings")
		}
		return out, nil
	}
	var out []string
	for _, v := range raw {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *carForm) fillUpdate(req *entities.CarUpdateRequest) error {
	var err error
	req.Brand = f.str("brand")
	req.Model = f.str("model")
	req.Transmission = f.str("transmission")
	req.FuelType = f.str("fuelType")
	req.Description = f.str("description")
	req.LicensePlate = f.str("licensePlate")
	req.Status = f.str("status")
	if req.Year, err = optionalInt(f.values, "year"); err != nil {
		return err
	}
	if req.Seats, err = optionalInt(f.values, "seats"); err != nil {
		return err
	}
	if req.PricePerDay, err = optionalFloat(f.values, "pricePerDay"); err != nil {
		return err
	}
	if f.has("features") {
		if req.Features, err = f.features(); err != nil {
			return err
		}
		if req.Features == nil {
			req.Features = []string{}
		}
	}
	return nil
}

func (f *carForm) fillCreate(req *entities.CarRequest) error {
	var u entities.CarUpdateRequest
	if err := f.fillUpdate(&u); err != nil {
		return err
	}
	req.Brand = deref(u.Brand)
	req.Model = deref(u.Model)
	req.Year = deref(u.Year)
	req.Transmission = deref(u.Transmission)
	req.FuelType = deref(u.FuelType)
	req.Seats = deref(u.Seats)
	req.PricePerDay = deref(u.PricePerDay)
	req.Description = deref(u.Description)
	req.Features = u.Features
	req.LicensePlate = deref(u.LicensePlate)
	req.Status = deref(u.Status)
	return nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
