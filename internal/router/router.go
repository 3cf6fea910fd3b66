// Package router wires the HTTP API: user signup/signin/signout and
// the authenticated photo routes. Every response uses the
// {code, message, data} envelope except photo byte fetches.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/thoas/go-funk"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/cloudalbum/internal/album"
	"github.com/patric-chuzhbe/cloudalbum/internal/auth"
	"github.com/patric-chuzhbe/cloudalbum/internal/db/storage"
	"github.com/patric-chuzhbe/cloudalbum/internal/gzippedhttp"
	"github.com/patric-chuzhbe/cloudalbum/internal/logger"
	"github.com/patric-chuzhbe/cloudalbum/internal/models"
	"github.com/patric-chuzhbe/cloudalbum/internal/photo"
	"github.com/patric-chuzhbe/cloudalbum/internal/user"
)

// maxUploadMemory bounds the in-memory part of multipart parsing.
const maxUploadMemory = 32 << 20

type userKeeper interface {
	CreateUser(ctx context.Context, usr *user.User) (string, error)
	GetUserByID(ctx context.Context, userID string) (*user.User, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	GetUsers(ctx context.Context) ([]*user.User, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type db interface {
	userKeeper
	pinger
}

type albumService interface {
	Upload(
		ctx context.Context,
		identity *auth.Identity,
		data []byte,
		filenameHint string,
		meta models.PhotoMeta,
	) (string, error)
	List(ctx context.Context, identity *auth.Identity) ([]*photo.Photo, error)
	Fetch(
		ctx context.Context,
		identity *auth.Identity,
		photoID string,
		mode models.FetchMode,
	) ([]byte, *photo.Photo, error)
	Delete(ctx context.Context, identity *auth.Identity, photoID string) error
}

type authenticator interface {
	AuthenticateUser(h http.Handler) http.Handler
	IssueTokenPair(usr *user.User) (*auth.TokenPair, error)
	Revoke(ctx context.Context, identity *auth.Identity) error
}

// Router holds the handler dependencies.
type Router struct {
	db       db
	albums   albumService
	auth     authenticator
	validate *validator.Validate
}

// New assembles the chi router with logging and gzip middleware.
func New(database db, albums albumService, authService authenticator) http.Handler {
	h := &Router{
		db:       database,
		albums:   albums,
		auth:     authService,
		validate: validator.New(),
	}

	router := chi.NewRouter()
	router.Use(logger.WithLoggingHTTPMiddleware)
	router.Use(gzippedhttp.UngzipRequest)
	router.Use(gzippedhttp.GzipJSONResponse)

	router.Route(`/api/users`, func(router chi.Router) {
		router.Get(`/ping`, h.ping)
		router.Get(`/`, h.getUsers)
		router.Post(`/signup`, h.signup)
		router.Post(`/signin`, h.signin)
		router.With(authService.AuthenticateUser).Post(`/signout`, h.signout)
		router.Get(`/{userID}`, h.getUser)
	})

	router.Route(`/api/photos`, func(router chi.Router) {
		router.Use(authService.AuthenticateUser)
		router.Get(`/ping`, h.ping)
		router.Get(`/`, h.listPhotos)
		router.Post(`/file`, h.uploadPhoto)
		router.Get(`/{photoID}`, h.getPhoto)
		router.Delete(`/{photoID}`, h.deletePhoto)
	})

	return router
}

func writeSuccess(response http.ResponseWriter, code int, data interface{}) {
	if err := models.WriteSuccess(response, code, data); err != nil {
		logger.Log.Debugln("Error writing the response: ", zap.Error(err))
	}
}

func writeError(response http.ResponseWriter, code int, message string) {
	if err := models.WriteError(response, code, message); err != nil {
		logger.Log.Debugln("Error writing the response: ", zap.Error(err))
	}
}

// writeInternalError logs the cause and hides it from the caller.
func writeInternalError(response http.ResponseWriter, err error) {
	logger.Log.Errorln("internal error: ", zap.Error(err))
	writeError(response, http.StatusInternalServerError, "internal server error")
}

func (h *Router) ping(response http.ResponseWriter, request *http.Request) {
	if err := h.db.Ping(request.Context()); err != nil {
		writeInternalError(response, err)

		return
	}

	writeSuccess(response, http.StatusOK, map[string]string{"msg": "pong!"})
}

func userToResponse(usr *user.User) models.UserResponse {
	return models.UserResponse{
		ID:       usr.ID,
		Email:    usr.Email,
		Username: usr.Username,
	}
}

func (h *Router) signup(response http.ResponseWriter, request *http.Request) {
	var signupRequest models.SignupRequest
	if err := json.NewDecoder(request.Body).Decode(&signupRequest); err != nil {
		writeError(response, http.StatusBadRequest, "invalid signup data format")

		return
	}

	if err := h.validate.Struct(signupRequest); err != nil {
		writeError(response, http.StatusBadRequest, "invalid signup data format")

		return
	}

	passwordHash, err := auth.HashPassword(signupRequest.Password)
	if err != nil {
		writeInternalError(response, err)

		return
	}

	usr := &user.User{
		Email:        signupRequest.Email,
		Username:     signupRequest.Username,
		PasswordHash: passwordHash,
	}

	if _, err := h.db.CreateUser(request.Context(), usr); err != nil {
		if errors.Is(err, storage.ErrEmailAlreadyExists) {
			writeError(response, http.StatusConflict, "user already exists")

			return
		}
		writeInternalError(response, err)

		return
	}

	writeSuccess(response, http.StatusCreated, userToResponse(usr))
}

func (h *Router) signin(response http.ResponseWriter, request *http.Request) {
	var signinRequest models.SigninRequest
	if err := json.NewDecoder(request.Body).Decode(&signinRequest); err != nil {
		writeError(response, http.StatusBadRequest, "invalid signin data format")

		return
	}

	if err := h.validate.Struct(signinRequest); err != nil {
		writeError(response, http.StatusBadRequest, "invalid signin data format")

		return
	}

	usr, err := h.db.GetUserByEmail(request.Context(), signinRequest.Email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			writeError(response, http.StatusUnauthorized, "password unmatched or invalid user")

			return
		}
		writeInternalError(response, err)

		return
	}

	if !auth.CheckPassword(usr.PasswordHash, signinRequest.Password) {
		writeError(response, http.StatusUnauthorized, "password unmatched or invalid user")

		return
	}

	tokenPair, err := h.auth.IssueTokenPair(usr)
	if err != nil {
		writeInternalError(response, err)

		return
	}

	writeSuccess(response, http.StatusOK, models.SigninResponse{
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
	})
}

func (h *Router) signout(response http.ResponseWriter, request *http.Request) {
	identity, ok := auth.IdentityFromContext(request.Context())
	if !ok {
		writeError(response, http.StatusUnauthorized, "missing authorization token")

		return
	}

	if err := h.auth.Revoke(request.Context(), identity); err != nil {
		writeInternalError(response, err)

		return
	}

	writeSuccess(response, http.StatusOK, map[string]string{
		"user": identity.Email,
		"msg":  "logged out",
	})
}

func (h *Router) getUsers(response http.ResponseWriter, request *http.Request) {
	users, err := h.db.GetUsers(request.Context())
	if err != nil {
		writeInternalError(response, err)

		return
	}

	writeSuccess(
		response,
		http.StatusOK,
		funk.Map(users, userToResponse).([]models.UserResponse),
	)
}

func (h *Router) getUser(response http.ResponseWriter, request *http.Request) {
	userID := chi.URLParam(request, "userID")

	usr, err := h.db.GetUserByID(request.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			writeError(response, http.StatusNotFound, "user_id not exist")

			return
		}
		writeInternalError(response, err)

		return
	}

	writeSuccess(response, http.StatusOK, map[string]models.UserResponse{
		"user": userToResponse(usr),
	})
}

// photoMetaFromForm collects the optional descriptive fields of an
// upload. Malformed numeric and date fields are rejected, absent ones
// stay zero.
func photoMetaFromForm(request *http.Request) (models.PhotoMeta, error) {
	meta := models.PhotoMeta{
		Tags:    request.FormValue("tags"),
		Desc:    request.FormValue("desc"),
		Make:    request.FormValue("make"),
		Model:   request.FormValue("model"),
		Width:   request.FormValue("width"),
		Height:  request.FormValue("height"),
		City:    request.FormValue("city"),
		Nation:  request.FormValue("nation"),
		Address: request.FormValue("address"),
	}

	if value := request.FormValue("geotag_lat"); value != "" {
		lat, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return meta, err
		}
		meta.GeotagLat = lat
	}

	if value := request.FormValue("geotag_lng"); value != "" {
		lng, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return meta, err
		}
		meta.GeotagLng = lng
	}

	if value := request.FormValue("taken_date"); value != "" {
		takenDate, err := time.Parse(models.TakenDateLayout, value)
		if err != nil {
			return meta, err
		}
		meta.TakenDate = takenDate
	}

	return meta, nil
}

func (h *Router) uploadPhoto(response http.ResponseWriter, request *http.Request) {
	identity, ok := auth.IdentityFromContext(request.Context())
	if !ok {
		writeError(response, http.StatusUnauthorized, "missing authorization token")

		return
	}

	if err := request.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(response, http.StatusBadRequest, "invalid multipart form")

		return
	}

	file, fileHeader, err := request.FormFile("file")
	if err != nil {
		writeError(response, http.StatusBadRequest, "the `file` form field is required")

		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeInternalError(response, err)

		return
	}

	meta, err := photoMetaFromForm(request)
	if err != nil {
		writeError(response, http.StatusBadRequest, "invalid photo metadata")

		return
	}

	photoID, err := h.albums.Upload(request.Context(), identity, data, fileHeader.Filename, meta)
	if err != nil {
		if errors.Is(err, album.ErrUnsupportedFormat) {
			writeError(response, http.StatusBadRequest, "not supported file format")

			return
		}
		writeInternalError(response, err)

		return
	}

	writeSuccess(response, http.StatusOK, models.UploadResponse{PhotoID: photoID})
}

func photoToResponse(pht *photo.Photo) models.PhotoResponse {
	takenDate := ""
	if !pht.TakenDate.IsZero() {
		takenDate = pht.TakenDate.Format(models.TakenDateLayout)
	}

	return models.PhotoResponse{
		ID:        pht.ID,
		Filename:  pht.Filename,
		FileSize:  pht.FileSize,
		Tags:      pht.Tags,
		Desc:      pht.Desc,
		GeotagLat: pht.GeotagLat,
		GeotagLng: pht.GeotagLng,
		TakenDate: takenDate,
		Make:      pht.Make,
		Model:     pht.Model,
		Width:     pht.Width,
		Height:    pht.Height,
		City:      pht.City,
		Nation:    pht.Nation,
		Address:   pht.Address,
		CreatedAt: pht.CreatedAt,
	}
}

func (h *Router) listPhotos(response http.ResponseWriter, request *http.Request) {
	identity, ok := auth.IdentityFromContext(request.Context())
	if !ok {
		writeError(response, http.StatusUnauthorized, "missing authorization token")

		return
	}

	photos, err := h.albums.List(request.Context(), identity)
	if err != nil {
		writeInternalError(response, err)

		return
	}

	result := funk.Map(photos, photoToResponse).([]models.PhotoResponse)
	if result == nil {
		result = []models.PhotoResponse{}
	}

	writeSuccess(response, http.StatusOK, result)
}

func (h *Router) getPhoto(response http.ResponseWriter, request *http.Request) {
	identity, ok := auth.IdentityFromContext(request.Context())
	if !ok {
		writeError(response, http.StatusUnauthorized, "missing authorization token")

		return
	}

	photoID := chi.URLParam(request, "photoID")
	mode := models.FetchMode(request.URL.Query().Get("mode"))

	data, _, err := h.albums.Fetch(request.Context(), identity, photoID, mode)
	if err != nil {
		switch {
		case errors.Is(err, album.ErrUnknownFetchMode):
			writeError(response, http.StatusBadRequest, "unknown fetch mode")
		case errors.Is(err, storage.ErrPhotoNotFound):
			writeError(response, http.StatusNotFound, "not exist photo_id")
		default:
			writeInternalError(response, err)
		}

		return
	}

	response.Header().Set("Content-Type", http.DetectContentType(data))
	response.WriteHeader(http.StatusOK)
	if _, err := response.Write(data); err != nil {
		logger.Log.Debugln("Error writing the response: ", zap.Error(err))
	}
}

func (h *Router) deletePhoto(response http.ResponseWriter, request *http.Request) {
	identity, ok := auth.IdentityFromContext(request.Context())
	if !ok {
		writeError(response, http.StatusUnauthorized, "missing authorization token")

		return
	}

	photoID := chi.URLParam(request, "photoID")

	if err := h.albums.Delete(request.Context(), identity, photoID); err != nil {
		if errors.Is(err, storage.ErrPhotoNotFound) {
			writeError(response, http.StatusNotFound, "not exist photo_id")

			return
		}
		writeInternalError(response, err)

		return
	}

	writeSuccess(response, http.StatusOK, map[string]string{"photo_id": photoID})
}
