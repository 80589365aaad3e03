package echo

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	app "github.com/mohammadpnp/catalog-import/internal/application/importjob"
	domain "github.com/mohammadpnp/catalog-import/internal/domain/importjob"
)

const uploadField = "file"

type ImportHandler struct {
	startImport    app.StartImport
	getImportJob   app.GetImportJob
	cancelImport   app.CancelImportJob
	watchImportJob app.WatchImportJob
	maxUploadBytes int64
}

func NewImportHandler(
	startImport app.StartImport,
	getImportJob app.GetImportJob,
	cancelImport app.CancelImportJob,
	watchImportJob app.WatchImportJob,
	maxUploadBytes int64,
) *ImportHandler {
	return &ImportHandler{
		startImport:    startImport,
		getImportJob:   getImportJob,
		cancelImport:   cancelImport,
		watchImportJob: watchImportJob,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *ImportHandler) StartImport(c echo.Context) error {
	file, err := c.FormFile(uploadField)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse("missing_file", "multipart field \"file\" is required"))
	}
	if h.maxUploadBytes > 0 && file.Size > h.maxUploadBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, h.tooLarge())
	}

	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse("bad_request", "failed to read uploaded file"))
	}
	defer src.Close()

	var reader io.Reader = src
	if h.maxUploadBytes > 0 {
		reader = io.LimitReader(src, h.maxUploadBytes+1)
	}
	payload, err := io.ReadAll(reader)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse("bad_request", "failed to read uploaded file"))
	}
	if h.maxUploadBytes > 0 && int64(len(payload)) > h.maxUploadBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, h.tooLarge())
	}

	out, err := h.startImport.Execute(c.Request().Context(), app.StartImportInput{
		SourceName: file.Filename,
		Payload:    string(payload),
	})
	if err != nil {
		if errors.Is(err, app.ErrInvalidImportSource) {
			return c.JSON(http.StatusBadRequest, errorResponse("invalid_source", "file must be a .csv file"))
		}
		if errors.Is(err, app.ErrEmptyImportSource) {
			return c.JSON(http.StatusBadRequest, errorResponse("empty_file", "uploaded file is empty"))
		}
		return c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "failed to enqueue import job"))
	}

	return c.JSON(http.StatusAccepted, apiResponse{Data: out})
}

func (h *ImportHandler) GetImportJob(c echo.Context) error {
	out, err := h.getImportJob.Execute(c.Request().Context(), app.GetImportJobInput{ID: c.Param("id")})
	if err != nil {
		return jobError(c, err, "failed to get import job")
	}
	return c.JSON(http.StatusOK, apiResponse{Data: out})
}

func (h *ImportHandler) CancelImportJob(c echo.Context) error {
	out, err := h.cancelImport.Execute(c.Request().Context(), app.CancelImportJobInput{ID: c.Param("id")})
	if err != nil {
		var transitionErr *domain.InvalidStateTransitionError
		if errors.As(err, &transitionErr) {
			return c.JSON(http.StatusConflict, apiResponse{Error: &errorBody{
				Code:          "invalid_state",
				Message:       fmt.Sprintf("cannot cancel a %s import job", transitionErr.From),
				CurrentStatus: string(transitionErr.From),
			}})
		}
		return jobError(c, err, "failed to cancel import job")
	}
	return c.JSON(http.StatusAccepted, apiResponse{Data: out})
}

func (h *ImportHandler) tooLarge() apiResponse {
	return errorResponse("file_too_large", fmt.Sprintf("file exceeds %d MB", h.maxUploadBytes>>20))
}

func jobError(c echo.Context, err error, internalMessage string) error {
	if errors.Is(err, app.ErrInvalidJobID) {
		return c.JSON(http.StatusBadRequest, errorResponse("invalid_job_id", "id must be a valid UUID"))
	}
	if errors.Is(err, app.ErrImportJobNotFound) {
		return c.JSON(http.StatusNotFound, errorResponse("not_found", "import job not found"))
	}
	return c.JSON(http.StatusInternalServerError, errorResponse("internal_error", internalMessage))
}
