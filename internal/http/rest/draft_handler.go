package rest

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/bwise1/civic_reports/internal/model"
	"github.com/bwise1/civic_reports/internal/store"
	"github.com/bwise1/civic_reports/util"
	"github.com/bwise1/civic_reports/util/values"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

const (
	maxUploadMemory = 32 << 20
	maxImageBytes   = 10 << 20
)

// draftResponse is the draft as shown to the UI; image bytes stay on the
// server.
type draftResponse struct {
	model.ReportDraft
	ImageCount int `json:"image_count"`
	MaxImages  int `json:"max_images"`
}

func newDraftResponse(d model.ReportDraft) draftResponse {
	return draftResponse{ReportDraft: d, ImageCount: len(d.Images), MaxImages: model.MaxReportImages}
}

func (api *API) GetDraft(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	return ok("draft fetched", newDraftResponse(sessionFrom(r).Store.Draft()))
}

func (api *API) UpdateDraft(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracingFrom(r)

	var fields model.DraftFields
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &fields); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}

	draft, err := sessionFrom(r).Store.UpdateDraft(fields)
	if err != nil {
		return respondWithStoreError(err, &tc)
	}
	return ok("draft updated", newDraftResponse(draft))
}

// AttachDraftImages reads the "images" files of a multipart body. When more
// images arrive than fit, the ones that fit are kept and the response says
// so with an unprocessable status.
func (api *API) AttachDraftImages(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracingFrom(r)

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return respondWithError(err, "unable to parse upload", values.BadRequestBody, &tc)
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["images"]
	if len(headers) == 0 {
		return respondWithError(errors.New("no images field"), "no images uploaded", values.BadRequestBody, &tc)
	}

	images := make([]model.ImageAttachment, 0, len(headers))
	for _, fh := range headers {
		img, err := readImage(fh)
		if err != nil {
			return respondWithError(err, err.Error(), values.Unprocessable, &tc)
		}
		images = append(images, img)
	}

	draft, err := sessionFrom(r).Store.AttachImages(images...)
	if err != nil {
		resp := respondWithStoreError(err, &tc)
		if errors.Is(err, store.ErrTooManyImages) {
			resp.Data = newDraftResponse(draft)
		}
		return resp
	}
	return ok("images attached", newDraftResponse(draft))
}

func readImage(fh *multipart.FileHeader) (model.ImageAttachment, error) {
	if fh.Size > maxImageBytes {
		return model.ImageAttachment{}, errors.Errorf("%s is larger than %d bytes", fh.Filename, maxImageBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return model.ImageAttachment{}, errors.Wrapf(err, "open %s", fh.Filename)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		return model.ImageAttachment{}, errors.Wrapf(err, "read %s", fh.Filename)
	}
	if len(data) > maxImageBytes {
		return model.ImageAttachment{}, errors.Errorf("%s is larger than %d bytes", fh.Filename, maxImageBytes)
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return model.ImageAttachment{}, errors.Errorf("%s is not an image (%s)", fh.Filename, mtype.String())
	}

	return model.ImageAttachment{
		Filename:    fh.Filename,
		ContentType: mtype.String(),
		Data:        data,
	}, nil
}

func (api *API) RemoveDraftImage(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracingFrom(r)

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		return respondWithError(err, "invalid image index", values.BadRequestBody, &tc)
	}

	draft, err := sessionFrom(r).Store.RemoveImage(index)
	if err != nil {
		return respondWithStoreError(err, &tc)
	}
	return ok("image removed", newDraftResponse(draft))
}

func (api *API) SubmitDraft(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracingFrom(r)

	id, err := sessionFrom(r).Store.SubmitDraft(r.Context())
	if err != nil {
		return respondWithStoreError(err, &tc)
	}
	return &ServerResponse{
		Message:    "report submitted",
		Status:     values.Created,
		StatusCode: util.StatusCode(values.Created),
		Data:       map[string]string{"report_id": id},
	}
}
