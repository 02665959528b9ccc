package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/planadmin/internal/server/records"
	"github.com/go-chi/chi/v5"
)

// maxUploadRequest leaves room for the multipart envelope around the file.
const maxUploadRequest = records.MaxUploadBytes + 1<<20

type pageResponse struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []any   `json:"results"`
}

type statusRequest struct {
	Status records.Status `json:"status"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	kind := records.Kind(chi.URLParam(r, "kind"))

	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid page")
			return
		}
		page = n
	}

	p, err := s.records.List(r.Context(), kind, page)
	if err != nil {
		s.handleServiceError(r.Context(), w, err)
		return
	}

	resp := pageResponse{Count: p.Count, Results: p.Results}
	if p.HasNext {
		resp.Next = pageLink(r.URL, page+1)
	}
	if p.HasPrev {
		resp.Previous = pageLink(r.URL, page-1)
	}
	writeJSON(w, http.StatusOK, resp)
}

func pageLink(u *url.URL, page int) *string {
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	link := u.Path + "?" + q.Encode()
	return &link
}

func (s *Server) handlePatchReimbursement(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	out, err := s.records.SetReimbursementStatus(r.Context(), id, req.Status)
	if err != nil {
		s.handleServiceError(r.Context(), w, err)
		return
	}

	s.logger.Info(r.Context(), "Reimbursement updated", "id", id, "status", out.Status, "by", claimsFrom(r.Context()).UserID)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	out, err := s.records.Settings(r.Context())
	if err != nil {
		s.handleServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var in records.Settings
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	out, err := s.records.ReplaceSettings(r.Context(), in)
	if err != nil {
		s.handleServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadRequest)

	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid multipart body: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Field 'file' is required")
		return
	}
	defer f.Close()

	c := claimsFrom(r.Context())
	u, err := s.records.SaveUpload(r.Context(), c.UserID, hdr.Filename, r.FormValue("kind"), hdr.Header.Get("Content-Type"), f)
	if err != nil {
		s.handleServiceError(r.Context(), w, err)
		return
	}

	s.logger.Info(r.Context(), "Upload stored", "id", u.ID, "size", u.Size, "by", c.UserID)
	writeJSON(w, http.StatusCreated, u)
}
