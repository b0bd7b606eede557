package server

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"path"

	"carelink/internal/extract"
	"carelink/internal/requirements"
	"carelink/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const uploadField = "file"

var pdfMagic = []byte("%PDF-")

type categoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

type itemQuery struct {
	CategoryID string `form:"category_id"`
	ActiveOnly bool   `form:"active_only"`
}

type createItemRequest struct {
	CategoryID  string           `json:"category_id" validate:"required"`
	Name        string           `json:"name" validate:"required,max=200"`
	Unit        string           `json:"unit" validate:"required,max=50"`
	RequiredQty *decimal.Decimal `json:"required_qty" validate:"required"`
	IsActive    *bool            `json:"is_active"`
}

type updateItemRequest struct {
	CategoryID  *string          `json:"category_id" validate:"omitempty,min=1"`
	Name        *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Unit        *string          `json:"unit" validate:"omitempty,min=1,max=50"`
	RequiredQty *decimal.Decimal `json:"required_qty"`
	IsActive    *bool            `json:"is_active"`
}

type bulkCreateRequest struct {
	BatchTitle string           `json:"batch_title" validate:"required,max=200"`
	SourceKey  string           `json:"source_key" validate:"max=1024"`
	Items      []types.BulkItem `json:"items" validate:"required,min=1,max=500,dive"`
}

type inventoryRequest struct {
	QuantityOnHand *decimal.Decimal `json:"quantity_on_hand" validate:"required"`
}

type extractResponse struct {
	Candidates []*types.Candidate `json:"candidates"`
	Categories []string           `json:"categories"`
	SourceKey  string             `json:"source_key,omitempty"`
}

func (s *Service) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.requirements.Categories(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, categories)
}

func (s *Service) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	category, err := s.requirements.CreateCategory(r.Context(), req.Name, req.Description)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, category)
}

func (s *Service) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	category, err := s.requirements.UpdateCategory(r.Context(), flow.Param(r.Context(), "id"), req.Name, req.Description)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, category)
}

func (s *Service) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.requirements.DeleteCategory(r.Context(), flow.Param(r.Context(), "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleListItems(w http.ResponseWriter, r *http.Request) {
	var query itemQuery
	if err := decodeQuery(r, &query); err != nil {
		s.writeError(w, r, err)
		return
	}

	items, err := s.requirements.Items(r.Context(), types.ItemFilter{
		CategoryID: query.CategoryID,
		ActiveOnly: query.ActiveOnly,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, items)
}

func (s *Service) handleGetItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.requirements.Item(r.Context(), flow.Param(r.Context(), "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, item)
}

func (s *Service) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	item, err := s.requirements.CreateItem(r.Context(), requirements.CreateItemInput{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Unit:        req.Unit,
		RequiredQty: *req.RequiredQty,
		IsActive:    req.IsActive,
	}, s.currentIdentity(r).UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, item)
}

func (s *Service) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	item, err := s.requirements.UpdateItem(r.Context(), flow.Param(r.Context(), "id"), types.ItemPatch{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Unit:        req.Unit,
		RequiredQty: req.RequiredQty,
		IsActive:    req.IsActive,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, item)
}

func (s *Service) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.requirements.DeleteItem(r.Context(), flow.Param(r.Context(), "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExtractItems reads an uploaded requirements PDF and returns the
// candidates for review. Nothing is persisted besides the optional archive
// copy; publishing happens through the bulk endpoint.
func (s *Service) handleExtractItems(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.config.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, types.NewValidation("upload exceeds %d bytes", s.config.MaxUploadBytes))
			return
		}
		s.writeError(w, r, types.WrapError(types.CodeValidation, err, "expected a multipart upload"))
		return
	}

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		s.writeError(w, r, types.NewValidation("a PDF must be uploaded in the %q field", uploadField))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, r, types.WrapError(types.CodeValidation, err, "failed to read upload"))
		return
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		s.writeError(w, r, types.NewValidation("only PDF files are accepted"))
		return
	}

	text, err := s.pdfText(data)
	if err != nil {
		s.writeError(w, r, types.WrapError(types.CodeValidation, err, "could not read text from the PDF"))
		return
	}

	candidates := extract.Extract(text)
	counts := map[types.Confidence]int{}
	for _, candidate := range candidates {
		counts[candidate.Confidence]++
	}
	for confidence, n := range counts {
		s.metrics.AddCandidates(string(confidence), n)
	}

	filename := path.Base(header.Filename)
	var key string
	if s.archive != nil {
		key, err = s.archive.Put(r.Context(), filename, "application/pdf", data)
		if err != nil {
			// The candidates are still usable without the archived copy.
			s.logger.WithError(err).WithField("filename", filename).Warn("failed to archive uploaded requirements")
			key = ""
		}
	}

	s.logger.WithFields(logrus.Fields{
		"filename":   filename,
		"candidates": len(candidates),
		"source_key": key,
	}).Info("requirements extracted")

	s.writeJSON(w, http.StatusOK, extractResponse{
		Candidates: candidates,
		Categories: extract.Categories(),
		SourceKey:  key,
	})
}

func (s *Service) handleBulkCreateItems(w http.ResponseWriter, r *http.Request) {
	var req bulkCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.requirements.BulkCreate(r.Context(), requirements.BulkCreateInput{
		BatchTitle: req.BatchTitle,
		UploaderID: s.currentIdentity(r).UserID,
		SourceKey:  req.SourceKey,
		Items:      req.Items,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, result)
}

func (s *Service) handleListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := s.requirements.Batches(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, batches)
}

func (s *Service) handleListInventory(w http.ResponseWriter, r *http.Request) {
	rows, err := s.requirements.Inventory(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rows)
}

func (s *Service) handleInventoryReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.requirements.Report(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Service) handleCorrectInventory(w http.ResponseWriter, r *http.Request) {
	var req inventoryRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	inventory, err := s.requirements.CorrectInventory(r.Context(), flow.Param(r.Context(), "itemID"), *req.QuantityOnHand, s.currentIdentity(r).UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, inventory)
}
