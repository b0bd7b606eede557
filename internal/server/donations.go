package server

import (
	"net/http"

	"carelink/internal/donations"
	"carelink/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/shopspring/decimal"
)

type donationQuery struct {
	Status string `form:"status"`
	ItemID string `form:"item_id"`
	UserID string `form:"user_id"`
}

type createDonationRequest struct {
	ItemID   string           `json:"item_id" validate:"required"`
	Quantity *decimal.Decimal `json:"quantity" validate:"required"`
	Notes    string           `json:"notes" validate:"max=1000"`
}

func (s *Service) handleListDonations(w http.ResponseWriter, r *http.Request) {
	var query donationQuery
	if err := decodeQuery(r, &query); err != nil {
		s.writeError(w, r, err)
		return
	}

	list, err := s.donations.List(r.Context(), s.currentIdentity(r), types.DonationFilter{
		UserID: query.UserID,
		ItemID: query.ItemID,
		Status: types.DonationStatus(query.Status),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Service) handleCreateDonation(w http.ResponseWriter, r *http.Request) {
	var req createDonationRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	donation, err := s.donations.Create(r.Context(), s.currentIdentity(r).UserID, donations.CreateInput{
		ItemID:   req.ItemID,
		Quantity: *req.Quantity,
		Notes:    req.Notes,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, donation)
}

func (s *Service) handleVerifyDonation(w http.ResponseWriter, r *http.Request) {
	donation, err := s.donations.Verify(r.Context(), flow.Param(r.Context(), "id"), s.currentIdentity(r).UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, donation)
}
