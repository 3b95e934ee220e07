package handlers

import (
	"net/http"
	"rewear/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type SwapHandler struct {
	exchange *services.ExchangeService
	log      logrus.FieldLogger
}

func NewSwapHandler(exchange *services.ExchangeService, log logrus.FieldLogger) *SwapHandler {
	return &SwapHandler{exchange: exchange, log: log}
}

type swapRequestBody struct {
	ItemID        uint   `json:"item_id" binding:"required"`
	OfferType     string `json:"offer_type" binding:"omitempty,oneof=points item"`
	OfferedItemID *uint  `json:"offered_item_id"`
	PointsOffered *int   `json:"points_offered" binding:"omitempty,min=0"`
	Message       string `json:"message" binding:"max=1000"`
}

func (h *SwapHandler) Create(c *gin.Context) {
	var body swapRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, h.log, bindError(err))
		return
	}

	in := services.CreateRequestInput{
		ItemID:        body.ItemID,
		OfferType:     body.OfferType,
		OfferedItemID: body.OfferedItemID,
		Message:       body.Message,
	}
	if body.PointsOffered != nil {
		in.PointsOffered = *body.PointsOffered
	}

	req, err := h.exchange.CreateRequest(c.Request.Context(), actor(c), in)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "Swap request sent", gin.H{"swap_request": req})
}

// List returns incoming or outgoing requests, selected by ?box=.
func (h *SwapHandler) List(c *gin.Context) {
	views, err := h.exchange.ListRequests(c.Request.Context(), actor(c), c.Query("box"), c.Query("status"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "OK", gin.H{"swap_requests": views})
}

func (h *SwapHandler) Accept(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, h.log, err)
		return
	}
	view, err := h.exchange.Accept(c.Request.Context(), actor(c), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Swap request accepted", gin.H{"swap_request": view, "contacts": view.Contacts})
}

func (h *SwapHandler) Reject(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, h.log, err)
		return
	}
	view, err := h.exchange.Reject(c.Request.Context(), actor(c), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Swap request rejected", gin.H{"swap_request": view})
}
