package handlers

import (
	"io"
	"mime/multipart"
	"net/http"
	"rewear/internal/models"
	"rewear/internal/services"
	"rewear/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// multipartMemory is how much of a multipart body is buffered in memory
// before spilling to temp files.
const multipartMemory = 8 << 20

type ItemHandler struct {
	catalog  *services.CatalogService
	exchange *services.ExchangeService
	reports  *services.ReportService
	log      logrus.FieldLogger
}

func NewItemHandler(catalog *services.CatalogService, exchange *services.ExchangeService, reports *services.ReportService, log logrus.FieldLogger) *ItemHandler {
	return &ItemHandler{catalog: catalog, exchange: exchange, reports: reports, log: log}
}

type createItemForm struct {
	Title       string `form:"title" binding:"required,max=200"`
	Description string `form:"description" binding:"required"`
	Category    string `form:"category" binding:"required,max=50"`
	Type        string `form:"type" binding:"required,max=50"`
	Size        string `form:"size" binding:"required,max=20"`
	Condition   string `form:"condition" binding:"required,condition"`
	ListingType string `form:"listing_type" binding:"listingtype"`
}

type reportRequest struct {
	Reason      string `json:"reason" binding:"required,max=100"`
	Description string `json:"description" binding:"max=2000"`
}

func toUpload(fh *multipart.FileHeader) services.Upload {
	return services.Upload{
		Filename: fh.Filename,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

func (h *ItemHandler) Categories(c *gin.Context) {
	cats, err := h.catalog.Categories(c.Request.Context())
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "OK", gin.H{"categories": cats})
}

// Create accepts a multipart listing with up to five images and an optional bill.
func (h *ItemHandler) Create(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		fail(c, h.log, bindError(err))
		return
	}
	var form createItemForm
	if err := c.ShouldBind(&form); err != nil {
		fail(c, h.log, bindError(err))
		return
	}

	mf := c.Request.MultipartForm
	tags := append(mf.Value["tags[]"], mf.Value["tags"]...)

	var images []services.Upload
	for _, key := range []string{"images", "images[]"} {
		for _, fh := range mf.File[key] {
			if fh.Filename == "" {
				continue
			}
			images = append(images, toUpload(fh))
		}
	}

	in := services.CreateItemInput{
		Title:       form.Title,
		Description: form.Description,
		Category:    form.Category,
		Type:        form.Type,
		Size:        form.Size,
		Condition:   form.Condition,
		ListingType: form.ListingType,
		Tags:        tags,
		Images:      images,
	}
	if bills := mf.File["bill"]; len(bills) > 0 && bills[0].Filename != "" {
		bill := toUpload(bills[0])
		in.Bill = &bill
	}

	item, err := h.catalog.CreateItem(c.Request.Context(), actor(c), in)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	msg := "Item submitted for review"
	if item.Status == models.ItemApproved {
		msg = "Item listed"
	}
	respond(c, http.StatusCreated, msg, gin.H{"item": item})
}

// List supports filtering, sorting and pagination through query parameters.
func (h *ItemHandler) List(c *gin.Context) {
	page, err := h.catalog.ListItems(c.Request.Context(), optionalActor(c), services.ItemFilter{
		Page:        utils.StringToInt(c.Query("page")),
		PerPage:     utils.StringToInt(c.Query("per_page")),
		Category:    c.Query("category"),
		Condition:   c.Query("condition"),
		Size:        c.Query("size"),
		Search:      c.Query("search"),
		Status:      c.Query("status"),
		ListingType: c.Query("listing_type"),
		Sort:        c.Query("sort"),
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "OK", gin.H{"items": page.Items, "pagination": page.Pagination})
}

func (h *ItemHandler) Detail(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, h.log, err)
		return
	}
	item, err := h.catalog.GetItem(c.Request.Context(), optionalActor(c), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "OK", gin.H{"item": item})
}

// Redeem buys a swap listing for its point price.
func (h *ItemHandler) Redeem(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, h.log, err)
		return
	}
	view, err := h.exchange.Redeem(c.Request.Context(), actor(c), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Item redeemed", gin.H{"swap_request": view, "contacts": view.Contacts})
}

// Claim takes a donation listing.
func (h *ItemHandler) Claim(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, h.log, err)
		return
	}
	view, err := h.exchange.Claim(c.Request.Context(), actor(c), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Donation claimed", gin.H{"swap_request": view, "contacts": view.Contacts})
}

// Like toggles the caller's like on a listing.
func (h *ItemHandler) Like(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, h.log, err)
		return
	}
	res, err := h.catalog.ToggleLike(c.Request.Context(), actor(c), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	msg := "Like removed"
	if res.Liked {
		msg = "Item liked"
	}
	respond(c, http.StatusOK, msg, gin.H{"liked": res.Liked, "likes": res.Likes})
}

func (h *ItemHandler) Report(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, h.log, err)
		return
	}
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, h.log, bindError(err))
		return
	}
	report, err := h.reports.Create(c.Request.Context(), actor(c), id, req.Reason, req.Description)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "Report submitted", gin.H{"report": report})
}
