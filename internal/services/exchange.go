package services

import (
	"context"
	"errors"
	"fmt"
	"rewear/internal/apperr"
	"rewear/internal/metrics"
	"rewear/internal/models"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreateRequestInput struct {
	ItemID        uint
	OfferType     string
	OfferedItemID *uint
	PointsOffered int
	Message       string
}

// ContactPair is only populated for exchanges that went through.
type ContactPair struct {
	Requester models.Contact `json:"requester"`
	Owner     models.Contact `json:"owner"`
}

type RequestView struct {
	models.SwapRequest
	Item        ItemSummary       `json:"item"`
	OfferedItem *ItemSummary      `json:"offered_item,omitempty"`
	Requester   models.PublicUser `json:"requester"`
	Owner       models.PublicUser `json:"owner"`
	Contacts    *ContactPair      `json:"contacts,omitempty"`
}

type ItemSummary struct {
	ID           uint   `json:"id"`
	Title        string `json:"title"`
	Points       int    `json:"points"`
	Status       string `json:"status"`
	ListingType  string `json:"listing_type"`
	PrimaryImage string `json:"primary_image"`
}

func summarize(item *models.Item) ItemSummary {
	return ItemSummary{
		ID:           item.ID,
		Title:        item.Title,
		Points:       item.Points,
		Status:       item.Status,
		ListingType:  item.ListingType,
		PrimaryImage: imageURL(item.PrimaryImage()),
	}
}

type ExchangeService struct {
	db      *gorm.DB
	log     logrus.FieldLogger
	mailer  Mailer
	metrics *metrics.Metrics
}

func NewExchangeService(db *gorm.DB, log logrus.FieldLogger, mailer Mailer, m *metrics.Metrics) *ExchangeService {
	return &ExchangeService{db: db, log: log, mailer: mailer, metrics: m}
}

func lockItem(tx *gorm.DB, id uint) (*models.Item, error) {
	var item models.Item
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Item not found")
		}
		return nil, err
	}
	return &item, nil
}

// setItemStatus is a compare-and-set on the item status.
func setItemStatus(tx *gorm.DB, id uint, from, to string) (bool, error) {
	res := tx.Model(&models.Item{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected == 1, res.Error
}

// setRequestStatus is a compare-and-set on the request status.
func setRequestStatus(tx *gorm.DB, id uint, from, to string) (bool, error) {
	res := tx.Model(&models.SwapRequest{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected == 1, res.Error
}

// closeCompetingRequests rejects every other pending request that involves
// one of the given items, either as target or as counter-offer.
func closeCompetingRequests(tx *gorm.DB, keepID uint, actorID uint, itemIDs ...uint) error {
	var competing []models.SwapRequest
	err := tx.Preload("Item").
		Where("status = ? AND id <> ?", models.SwapPending, keepID).
		Where(tx.Where("item_id IN ?", itemIDs).Or("offered_item_id IN ?", itemIDs)).
		Find(&competing).Error
	if err != nil {
		return err
	}
	for _, r := range competing {
		ok, err := setRequestStatus(tx, r.ID, models.SwapPending, models.SwapRejected)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := notify(tx, r.RequesterID, uintPtr(actorID), r.ItemID, models.NotificationSwapRejected,
			fmt.Sprintf("Your request for %q was closed because the item is no longer available", r.Item.Title)); err != nil {
			return err
		}
	}
	return nil
}

// CreateRequest opens a swap request against an approved swap listing.
func (s *ExchangeService) CreateRequest(ctx context.Context, actor Actor, in CreateRequestInput) (*models.SwapRequest, error) {
	if in.OfferType == "" {
		in.OfferType = models.OfferPoints
	}
	if in.PointsOffered < 0 {
		return nil, apperr.Validation("Points offered cannot be negative")
	}

	var req models.SwapRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.Item
		if err := tx.First(&item, in.ItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Item not found")
			}
			return err
		}
		if item.UserID == actor.ID {
			return apperr.Validation("Cannot request your own item")
		}
		if item.Status != models.ItemApproved {
			return apperr.Validation("Item is not available")
		}
		if item.ListingType != models.ListingSwap {
			return apperr.Validation("Donation items are claimed, not swapped")
		}

		req = models.SwapRequest{
			ItemID:      item.ID,
			RequesterID: actor.ID,
			OwnerID:     item.UserID,
			OfferType:   in.OfferType,
			Message:     strings.TrimSpace(in.Message),
			Status:      models.SwapPending,
		}

		switch in.OfferType {
		case models.OfferPoints:
			if in.OfferedItemID != nil {
				return apperr.Validation("A points offer cannot include an item")
			}
			req.PointsOffered = in.PointsOffered
			if req.PointsOffered == 0 {
				req.PointsOffered = item.Points
			}
			if req.PointsOffered < item.Points {
				return apperr.Validation("Points offered must cover the item value")
			}
			var requester models.User
			if err := tx.First(&requester, actor.ID).Error; err != nil {
				return err
			}
			if requester.Points < req.PointsOffered {
				return apperr.Validation("Insufficient points")
			}
		case models.OfferItem:
			if in.OfferedItemID == nil {
				return apperr.Validation("An item offer requires offered_item_id")
			}
			if in.PointsOffered != 0 {
				return apperr.Validation("An item offer cannot include points")
			}
			if *in.OfferedItemID == item.ID {
				return apperr.Validation("Cannot offer the requested item")
			}
			var offered models.Item
			if err := tx.First(&offered, *in.OfferedItemID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.NotFound("Offered item not found")
				}
				return err
			}
			if offered.UserID != actor.ID {
				return apperr.Forbidden("You can only offer your own items")
			}
			if offered.Status != models.ItemApproved || offered.ListingType != models.ListingSwap {
				return apperr.Validation("Offered item must be an approved swap listing")
			}
			req.OfferedItemID = uintPtr(offered.ID)
		default:
			return apperr.Validation("Offer type must be points or item")
		}

		var pending int64
		if err := tx.Model(&models.SwapRequest{}).
			Where("item_id = ? AND requester_id = ? AND status = ?", item.ID, actor.ID, models.SwapPending).
			Count(&pending).Error; err != nil {
			return err
		}
		if pending > 0 {
			return apperr.Conflict("You already have a pending request for this item")
		}

		if err := tx.Omit(clause.Associations).Create(&req).Error; err != nil {
			if apperr.IsDuplicate(err) {
				return apperr.Conflict("You already have a pending request for this item")
			}
			return err
		}

		if err := tx.Model(&models.Item{}).Where("id = ?", item.ID).
			UpdateColumn("requests", gorm.Expr("requests + 1")).Error; err != nil {
			return err
		}
		if err := refreshScore(tx, item.ID); err != nil {
			return err
		}
		return notify(tx, item.UserID, uintPtr(actor.ID), item.ID, models.NotificationSwapRequested,
			fmt.Sprintf("New swap request for %q", item.Title))
	})
	s.metrics.RecordExchange("request", err)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"request_id":   req.ID,
		"item_id":      req.ItemID,
		"requester_id": req.RequesterID,
		"offer_type":   req.OfferType,
	}).Info("Swap request created")
	return &req, nil
}

// ListRequests returns the caller's incoming (as owner) or outgoing (as
// requester) requests.
func (s *ExchangeService) ListRequests(ctx context.Context, actor Actor, box, status string) ([]RequestView, error) {
	q := s.db.WithContext(ctx).
		Preload("Item.Images").Preload("OfferedItem.Images").
		Preload("Requester").Preload("Owner")

	switch box {
	case "incoming":
		q = q.Where("owner_id = ?", actor.ID)
	case "outgoing":
		q = q.Where("requester_id = ?", actor.ID)
	case "", "all":
		q = q.Where("owner_id = ? OR requester_id = ?", actor.ID, actor.ID)
	default:
		return nil, apperr.Validation("box must be incoming or outgoing")
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var reqs []models.SwapRequest
	if err := q.Order("created_at DESC, id DESC").Find(&reqs).Error; err != nil {
		return nil, err
	}
	views := make([]RequestView, 0, len(reqs))
	for i := range reqs {
		views = append(views, toRequestView(&reqs[i]))
	}
	return views, nil
}

func toRequestView(r *models.SwapRequest) RequestView {
	v := RequestView{
		SwapRequest: *r,
		Item:        summarize(&r.Item),
		Requester:   r.Requester.Public(),
		Owner:       r.Owner.Public(),
	}
	if r.OfferedItem != nil {
		offered := summarize(r.OfferedItem)
		v.OfferedItem = &offered
	}
	// Contact details only after the exchange went through.
	if r.Closed() {
		v.Contacts = &ContactPair{Requester: r.Requester.Contact(), Owner: r.Owner.Contact()}
	}
	return v
}

func (s *ExchangeService) loadView(ctx context.Context, id uint) (*RequestView, error) {
	var req models.SwapRequest
	err := s.db.WithContext(ctx).
		Preload("Item.Images").Preload("OfferedItem.Images").
		Preload("Requester").Preload("Owner").
		First(&req, id).Error
	if err != nil {
		return nil, err
	}
	v := toRequestView(&req)
	return &v, nil
}

func lockRequest(tx *gorm.DB, id uint) (*models.SwapRequest, error) {
	var req models.SwapRequest
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&req, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Swap request not found")
		}
		return nil, err
	}
	return &req, nil
}

// Accept completes a pending request. Point transfer, both status changes and
// the counter-offered item all commit together or not at all.
func (s *ExchangeService) Accept(ctx context.Context, actor Actor, requestID uint) (*RequestView, error) {
	var item *models.Item
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := lockRequest(tx, requestID)
		if err != nil {
			return err
		}
		if req.OwnerID != actor.ID {
			return apperr.Forbidden("Only the item owner can accept this request")
		}

		ok, err := setRequestStatus(tx, req.ID, models.SwapPending, models.SwapAccepted)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Conflict("Request already processed")
		}

		if item, err = lockItem(tx, req.ItemID); err != nil {
			return err
		}
		if ok, err = setItemStatus(tx, item.ID, models.ItemApproved, models.ItemSwapped); err != nil {
			return err
		} else if !ok {
			return apperr.Conflict("Item is no longer available")
		}

		involved := []uint{item.ID}
		switch req.OfferType {
		case models.OfferPoints:
			// Balance may have changed since the request was made.
			if err := transferPoints(tx, req.RequesterID, req.OwnerID, req.PointsOffered,
				ActionSwapDebit, ActionSwapCredit, uintPtr(item.ID)); err != nil {
				if errors.Is(err, apperr.ErrValidation) {
					return apperr.Validation("Requester no longer has enough points")
				}
				return err
			}
		case models.OfferItem:
			if req.OfferedItemID == nil {
				return apperr.Internal("Item offer without offered item", nil)
			}
			if ok, err = setItemStatus(tx, *req.OfferedItemID, models.ItemApproved, models.ItemSwapped); err != nil {
				return err
			} else if !ok {
				return apperr.Conflict("Offered item is no longer available")
			}
			involved = append(involved, *req.OfferedItemID)
		}

		if err := closeCompetingRequests(tx, req.ID, actor.ID, involved...); err != nil {
			return err
		}
		return notify(tx, req.RequesterID, uintPtr(actor.ID), item.ID, models.NotificationSwapAccepted,
			fmt.Sprintf("Your swap request for %q was accepted", item.Title))
	})
	s.metrics.RecordExchange("accept", err)
	if err != nil {
		return nil, err
	}

	view, err := s.loadView(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if s.mailer != nil && view.Contacts != nil {
		s.mailer.SendExchangeContacts(item.Title, view.Contacts.Requester, view.Contacts.Owner)
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"item_id":    item.ID,
		"points":     view.PointsOffered,
		"offer_type": view.OfferType,
	}).Info("Swap request accepted")
	return view, nil
}

// Reject declines a pending request without touching balances.
func (s *ExchangeService) Reject(ctx context.Context, actor Actor, requestID uint) (*RequestView, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := lockRequest(tx, requestID)
		if err != nil {
			return err
		}
		if req.OwnerID != actor.ID {
			return apperr.Forbidden("Only the item owner can reject this request")
		}
		ok, err := setRequestStatus(tx, req.ID, models.SwapPending, models.SwapRejected)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Conflict("Request already processed")
		}

		var item models.Item
		if err := tx.Select("id", "title").First(&item, req.ItemID).Error; err != nil {
			return err
		}
		return notify(tx, req.RequesterID, uintPtr(actor.ID), item.ID, models.NotificationSwapRejected,
			fmt.Sprintf("Your swap request for %q was declined", item.Title))
	})
	s.metrics.RecordExchange("reject", err)
	if err != nil {
		return nil, err
	}
	s.log.WithField("request_id", requestID).Info("Swap request rejected")
	return s.loadView(ctx, requestID)
}

// acquire runs the shared part of redemption and claim: guards, the item
// status flip and the completed ledger record.
func (s *ExchangeService) acquire(tx *gorm.DB, actor Actor, itemID uint, listingType, to, offerType string) (*models.Item, *models.SwapRequest, error) {
	item, err := lockItem(tx, itemID)
	if err != nil {
		return nil, nil, err
	}
	if item.UserID == actor.ID {
		if listingType == models.ListingDonation {
			return nil, nil, apperr.Validation("Cannot claim your own item")
		}
		return nil, nil, apperr.Validation("Cannot redeem your own item")
	}
	if item.Status != models.ItemApproved {
		return nil, nil, apperr.Validation("Item is not available")
	}
	if item.ListingType != listingType {
		if listingType == models.ListingDonation {
			return nil, nil, apperr.Validation("Only donation items can be claimed")
		}
		return nil, nil, apperr.Validation("Donation items must be claimed, not redeemed")
	}

	ok, err := setItemStatus(tx, item.ID, models.ItemApproved, to)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, apperr.Conflict("Item is no longer available")
	}
	item.Status = to

	ledger := models.SwapRequest{
		ItemID:        item.ID,
		RequesterID:   actor.ID,
		OwnerID:       item.UserID,
		OfferType:     offerType,
		PointsOffered: item.Points,
		Status:        models.SwapCompleted,
	}
	if err := tx.Omit(clause.Associations).Create(&ledger).Error; err != nil {
		return nil, nil, err
	}
	if err := closeCompetingRequests(tx, ledger.ID, actor.ID, item.ID); err != nil {
		return nil, nil, err
	}
	return item, &ledger, nil
}

// Redeem buys an approved swap listing outright for its point price.
func (s *ExchangeService) Redeem(ctx context.Context, actor Actor, itemID uint) (*RequestView, error) {
	var item *models.Item
	var ledger *models.SwapRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		item, ledger, err = s.acquire(tx, actor, itemID, models.ListingSwap, models.ItemSwapped, models.OfferRedeem)
		if err != nil {
			return err
		}
		if err := transferPoints(tx, actor.ID, item.UserID, item.Points,
			ActionRedeemDebit, ActionRedeemCredit, uintPtr(item.ID)); err != nil {
			return err
		}
		return notify(tx, item.UserID, uintPtr(actor.ID), item.ID, models.NotificationItemRedeemed,
			fmt.Sprintf("Your item %q was redeemed for %d points", item.Title, item.Points))
	})
	s.metrics.RecordExchange("redeem", err)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"item_id": item.ID,
		"user_id": actor.ID,
		"points":  item.Points,
	}).Info("Item redeemed")
	return s.afterAcquire(ctx, ledger.ID, item.Title)
}

// Claim takes an approved donation listing for free.
func (s *ExchangeService) Claim(ctx context.Context, actor Actor, itemID uint) (*RequestView, error) {
	var item *models.Item
	var ledger *models.SwapRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		item, ledger, err = s.acquire(tx, actor, itemID, models.ListingDonation, models.ItemClaimed, models.OfferDonation)
		if err != nil {
			return err
		}
		return notify(tx, item.UserID, uintPtr(actor.ID), item.ID, models.NotificationItemClaimed,
			fmt.Sprintf("Your donation %q was claimed", item.Title))
	})
	s.metrics.RecordExchange("claim", err)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"item_id": item.ID, "user_id": actor.ID}).Info("Donation claimed")
	return s.afterAcquire(ctx, ledger.ID, item.Title)
}

func (s *ExchangeService) afterAcquire(ctx context.Context, ledgerID uint, title string) (*RequestView, error) {
	view, err := s.loadView(ctx, ledgerID)
	if err != nil {
		return nil, err
	}
	if s.mailer != nil && view.Contacts != nil {
		s.mailer.SendExchangeContacts(title, view.Contacts.Requester, view.Contacts.Owner)
	}
	return view, nil
}
