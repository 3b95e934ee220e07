package services

import (
	"rewear/internal/apperr"
	"rewear/internal/models"

	"gorm.io/gorm"
)

// Point log actions.
const (
	ActionWelcomeBonus  = "welcome_bonus"
	ActionApproveBonus  = "item_approved"
	ActionSwapDebit     = "swap_paid"
	ActionSwapCredit    = "swap_received"
	ActionRedeemDebit   = "item_redeemed"
	ActionRedeemCredit  = "item_sold"
)

// ApproveBonus is credited to the owner when an admin approves a swap listing.
const ApproveBonus = 5

const (
	defaultBasePoints = 15
	defaultMultiplier = 1.0
)

var categoryBasePoints = map[string]int{
	"Tops":        10,
	"Bottoms":     15,
	"Dresses":     20,
	"Outerwear":   25,
	"Shoes":       20,
	"Accessories": 10,
	"Bags":        15,
	"Jewelry":     12,
}

var conditionMultiplier = map[string]float64{
	"Like New":  1.5,
	"Excellent": 1.3,
	"Good":      1.0,
	"Fair":      0.7,
}

// Conditions lists the accepted item conditions, best first.
var Conditions = []string{"Like New", "Excellent", "Good", "Fair"}

// ValidCondition reports whether c is one of Conditions.
func ValidCondition(c string) bool {
	_, ok := conditionMultiplier[c]
	return ok
}

// CalculateItemPoints prices a listing. Donations are free; everything else is
// the category base scaled by the condition multiplier, truncated.
func CalculateItemPoints(category, condition, listingType string) int {
	if listingType == models.ListingDonation {
		return 0
	}
	base, ok := categoryBasePoints[category]
	if !ok {
		base = defaultBasePoints
	}
	mult, ok := conditionMultiplier[condition]
	if !ok {
		mult = defaultMultiplier
	}
	return int(float64(base) * mult)
}

// AddPoints credits (or, with a negative amount, unconditionally debits) a
// user inside tx and records the change in the point log.
func AddPoints(tx *gorm.DB, userID uint, amount int, action string, itemID *uint) error {
	entry := models.PointLog{
		UserID: userID,
		Amount: amount,
		Action: action,
		ItemID: itemID,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return err
	}

	return tx.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("points", gorm.Expr("points + ?", amount)).
		Error
}

// debitPoints takes amount from a user only if the balance covers it. The
// check and the write are a single statement so concurrent debits cannot
// overdraw the account.
func debitPoints(tx *gorm.DB, userID uint, amount int, action string, itemID *uint) error {
	if amount <= 0 {
		return nil
	}
	res := tx.Model(&models.User{}).
		Where("id = ? AND points >= ?", userID, amount).
		UpdateColumn("points", gorm.Expr("points - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.Validation("Insufficient points")
	}
	return tx.Create(&models.PointLog{
		UserID: userID,
		Amount: -amount,
		Action: action,
		ItemID: itemID,
	}).Error
}

// transferPoints moves amount from one user to another inside tx.
func transferPoints(tx *gorm.DB, from, to uint, amount int, debitAction, creditAction string, itemID *uint) error {
	if amount <= 0 {
		return nil
	}
	if err := debitPoints(tx, from, amount, debitAction, itemID); err != nil {
		return err
	}
	return AddPoints(tx, to, amount, creditAction, itemID)
}
