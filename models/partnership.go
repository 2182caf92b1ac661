package models

import "time"

// Partnership mirrors the couple link owned by the external accounts service.
// Rows are upserted by the partnership sync worker; the engine only reads.
type Partnership struct {
	ID       string     `gorm:"primaryKey" json:"id"` // external partnership ID
	UserAID  string     `gorm:"index;not null" json:"user_a_id"`
	UserBID  string     `gorm:"index;not null" json:"user_b_id"`
	Active   bool       `gorm:"default:true;index" json:"active"`
	LinkedAt time.Time  `json:"linked_at"`
	EndedAt  *time.Time `json:"ended_at,omitempty"`

	Timestamps
}

// PartnerOf returns the other member of the couple, or "" when userID is not
// part of this partnership.
func (p Partnership) PartnerOf(userID string) string {
	switch userID {
	case p.UserAID:
		return p.UserBID
	case p.UserBID:
		return p.UserAID
	}
	return ""
}
