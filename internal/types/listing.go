package types

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionPlan is the paid tier attached to a listing.
type SubscriptionPlan string

const (
	PlanNone         SubscriptionPlan = ""
	PlanFree         SubscriptionPlan = "free"
	PlanStarter      SubscriptionPlan = "starter"
	PlanProfessional SubscriptionPlan = "professional"
	PlanPremium      SubscriptionPlan = "premium"
)

// Tier orders plans for promotion purposes. Unknown plans rank with free.
func (p SubscriptionPlan) Tier() int {
	switch p {
	case PlanStarter:
		return 1
	case PlanProfessional:
		return 2
	case PlanPremium:
		return 3
	default:
		return 0
	}
}

type Location struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	City       string  `json:"city"`
	PostalCode string  `json:"postal_code,omitempty"`
	Address    string  `json:"address,omitempty"`
}

// Point returns the location as a GeoPoint. Coordinates are only attached
// when at least one of them is non-zero.
func (l Location) Point() GeoPoint {
	p := GeoPoint{City: l.City}
	if l.Latitude != 0 || l.Longitude != 0 {
		p.Coordinates = &Coordinates{Latitude: l.Latitude, Longitude: l.Longitude}
	}
	return p
}

// FullAddress joins street, postal code and city for text matching.
func (l Location) FullAddress() string {
	return l.Address + " " + l.PostalCode + " " + l.City
}

type Contact struct {
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Website string `json:"website,omitempty"`
}

type Review struct {
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

// Listing is a single business directory entry.
type Listing struct {
	ID                    uuid.UUID        `json:"id"`
	Title                 string           `json:"title"`
	Description           string           `json:"description"`
	Category              string           `json:"category"`
	SubCategory           string           `json:"sub_category,omitempty"`
	Location              Location         `json:"location"`
	Contact               Contact          `json:"contact"`
	Images                []string         `json:"images,omitempty"`
	IsVerified            bool             `json:"is_verified"`
	IsApproved            bool             `json:"is_approved"`
	HasActiveSubscription bool             `json:"has_active_subscription"`
	SubscriptionPlan      SubscriptionPlan `json:"subscription_plan,omitempty"`
	IsSponsored           bool             `json:"is_sponsored"`
	Reviews               []Review         `json:"reviews,omitempty"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
	ViewCount             int64            `json:"view_count"`
}

// Reachable reports whether the listing exposes at least one contact channel.
func (l Listing) Reachable() bool {
	return l.Contact.Phone != "" || l.Contact.Email != "" || l.Contact.Website != ""
}

// AverageRating returns the mean review rating and false when there are no reviews.
func (l Listing) AverageRating() (float64, bool) {
	if len(l.Reviews) == 0 {
		return 0, false
	}
	sum := 0
	for _, r := range l.Reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(l.Reviews)), true
}

// RankingFactors is the per-query score breakdown of a listing.
type RankingFactors struct {
	SubscriptionBoost float64 `json:"subscription_boost"`
	SponsoredBoost    float64 `json:"sponsored_boost"`
	RelevanceScore    float64 `json:"relevance_score"`
	LocationBoost     float64 `json:"location_boost"`
	QualityScore      float64 `json:"quality_score"`
}

// Total sums every factor.
func (f RankingFactors) Total() float64 {
	return f.SubscriptionBoost + f.SponsoredBoost + f.RelevanceScore + f.LocationBoost + f.QualityScore
}

type RankedListing struct {
	Listing
	RankingScore   float64        `json:"ranking_score"`
	RankingFactors RankingFactors `json:"ranking_factors"`
	IsPromoted     bool           `json:"is_promoted"`
	DistanceKm     *float64       `json:"distance_km,omitempty"`
}
