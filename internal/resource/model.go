package resource

import (
	"strings"
	"time"
)

// Category slugs the ranking and prioritization rules depend on.
const (
	SlugCrisis           = "crisis"
	SlugShelters         = "shelters"
	SlugFoodBanks        = "food-banks"
	SlugCommunityFridges = "community-fridges"
	SlugMealPrograms     = "meal-programs"
	SlugHealth           = "health"
	SlugLegal            = "legal"
	SlugYouth            = "youth"
)

// DefaultCategories are seeded at startup so rule slugs always resolve.
var DefaultCategories = []Category{
	{Slug: SlugCrisis, Name: "Crisis Support"},
	{Slug: SlugShelters, Name: "Shelters"},
	{Slug: SlugFoodBanks, Name: "Food Banks"},
	{Slug: SlugCommunityFridges, Name: "Community Fridges"},
	{Slug: SlugMealPrograms, Name: "Meal Programs"},
	{Slug: SlugHealth, Name: "Health"},
	{Slug: SlugLegal, Name: "Legal Aid"},
	{Slug: SlugYouth, Name: "Youth"},
}

type Category struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Slug string `json:"slug" gorm:"uniqueIndex;size:64;not null"`
	Name string `json:"name" gorm:"not null"`
}

type Resource struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Name        string     `json:"name" gorm:"not null;index"`
	Description string     `json:"description"`
	Address     string     `json:"address"`
	Phone       string     `json:"phone"`
	Email       string     `json:"email"`
	Website     string     `json:"website"`
	Hours       string     `json:"hours"` // free text, e.g. "Mon-Fri 9-5" or "24/7"
	Verified    bool       `json:"verified" gorm:"default:false"`
	Latitude    *float64   `json:"latitude,omitempty"`
	Longitude   *float64   `json:"longitude,omitempty"`
	Categories  []Category `json:"categories" gorm:"many2many:resource_categories;"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// InCategory reports explicit membership in the category with the given slug.
func (r *Resource) InCategory(slug string) bool {
	for _, c := range r.Categories {
		if c.Slug == slug {
			return true
		}
	}
	return false
}

// Text returns name and description lowercased for keyword checks.
func (r *Resource) Text() string {
	return strings.ToLower(r.Name + " " + r.Description)
}

// Filter narrows ListResources. Zero values mean no restriction.
type Filter struct {
	CategoryID uint
	Search     string
}
