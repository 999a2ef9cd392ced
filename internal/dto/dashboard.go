package dto

import (
	"time"

	"github.com/noah-isme/bk-portal-api/internal/models"
)

// AdminDashboardResponse aggregates the back-office landing counters.
// Each counter is fetched independently; nil means it could not be loaded.
type AdminDashboardResponse struct {
	Students    *int      `json:"students"`
	Materials   *int      `json:"materials"`
	Subscribers *int      `json:"subscribers"`
	Accounts    *int      `json:"accounts"`
	GeneratedAt time.Time `json:"generated_at"`
}

// HomeResponse bundles the public landing page content.
type HomeResponse struct {
	Hero     models.HeroSetting `json:"hero"`
	Articles []models.Article   `json:"articles"`
	Info     []models.InfoItem  `json:"info"`
}
